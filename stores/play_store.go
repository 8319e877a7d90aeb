package stores

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/parser"
	"github.com/aluiziolira/ebook-search/scraper"
)

const (
	playStoreSearchURL    = "https://play.google.com/store/search?q=%s&c=books&authuser=0&gl=tw&hl=zh-tw"
	playStoreThumbnailURL = "https://play.google.com/books/content/images/frontcover/%s?fife=w320-h460"
)

type playStore struct {
	fetcher *scraper.Fetcher
}

// The result page has no stable class names, so items are located by
// their position in the document tree.
var (
	playStoreListPath = []hop{
		at("div", 3), all("c-wiz"), all("div"), at("div", 1), all("div"),
		all("c-wiz"), all("c-wiz"), all("c-wiz"), all("div"), at("div", 1), all("div"),
	}
	playStoreBookPath = []hop{all("c-wiz"), all("div"), all("div"), at("div", 1), all("div"), all("div")}
	playStoreInfoPath = []hop{at("div", 0), all("div"), all("div")}
	playStorePrices   = []hop{at("div", 1), all("div"), all("div"), all("div"), all("button"), all("div"), all("span")}
)

func (s *playStore) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store: PlayStore,
		URL:   fmt.Sprintf(playStoreSearchURL, url.QueryEscape(keywords)),
		Proxy: store.ProxyURL,
	})
	if err != nil {
		return nil, err
	}
	doc, err := scraper.Document(resp)
	if err != nil {
		return nil, err
	}

	base := resp.Request.URL.String()
	list := descend(doc.Find("body > div").Eq(0), playStoreListPath...)

	var books []models.Book
	list.Each(func(_ int, item *goquery.Selection) {
		bookElem := descend(item, playStoreBookPath...)
		info := descend(bookElem, playStoreInfoPath...)
		anchor := descend(info, at("div", 0), all("a"))

		link, id := playStoreLink(base, anchor.AttrOr("href", ""))
		book := models.Book{
			ID:            id,
			Title:         parser.CleanText(descend(anchor, all("div")).AttrOr("title", "")),
			Link:          link,
			PriceCurrency: "TWD",
			Price:         playStorePrice(descend(bookElem, playStorePrices...)),
			About:         parser.CleanText(descend(info, at("div", 2), all("a")).Text()),
			Authors:       parser.SplitNames(descend(info, at("div", 1), all("a"), all("div")).Text()),
		}
		if id != "" {
			book.Thumbnail = fmt.Sprintf(playStoreThumbnailURL, url.PathEscape(id))
		}
		books = append(books, book)
	})
	return books, nil
}

// playStoreLink resolves href and pins the storefront locale. It also
// returns the book id carried in the query.
func playStoreLink(base, href string) (string, string) {
	resolved := parser.ResolveURL(base, href)
	if resolved == "" {
		return "", ""
	}
	u, err := url.Parse(resolved)
	if err != nil {
		return resolved, ""
	}
	q := u.Query()
	id := q.Get("id")
	q.Set("gl", "tw")
	q.Set("hl", "zh-tw")
	u.RawQuery = q.Encode()
	return u.String(), id
}

// playStorePrice picks the lowest offer among the buy buttons.
func playStorePrice(spans *goquery.Selection) float64 {
	price := parser.NoPrice
	spans.Each(func(_ int, span *goquery.Selection) {
		text := strings.TrimSpace(span.ChildrenFiltered("span").Text())
		if text == "" {
			return
		}
		v := parser.ParseStorePrice(text, false)
		if v < 0 {
			return
		}
		if price < 0 || v < price {
			price = v
		}
	})
	return price
}
