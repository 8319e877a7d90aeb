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

const kindleSearchURL = "https://www.amazon.com/s?k=%s&i=digital-text"

type kindle struct {
	fetcher *scraper.Fetcher
}

func (s *kindle) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store: Kindle,
		URL:   fmt.Sprintf(kindleSearchURL, url.QueryEscape(keywords)),
		Proxy: store.ProxyURL,
	})
	if err != nil {
		return nil, err
	}
	doc, err := scraper.Document(resp)
	if err != nil {
		return nil, err
	}

	// Without the ebook refinement the page lists every department, so
	// nothing on it is a Kindle match.
	refinement := doc.Find("#s-refinements").ChildrenFiltered("div").First()
	if refinement.Length() == 0 || refinement.Children().Length() == 0 {
		return nil, nil
	}

	base := resp.Request.URL.String()
	var books []models.Book
	doc.Find(".s-main-slot").ChildrenFiltered(".s-result-item").Each(func(_ int, item *goquery.Selection) {
		id := strings.TrimSpace(item.AttrOr("data-asin", ""))
		if id == "" {
			return
		}
		h2 := item.Find("h2")
		books = append(books, models.Book{
			ID:            id,
			Title:         parser.CleanText(h2.Text()),
			Link:          parser.ResolveURL(base, h2.Find("a").AttrOr("href", "")),
			Thumbnail:     parser.ResolveURL(base, item.Find("img").AttrOr("src", "")),
			PriceCurrency: "USD",
			Price:         parser.ParsePrice(item.Find(".a-price .a-offscreen").First().Text()),
		})
	})
	return books, nil
}
