package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/parser"
	"github.com/aluiziolira/ebook-search/scraper"
)

const koboSearchURL = "https://www.kobo.com/tw/zh/search?fcmedia=Book&Query=%s"

type kobo struct {
	fetcher *scraper.Fetcher
}

// koboItem is the JSON blob embedded in every result item.
type koboItem struct {
	Data *struct {
		Name                string     `json:"name"`
		AlternativeHeadline string     `json:"alternativeHeadline"`
		ISBN                flexString `json:"isbn"`
		ThumbnailURL        string     `json:"thumbnailUrl"`
		URL                 string     `json:"url"`
		Description         string     `json:"description"`
	} `json:"data"`
}

type koboTrackInfo struct {
	Author string `json:"author"`
}

func (s *kobo) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store: Kobo,
		URL:   fmt.Sprintf(koboSearchURL, url.QueryEscape(keywords)),
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
	var books []models.Book
	var parseErr error
	doc.Find("ul[class=result-items] li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		detail := li.ChildrenFiltered(".item-detail")
		blob := strings.TrimSpace(detail.ChildrenFiltered("script").First().Text())
		if blob == "" {
			return true
		}

		var item koboItem
		if err := json.Unmarshal([]byte(blob), &item); err != nil {
			parseErr = scraper.ErrParse{Err: fmt.Errorf("kobo item data: %w", err)}
			return false
		}
		if item.Data == nil {
			return true
		}
		info := item.Data

		itemInfo := descend(detail, all(".item-info"))
		priceField := itemInfo.ChildrenFiltered(".price")
		book := models.Book{
			ID:            info.ISBN.String(),
			Title:         parser.ComposeTitle(info.Name, info.AlternativeHeadline, " - "),
			Link:          parser.ResolveURL(base, info.URL),
			Thumbnail:     parser.ResolveURL(base, info.ThumbnailURL),
			PriceCurrency: strings.TrimSpace(descend(priceField, all("span"), all(".currency")).Text()),
			Price: parser.ParseStorePrice(
				descend(priceField, all("span"), all("span")).First().Text(),
				priceField.HasClass("free"),
			),
			Authors: koboAuthors(itemInfo),
		}
		if desc := strings.TrimSpace(info.Description); desc != "" {
			book.About = desc + " ..."
		}
		books = append(books, book)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return books, nil
}

func koboAuthors(info *goquery.Selection) []string {
	raw, ok := descend(info,
		all(".contributors"),
		all(".synopsis-contributors"),
		all(".synopsis-text"),
		all(".contributor-name"),
	).First().Attr("data-track-info")
	if !ok {
		return nil
	}
	var track koboTrackInfo
	if err := json.Unmarshal([]byte(raw), &track); err != nil {
		return nil
	}
	return parser.SplitNames(track.Author)
}
