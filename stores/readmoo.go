package stores

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/parser"
	"github.com/aluiziolira/ebook-search/scraper"
	"github.com/gocolly/colly/v2"
)

const (
	readmooSearchURL = "https://readmoo.com/search/keyword?pi=0&st=true&q=%[1]s&kw=%[1]s"
	readmooBookURL   = "https://readmoo.com/book/"
	readmooAPURL     = "https://readmoo.com/ap/target/%s?url=%s"
	readmooHome      = "https://readmoo.com"
)

type readmoo struct {
	fetcher *scraper.Fetcher
	apID    string
}

func (s *readmoo) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store: Readmoo,
		URL:   fmt.Sprintf(readmooSearchURL, url.QueryEscape(keywords)),
		Proxy: store.ProxyURL,
	})
	if err != nil {
		return nil, err
	}

	var books []models.Book
	err = scraper.ForEach(resp, "#main_items li", func(_ int, e *colly.HTMLElement) {
		id := strings.TrimSpace(e.ChildAttr(".caption .price-info meta[itemprop=identifier]", "content"))

		var authors []string
		for _, name := range e.ChildTexts(".caption .contributor-info a") {
			authors = append(authors, parser.SplitNames(name)...)
		}

		publishDate := strings.ReplaceAll(e.ChildText(".caption .publish-date span"), "出版日期：", "")

		books = append(books, models.Book{
			ID:            id,
			Title:         parser.CleanText(e.ChildText(".caption h4 a")),
			Link:          s.link(e, id),
			Thumbnail:     absolute(e, e.ChildAttr(".thumbnail a img", "data-lazy-original")),
			PriceCurrency: e.ChildAttr(".caption .price-info meta[itemprop=priceCurrency]", "content"),
			Price:         parser.ParsePrice(e.ChildText(".caption .price-info .our-price strong")),
			About:         parser.CleanText(e.ChildText(".caption .description")),
			Publisher:     parser.StripSpaces(e.ChildText(".caption .publisher-info a")),
			PublishDate:   parser.StripSpaces(publishDate),
			Authors:       authors,
		})
	})
	return books, err
}

// link points at the affiliate redirect when an affiliate id is configured.
func (s *readmoo) link(e *colly.HTMLElement, id string) string {
	if s.apID != "" && id != "" {
		code := base64.RawStdEncoding.EncodeToString([]byte(readmooBookURL + id))
		return fmt.Sprintf(readmooAPURL, url.PathEscape(s.apID), url.QueryEscape(code))
	}
	if link := absolute(e, e.ChildAttr(".caption h4 a", "href")); link != "" {
		return link
	}
	return readmooHome
}
