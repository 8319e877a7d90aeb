package stores

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/parser"
	"github.com/aluiziolira/ebook-search/scraper"
	"github.com/gocolly/colly/v2"
)

const (
	booksCompanySearchURL  = "http://search.books.com.tw/search/query/key/%s/cat/EBA"
	booksCompanyProductURL = "http://www.books.com.tw/products/"
)

type booksCompany struct {
	fetcher *scraper.Fetcher
}

func (s *booksCompany) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store: BooksCompany,
		URL:   fmt.Sprintf(booksCompanySearchURL, url.PathEscape(keywords)),
		Proxy: store.ProxyURL,
	})
	if err != nil {
		return nil, err
	}

	var books []models.Book
	err = scraper.ForEach(resp, "#searchlist ul li", func(_ int, e *colly.HTMLElement) {
		var authors []string
		for _, title := range e.ChildAttrs("a[rel=go_author]", "title") {
			authors = append(authors, parser.SplitNames(title)...)
		}

		id := strings.TrimSpace(e.ChildAttr(".input_buy input", "value"))
		link := absolute(e, e.ChildAttr("h3 a", "href"))
		if id != "" {
			link = booksCompanyProductURL + id
		}

		about := strings.ReplaceAll(e.ChildText("p"), "...... more", " ...")

		books = append(books, models.Book{
			ID:            id,
			Title:         parser.CleanText(e.ChildAttr("h3 a", "title")),
			Link:          link,
			Thumbnail:     absolute(e, e.ChildAttr("a img", "data-original")),
			PriceCurrency: "TWD",
			Price:         parser.ParsePrice(e.DOM.Find(".price strong").Last().Find("b").Text()),
			About:         parser.CleanText(about),
			Publisher:     parser.CleanText(e.ChildAttr("a[rel=mid_publish]", "title")),
			Authors:       authors,
		})
	})
	return books, err
}
