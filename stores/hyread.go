package stores

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/parser"
	"github.com/aluiziolira/ebook-search/scraper"
	"github.com/gocolly/colly/v2"
)

const hyreadSearchURL = "https://ebook.hyread.com.tw/searchList.jsp?search_field=FullText&MZAD=0&search_input=%s"

type hyread struct {
	fetcher *scraper.Fetcher
}

func (s *hyread) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	// The site serves a bot check page unless this cookie is present.
	header := http.Header{}
	header.Set("Cookie", "notBot=1")

	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store:  Hyread,
		URL:    fmt.Sprintf(hyreadSearchURL, url.QueryEscape(keywords)),
		Header: header,
		Proxy:  store.ProxyURL,
	})
	if err != nil {
		return nil, err
	}

	var books []models.Book
	err = scraper.ForEach(resp, ".book-wrap", func(_ int, e *colly.HTMLElement) {
		title := e.DOM.ChildrenFiltered(".book-title-01").ChildrenFiltered("a")
		href := title.AttrOr("href", "")

		id := queryParam(href, "id")
		if id == "" {
			id = strings.TrimPrefix(href, "bookDetail.jsp?id=")
		}

		cover := descend(e.DOM, all(".book-cover"), all(".book-overlay"), all(".book-link"), all(".coverBox"), all(".bookPic"))
		books = append(books, models.Book{
			ID:            id,
			Title:         parser.CleanText(title.Text()),
			Link:          absolute(e, href),
			Thumbnail:     absolute(e, cover.AttrOr("src", "")),
			PriceCurrency: "TWD",
			Price:         parser.ParsePrice(descend(e.DOM, all(".book-money"), all(".book-price")).Text()),
		})
	})
	return books, err
}
