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

const pubuSearchURL = "https://www.pubu.com.tw/search?sort=0&orderBy=&haveBOOK=true&haveMAGAZINE=false&haveMEDIA=false&q=%s"

type pubu struct {
	fetcher *scraper.Fetcher
}

func (s *pubu) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store: Pubu,
		URL:   fmt.Sprintf(pubuSearchURL, url.QueryEscape(keywords)),
		Proxy: store.ProxyURL,
	})
	if err != nil {
		return nil, err
	}

	var books []models.Book
	err = scraper.ForEach(resp, "#search-list-content > div > article", func(_ int, e *colly.HTMLElement) {
		cover := e.DOM.Find(".cover").ChildrenFiltered("a")
		img := cover.ChildrenFiltered("img")
		id := strings.TrimSpace(cover.AttrOr("data-ecga", ""))

		var people parser.Contributors
		for _, entry := range parser.SplitNames(e.DOM.Find(".info-others").ChildrenFiltered("a.author").Text()) {
			people.AddTagged(entry)
		}

		// A second price is the DRM-free download edition.
		prices := e.DOM.Find(".info-price").ChildrenFiltered("div")

		book := models.Book{
			ID:            id,
			Title:         parser.CleanText(img.AttrOr("title", "")),
			Thumbnail:     absolute(e, img.AttrOr("data-src", "")),
			PriceCurrency: "TWD",
			Price:         parser.ParsePrice(prices.Eq(0).ChildrenFiltered("span").Text()),
			Publisher:     parser.CleanText(e.DOM.Find(".info-others").ChildrenFiltered("a:not(.author)").Text()),
			Authors:       people.Authors,
			Translators:   people.Translators,
			Painters:      people.Painters,
		}
		if id != "" {
			book.Link = absolute(e, "ebook/"+url.PathEscape(id))
		}
		if prices.Length() > 1 {
			book.NonDrmPrice = parser.Float(parser.ParsePrice(prices.Eq(1).ChildrenFiltered("span").Text()))
		}
		books = append(books, book)
	})
	return books, err
}
