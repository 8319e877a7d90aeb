package stores

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/parser"
	"github.com/aluiziolira/ebook-search/scraper"
)

const bookWalkerSearchURL = "https://www.bookwalker.com.tw/search?w=%s&m=0&detail=1"

type bookWalker struct {
	fetcher *scraper.Fetcher
}

func (s *bookWalker) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store: BookWalker,
		URL:   fmt.Sprintf(bookWalkerSearchURL, url.QueryEscape(keywords)),
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
	// Results are grouped by category; only titled boxes hold books.
	doc.Find(".listbox").Each(func(_ int, box *goquery.Selection) {
		if box.ChildrenFiltered(".listbox_title").Length() == 0 {
			return
		}
		box.ChildrenFiltered(".bookdesc").Each(func(_ int, desc *goquery.Selection) {
			books = append(books, bookWalkerBook(desc, base))
		})
	})
	return books, nil
}

func bookWalkerBook(desc *goquery.Selection, base string) models.Book {
	data := desc.ChildrenFiltered(".bookdata")
	writer := descend(data, all(".bw_item"), all(".writerinfo"))
	info := descend(data, all(".topic_content"), all(".bookinfo"))
	href := descend(data, all("h2"), all("a")).AttrOr("href", "")

	var people parser.Contributors
	descend(writer, all(".writer_data"), all("li")).Each(func(_ int, li *goquery.Selection) {
		people.AddTagged(li.Text())
	})

	return models.Book{
		ID: idAfter(href, "/product/"),
		Title: parser.ComposeTitle(
			descend(data, all("h2"), all("a")).Text(),
			descend(data, all("h3"), all("a")).Text(),
			" / ",
		),
		Link:          parser.ResolveURL(base, href),
		Thumbnail:     parser.ResolveURL(base, descend(desc, all(".bookcover"), all(".bookitem"), all("a"), all("img")).AttrOr("data-src", "")),
		PriceCurrency: "TWD",
		Price:         parser.ParsePrice(descend(writer, all("h4"), all("span")).Text()),
		About: parser.CleanText(
			descend(info, all("h4")).Text() + descend(info, all("h5"), all("span")).Text(),
		),
		Authors:     people.Authors,
		Translators: people.Translators,
		Painters:    people.Painters,
	}
}
