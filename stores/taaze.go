package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/parser"
	"github.com/aluiziolira/ebook-search/scraper"
	"golang.org/x/sync/errgroup"
)

const (
	taazeSearchURL    = "https://www.taaze.tw/rwd_searchResult.html?keyType%%5B%%5D=1&prodKind=4&catFocus=14&keyword%%5B%%5D=%s"
	taazeInfoURL      = "https://www.taaze.tw/new_ec/rwd/lib/searchbookAgent.jsp?prodId=%s"
	taazeThumbnailURL = "http://media.taaze.tw/showLargeImage.html?sc=%s"
	taazeGoodsURL     = "https://www.taaze.tw/goods/%s.html"
)

var errTaazeNoInfo = errors.New("taaze returned no book info")

type taaze struct {
	fetcher *scraper.Fetcher
}

type taazeInfo struct {
	BookTitle   string     `json:"booktitle"`
	BookProfile string     `json:"bookprofile"`
	Publisher   string     `json:"publisher"`
	PublishDate string     `json:"publishDate"`
	SalePrice   flexString `json:"saleprice"`
	Authors     string     `json:"authors"`
	Translator  string     `json:"translator"`
}

func (s *taaze) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store: Taaze,
		URL:   fmt.Sprintf(taazeSearchURL, url.QueryEscape(keywords)),
		Proxy: store.ProxyURL,
	})
	if err != nil {
		return nil, err
	}
	doc, err := scraper.Document(resp)
	if err != nil {
		return nil, err
	}

	var ids []string
	descend(doc.Find("#listView"), all(".media")).Each(func(_ int, item *goquery.Selection) {
		if id := strings.TrimSpace(item.AttrOr("rel", "")); id != "" {
			ids = append(ids, id)
		}
	})
	if len(ids) == 0 {
		return nil, nil
	}

	// All lookups run at once and every one must succeed. Results land by
	// index so the search page order is preserved.
	books := make([]models.Book, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			info, err := s.info(gctx, id, store)
			if err != nil {
				return fmt.Errorf("book %s: %w", id, err)
			}
			books[i] = info.book(id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return books, nil
}

func (s *taaze) info(ctx context.Context, id string, store models.Bookstore) (*taazeInfo, error) {
	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store: Taaze,
		URL:   fmt.Sprintf(taazeInfoURL, url.QueryEscape(id)),
		Proxy: store.ProxyURL,
	})
	if err != nil {
		return nil, err
	}

	var infos []taazeInfo
	if err := json.Unmarshal(resp.Body, &infos); err != nil {
		return nil, scraper.ErrParse{Err: err}
	}
	if len(infos) == 0 {
		return nil, scraper.ErrParse{Err: errTaazeNoInfo}
	}
	return &infos[0], nil
}

func (info *taazeInfo) book(id string) models.Book {
	book := models.Book{
		ID:            id,
		Title:         parser.CleanText(info.BookTitle),
		Link:          fmt.Sprintf(taazeGoodsURL, id),
		Thumbnail:     fmt.Sprintf(taazeThumbnailURL, id),
		PriceCurrency: "TWD",
		Price:         parser.ParsePrice(info.SalePrice.String()),
		About:         strings.TrimSpace(strings.ReplaceAll(info.BookProfile, "\r", "")),
		Publisher:     parser.CleanText(info.Publisher),
		PublishDate:   strings.TrimSpace(info.PublishDate),
		Authors:       parser.SplitNames(info.Authors),
		Translators:   parser.SplitNames(info.Translator),
	}
	if book.Title == "" {
		book.Title = id
	}
	return book
}
