package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/parser"
	"github.com/aluiziolira/ebook-search/scraper"
)

const likerLandSearchURL = "https://api.like.co/likernft/book/store/search?q=%s"

type likerLand struct {
	fetcher *scraper.Fetcher
}

type likerLandResponse struct {
	List []struct {
		ISCNID      string    `json:"iscnId"`
		ImageURL    string    `json:"imageUrl"`
		Name        string    `json:"name"`
		URL         string    `json:"url"`
		MinPrice    flexFloat `json:"minPrice"`
		Description string    `json:"description"`
		OwnerName   string    `json:"ownerName"`
	} `json:"list"`
}

func (s *likerLand) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")

	resp, err := s.fetcher.Fetch(ctx, scraper.Request{
		Store:  LikerLand,
		URL:    fmt.Sprintf(likerLandSearchURL, url.QueryEscape(keywords)),
		Header: header,
		Proxy:  store.ProxyURL,
	})
	if err != nil {
		return nil, err
	}

	var data likerLandResponse
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return nil, scraper.ErrParse{Err: fmt.Errorf("liker land response: %w", err)}
	}

	base := resp.Request.URL.String()
	books := make([]models.Book, 0, len(data.List))
	for _, item := range data.List {
		book := models.Book{
			ID:            item.ISCNID,
			Title:         parser.CleanText(item.Name),
			Link:          parser.ResolveURL(base, item.URL),
			Thumbnail:     parser.ResolveURL(base, item.ImageURL),
			PriceCurrency: "USD",
			Price:         parser.NoPrice,
			About:         strings.TrimSpace(item.Description),
		}
		if item.MinPrice.value != nil {
			book.Price = *item.MinPrice.value
		}
		if owner := strings.TrimSpace(item.OwnerName); owner != "" {
			book.Authors = []string{owner}
		}
		books = append(books, book)
	}
	return books, nil
}
