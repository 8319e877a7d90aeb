// Package stores implements one adapter per bookstore and the registry that
// selects which of them run for a search.
package stores

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/scraper"
)

// Adapter searches one bookstore. It never fails: every outcome, including
// transport and parse errors, is reported in the returned envelope.
type Adapter interface {
	Search(ctx context.Context, keywords string, store models.Bookstore) models.SearchResult
}

// finder does the store-specific fetch and extraction.
type finder interface {
	find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error)
}

// crawler wraps a finder into the envelope contract shared by all stores.
type crawler struct {
	id      string
	finder  finder
	metrics *scraper.Metrics
}

func newCrawler(id string, f finder, metrics *scraper.Metrics) *crawler {
	return &crawler{id: id, finder: f, metrics: metrics}
}

func (c *crawler) Search(ctx context.Context, keywords string, store models.Bookstore) models.SearchResult {
	start := time.Now()
	result := models.SearchResult{
		Bookstore: store,
		Books:     []models.Book{},
	}

	if !store.IsOnline {
		result.Status = models.StatusOffline
		result.ProcessTime = elapsedMillis(start)
		return result
	}

	books, err := c.run(ctx, keywords, store)
	result.ProcessTime = elapsedMillis(start)
	if err != nil {
		category := scraper.ErrorType(err)
		c.metrics.IncError(c.id, category)
		slog.Warn("crawler failed",
			slog.String("store", c.id),
			slog.String("category", category),
			slog.Float64("process_ms", result.ProcessTime),
			slog.Any("error", err),
		)
		result.Status = models.StatusFailed
		result.Error = err.Error()
		return result
	}

	if books != nil {
		result.Books = books
	}
	result.IsOkay = true
	result.Status = models.StatusSuccess
	result.Quantity = len(result.Books)
	c.metrics.AddBooks(c.id, result.Quantity)
	return result
}

func (c *crawler) run(ctx context.Context, keywords string, store models.Bookstore) (books []models.Book, err error) {
	defer func() {
		if r := recover(); r != nil {
			books = nil
			err = scraper.ErrParse{Err: fmt.Errorf("%s: %v", c.id, r)}
		}
	}()
	return c.finder.find(ctx, keywords, store)
}

func elapsedMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
