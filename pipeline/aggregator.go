// Package pipeline runs searches across bookstores and moves their books to
// the configured outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/notify"
	"github.com/aluiziolira/ebook-search/scraper"
	"github.com/aluiziolira/ebook-search/stores"
	"github.com/google/uuid"
)

var (
	// ErrNoBookstores is returned when no online bookstore can serve a search.
	ErrNoBookstores = errors.New("pipeline: no bookstore available")
	// ErrEmptyKeywords is returned for a blank query.
	ErrEmptyKeywords = errors.New("pipeline: keywords are required")
)

// Recorder persists the summary of a finished search.
type Recorder interface {
	Save(ctx context.Context, record *models.SearchRecord) error
}

// Query is one search request.
type Query struct {
	Keywords   string
	Bookstores []string
	UserAgent  *models.UserAgent
}

// Aggregator fans a query out to the selected bookstores and joins every
// envelope before answering.
type Aggregator struct {
	registry *stores.Registry
	recorder Recorder
	notifier notify.Notifier
	metrics  *scraper.Metrics

	// side effects outlive the request that triggered them
	wg sync.WaitGroup
}

// NewAggregator wires the registry with optional recorder and notifier. Nil
// collaborators are skipped.
func NewAggregator(registry *stores.Registry, recorder Recorder, notifier notify.Notifier, metrics *scraper.Metrics) *Aggregator {
	return &Aggregator{
		registry: registry,
		recorder: recorder,
		notifier: notifier,
		metrics:  metrics,
	}
}

// Search runs the query against every selected store. Store failures are
// reported inside their envelopes; only a defect in the aggregation itself
// returns an error.
func (a *Aggregator) Search(ctx context.Context, q Query) (resp *models.AggregateResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			failure := fmt.Errorf("aggregate search %q: %v", q.Keywords, r)
			slog.Error("search failed", slog.String("keywords", q.Keywords), slog.Any("error", failure))
			a.background(ctx, "failure notification", func(ctx context.Context) error {
				return a.notify(ctx, notify.Failure(q.Keywords, failure))
			})
			resp, err = nil, failure
		}
	}()

	if q.Keywords == "" {
		return nil, ErrEmptyKeywords
	}
	selected := a.registry.Select(q.Bookstores)
	if len(selected) == 0 {
		return nil, ErrNoBookstores
	}

	started := time.Now()
	results := a.fanOut(ctx, q.Keywords, selected)
	elapsed := time.Since(started)

	search := &models.Search{
		ID:             uuid.NewString(),
		Keywords:       q.Keywords,
		SearchDateTime: started.UTC(),
		ProcessTime:    float64(elapsed) / float64(time.Millisecond),
		UserAgent:      q.UserAgent,
		Results:        results,
	}
	books := make(map[string][]models.Book, len(results))
	for _, result := range results {
		search.TotalQuantity += result.Quantity
		books[result.Bookstore.ID] = result.Books
	}

	a.metrics.ObserveSearch(elapsed)
	slog.Info("search finished",
		slog.String("id", search.ID),
		slog.String("keywords", search.Keywords),
		slog.Int("stores", len(results)),
		slog.Int("total", search.TotalQuantity),
		slog.Duration("elapsed", elapsed),
	)

	record := search.Record()
	a.background(ctx, "save search", func(ctx context.Context) error {
		if a.recorder == nil {
			return nil
		}
		return a.recorder.Save(ctx, record)
	})
	a.background(ctx, "search notification", func(ctx context.Context) error {
		return a.notify(ctx, notify.Report(record))
	})

	return &models.AggregateResponse{Books: books, Search: search}, nil
}

// fanOut starts every adapter at once and waits for all of them. Results
// are stored by the position of their store in the selection.
func (a *Aggregator) fanOut(ctx context.Context, keywords string, selected []models.Bookstore) []models.SearchResult {
	results := make([]models.SearchResult, len(selected))

	var wg sync.WaitGroup
	for i, store := range selected {
		adapter, ok := a.registry.Adapter(store.ID)
		if !ok {
			results[i] = models.SearchResult{
				Bookstore: store,
				Status:    models.StatusFailed,
				Books:     []models.Book{},
				Error:     fmt.Sprintf("no adapter for %s", store.ID),
			}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.runAdapter(ctx, adapter, keywords, store)
		}()
	}
	wg.Wait()
	return results
}

// runAdapter keeps a misbehaving adapter from taking the process down.
func (a *Aggregator) runAdapter(ctx context.Context, adapter stores.Adapter, keywords string, store models.Bookstore) (result models.SearchResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("adapter panicked", slog.String("store", store.ID), slog.Any("panic", r))
			result = models.SearchResult{
				Bookstore: store,
				Status:    models.StatusFailed,
				Books:     []models.Book{},
				Error:     fmt.Sprint(r),
			}
		}
	}()
	result = adapter.Search(ctx, keywords, store)
	if result.Books == nil {
		result.Books = []models.Book{}
	}
	return result
}

func (a *Aggregator) notify(ctx context.Context, text string) error {
	if a.notifier == nil {
		return nil
	}
	return a.notifier.Send(ctx, text)
}

// background runs a best-effort side effect detached from the caller's
// cancellation. Errors are logged and dropped.
func (a *Aggregator) background(ctx context.Context, name string, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error(name+" panicked", slog.Any("panic", r))
			}
		}()
		if err := fn(ctx); err != nil {
			slog.Error(name+" failed", slog.Any("error", err))
		}
	}()
}

// Wait blocks until every pending side effect has finished.
func (a *Aggregator) Wait() {
	a.wg.Wait()
}

// Registry exposes the bookstores the aggregator searches.
func (a *Aggregator) Registry() *stores.Registry {
	return a.registry
}
