package stores

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/scraper"
	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type finderFunc func(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error)

func (f finderFunc) find(ctx context.Context, keywords string, store models.Bookstore) ([]models.Book, error) {
	return f(ctx, keywords, store)
}

func TestCrawlerOfflineStoreMakesNoRequests(t *testing.T) {
	f, transport := newTestFetcher()
	transport.RegisterRegexpResponder("GET", regexp.MustCompile(`.*`), htmlResponder("<html></html>"))

	store := models.Bookstore{ID: BooksCompany, DisplayName: "博客來", IsOnline: false}
	result := newCrawler(BooksCompany, &booksCompany{fetcher: f}, f.Metrics).Search(context.Background(), "哈利波特", store)

	if result.IsOkay {
		t.Fatal("offline store reported okay")
	}
	if result.Status != models.StatusOffline {
		t.Fatalf("status=%q, want %q", result.Status, models.StatusOffline)
	}
	if result.Books == nil || len(result.Books) != 0 || result.Quantity != 0 {
		t.Fatalf("books=%v quantity=%d, want empty", result.Books, result.Quantity)
	}
	if result.Error != "" {
		t.Fatalf("error=%q, want none", result.Error)
	}
	if got := transport.GetTotalCallCount(); got != 0 {
		t.Fatalf("calls=%d, want 0", got)
	}
}

func TestCrawlerFailureEnvelope(t *testing.T) {
	c := newCrawler("fake", finderFunc(func(context.Context, string, models.Bookstore) ([]models.Book, error) {
		return []models.Book{{Title: "partial", Link: "http://x"}}, errors.New("boom")
	}), scraper.NewMetrics())

	result := c.Search(context.Background(), "go", onlineStore("fake"))
	requireFailed(t, result)
	if result.Error != "boom" {
		t.Fatalf("error=%q, want boom", result.Error)
	}
	if result.ProcessTime < 0 {
		t.Fatalf("process time=%f", result.ProcessTime)
	}
}

func TestCrawlerRecoversFromPanics(t *testing.T) {
	c := newCrawler("fake", finderFunc(func(context.Context, string, models.Bookstore) ([]models.Book, error) {
		var s []string
		_ = s[3]
		return nil, nil
	}), nil)

	result := c.Search(context.Background(), "go", onlineStore("fake"))
	requireFailed(t, result)
}

func TestCrawlerEmptyResultIsSuccess(t *testing.T) {
	c := newCrawler("fake", finderFunc(func(context.Context, string, models.Bookstore) ([]models.Book, error) {
		return nil, nil
	}), nil)

	result := c.Search(context.Background(), "zzzzqqqq", onlineStore("fake"))
	requireOkay(t, result, 0)
	if result.Books == nil {
		t.Fatal("books is nil, want empty slice")
	}
}

func TestCrawlerTimeoutEnvelope(t *testing.T) {
	f, transport := newTestFetcher()
	transport.RegisterRegexpResponder("GET", regexp.MustCompile(`^http://search\.books\.com\.tw/`),
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := newCrawler(BooksCompany, &booksCompany{fetcher: f}, f.Metrics).Search(ctx, "哈利波特", onlineStore(BooksCompany))
	requireFailed(t, result)
	if time.Since(start) > 5*time.Second {
		t.Fatal("search did not honor the deadline")
	}
}

func TestCrawlerStatusErrorEnvelope(t *testing.T) {
	f, transport := newTestFetcher()
	transport.RegisterResponder("GET", "https://www.kobo.com/tw/zh/search",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "down"))

	result := newCrawler(Kobo, &kobo{fetcher: f}, f.Metrics).Search(context.Background(), "go", onlineStore(Kobo))
	requireFailed(t, result)
	if got := testutil.ToFloat64(f.Metrics.ErrorsTotal.WithLabelValues(Kobo, "status")); got != 1 {
		t.Fatalf("status errors metric=%v, want 1", got)
	}
	if got := testutil.ToFloat64(f.Metrics.RequestsTotal.WithLabelValues(Kobo, "failed")); got != 1 {
		t.Fatalf("failed requests metric=%v, want 1", got)
	}
}

func TestCrawlerCountsRecoveredPanicsAsParseErrors(t *testing.T) {
	metrics := scraper.NewMetrics()
	c := newCrawler("fake", finderFunc(func(context.Context, string, models.Bookstore) ([]models.Book, error) {
		panic("selector exploded")
	}), metrics)

	requireFailed(t, c.Search(context.Background(), "go", onlineStore("fake")))
	if got := testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("fake", "parse")); got != 1 {
		t.Fatalf("parse errors metric=%v, want 1", got)
	}
}
