package stores

import (
	"net/http"
	"testing"

	"github.com/aluiziolira/ebook-search/config"
	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/scraper"
	"github.com/jarcoal/httpmock"
)

func newTestFetcher() (*scraper.Fetcher, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	f := scraper.NewFetcher(config.DefaultConfig(), scraper.NewMetrics())
	f.WithTransport(transport)
	return f, transport
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(http.StatusOK, body)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return httpmock.ResponderFromResponse(resp)
}

func jsonResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(http.StatusOK, body)
	resp.Header.Set("Content-Type", "application/json")
	return httpmock.ResponderFromResponse(resp)
}

func onlineStore(id string) models.Bookstore {
	return models.Bookstore{ID: id, DisplayName: id, IsOnline: true}
}

func requireOkay(t *testing.T, result models.SearchResult, quantity int) {
	t.Helper()
	if !result.IsOkay {
		t.Fatalf("result not okay: status=%q error=%q", result.Status, result.Error)
	}
	if result.Status != models.StatusSuccess {
		t.Fatalf("status=%q, want %q", result.Status, models.StatusSuccess)
	}
	if result.Quantity != quantity || len(result.Books) != quantity {
		t.Fatalf("quantity=%d books=%d, want %d", result.Quantity, len(result.Books), quantity)
	}
}

func requireFailed(t *testing.T, result models.SearchResult) {
	t.Helper()
	if result.IsOkay {
		t.Fatal("result okay, want failure")
	}
	if result.Status != models.StatusFailed {
		t.Fatalf("status=%q, want %q", result.Status, models.StatusFailed)
	}
	if result.Error == "" {
		t.Fatal("missing error message")
	}
	if result.Books == nil || len(result.Books) != 0 || result.Quantity != 0 {
		t.Fatalf("books=%v quantity=%d, want empty", result.Books, result.Quantity)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
