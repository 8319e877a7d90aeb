package stores

import (
	"context"
	"testing"

	"github.com/aluiziolira/ebook-search/config"
	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/scraper"
)

type stubAdapter struct{}

func (stubAdapter) Search(_ context.Context, _ string, store models.Bookstore) models.SearchResult {
	return models.SearchResult{Bookstore: store, IsOkay: true, Status: models.StatusSuccess, Books: []models.Book{}}
}

func storeIDs(stores []models.Bookstore) []string {
	out := make([]string, 0, len(stores))
	for _, s := range stores {
		out = append(out, s.ID)
	}
	return out
}

func TestNewRegistryCoversDefaultBookstores(t *testing.T) {
	cfg := config.DefaultConfig()
	r := NewRegistry(cfg, scraper.NewFetcher(cfg, nil))

	if got := len(r.Bookstores()); got != len(cfg.Bookstores) {
		t.Fatalf("bookstores=%d, want %d", got, len(cfg.Bookstores))
	}
	for _, store := range cfg.Bookstores {
		if _, ok := r.Adapter(store.ID); !ok {
			t.Fatalf("no adapter for %s", store.ID)
		}
	}
	for _, store := range r.Available() {
		if !store.IsOnline {
			t.Fatalf("offline store %s listed as available", store.ID)
		}
	}
}

func TestNewRegistrySkipsUnknownBookstores(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Bookstores = []models.Bookstore{
		{ID: Kobo, DisplayName: "Kobo", IsOnline: true},
		{ID: "nowhere", DisplayName: "Nowhere", IsOnline: true},
	}
	r := NewRegistry(cfg, scraper.NewFetcher(cfg, nil))

	if got := storeIDs(r.Bookstores()); !equalStrings(got, []string{Kobo}) {
		t.Fatalf("bookstores=%v", got)
	}
	if _, ok := r.Bookstore("nowhere"); ok {
		t.Fatal("unknown bookstore registered")
	}
}

func TestRegistrySelect(t *testing.T) {
	r := &Registry{}
	r.Register(models.Bookstore{ID: "a", IsOnline: true}, stubAdapter{})
	r.Register(models.Bookstore{ID: "b", IsOnline: true}, stubAdapter{})
	r.Register(models.Bookstore{ID: "c", IsOnline: false}, stubAdapter{})

	tests := []struct {
		name     string
		ids      []string
		expected []string
	}{
		{name: "subset keeps registry order", ids: []string{"b", "a"}, expected: []string{"a", "b"}},
		{name: "unknown ids dropped", ids: []string{"b", "zzz"}, expected: []string{"b"}},
		{name: "offline ids dropped", ids: []string{"c", "a"}, expected: []string{"a"}},
		{name: "empty falls back", ids: nil, expected: []string{"a", "b"}},
		{name: "all unknown falls back", ids: []string{"zzz"}, expected: []string{"a", "b"}},
		{name: "only offline falls back", ids: []string{"c"}, expected: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storeIDs(r.Select(tt.ids)); !equalStrings(got, tt.expected) {
				t.Fatalf("Select(%v) = %v, want %v", tt.ids, got, tt.expected)
			}
		})
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := &Registry{}
	r.Register(models.Bookstore{ID: "a", DisplayName: "old", IsOnline: true}, stubAdapter{})
	r.Register(models.Bookstore{ID: "a", DisplayName: "new", IsOnline: true}, stubAdapter{})

	if got := len(r.Bookstores()); got != 1 {
		t.Fatalf("bookstores=%d, want 1", got)
	}
	store, _ := r.Bookstore("a")
	if store.DisplayName != "new" {
		t.Fatalf("display name=%q", store.DisplayName)
	}
}
