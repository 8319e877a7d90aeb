package stores

import (
	"log/slog"
	"sync"

	"github.com/aluiziolira/ebook-search/config"
	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/scraper"
)

// Store identifiers.
const (
	BooksCompany = "booksCompany"
	Readmoo      = "readmoo"
	Kobo         = "kobo"
	Taaze        = "taaze"
	BookWalker   = "bookWalker"
	PlayStore    = "playStore"
	Pubu         = "pubu"
	Hyread       = "hyread"
	Kindle       = "kindle"
	LikerLand    = "likerLand"
)

// Builtin returns an adapter for every supported store.
func Builtin(cfg *config.Config, fetcher *scraper.Fetcher) map[string]Adapter {
	m := fetcher.Metrics
	return map[string]Adapter{
		BooksCompany: newCrawler(BooksCompany, &booksCompany{fetcher: fetcher}, m),
		Readmoo:      newCrawler(Readmoo, &readmoo{fetcher: fetcher, apID: cfg.ReadmooAPID}, m),
		Kobo:         newCrawler(Kobo, &kobo{fetcher: fetcher}, m),
		Taaze:        newCrawler(Taaze, &taaze{fetcher: fetcher}, m),
		BookWalker:   newCrawler(BookWalker, &bookWalker{fetcher: fetcher}, m),
		PlayStore:    newCrawler(PlayStore, &playStore{fetcher: fetcher}, m),
		Pubu:         newCrawler(Pubu, &pubu{fetcher: fetcher}, m),
		Hyread:       newCrawler(Hyread, &hyread{fetcher: fetcher}, m),
		Kindle:       newCrawler(Kindle, &kindle{fetcher: fetcher}, m),
		LikerLand:    newCrawler(LikerLand, &likerLand{fetcher: fetcher}, m),
	}
}

// Registry maps configured bookstores to their adapters.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	stores   map[string]models.Bookstore
	adapters map[string]Adapter
}

// NewRegistry pairs every configured bookstore with its builtin adapter.
// Bookstores without an adapter are skipped.
func NewRegistry(cfg *config.Config, fetcher *scraper.Fetcher) *Registry {
	r := &Registry{
		stores:   make(map[string]models.Bookstore),
		adapters: make(map[string]Adapter),
	}
	builtin := Builtin(cfg, fetcher)
	for _, store := range cfg.Bookstores {
		adapter, ok := builtin[store.ID]
		if !ok {
			slog.Warn("no adapter for bookstore", slog.String("store", store.ID))
			continue
		}
		r.Register(store, adapter)
	}
	return r
}

// Register adds or replaces a bookstore and its adapter.
func (r *Registry) Register(store models.Bookstore, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stores == nil {
		r.stores = make(map[string]models.Bookstore)
		r.adapters = make(map[string]Adapter)
	}
	if _, ok := r.stores[store.ID]; !ok {
		r.order = append(r.order, store.ID)
	}
	r.stores[store.ID] = store
	r.adapters[store.ID] = adapter
}

// Bookstores returns every registered bookstore in configuration order.
func (r *Registry) Bookstores() []models.Bookstore {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Bookstore, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.stores[id])
	}
	return out
}

// Bookstore looks up one bookstore by id.
func (r *Registry) Bookstore(id string) (models.Bookstore, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[id]
	return store, ok
}

// Adapter returns the adapter registered for id.
func (r *Registry) Adapter(id string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[id]
	return adapter, ok
}

// Available returns the online bookstores.
func (r *Registry) Available() []models.Bookstore {
	var out []models.Bookstore
	for _, store := range r.Bookstores() {
		if store.IsOnline {
			out = append(out, store)
		}
	}
	return out
}

// Select keeps the requested ids that are registered and online. Unknown
// ids are ignored, and an empty selection falls back to every available
// bookstore.
func (r *Registry) Select(ids []string) []models.Bookstore {
	requested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		requested[id] = struct{}{}
	}

	var out []models.Bookstore
	for _, store := range r.Available() {
		if _, ok := requested[store.ID]; ok {
			out = append(out, store)
		}
	}
	if len(out) == 0 {
		return r.Available()
	}
	return out
}
