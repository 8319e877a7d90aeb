// Package server exposes the aggregator, the bookstore registry and the
// search history over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aluiziolira/ebook-search/models"
	"github.com/aluiziolira/ebook-search/pipeline"
	"github.com/aluiziolira/ebook-search/scraper"
	"github.com/aluiziolira/ebook-search/storage"
	"github.com/aluiziolira/ebook-search/useragent"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Getter loads a persisted search summary.
type Getter interface {
	Get(ctx context.Context, id string) (*models.SearchRecord, error)
}

// Server holds the collaborators of the HTTP handlers. Searches, Agents and
// Metrics are optional.
type Server struct {
	Aggregator *pipeline.Aggregator
	Searches   Getter
	Agents     *useragent.Parser
	Metrics    *scraper.Metrics
	Responder  *Responder
}

// selection parameters accepted for the bookstore list
var bookstoreParams = []string{"bookstores", "bookStores", "bookstores[]", "bookStores[]"}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	if s.Responder == nil {
		s.Responder = &Responder{}
	}
	rr := s.Responder

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(allowAnyOrigin())
	r.Use(middleware.Compress(5))

	r.Group(func(r chi.Router) {
		r.Use(bomb(rr))
		r.Get("/search", s.legacySearch)
		r.Post("/search", s.legacySearch)
		r.Post("/searches", s.createSearch)
	})
	r.Get("/searches/{id}", s.getSearch)
	r.Get("/bookstores", s.listBookstores)
	r.Get("/bookstores/{id}", s.getBookstore)

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	notAllowed := func(w http.ResponseWriter, r *http.Request) {
		rr.Message(w, r.Context(), http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
	r.NotFound(notAllowed)
	r.MethodNotAllowed(notAllowed)

	return r
}

// legacySearch answers with the books of every store keyed by store id.
func (s *Server) legacySearch(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.search(w, r)
	if !ok {
		return
	}
	s.Responder.SendJSON(w, r.Context(), http.StatusOK, resp.Books)
}

// createSearch answers with the full search, envelopes included.
func (s *Server) createSearch(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.search(w, r)
	if !ok {
		return
	}
	s.Responder.SendJSON(w, r.Context(), http.StatusCreated, resp.Search)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) (*models.AggregateResponse, bool) {
	q := r.URL.Query()
	keywords := strings.TrimSpace(q.Get("q"))
	if keywords == "" {
		s.Responder.Message(w, r.Context(), http.StatusBadRequest, msgQueryRequired)
		return nil, false
	}

	var agent *models.UserAgent
	if s.Agents != nil {
		agent = s.Agents.Parse(r.UserAgent())
	}

	resp, err := s.Aggregator.Search(r.Context(), pipeline.Query{
		Keywords:   keywords,
		Bookstores: bookstoreIDs(q),
		UserAgent:  agent,
	})
	if err != nil {
		s.Responder.RespondAndLogError(w, r.Context(), fmt.Errorf("search %q: %w", keywords, err))
		return nil, false
	}
	return resp, true
}

func (s *Server) getSearch(w http.ResponseWriter, r *http.Request) {
	if s.Searches == nil {
		s.Responder.Message(w, r.Context(), http.StatusNotFound, msgSearchNotFound)
		return
	}

	record, err := s.Searches.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.Responder.Message(w, r.Context(), http.StatusNotFound, msgSearchNotFound)
		return
	}
	if err != nil {
		s.Responder.RespondAndLogError(w, r.Context(), err)
		return
	}
	s.Responder.SendJSON(w, r.Context(), http.StatusOK, record)
}

func (s *Server) listBookstores(w http.ResponseWriter, r *http.Request) {
	s.Responder.SendJSON(w, r.Context(), http.StatusOK, s.Aggregator.Registry().Bookstores())
}

func (s *Server) getBookstore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	store, ok := s.Aggregator.Registry().Bookstore(id)
	if !ok {
		s.Responder.Message(w, r.Context(), http.StatusBadRequest, fmt.Sprintf("Bookstore %s is invalid.", id))
		return
	}
	s.Responder.SendJSON(w, r.Context(), http.StatusOK, []models.Bookstore{store})
}

// bookstoreIDs collects the requested store ids. Values may be repeated or
// comma separated.
func bookstoreIDs(q map[string][]string) []string {
	var ids []string
	for _, key := range bookstoreParams {
		for _, value := range q[key] {
			for _, id := range strings.Split(value, ",") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}
