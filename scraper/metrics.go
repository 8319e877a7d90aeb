package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for store crawls and searches.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	BooksFoundTotal *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	SearchesTotal   prometheus.Counter
	SearchDuration  prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebooksearch_store_requests_total",
			Help: "Total HTTP requests issued to bookstores.",
		},
		[]string{"store", "outcome"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ebooksearch_store_duration_seconds",
			Help:    "HTTP request latency per bookstore.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store"},
	)
	booksFound := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebooksearch_books_found_total",
			Help: "Total number of books extracted per bookstore.",
		},
		[]string{"store"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebooksearch_store_errors_total",
			Help: "Total number of bookstore crawl errors by type.",
		},
		[]string{"store", "error_type"},
	)
	searches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ebooksearch_searches_total",
			Help: "Total number of aggregated searches.",
		},
	)
	searchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ebooksearch_search_duration_seconds",
			Help:    "Wall time of aggregated searches.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(requests, requestDuration, booksFound, errorsTotal, searches, searchDuration)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		BooksFoundTotal: booksFound,
		ErrorsTotal:     errorsTotal,
		SearchesTotal:   searches,
		SearchDuration:  searchDuration,
	}
}

// IncRequest increments the requests counter for a store.
func (m *Metrics) IncRequest(store, outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(store, outcome).Inc()
}

// ObserveDuration records a store request duration.
func (m *Metrics) ObserveDuration(store string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(store).Observe(d.Seconds())
}

// AddBooks adds n extracted books for a store.
func (m *Metrics) AddBooks(store string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BooksFoundTotal.WithLabelValues(store).Add(float64(n))
}

// IncError increments the errors counter for a store and type label.
func (m *Metrics) IncError(store, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(store, errorType).Inc()
}

// ObserveSearch records one aggregated search.
func (m *Metrics) ObserveSearch(d time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.Inc()
	m.SearchDuration.Observe(d.Seconds())
}
