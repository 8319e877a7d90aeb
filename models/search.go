package models

import "time"

// Envelope status tags.
const (
	StatusSuccess = "Crawler success."
	StatusFailed  = "Crawler failed."
	StatusOffline = "Bookstore is offline"
)

// SearchResult is the envelope every adapter returns, whatever the outcome.
type SearchResult struct {
	Bookstore   Bookstore `json:"bookstore"`
	IsOkay      bool      `json:"isOkay"`
	Status      string    `json:"status"`
	ProcessTime float64   `json:"processTime"`
	Books       []Book    `json:"books"`
	Quantity    int       `json:"quantity"`
	Error       string    `json:"error,omitempty"`
}

// Summary drops the book list and keeps the count.
func (r SearchResult) Summary() ResultSummary {
	return ResultSummary{
		Bookstore:   r.Bookstore,
		IsOkay:      r.IsOkay,
		Status:      r.Status,
		ProcessTime: r.ProcessTime,
		Quantity:    r.Quantity,
		Error:       r.Error,
	}
}

// ResultSummary is a SearchResult without its books.
type ResultSummary struct {
	Bookstore   Bookstore `json:"bookstore"`
	IsOkay      bool      `json:"isOkay"`
	Status      string    `json:"status"`
	ProcessTime float64   `json:"processTime"`
	Quantity    int       `json:"quantity"`
	Error       string    `json:"error,omitempty"`
}

// Agent is a name/version pair reported by the user agent parser.
type Agent struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// UserAgent describes the caller of a search.
type UserAgent struct {
	UA       string `json:"ua"`
	Browser  Agent  `json:"browser"`
	Engine   Agent  `json:"engine"`
	OS       Agent  `json:"os"`
	Platform string `json:"platform,omitempty"`
	Mobile   bool   `json:"mobile"`
	Bot      bool   `json:"bot"`
}

// Search is the full outcome of one aggregated query.
type Search struct {
	ID             string         `json:"id"`
	Keywords       string         `json:"keywords"`
	SearchDateTime time.Time      `json:"searchDateTime"`
	ProcessTime    float64        `json:"processTime"`
	UserAgent      *UserAgent     `json:"userAgent,omitempty"`
	TotalQuantity  int            `json:"totalQuantity"`
	Results        []SearchResult `json:"results"`
}

// Record strips the books from every result. It is what gets persisted and
// reported.
func (s *Search) Record() *SearchRecord {
	results := make([]ResultSummary, 0, len(s.Results))
	for _, r := range s.Results {
		results = append(results, r.Summary())
	}
	return &SearchRecord{
		ID:             s.ID,
		Keywords:       s.Keywords,
		SearchDateTime: s.SearchDateTime,
		ProcessTime:    s.ProcessTime,
		UserAgent:      s.UserAgent,
		TotalQuantity:  s.TotalQuantity,
		Results:        results,
	}
}

// SearchRecord is the companion summary of a Search.
type SearchRecord struct {
	ID             string          `json:"id"`
	Keywords       string          `json:"keywords"`
	SearchDateTime time.Time       `json:"searchDateTime"`
	ProcessTime    float64         `json:"processTime"`
	UserAgent      *UserAgent      `json:"userAgent,omitempty"`
	TotalQuantity  int             `json:"totalQuantity"`
	Results        []ResultSummary `json:"results"`
}

// AggregateResponse pairs the per-store book lists with the search that
// produced them.
type AggregateResponse struct {
	Books  map[string][]Book
	Search *Search
}
