// Package storage persists search records in SQLite or PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aluiziolira/ebook-search/models"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/georgysavva/scany/v2/sqlscan"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no search has the requested id.
var ErrNotFound = errors.New("storage: search not found")

const searchesTable = "searches"

const createSearches = `CREATE TABLE IF NOT EXISTS searches (
	id TEXT PRIMARY KEY,
	keywords TEXT NOT NULL,
	search_date_time TEXT NOT NULL,
	process_time DOUBLE PRECISION NOT NULL,
	user_agent TEXT,
	total_quantity INTEGER NOT NULL,
	results TEXT NOT NULL
)`

// Repository stores search summaries.
type Repository struct {
	db *sql.DB
	g  goqu.DialectWrapper
}

type searchRow struct {
	ID             string         `db:"id"`
	Keywords       string         `db:"keywords"`
	SearchDateTime string         `db:"search_date_time"`
	ProcessTime    float64        `db:"process_time"`
	UserAgent      sql.NullString `db:"user_agent"`
	TotalQuantity  int            `db:"total_quantity"`
	Results        string         `db:"results"`
}

// Open connects to dsn and creates the schema. postgres:// and
// postgresql:// DSNs use pgx; anything else is a SQLite path, optionally
// prefixed with sqlite://.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	driver, dialect, source := "sqlite", "sqlite3", strings.TrimPrefix(dsn, "sqlite://")
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, dialect, source = "pgx", "postgres", dsn
	}
	if source == "" {
		return nil, fmt.Errorf("open %s: empty dsn", driver)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// one writer at a time, and :memory: databases are per connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	r := &Repository{db: db, g: goqu.Dialect(dialect)}
	if err := r.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Migrate creates the searches table when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSearches); err != nil {
		return fmt.Errorf("create searches table: %w", err)
	}
	return nil
}

// Save inserts a search summary.
func (r *Repository) Save(ctx context.Context, record *models.SearchRecord) error {
	if record == nil || record.ID == "" {
		return errors.New("storage: record without id")
	}

	results, err := json.Marshal(record.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	var userAgent any
	if record.UserAgent != nil {
		raw, err := json.Marshal(record.UserAgent)
		if err != nil {
			return fmt.Errorf("encode user agent: %w", err)
		}
		userAgent = string(raw)
	}

	query, params, err := r.g.Insert(searchesTable).
		Rows(goqu.Record{
			"id":               record.ID,
			"keywords":         record.Keywords,
			"search_date_time": record.SearchDateTime.UTC().Format(time.RFC3339Nano),
			"process_time":     record.ProcessTime,
			"user_agent":       userAgent,
			"total_quantity":   record.TotalQuantity,
			"results":          string(results),
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, params...); err != nil {
		return fmt.Errorf("insert search %s: %w", record.ID, err)
	}
	return nil
}

// Get loads the search summary with id.
func (r *Repository) Get(ctx context.Context, id string) (*models.SearchRecord, error) {
	query, params, err := r.g.From(searchesTable).
		Select("id", "keywords", "search_date_time", "process_time", "user_agent", "total_quantity", "results").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row searchRow
	if err := sqlscan.Get(ctx, r.db, &row, query, params...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select search %s: %w", id, err)
	}
	return row.record()
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (row searchRow) record() (*models.SearchRecord, error) {
	searchedAt, err := time.Parse(time.RFC3339Nano, row.SearchDateTime)
	if err != nil {
		return nil, fmt.Errorf("decode search time of %s: %w", row.ID, err)
	}

	record := &models.SearchRecord{
		ID:             row.ID,
		Keywords:       row.Keywords,
		SearchDateTime: searchedAt,
		ProcessTime:    row.ProcessTime,
		TotalQuantity:  row.TotalQuantity,
	}
	if err := json.Unmarshal([]byte(row.Results), &record.Results); err != nil {
		return nil, fmt.Errorf("decode results of %s: %w", row.ID, err)
	}
	if row.UserAgent.Valid && row.UserAgent.String != "" {
		record.UserAgent = &models.UserAgent{}
		if err := json.Unmarshal([]byte(row.UserAgent.String), record.UserAgent); err != nil {
			return nil, fmt.Errorf("decode user agent of %s: %w", row.ID, err)
		}
	}
	return record, nil
}
