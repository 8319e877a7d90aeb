package scraper

import (
	"errors"
	"fmt"
)

// classified is implemented by every crawl error that maps to a metric label.
type classified interface {
	error
	label() string
}

// ErrTimeout indicates a request that ran past its deadline.
type ErrTimeout struct{ Err error }

func (e ErrTimeout) Error() string { return message(e.label(), e.Err) }
func (e ErrTimeout) Unwrap() error { return e.Err }
func (ErrTimeout) label() string   { return "timeout" }

// ErrConnection indicates the store could not be reached.
type ErrConnection struct{ Err error }

func (e ErrConnection) Error() string { return message(e.label(), e.Err) }
func (e ErrConnection) Unwrap() error { return e.Err }
func (ErrConnection) label() string   { return "connection" }

// ErrForbidden indicates an HTTP 403, usually bot protection.
type ErrForbidden struct{ Err error }

func (e ErrForbidden) Error() string { return message(e.label(), e.Err) }
func (e ErrForbidden) Unwrap() error { return e.Err }
func (ErrForbidden) label() string   { return "forbidden" }

// ErrNotFound indicates an HTTP 404.
type ErrNotFound struct{ Err error }

func (e ErrNotFound) Error() string { return message(e.label(), e.Err) }
func (e ErrNotFound) Unwrap() error { return e.Err }
func (ErrNotFound) label() string   { return "not_found" }

// ErrRateLimited indicates an HTTP 429.
type ErrRateLimited struct{ Err error }

func (e ErrRateLimited) Error() string { return message(e.label(), e.Err) }
func (e ErrRateLimited) Unwrap() error { return e.Err }
func (ErrRateLimited) label() string   { return "rate_limited" }

// ErrStatus indicates any other non-2xx response.
type ErrStatus struct {
	Code int
	Err  error
}

func (e ErrStatus) Error() string { return message(fmt.Sprintf("status %d", e.Code), e.Err) }
func (e ErrStatus) Unwrap() error { return e.Err }
func (ErrStatus) label() string   { return "status" }

// ErrParse indicates a response body that could not be extracted.
type ErrParse struct{ Err error }

func (e ErrParse) Error() string { return message(e.label(), e.Err) }
func (e ErrParse) Unwrap() error { return e.Err }
func (ErrParse) label() string   { return "parse" }

func message(prefix string, err error) string {
	if err == nil {
		return prefix
	}
	return prefix + ": " + err.Error()
}

// ErrorType returns the metric label of the outermost classified error in
// the chain, "other" when there is none.
func ErrorType(err error) string {
	if err == nil {
		return "unknown"
	}
	var c classified
	if errors.As(err, &c) {
		return c.label()
	}
	return "other"
}
