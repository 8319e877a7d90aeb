package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// namedWriter labels an output in error messages.
type namedWriter struct {
	name string
	OutputWriter
}

// MultiWriter fans every batch out to several outputs in order.
type MultiWriter struct {
	mu      sync.Mutex
	outputs []namedWriter
}

// NewDualWriter writes the same rows as CSV and as JSON lines. The CSV file
// is closed again when the JSON file cannot be created.
func NewDualWriter(csvFilename, jsonFilename string) (*MultiWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("create CSV writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		_ = csvWriter.Close()
		return nil, fmt.Errorf("create JSON writer: %w", err)
	}

	return &MultiWriter{outputs: []namedWriter{
		{name: "CSV", OutputWriter: csvWriter},
		{name: "JSON", OutputWriter: jsonWriter},
	}}, nil
}

// Write stops at the first output that fails.
func (mw *MultiWriter) Write(rows []*Row) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	for _, out := range mw.outputs {
		if err := out.Write(rows); err != nil {
			return fmt.Errorf("%s write: %w", out.name, err)
		}
	}
	return nil
}

// Close closes every output and joins their errors.
func (mw *MultiWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	return mw.each("close", OutputWriter.Close)
}

// Validate checks every output and joins their errors.
func (mw *MultiWriter) Validate() error {
	return mw.each("validation", OutputWriter.Validate)
}

func (mw *MultiWriter) each(op string, fn func(OutputWriter) error) error {
	var errs []error
	for _, out := range mw.outputs {
		if err := fn(out.OutputWriter); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", out.name, op, err))
		}
	}
	return errors.Join(errs...)
}
