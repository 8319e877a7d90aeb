package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// csvHeader lists the exported columns in order.
var csvHeader = []string{
	"store", "id", "title", "link", "price", "price_currency", "non_drm_price",
	"authors", "translators", "painters", "publisher", "publish_date", "thumbnail", "about",
}

// output is the file shared by the CSV and JSON writers.
type output struct {
	kind    string
	file    *os.File
	written int
}

func createOutput(kind, filename string) (*output, error) {
	dir := filepath.Dir(filename)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create %s file: %w", kind, err)
	}
	return &output{kind: kind, file: f}, nil
}

// validate fails when no row reached the file or the file is gone.
func (o *output) validate() error {
	if _, err := o.file.Stat(); err != nil {
		return fmt.Errorf("stat %s file: %w", o.kind, err)
	}
	if o.written == 0 {
		return fmt.Errorf("%s file has no rows", o.kind)
	}
	return nil
}

// CSVWriter writes one line per book, names joined with "、".
type CSVWriter struct {
	mu     sync.Mutex
	out    *output
	writer *csv.Writer
}

// NewCSVWriter creates the file and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	out, err := createOutput("csv", filename)
	if err != nil {
		return nil, err
	}

	writer := csv.NewWriter(out.file)
	if err := writer.Write(csvHeader); err != nil {
		out.file.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		out.file.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{out: out, writer: writer}, nil
}

// Write appends rows and flushes them.
func (cw *CSVWriter) Write(rows []*Row) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, row := range rows {
		if err := cw.writer.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	cw.out.written += len(rows)
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.out.file.Close()
}

// Validate ensures at least one row follows the header.
func (cw *CSVWriter) Validate() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.out.validate()
}

func csvRecord(row *Row) []string {
	nonDRM := ""
	if row.NonDrmPrice != nil {
		nonDRM = formatPrice(*row.NonDrmPrice)
	}
	return []string{
		row.Store,
		row.ID,
		row.Title,
		row.Link,
		formatPrice(row.Price),
		row.PriceCurrency,
		nonDRM,
		joinNames(row.Authors),
		joinNames(row.Translators),
		joinNames(row.Painters),
		row.Publisher,
		row.PublishDate,
		row.Thumbnail,
		row.About,
	}
}

// JSONWriter writes one JSON object per line.
type JSONWriter struct {
	mu      sync.Mutex
	out     *output
	buf     *bufio.Writer
	encoder *json.Encoder
}

// NewJSONWriter creates the JSON lines file.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	out, err := createOutput("json", filename)
	if err != nil {
		return nil, err
	}

	buf := bufio.NewWriter(out.file)
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	return &JSONWriter{out: out, buf: buf, encoder: encoder}, nil
}

// Write appends rows and flushes them.
func (jw *JSONWriter) Write(rows []*Row) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, row := range rows {
		if err := jw.encoder.Encode(row); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}
	if err := jw.buf.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	jw.out.written += len(rows)
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.buf.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.out.file.Close()
}

// Validate ensures at least one row was written.
func (jw *JSONWriter) Validate() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.out.validate()
}

// formatPrice drops trailing zeros, so 336.50 becomes "336.5".
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinNames(names []string) string {
	return strings.Join(names, "、")
}
