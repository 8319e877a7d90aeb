// Package parser holds the field coercions every store adapter applies to
// scraped values.
package parser

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/aluiziolira/ebook-search/models"
)

// NoPrice marks a price that was missing or could not be parsed.
const NoPrice float64 = -1

// FreeMarker is the label stores print instead of a price for free items.
const FreeMarker = "免費"

// ValidateBook ensures the adapter captured the required fields.
func ValidateBook(b *models.Book) error {
	if b == nil {
		return fmt.Errorf("book is nil")
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("book missing title")
	}
	if strings.TrimSpace(b.Link) == "" {
		return fmt.Errorf("book missing link for %s", b.Title)
	}
	if math.IsNaN(b.Price) || math.IsInf(b.Price, 0) {
		return fmt.Errorf("book has invalid price for %s", b.Title)
	}
	return nil
}

// ParsePrice keeps only digits and decimal points and parses the rest.
// Anything that does not yield a finite number becomes NoPrice.
func ParsePrice(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return NoPrice
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return NoPrice
	}
	return value
}

// ParseStorePrice is ParsePrice for stores that flag free items, either
// through markup (free) or by printing FreeMarker.
func ParseStorePrice(raw string, free bool) float64 {
	if free || IsFree(raw) {
		return 0
	}
	return ParsePrice(raw)
}

// IsFree reports whether the price text is a free marker.
func IsFree(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.Contains(raw, FreeMarker) || strings.EqualFold(raw, "free")
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// ResolveURL resolves ref against the page URL. Absolute references pass
// through unchanged and an empty reference stays empty.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return refURL.String()
	}
	return baseURL.ResolveReference(refURL).String()
}

// SplitNames splits a contributor string on the comma-like delimiters
// stores use. It returns nil when no name is left.
func SplitNames(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case '、', ',', '，', '／':
			return true
		}
		return false
	})
	var names []string
	for _, part := range parts {
		if name := CleanText(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// CleanText collapses runs of whitespace into single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripSpaces removes every whitespace rune.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ComposeTitle appends the subtitle after sep when there is one.
func ComposeTitle(title, subtitle, sep string) string {
	title = CleanText(title)
	subtitle = CleanText(subtitle)
	switch {
	case subtitle == "":
		return title
	case title == "":
		return subtitle
	default:
		return title + sep + subtitle
	}
}
