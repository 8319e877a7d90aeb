package stores

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/ebook-search/parser"
	"github.com/gocolly/colly/v2"
)

// hop is one child step of a structural path. A negative eq keeps every
// match.
type hop struct {
	sel string
	eq  int
}

func all(sel string) hop       { return hop{sel: sel, eq: -1} }
func at(sel string, i int) hop { return hop{sel: sel, eq: i} }

// descend follows hops through direct children only.
func descend(s *goquery.Selection, hops ...hop) *goquery.Selection {
	for _, h := range hops {
		s = s.ChildrenFiltered(h.sel)
		if h.eq >= 0 {
			s = s.Eq(h.eq)
		}
	}
	return s
}

// absolute resolves ref against the page the element came from.
func absolute(e *colly.HTMLElement, ref string) string {
	return parser.ResolveURL(e.Request.URL.String(), ref)
}

// idAfter returns the path segment following marker in ref, without any
// query or fragment.
func idAfter(ref, marker string) string {
	_, rest, found := strings.Cut(ref, marker)
	if !found {
		return ""
	}
	if i := strings.IndexAny(rest, "?#/"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// queryParam reads key from the query of an absolute or relative URL.
func queryParam(ref, key string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return string(f)
}

// flexFloat accepts a JSON number or numeric string. It is nil when the
// value is absent or not numeric.
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.String()), 64)
	if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		f.value = &v
	}
	return nil
}
