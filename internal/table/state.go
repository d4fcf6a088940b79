package table

import (
	"maps"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of the from/to query parameters, matching
// <input type="date">.
const DateLayout = "2006-01-02"

// PageSizes are the rows-per-page values a table accepts.
var PageSizes = []int{5, 10, 20, 50}

// ValidPerPage reports whether n is one of PageSizes.
func ValidPerPage(n int) bool { return slices.Contains(PageSizes, n) }

// State is the view state of one table: search terms, filters, date range,
// sort and pagination. It round-trips through URL query parameters so every
// view is a plain link.
type State struct {
	Search  map[string]string // search group name -> term
	Filters map[string]string // filter name -> selected option
	From    *time.Time
	To      *time.Time
	SortKey string
	SortAsc bool
	Page    int
	PerPage int
	Adding  bool

	// toCleared records an explicit empty "to" so a table whose upper bound
	// defaults to today can still be unbounded.
	toCleared bool
}

func (s State) clone() State {
	s.Search = maps.Clone(s.Search)
	s.Filters = maps.Clone(s.Filters)
	return s
}

// Toggle returns the state after selecting a sort key: the same key flips the
// direction, a new key starts ascending. Pagination is kept; the page is
// clamped when the view is derived.
func (s State) Toggle(key string) State {
	s = s.clone()
	if s.SortKey == key {
		s.SortAsc = !s.SortAsc
		return s
	}
	s.SortKey = key
	s.SortAsc = true
	return s
}

// WithPerPage changes rows-per-page and always goes back to page 1.
func (s State) WithPerPage(n int) State {
	s = s.clone()
	s.PerPage = n
	s.Page = 1
	return s
}

// WithPage moves to page n.
func (s State) WithPage(n int) State {
	s = s.clone()
	s.Page = n
	return s
}

// WithAdding opens or cancels the inline create row.
func (s State) WithAdding(on bool) State {
	s = s.clone()
	s.Adding = on
	return s
}

// Values encodes the state as query parameters. Empty terms, "all" filters
// and page 1 are omitted.
func (s State) Values() url.Values {
	v := url.Values{}
	for _, name := range sortedKeys(s.Search) {
		if term := s.Search[name]; term != "" {
			v.Set(name, term)
		}
	}
	for _, name := range sortedKeys(s.Filters) {
		if opt := s.Filters[name]; opt != "" && opt != FilterAll {
			v.Set("f."+name, opt)
		}
	}
	if s.From != nil {
		v.Set("from", s.From.Format(DateLayout))
	}
	switch {
	case s.To != nil:
		v.Set("to", s.To.Format(DateLayout))
	case s.toCleared:
		v.Set("to", "")
	}
	if s.SortKey != "" {
		v.Set("sort", s.SortKey)
		if s.SortAsc {
			v.Set("dir", "asc")
		} else {
			v.Set("dir", "desc")
		}
	}
	if s.Page > 1 {
		v.Set("page", strconv.Itoa(s.Page))
	}
	if s.PerPage > 0 {
		v.Set("per", strconv.Itoa(s.PerPage))
	}
	if s.Adding {
		v.Set("adding", "1")
	}
	return v
}

// Href is the relative link ("?...") to this state.
func (s State) Href() string {
	return "?" + s.Values().Encode()
}

// parseDate reads a DateLayout value as midnight in loc. Malformed input is
// treated as no bound.
func parseDate(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return nil
	}
	return &t
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
