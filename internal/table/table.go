// Package table is the generic list engine behind every management page.
//
// A Table is built once per request from a Config describing columns, search
// groups, categorical filters, an optional date field, default sort and
// pagination, and the row actions the page supports. Derive turns the full
// record collection plus a State into the visible View. Everything here is a
// pure function of its inputs: the engine never performs I/O, it only calls
// the callbacks it was given.
//
// STATE LIVES IN THE URL:
// Search terms, filters, the sort key and the page number all round-trip
// through the query string (see State). A filtered list can be bookmarked or
// reloaded, and a form can send the state back in a hidden "back" field so
// the redirect after a delete lands on the same page of the same view.
//
// WHY GENERIC?
// Every management page lists a different record type but needs the same
// search, filter, sort and paging. Table[T] takes accessor funcs instead of
// reflecting over struct fields, so a typo in a column is a compile error.
package table

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoAction is returned by Invoke and Save when the table was built without
// the requested callback.
var ErrNoAction = errors.New("table: action not supported")

// FilterAll is the option that disables a categorical filter.
const FilterAll = "all"

// DefaultSearch is the query parameter of the default search group.
const DefaultSearch = "q"

// Row action names.
const (
	ActionView   = "view"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// CellKind selects how a cell is rendered.
type CellKind int

const (
	CellText CellKind = iota
	CellImage
	CellSelect
)

// Option is one choice of a filter or a select cell.
type Option struct {
	Value string
	Label string
}

// Column describes one table column. Value feeds sorting and, when Text is
// nil, display; Text overrides the display string.
type Column[T any] struct {
	Key      string
	Label    string
	Value    func(T) any
	Text     func(T) string
	Sortable bool

	Kind CellKind
	// Choices and Action configure a CellSelect: the select posts its value
	// to <base>/<key>/<Action>.
	Choices []Option
	Action  string
}

// SearchGroup is one search box. A record matches when the lowercased term is
// a substring of any of Fields.
type SearchGroup[T any] struct {
	Name        string
	Placeholder string
	Fields      []func(T) string
}

// Filter is a categorical filter. Value returns the record's option value.
type Filter[T any] struct {
	Name    string
	Label   string
	Options []Option
	Value   func(T) string
}

// Config is everything a Table needs. Only Columns and Key are required.
type Config[T any] struct {
	Base    string // path of the list page, e.g. "/tags"
	Columns []Column[T]
	Key     func(T) string

	Search  []SearchGroup[T]
	Filters []Filter[T]

	// Date enables the inclusive date range filter.
	Date func(T) time.Time
	// ToDefaultsToday makes an absent upper bound mean "today".
	ToDefaultsToday bool

	SortKey string
	SortAsc bool
	PerPage int

	Location *time.Location
	Now      func() time.Time

	OnView   func(key string) string
	OnEdit   func(key string) string
	OnDelete func(ctx context.Context, key string) error
	OnSave   func(ctx context.Context, value string) error
}

// Table is an immutable, configured engine.
type Table[T any] struct {
	cfg     Config[T]
	columns map[string]Column[T]
}

// New validates defaults and returns a table. An invalid PerPage falls back
// to 10; an unknown default sort key leaves rows in input order.
func New[T any](cfg Config[T]) *Table[T] {
	if !ValidPerPage(cfg.PerPage) {
		cfg.PerPage = 10
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cols := make(map[string]Column[T], len(cfg.Columns))
	for _, c := range cfg.Columns {
		cols[c.Key] = c
	}
	return &Table[T]{cfg: cfg, columns: cols}
}

// Defaults is the state of a freshly opened table.
func (t *Table[T]) Defaults() State {
	return t.Normalize(State{})
}

// Decode reads a State from query parameters and normalizes it.
func (t *Table[T]) Decode(q url.Values) State {
	st := State{
		Search:  map[string]string{},
		Filters: map[string]string{},
	}
	for _, g := range t.cfg.Search {
		if term := q.Get(g.Name); term != "" {
			st.Search[g.Name] = term
		}
	}
	for _, f := range t.cfg.Filters {
		if opt := q.Get("f." + f.Name); opt != "" {
			st.Filters[f.Name] = opt
		}
	}
	if t.cfg.Date != nil {
		st.From = parseDate(q.Get("from"), t.cfg.Location)
		st.To = parseDate(q.Get("to"), t.cfg.Location)
		if _, ok := q["to"]; ok && st.To == nil {
			st.toCleared = true
		}
	}
	if key := q.Get("sort"); key != "" {
		st.SortKey = key
		st.SortAsc = q.Get("dir") != "desc"
	}
	st.Page, _ = strconv.Atoi(q.Get("page"))
	st.PerPage, _ = strconv.Atoi(q.Get("per"))
	st.Adding = q.Get("adding") != "" && t.cfg.OnSave != nil
	return t.Normalize(st)
}

// Normalize fills defaults: unknown or unsortable sort keys fall back to the
// table default, rows-per-page is coerced to PageSizes, page is at least 1.
// The upper page bound depends on the data and is applied by Derive.
func (t *Table[T]) Normalize(st State) State {
	st = st.clone()
	if st.Search == nil {
		st.Search = map[string]string{}
	}
	if st.Filters == nil {
		st.Filters = map[string]string{}
	}
	if col, ok := t.columns[st.SortKey]; !ok || !col.Sortable {
		st.SortKey = t.cfg.SortKey
		st.SortAsc = t.cfg.SortAsc
	}
	if !ValidPerPage(st.PerPage) {
		st.PerPage = t.cfg.PerPage
	}
	if st.Page < 1 {
		st.Page = 1
	}
	if t.cfg.Date == nil {
		st.From, st.To, st.toCleared = nil, nil, false
	} else if st.To == nil && !st.toCleared && t.cfg.ToDefaultsToday {
		now := t.cfg.Now().In(t.cfg.Location)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, t.cfg.Location)
		st.To = &today
	}
	if t.cfg.OnSave == nil {
		st.Adding = false
	}
	return st
}

// Filter returns the records matching every criterion of st, in input order.
func (t *Table[T]) Filter(records []T, st State) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if t.match(r, st) {
			out = append(out, r)
		}
	}
	return out
}

func (t *Table[T]) match(r T, st State) bool {
	for _, g := range t.cfg.Search {
		term := strings.ToLower(st.Search[g.Name])
		if term == "" {
			continue
		}
		hit := false
		for _, field := range g.Fields {
			if strings.Contains(strings.ToLower(field(r)), term) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for _, f := range t.cfg.Filters {
		opt := st.Filters[f.Name]
		if opt == "" || opt == FilterAll {
			continue
		}
		if !strings.EqualFold(f.Value(r), opt) {
			return false
		}
	}
	if t.cfg.Date != nil && (st.From != nil || st.To != nil) {
		ts := t.cfg.Date(r)
		if st.From != nil && ts.Before(startOfDay(*st.From, t.cfg.Location)) {
			return false
		}
		if st.To != nil && ts.After(endOfDay(*st.To, t.cfg.Location)) {
			return false
		}
	}
	return true
}

func startOfDay(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.In(loc).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

func endOfDay(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.In(loc).Date()
	return time.Date(y, m, day, 23, 59, 59, int(999*time.Millisecond), loc)
}

// Invoke runs a mutating row action. Only ActionDelete mutates; view and
// edit are links (see Link).
func (t *Table[T]) Invoke(ctx context.Context, name, key string) error {
	if name == ActionDelete && t.cfg.OnDelete != nil {
		return t.cfg.OnDelete(ctx, key)
	}
	return ErrNoAction
}

// Link returns the target of a navigation action, or "" when the table has
// none.
func (t *Table[T]) Link(name, key string) string {
	switch {
	case name == ActionView && t.cfg.OnView != nil:
		return t.cfg.OnView(key)
	case name == ActionEdit && t.cfg.OnEdit != nil:
		return t.cfg.OnEdit(key)
	}
	return ""
}

// Save confirms the inline create row. Blank input is discarded without
// calling OnSave and reports saved=false.
func (t *Table[T]) Save(ctx context.Context, raw string) (saved bool, err error) {
	if t.cfg.OnSave == nil {
		return false, ErrNoAction
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return false, nil
	}
	if err := t.cfg.OnSave(ctx, value); err != nil {
		return false, err
	}
	return true, nil
}

// Base is the list page path.
func (t *Table[T]) Base() string { return t.cfg.Base }
