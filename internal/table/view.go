package table

import (
	"fmt"
	"strconv"
	"time"
)

// DisplayDate is how time values are rendered in cells.
const DisplayDate = "02/01/2006"

// Header is a rendered column header.
type Header struct {
	Key      string
	Label    string
	Sortable bool
	Active   bool
	Asc      bool
	Href     string // state after toggling this column
}

// Cell is a rendered cell.
type Cell struct {
	Text    string
	Kind    CellKind
	Choices []Option
	Action  string // form target of a CellSelect
}

// Row is one visible record with its rendered cells and action targets.
type Row[T any] struct {
	Key       string
	Record    T
	Cells     []Cell
	ViewURL   string
	EditURL   string
	DeleteURL string // empty when the table has no delete action
}

// SearchBox is a rendered search group.
type SearchBox struct {
	Name        string
	Placeholder string
	Value       string
}

// FilterBox is a rendered categorical filter.
type FilterBox struct {
	Name    string
	Label   string
	Options []Option
	Value   string
}

// View is the derived, render-ready page of a table.
type View[T any] struct {
	Base    string
	Headers []Header
	Rows    []Row[T]
	Search  []SearchBox
	Filters []FilterBox

	HasDate bool
	From    string
	To      string

	Count    int // records before filtering
	Total    int // records after filtering
	Page     int
	Pages    int
	PerPage  int
	First    int // 1-based index of the first visible row, 0 when empty
	Last     int
	CanAdd   bool
	Adding   bool
	State    State
	PageSize []int
}

// Derive filters, sorts and paginates records for st. The page is clamped to
// [1, Pages] here, on every derivation.
func (t *Table[T]) Derive(records []T, st State) View[T] {
	st = t.Normalize(st)
	filtered := t.Filter(records, st)
	sorted := t.Sort(filtered, st.SortKey, st.SortAsc)

	pages := Pages(len(sorted), st.PerPage)
	if st.Page > pages {
		st.Page = pages
	}
	window := Window(sorted, st.Page, st.PerPage)

	v := View[T]{
		Base:     t.cfg.Base,
		Count:    len(records),
		Total:    len(sorted),
		Page:     st.Page,
		Pages:    pages,
		PerPage:  st.PerPage,
		HasDate:  t.cfg.Date != nil,
		CanAdd:   t.cfg.OnSave != nil,
		Adding:   st.Adding,
		State:    st,
		PageSize: PageSizes,
	}
	if len(window) > 0 {
		v.First = (st.Page-1)*st.PerPage + 1
		v.Last = v.First + len(window) - 1
	}
	if st.From != nil {
		v.From = st.From.Format(DateLayout)
	}
	if st.To != nil {
		v.To = st.To.Format(DateLayout)
	}
	for _, c := range t.cfg.Columns {
		h := Header{Key: c.Key, Label: c.Label, Sortable: c.Sortable}
		if c.Sortable {
			h.Active = st.SortKey == c.Key
			h.Asc = h.Active && st.SortAsc
			h.Href = st.Toggle(c.Key).Href()
		}
		v.Headers = append(v.Headers, h)
	}
	for _, g := range t.cfg.Search {
		v.Search = append(v.Search, SearchBox{Name: g.Name, Placeholder: g.Placeholder, Value: st.Search[g.Name]})
	}
	for _, f := range t.cfg.Filters {
		val := st.Filters[f.Name]
		if val == "" {
			val = FilterAll
		}
		v.Filters = append(v.Filters, FilterBox{Name: f.Name, Label: f.Label, Options: f.Options, Value: val})
	}
	for _, r := range window {
		v.Rows = append(v.Rows, t.row(r))
	}
	return v
}

func (t *Table[T]) row(r T) Row[T] {
	key := t.cfg.Key(r)
	row := Row[T]{
		Key:     key,
		Record:  r,
		ViewURL: t.Link(ActionView, key),
		EditURL: t.Link(ActionEdit, key),
	}
	if t.cfg.OnDelete != nil {
		row.DeleteURL = t.cfg.Base + "/" + key + "/delete"
	}
	for _, c := range t.cfg.Columns {
		cell := Cell{Kind: c.Kind, Choices: c.Choices}
		switch {
		case c.Text != nil:
			cell.Text = c.Text(r)
		case c.Value != nil:
			cell.Text = t.format(c.Value(r))
		}
		if c.Kind == CellSelect {
			cell.Action = t.cfg.Base + "/" + key + "/" + c.Action
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}

func (t *Table[T]) format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.In(t.cfg.Location).Format(DisplayDate)
	case *time.Time:
		if x == nil || x.IsZero() {
			return ""
		}
		return x.In(t.cfg.Location).Format(DisplayDate)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Pages is max(1, ceil(n/per)).
func Pages(n, per int) int {
	if per <= 0 || n <= 0 {
		return 1
	}
	return (n + per - 1) / per
}

// Window returns rows[(page-1)*per : page*per], bounded to the slice.
func Window[T any](rows []T, page, per int) []T {
	if per <= 0 || page < 1 {
		return nil
	}
	start := (page - 1) * per
	if start >= len(rows) {
		return nil
	}
	end := min(start+per, len(rows))
	return rows[start:end]
}

// PageHref links to page n of the current view.
func (v View[T]) PageHref(n int) string { return v.State.WithPage(n).Href() }

// PerPageHref links to the view with n rows per page, back on page 1.
func (v View[T]) PerPageHref(n int) string { return v.State.WithPerPage(n).Href() }

// AddHref opens the inline create row; CancelHref closes it.
func (v View[T]) AddHref() string    { return v.State.WithAdding(true).Href() }
func (v View[T]) CancelHref() string { return v.State.WithAdding(false).Href() }

// PrevHref and NextHref are empty at the edges.
func (v View[T]) PrevHref() string {
	if v.Page <= 1 {
		return ""
	}
	return v.PageHref(v.Page - 1)
}

func (v View[T]) NextHref() string {
	if v.Page >= v.Pages {
		return ""
	}
	return v.PageHref(v.Page + 1)
}

// Summary is "Showing 1-10 of 42".
func (v View[T]) Summary() string {
	if v.Total == 0 {
		return "No results"
	}
	return "Showing " + strconv.Itoa(v.First) + "-" + strconv.Itoa(v.Last) + " of " + strconv.Itoa(v.Total)
}

// Param is one query parameter carried by a form.
type Param struct {
	Name  string
	Value string
}

// Carry lists the parameters a search form must resubmit so a new search
// keeps the sort and rows-per-page. Submitting the form starts at page 1.
func (v View[T]) Carry() []Param {
	vals := v.State.Values()
	var out []Param
	for _, name := range []string{"sort", "dir", "per"} {
		if s := vals.Get(name); s != "" {
			out = append(out, Param{Name: name, Value: s})
		}
	}
	return out
}
