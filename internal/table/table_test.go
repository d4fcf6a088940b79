package table

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pin-admin/internal/model"
)

type item struct {
	ID    int64
	Title string
	Role  int
	At    time.Time
}

func (i item) key() string { return strconv.FormatInt(i.ID, 10) }

func itemTable(extra ...func(*Config[item])) *Table[item] {
	cfg := Config[item]{
		Base: "/items",
		Key:  item.key,
		Columns: []Column[item]{
			{Key: "id", Label: "ID", Value: func(i item) any { return i.ID }, Sortable: true},
			{Key: "title", Label: "Title", Value: func(i item) any { return i.Title }, Sortable: true},
			{Key: "role", Label: "Role", Value: func(i item) any { return i.Role }},
			{Key: "at", Label: "Created", Value: func(i item) any { return i.At }, Sortable: true},
		},
		Search: []SearchGroup[item]{{
			Name:   DefaultSearch,
			Fields: []func(item) string{item.key, func(i item) string { return i.Title }},
		}},
		Filters: []Filter[item]{{
			Name:    "role",
			Options: []Option{{"all", "All"}, {"admin", "Admin"}, {"user", "User"}},
			Value: func(i item) string {
				if i.Role == 1 {
					return "admin"
				}
				return "user"
			},
		}},
		Date:     func(i item) time.Time { return i.At },
		SortKey:  "id",
		SortAsc:  true,
		PerPage:  5,
		Location: time.UTC,
	}
	for _, f := range extra {
		f(&cfg)
	}
	return New(cfg)
}

func items(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i] = item{ID: int64(i + 1), Title: fmt.Sprintf("item %02d", i+1)}
	}
	return out
}

func ids(rows []item) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func rowIDs(v View[item]) []int64 {
	out := make([]int64, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Record.ID
	}
	return out
}

// ============================================================================
// Filter
// ============================================================================

func TestFilter_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	tbl := itemTable()
	data := []item{
		{ID: 1, Title: "Cats are great"},
		{ID: 2, Title: "Dogs rule"},
		{ID: 3, Title: "category theory"},
	}
	st := tbl.Defaults()
	st.Search[DefaultSearch] = "cat"

	got := tbl.Filter(data, st)
	assert.Equal(t, []int64{1, 3}, ids(got))

	again := tbl.Filter(got, st)
	assert.Equal(t, got, again, "filtering is idempotent")

	st.Search[DefaultSearch] = "CAT"
	assert.Equal(t, []int64{1, 3}, ids(tbl.Filter(data, st)))
}

func TestFilter_SearchMatchesNumericID(t *testing.T) {
	tbl := itemTable()
	st := tbl.Defaults()
	st.Search[DefaultSearch] = "12"
	assert.Equal(t, []int64{12}, ids(tbl.Filter(items(12), st)))
}

func TestFilter_EmptyTermMatchesEverything(t *testing.T) {
	tbl := itemTable()
	st := tbl.Defaults()
	st.Search[DefaultSearch] = ""
	assert.Len(t, tbl.Filter(items(7), st), 7)
}

func TestFilter_WhitespaceIsPartOfTheTerm(t *testing.T) {
	tbl := itemTable()
	data := []item{
		{ID: 1, Title: "red cat"},
		{ID: 2, Title: "redcat"},
	}
	st := tbl.Defaults()

	st.Search[DefaultSearch] = " "
	assert.Equal(t, []int64{1}, ids(tbl.Filter(data, st)))

	st.Search[DefaultSearch] = "cat "
	assert.Empty(t, tbl.Filter(data, st))
}

func TestFilter_RoleIndependentOfSearch(t *testing.T) {
	tbl := itemTable()
	data := []item{
		{ID: 1, Title: "a", Role: 0},
		{ID: 2, Title: "b", Role: 1},
		{ID: 3, Title: "c", Role: 1},
		{ID: 4, Title: "d", Role: 0},
	}
	st := tbl.Defaults()
	st.Filters["role"] = "admin"
	assert.Equal(t, []int64{2, 3}, ids(tbl.Filter(data, st)))

	st.Filters["role"] = FilterAll
	assert.Len(t, tbl.Filter(data, st), 4)

	st.Filters["role"] = ""
	assert.Len(t, tbl.Filter(data, st), 4)
}

func TestFilter_DateRangeIsInclusive(t *testing.T) {
	tbl := itemTable()
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	data := []item{
		{ID: 1, At: from},
		{ID: 2, At: time.Date(2024, 3, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC)},
		{ID: 3, At: from.Add(-time.Millisecond)},
		{ID: 4, At: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 5, At: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)},
	}

	st := tbl.Defaults()
	st.From, st.To = &from, &to
	assert.Equal(t, []int64{1, 2, 5}, ids(tbl.Filter(data, st)))

	st.To = nil
	assert.Equal(t, []int64{1, 2, 4, 5}, ids(tbl.Filter(data, st)), "open upper bound")

	st.From, st.To = nil, &to
	assert.Equal(t, []int64{1, 2, 3, 5}, ids(tbl.Filter(data, st)), "open lower bound")
}

func TestFilter_DateRangeUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	tbl := itemTable(func(c *Config[item]) { c.Location = loc })
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, loc)
	// 2024-05-09 18:00 UTC is 2024-05-10 01:00 at UTC+7.
	data := []item{{ID: 1, At: time.Date(2024, 5, 9, 18, 0, 0, 0, time.UTC)}}

	st := tbl.Defaults()
	st.From, st.To = &day, &day
	assert.Len(t, tbl.Filter(data, st), 1)
}

func TestNormalize_ToDefaultsToday(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	tbl := itemTable(func(c *Config[item]) {
		c.ToDefaultsToday = true
		c.Now = func() time.Time { return now }
	})
	data := []item{
		{ID: 1, At: now.Add(-48 * time.Hour)},
		{ID: 2, At: now.Add(13 * time.Hour)}, // 23:30 today
		{ID: 3, At: now.Add(24 * time.Hour)},
	}

	st := tbl.Decode(url.Values{})
	require.NotNil(t, st.To)
	assert.Equal(t, "2024-06-15", st.To.Format(DateLayout))
	assert.Equal(t, []int64{1, 2}, ids(tbl.Filter(data, st)))

	cleared := tbl.Decode(url.Values{"to": {""}})
	assert.Nil(t, cleared.To)
	assert.Len(t, tbl.Filter(data, cleared), 3)
	assert.Equal(t, "", cleared.Values().Get("to"))
	assert.Contains(t, cleared.Values(), "to", "an explicit empty bound survives re-encoding")
}

// ============================================================================
// Sort
// ============================================================================

func TestSort_DescendingIsReverseOfAscending(t *testing.T) {
	tbl := itemTable()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := []item{
		{ID: 3, Title: "pear", At: base.Add(2 * time.Hour)},
		{ID: 1, Title: "apple", At: base.Add(5 * time.Hour)},
		{ID: 4, Title: "fig", At: base},
		{ID: 2, Title: "banana", At: base.Add(time.Hour)},
	}
	for _, key := range []string{"id", "title", "at"} {
		t.Run(key, func(t *testing.T) {
			asc := tbl.Sort(data, key, true)
			desc := tbl.Sort(data, key, false)
			reversed := slices.Clone(desc)
			slices.Reverse(reversed)
			assert.Equal(t, asc, reversed)
		})
	}
	assert.Equal(t, []int64{1, 2, 4, 3}, ids(tbl.Sort(data, "title", true)))
	assert.Equal(t, []int64{4, 2, 3, 1}, ids(tbl.Sort(data, "at", true)))
}

func TestSort_IsStable(t *testing.T) {
	tbl := itemTable()
	data := []item{{ID: 1, Title: "x"}, {ID: 2, Title: "x"}, {ID: 3, Title: "a"}}
	assert.Equal(t, []int64{3, 1, 2}, ids(tbl.Sort(data, "title", true)))
}

func TestSort_UnknownKeyKeepsInputOrder(t *testing.T) {
	tbl := itemTable()
	data := []item{{ID: 2}, {ID: 1}}
	assert.Equal(t, []int64{2, 1}, ids(tbl.Sort(data, "nope", true)))
}

func TestCompare(t *testing.T) {
	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Second)
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"ints", int64(2), int64(10), -1},
		{"floats", 2.5, 1.5, 1},
		{"strings are lexicographic", "10", "9", -1},
		{"times are chronological", late, early, 1},
		{"bools", false, true, -1},
		{"named int types", model.RoleAdmin, model.RoleUser, 1},
		{"nil first", nil, "a", -1},
		{"equal", "a", "a", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compare(tt.a, tt.b))
		})
	}
}

func TestState_Toggle(t *testing.T) {
	st := State{SortKey: "id", SortAsc: false}

	same := st.Toggle("id")
	assert.Equal(t, "id", same.SortKey)
	assert.True(t, same.SortAsc)

	again := same.Toggle("id")
	assert.False(t, again.SortAsc)

	other := st.Toggle("title")
	assert.Equal(t, "title", other.SortKey)
	assert.True(t, other.SortAsc, "a new key always starts ascending")
}

func TestDecode_UnsortableColumnIgnored(t *testing.T) {
	tbl := itemTable()
	st := tbl.Decode(url.Values{"sort": {"role"}, "dir": {"desc"}})
	assert.Equal(t, "id", st.SortKey)
	assert.True(t, st.SortAsc)
}

// ============================================================================
// Paginate
// ============================================================================

func TestDerive_TwelvePinsFivePerPage(t *testing.T) {
	tbl := itemTable()
	st := tbl.Defaults()

	v := tbl.Derive(items(12), st)
	assert.Equal(t, 3, v.Pages)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, rowIDs(v))

	v = tbl.Derive(items(12), st.WithPage(2))
	assert.Equal(t, []int64{6, 7, 8, 9, 10}, rowIDs(v))

	v = tbl.Derive(items(12), st.WithPage(3))
	assert.Equal(t, []int64{11, 12}, rowIDs(v))
	assert.Equal(t, "Showing 11-12 of 12", v.Summary())
}

func TestDerive_PagesConcatenateToFullCollection(t *testing.T) {
	tbl := itemTable()
	for _, per := range PageSizes {
		for _, n := range []int{0, 1, per - 1, per, per + 1, 3*per + 2} {
			t.Run(fmt.Sprintf("per=%d/n=%d", per, n), func(t *testing.T) {
				data := items(n)
				st := tbl.Defaults().WithPerPage(per)
				first := tbl.Derive(data, st)

				var all []int64
				for p := 1; p <= first.Pages; p++ {
					v := tbl.Derive(data, st.WithPage(p))
					if p < first.Pages {
						assert.Len(t, v.Rows, per)
					} else {
						assert.Len(t, v.Rows, n-(first.Pages-1)*per)
					}
					all = append(all, rowIDs(v)...)
				}
				assert.Equal(t, ids(data), append([]int64{}, all...))
				assert.Len(t, all, n)
			})
		}
	}
}

func TestDerive_EmptyCollection(t *testing.T) {
	tbl := itemTable()
	v := tbl.Derive(nil, tbl.Defaults().WithPage(4))
	assert.Empty(t, v.Rows)
	assert.Equal(t, 1, v.Pages)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, "No results", v.Summary())
}

func TestDerive_ClampsPageWhenFilterNarrows(t *testing.T) {
	tbl := itemTable()
	st := tbl.Defaults().WithPage(3)
	st.Search[DefaultSearch] = "item 0"

	v := tbl.Derive(items(12), st)
	assert.Equal(t, 2, v.Pages)
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, []int64{6, 7, 8, 9}, rowIDs(v))

	st.Search[DefaultSearch] = "nothing matches"
	v = tbl.Derive(items(12), st)
	assert.Equal(t, 1, v.Page)
}

func TestDerive_ClampsPageWhenPerPageGrows(t *testing.T) {
	tbl := itemTable()
	st := tbl.Defaults().WithPage(3)
	st.PerPage = 20
	v := tbl.Derive(items(12), st)
	assert.Equal(t, 1, v.Page)
	assert.Len(t, v.Rows, 12)
}

func TestWithPerPage_ResetsPage(t *testing.T) {
	st := State{Page: 4, PerPage: 5}
	got := st.WithPerPage(20)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 20, got.PerPage)
	assert.Equal(t, 4, st.Page, "original state untouched")
}

func TestDecode_CoercesPerPageAndPage(t *testing.T) {
	tbl := itemTable()
	st := tbl.Decode(url.Values{"per": {"7"}, "page": {"-3"}})
	assert.Equal(t, 5, st.PerPage)
	assert.Equal(t, 1, st.Page)

	st = tbl.Decode(url.Values{"per": {"50"}, "page": {"2"}})
	assert.Equal(t, 50, st.PerPage)
	assert.Equal(t, 2, st.Page)
}

func TestDecode_ReadsEncodedState(t *testing.T) {
	tbl := itemTable()
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	st := tbl.Defaults()
	st.Search[DefaultSearch] = "cat"
	st.Filters["role"] = "admin"
	st.From = &from
	st = st.Toggle("title").WithPerPage(20).WithPage(2)

	got := tbl.Decode(st.Values())
	assert.Equal(t, "cat", got.Search[DefaultSearch])
	assert.Equal(t, "admin", got.Filters["role"])
	require.NotNil(t, got.From)
	assert.True(t, from.Equal(*got.From))
	assert.Equal(t, "title", got.SortKey)
	assert.True(t, got.SortAsc)
	assert.Equal(t, 20, got.PerPage)
	assert.Equal(t, 2, got.Page)
}

// ============================================================================
// Actions
// ============================================================================

func TestInvoke(t *testing.T) {
	var deleted string
	tbl := itemTable(func(c *Config[item]) {
		c.OnDelete = func(_ context.Context, key string) error {
			deleted = key
			return nil
		}
		c.OnView = func(key string) string { return "/items/" + key }
	})

	require.NoError(t, tbl.Invoke(context.Background(), ActionDelete, "7"))
	assert.Equal(t, "7", deleted)

	err := tbl.Invoke(context.Background(), ActionEdit, "7")
	assert.ErrorIs(t, err, ErrNoAction)

	assert.Equal(t, "/items/7", tbl.Link(ActionView, "7"))
	assert.Equal(t, "", tbl.Link(ActionEdit, "7"))

	v := tbl.Derive(items(1), tbl.Defaults())
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "/items/1", v.Rows[0].ViewURL)
	assert.Equal(t, "/items/1/delete", v.Rows[0].DeleteURL)
	assert.Empty(t, v.Rows[0].EditURL)
}

func TestInvoke_NoCallbacks(t *testing.T) {
	tbl := itemTable()
	assert.ErrorIs(t, tbl.Invoke(context.Background(), ActionDelete, "1"), ErrNoAction)

	v := tbl.Derive(items(1), tbl.Defaults())
	assert.Empty(t, v.Rows[0].DeleteURL)
}

func TestInvoke_PassesCallbackError(t *testing.T) {
	boom := errors.New("boom")
	tbl := itemTable(func(c *Config[item]) {
		c.OnDelete = func(context.Context, string) error { return boom }
	})
	assert.ErrorIs(t, tbl.Invoke(context.Background(), ActionDelete, "1"), boom)
}

func TestSave(t *testing.T) {
	var got []string
	tbl := itemTable(func(c *Config[item]) {
		c.OnSave = func(_ context.Context, value string) error {
			got = append(got, value)
			return nil
		}
	})

	saved, err := tbl.Save(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Empty(t, got, "blank input never reaches the callback")

	saved, err = tbl.Save(context.Background(), "  sunset \n")
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, []string{"sunset"}, got)
}

func TestSave_WithoutCallback(t *testing.T) {
	tbl := itemTable()
	_, err := tbl.Save(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoAction)
	assert.False(t, tbl.Decode(url.Values{"adding": {"1"}}).Adding)
}

func TestAdding_CancelClearsState(t *testing.T) {
	tbl := itemTable(func(c *Config[item]) {
		c.OnSave = func(context.Context, string) error { return nil }
	})
	v := tbl.Derive(nil, tbl.Decode(url.Values{"adding": {"1"}}))
	assert.True(t, v.Adding)
	assert.True(t, v.CanAdd)

	cancelled, err := url.ParseQuery(v.CancelHref()[1:])
	require.NoError(t, err)
	assert.False(t, tbl.Decode(cancelled).Adding)
}

// ============================================================================
// Rendering
// ============================================================================

func TestDerive_MissingNestedFieldRendersEmpty(t *testing.T) {
	tbl := New(Config[model.Report]{
		Key: model.Report.Key,
		Columns: []Column[model.Report]{
			{Key: "reporter", Label: "Reporter", Text: model.Report.ReporterEmail},
			{Key: "image", Label: "Image", Text: model.Report.PostImage, Kind: CellImage},
		},
	})
	v := tbl.Derive([]model.Report{{ID: 1}}, tbl.Defaults())
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "", v.Rows[0].Cells[0].Text)
	assert.Equal(t, "", v.Rows[0].Cells[1].Text)
}

func TestDerive_FormatsDates(t *testing.T) {
	tbl := itemTable()
	data := []item{{ID: 1, At: time.Date(2024, 7, 4, 15, 0, 0, 0, time.UTC)}, {ID: 2}}
	v := tbl.Derive(data, tbl.Defaults())
	assert.Equal(t, "04/07/2024", v.Rows[0].Cells[3].Text)
	assert.Equal(t, "", v.Rows[1].Cells[3].Text, "zero time renders empty")
}

func TestDerive_HeaderLinks(t *testing.T) {
	tbl := itemTable()
	v := tbl.Derive(items(3), tbl.Defaults())
	require.Len(t, v.Headers, 4)

	id := v.Headers[0]
	assert.True(t, id.Active)
	assert.True(t, id.Asc)
	q, err := url.ParseQuery(id.Href[1:])
	require.NoError(t, err)
	assert.Equal(t, "desc", q.Get("dir"))

	role := v.Headers[2]
	assert.False(t, role.Sortable)
	assert.Empty(t, role.Href)
}

func TestView_CarryKeepsSortAndPerPage(t *testing.T) {
	tbl := itemTable()
	st := tbl.Decode(url.Values{"sort": {"title"}, "dir": {"desc"}, "per": {"20"}, "page": {"3"}, "q": {"x"}})
	v := tbl.Derive(items(3), st)

	assert.Equal(t, []Param{
		{Name: "sort", Value: "title"},
		{Name: "dir", Value: "desc"},
		{Name: "per", Value: "20"},
	}, v.Carry())
}
