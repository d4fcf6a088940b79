// Package route turns the console's nested route descriptors into flat chi
// registrations.
//
// Descriptors form a tree so related pages (a list, its detail view, its
// forms) live under one node. Flatten resolves absolute paths, Register
// mounts them with the auth gate on protected entries, and Sidebar derives
// the navigation from the same tree.
//
// WHY A TREE?
// A list page owns its detail view, its forms and its POST actions. Nesting
// them under one node keeps the URL prefix in one place, and the sidebar
// only needs the top-level nodes that carry a Label.
//
// ONE METHOD MAP PER PATH:
// A View is a Methods map, not a handler with a switch on r.Method. A page
// and its form POST share one descriptor, and a method missing from the map
// gets a 405 without any handler code.
package route

import (
	"context"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route is one node of the descriptor tree. Path is relative to the parent.
// A node without a View only groups its children.
type Route struct {
	Path      string
	View      http.Handler
	Protected bool
	Label     string
	Icon      string
	Order     int
	Children  []Route
}

// Entry is a flattened, registrable route.
type Entry struct {
	Path      string
	View      http.Handler
	Protected bool
	Label     string
	Icon      string
	Order     int

	// Section is the label of the closest labelled node on the path from the
	// root, used for page titles and the active sidebar item.
	Section string
}

var slashes = regexp.MustCompile(`/+`)

// Join composes a parent and child path and collapses repeated slashes.
func Join(parent, child string) string {
	return slashes.ReplaceAllString(parent+"/"+child, "/")
}

// Flatten walks the tree depth-first, parent before children. Cycles are a
// caller error.
func Flatten(routes []Route) []Entry {
	var out []Entry
	flatten(&out, routes, "", "")
	return out
}

func flatten(out *[]Entry, routes []Route, parent, section string) {
	for _, r := range routes {
		path := Join(parent, r.Path)
		sec := section
		if r.Label != "" {
			sec = r.Label
		}
		if r.View != nil {
			*out = append(*out, Entry{
				Path:      path,
				View:      r.View,
				Protected: r.Protected,
				Label:     r.Label,
				Icon:      r.Icon,
				Order:     r.Order,
				Section:   sec,
			})
		}
		flatten(out, r.Children, path, sec)
	}
}

type ctxKey struct{}

// Current returns the entry that matched the request, if any.
func Current(ctx context.Context) (Entry, bool) {
	e, ok := ctx.Value(ctxKey{}).(Entry)
	return e, ok
}

// Register mounts every entry on r, wrapping protected views with gate, and
// registers fallback as the catch-all last.
func Register(r chi.Router, entries []Entry, gate func(http.Handler) http.Handler, fallback http.Handler) {
	for _, e := range entries {
		var h http.Handler = withEntry(e, e.View)
		if e.Protected && gate != nil {
			h = gate(h)
		}
		r.Handle(e.Path, h)
	}
	if fallback != nil {
		r.Handle("/*", fallback)
	}
}

func withEntry(e Entry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, e)))
	})
}

// RedirectTo is a fallback that sends every unmatched request to target.
func RedirectTo(target string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	})
}

// NavItem is one sidebar link.
type NavItem struct {
	Path  string
	Label string
	Icon  string
}

// Sidebar lists protected, labelled entries ordered by Order and then by
// declaration order. Paths with URL parameters are skipped.
func Sidebar(routes []Route) []NavItem {
	var entries []Entry
	for _, e := range Flatten(routes) {
		if e.Protected && e.Label != "" && !strings.Contains(e.Path, "{") {
			entries = append(entries, e)
		}
	}
	slices.SortStableFunc(entries, func(a, b Entry) int { return a.Order - b.Order })

	items := make([]NavItem, len(entries))
	for i, e := range entries {
		items[i] = NavItem{Path: e.Path, Label: e.Label, Icon: e.Icon}
	}
	return items
}

// Methods dispatches on the request method so one descriptor can serve both
// a page and its form. HEAD falls back to GET; anything else is 405.
type Methods map[string]http.Handler

func (m Methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h.ServeHTTP(w, r)
		return
	}
	if h, ok := m[http.MethodGet]; ok && r.Method == http.MethodHead {
		h.ServeHTTP(w, r)
		return
	}
	allowed := make([]string, 0, len(m))
	for method := range m {
		allowed = append(allowed, method)
	}
	slices.Sort(allowed)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// GET and POST are shorthands for single-method views.
func GET(h http.HandlerFunc) Methods  { return Methods{http.MethodGet: h} }
func POST(h http.HandlerFunc) Methods { return Methods{http.MethodPost: h} }
