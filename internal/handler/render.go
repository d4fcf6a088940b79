package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/flash"
	"github.com/sakif/pin-admin/internal/model"
	"github.com/sakif/pin-admin/internal/route"
	"github.com/sakif/pin-admin/internal/table"
)

// Renderer holds the parsed page templates. Every page is the shared layout
// plus one file defining "content", parsed once at startup.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses templates/layout/*.html as the shared set and clones it
// once per templates/pages/*.html file. The page name is the file name
// without extension.
func NewRenderer(fsys fs.FS, loc *time.Location, logger *slog.Logger) (*Renderer, error) {
	base, err := template.New("layout").Funcs(funcs(loc)).ParseFS(fsys, "templates/layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout templates: %w", err)
	}
	files, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing page templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", f, err)
		}
		if _, err := t.ParseFS(fsys, f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f, err)
		}
		pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Page renders the named page with status. Output is buffered so a template
// error never leaves a half-written page behind.
func (rd *Renderer) Page(w http.ResponseWriter, status int, name string, data page) {
	t, ok := rd.pages[name]
	if !ok {
		rd.logger.Error("unknown page template", slog.String("page", name))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// page is the data every template receives. Data carries the page's own
// view model.
type page struct {
	Title    string
	Section  string
	Nav      []route.NavItem
	Admin    model.Admin
	SignedIn bool
	Bare     bool // no sidebar or header (sign-in page)
	Flash    *flash.Message
	Data     any
}

// errorPage is the retryable error state.
type errorPage struct {
	Message string
	Retry   string
}

func (h *Handler) page(r *http.Request, data any) page {
	p := page{Nav: h.nav, Data: data, Title: "Admin"}
	if e, ok := route.Current(r.Context()); ok && e.Section != "" {
		p.Title, p.Section = e.Section, e.Section
	}
	if admin, state := auth.ProfileFrom(r.Context()).Load(r.Context()); state == auth.ProfilePresent {
		p.Admin, p.SignedIn = admin, true
	}
	p.Flash = h.takeFlash(r)
	return p
}

func funcs(loc *time.Location) template.FuncMap {
	if loc == nil {
		loc = time.Local
	}
	return template.FuncMap{
		// seq is 1..n, for page links.
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format(table.DisplayDate)
		},
		"datep": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return ""
			}
			return t.In(loc).Format(table.DisplayDate)
		},
		"isImage":  func(k table.CellKind) bool { return k == table.CellImage },
		"isSelect": func(k table.CellKind) bool { return k == table.CellSelect },
		"active": func(section, label string) bool {
			return section != "" && section == label
		},
	}
}
