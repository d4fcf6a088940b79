// Package handler contains the page shells of the console.
//
// Every shell follows the same flow:
//
//  1. read the session the auth gate put on the request context
//  2. ask service.Admin for data (snapshot or remote API)
//  3. run the table engine over it with the state decoded from the URL
//  4. render the page inside the shared layout
//
// Mutations are form POSTs that end in a redirect (post/redirect/get). The
// outcome travels to the next page as a flash message.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/pin-admin/internal/apperror"
	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/flash"
	"github.com/sakif/pin-admin/internal/route"
	"github.com/sakif/pin-admin/internal/service"
)

// Handler holds the dependencies shared by all page shells.
type Handler struct {
	admin    *service.Admin
	sessions *auth.Sessions
	flashes  flash.Store
	render   *Renderer
	nav      []route.NavItem
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

type Options struct {
	Admin    *service.Admin
	Sessions *auth.Sessions
	Flashes  flash.Store
	Renderer *Renderer
	Location *time.Location
	Logger   *slog.Logger
}

func New(opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Handler{
		admin:    opts.Admin,
		sessions: opts.Sessions,
		flashes:  opts.Flashes,
		render:   opts.Renderer,
		loc:      opts.Location,
		now:      time.Now,
		logger:   opts.Logger,
	}
}

// SetNav installs the sidebar. The server derives it from the same route
// table that references this handler, so it arrives after construction.
func (h *Handler) SetNav(items []route.NavItem) {
	h.nav = items
}

// session returns the session the gate attached. Protected views never run
// without one.
func session(r *http.Request) auth.Session {
	sess, _ := auth.FromContext(r.Context())
	return sess
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("record", raw)
	}
	return id, nil
}

// signOut ends the session locally. Used when the API rejects the token.
func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.FromContext(r.Context()); ok {
		h.admin.Logout(sess)
	}
	h.sessions.Clear(w)
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

// loadFailed renders the retryable error state of a page whose initial fetch
// failed. An expired token signs the administrator out instead.
func (h *Handler) loadFailed(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, apperror.ErrUnauthorized) {
		h.signOut(w, r)
		return
	}
	h.logger.Error("page load failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	h.render.Page(w, statusOf(err), "error", h.page(r, errorPage{
		Message: loadMessage(err, fallback),
		Retry:   r.URL.RequestURI(),
	}))
}

// putFlash stores the message for the session's next page view. A store
// failure only loses the alert.
func (h *Handler) putFlash(r *http.Request, m flash.Message) {
	sess := session(r)
	if sess.ID == "" {
		return
	}
	if err := h.flashes.Put(r.Context(), sess.ID, m); err != nil {
		h.logger.Warn("storing flash failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) takeFlash(r *http.Request) *flash.Message {
	sess := session(r)
	if sess.ID == "" {
		return nil
	}
	m, ok, err := h.flashes.Take(r.Context(), sess.ID)
	if err != nil {
		h.logger.Warn("reading flash failed", slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		return nil
	}
	return &m
}

// back returns to a list page, keeping the view state the form carried in
// its "back" field. Only relative query strings are accepted.
func back(w http.ResponseWriter, r *http.Request, base string) {
	target := base
	if q := r.PostFormValue("back"); strings.HasPrefix(q, "?") && !strings.ContainsAny(q, "\r\n") {
		target += q
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// mutationFailed handles a failed list-page action: expired tokens sign out,
// everything else becomes an error flash on the list.
func (h *Handler) mutationFailed(w http.ResponseWriter, r *http.Request, base string, err error, msg string) {
	if errors.Is(err, apperror.ErrUnauthorized) {
		h.signOut(w, r)
		return
	}
	h.logger.Warn("action failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	h.putFlash(r, flash.Error(msg, flash.ListLifetime))
	back(w, r, base)
}
