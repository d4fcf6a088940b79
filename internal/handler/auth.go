package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/pin-admin/internal/apperror"
	"github.com/sakif/pin-admin/internal/auth"
)

const (
	msgLoginFailed = "Login failed. Please try again."
	msgRateLimited = "Too many sign-in attempts. Please wait a minute and try again."
)

// loginPage is the view model of the sign-in form.
type loginPage struct {
	Email string
	Error string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request, status int, lp loginPage) {
	p := h.page(r, lp)
	p.Bare, p.Title = true, "Sign in"
	h.render.Page(w, status, "login", p)
}

// LoginForm shows the sign-in page, or sends an already signed-in
// administrator to the dashboard.
//
// HTTP: GET /login
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.Read(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.showLogin(w, r, http.StatusOK, loginPage{})
}

// Login exchanges the submitted credentials for an API token and stores it
// in the session cookie.
//
// HTTP: POST /login
//
// The password is never stored or logged. A failed attempt re-renders the
// form with the email kept and one of the fixed messages.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	token, err := h.admin.Login(r.Context(), email, password)
	if err != nil {
		status := statusOf(err)
		if errors.Is(err, apperror.ErrUnauthorized) {
			status = http.StatusOK
		}
		h.showLogin(w, r, status, loginPage{Email: email, Error: apperror.MessageOf(err, msgLoginFailed)})
		return
	}

	if _, err := h.sessions.Issue(w, email, token); err != nil {
		h.logger.Error("issuing session failed", slog.String("error", err.Error()))
		h.showLogin(w, r, http.StatusInternalServerError, loginPage{Email: email, Error: msgLoginFailed})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoginLimited answers sign-in attempts over the rate limit.
func (h *Handler) LoginLimited(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r, http.StatusTooManyRequests, loginPage{
		Email: strings.TrimSpace(r.PostFormValue("email")),
		Error: msgRateLimited,
	})
}

// Logout forgets the session's snapshots and clears the cookie.
//
// HTTP: POST /logout
//
// Logout changes state, so it is a POST: a GET could be triggered by a
// prefetch or a cross-site link.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := h.sessions.Read(r); ok {
		h.admin.Logout(sess)
	}
	h.sessions.Clear(w)
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
