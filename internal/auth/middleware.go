package auth

import (
	"log/slog"
	"net/http"
)

// LoginPath is where the gate sends anonymous visitors.
const LoginPath = "/login"

// RequireToken is the gate in front of every protected page. It only checks
// that a session with a bearer token is present; it never calls the API.
// Without one it redirects to LoginPath and the wrapped view never runs.
func RequireToken(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := sessions.Read(r)
			if !ok {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// Profiles attaches a fresh ProfileAccessor to every request. Nothing is
// fetched until a handler or the layout calls Load.
func Profiles(sessions *Sessions, source ProfileSource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := sessions.Read(r)
			p := NewProfileAccessor(sess.Token, source, logger)
			next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), p)))
		})
	}
}
