package handler

import (
	"net/http"

	"github.com/sakif/pin-admin/internal/apperror"
	"github.com/sakif/pin-admin/internal/auth"
)

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.admin.Dashboard(r.Context(), session(r))
	if err != nil {
		h.loadFailed(w, r, err, "Failed to load dashboard")
		return
	}
	h.render.Page(w, http.StatusOK, "dashboard", h.page(r, d))
}

// Account shows the signed-in administrator's profile. It is the request's
// profile accessor that fetches it, the same one the layout uses.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	profile := auth.ProfileFrom(r.Context())
	admin, state := profile.Load(r.Context())
	if state != auth.ProfilePresent {
		err := profile.Err()
		if err == nil {
			err = apperror.Upstream(apperror.ErrUpstream, 0, "")
		}
		h.loadFailed(w, r, err, "Failed to load profile")
		return
	}
	h.render.Page(w, http.StatusOK, "account", h.page(r, admin))
}

func (h *Handler) ViewUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to fetch user")
		return
	}
	u, err := h.admin.User(r.Context(), session(r), id)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to fetch user")
		return
	}
	h.render.Page(w, http.StatusOK, "user", h.page(r, u))
}

func (h *Handler) ViewPin(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to fetch pin")
		return
	}
	p, err := h.admin.Pin(r.Context(), session(r), id)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to fetch pin")
		return
	}
	h.render.Page(w, http.StatusOK, "pin", h.page(r, p))
}
