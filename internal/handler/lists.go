package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/pin-admin/internal/api"
	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/flash"
	"github.com/sakif/pin-admin/internal/model"
	"github.com/sakif/pin-admin/internal/table"
)

// listPage is the view model of every management table.
type listPage[T any] struct {
	View     table.View[T]
	Back     string // current view state, posted back by row forms
	Reload   string
	NewURL   string
	NewLabel string
}

func renderList[T any](h *Handler, w http.ResponseWriter, r *http.Request, tbl *table.Table[T], rows []T, fill func(*listPage[T])) {
	v := tbl.Derive(rows, tbl.Decode(r.URL.Query()))
	lp := listPage[T]{
		View:   v,
		Back:   v.State.Href(),
		Reload: tbl.Base() + "/reload",
	}
	if fill != nil {
		fill(&lp)
	}
	h.render.Page(w, http.StatusOK, "list", h.page(r, lp))
}

func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	rows, err := h.admin.Users(r.Context(), sess)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to load users")
		return
	}
	renderList(h, w, r, h.userTable(sess), rows, nil)
}

func (h *Handler) Pins(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	rows, err := h.admin.Pins(r.Context(), sess)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to load pins")
		return
	}
	renderList(h, w, r, h.pinTable(sess), rows, nil)
}

func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	rows, err := h.admin.Models(r.Context(), session(r))
	if err != nil {
		h.loadFailed(w, r, err, "Failed to load models")
		return
	}
	renderList(h, w, r, h.modelTable(), rows, func(lp *listPage[model.AIModel]) {
		lp.NewURL, lp.NewLabel = "/models/create", "Create Model"
	})
}

func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	rows, err := h.admin.Tags(r.Context(), sess)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to load tags")
		return
	}
	renderList(h, w, r, h.tagTable(sess), rows, func(lp *listPage[model.Tag]) {
		lp.NewURL, lp.NewLabel = "/tags/create", "Create Tag"
	})
}

func (h *Handler) Keywords(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	rows, err := h.admin.Keywords(r.Context(), sess)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to load keywords")
		return
	}
	renderList(h, w, r, h.keywordTable(sess), rows, nil)
}

// SaveKeyword confirms the inline create row of the keyword table. Blank
// input closes the row without calling the API.
func (h *Handler) SaveKeyword(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	saved, err := h.keywordTable(sess).Save(r.Context(), r.PostFormValue("keyword"))
	switch {
	case err != nil:
		h.mutationFailed(w, r, "/keywords", err, formMessage(err, "Failed to create keyword."))
		return
	case saved:
		h.putFlash(r, flash.Success("Keyword created successfully!", flash.ListLifetime))
	}
	back(w, r, "/keywords")
}

func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	rows, err := h.admin.Reports(r.Context(), sess)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to load reports")
		return
	}
	renderList(h, w, r, h.reportTable(sess, rows), rows, nil)
}

func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	rows, err := h.admin.Activity(r.Context(), 0)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to load activity")
		return
	}
	renderList(h, w, r, h.activityTable(), rows, func(lp *listPage[model.Activity]) {
		lp.Reload = ""
	})
}

// invoker is the part of a table the delete action needs.
type invoker interface {
	Invoke(ctx context.Context, name, key string) error
}

// Delete returns the POST handler of a table's delete row action. noun is
// the record name used in the flash ("Keyword deleted successfully!").
func (h *Handler) Delete(build func(auth.Session) invoker, base, noun string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			h.mutationFailed(w, r, base, err, "Failed to delete "+strings.ToLower(noun)+".")
			return
		}
		err = build(session(r)).Invoke(r.Context(), table.ActionDelete, str(id))
		if errors.Is(err, table.ErrNoAction) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			h.mutationFailed(w, r, base, err, "Failed to delete "+strings.ToLower(noun)+".")
			return
		}
		h.putFlash(r, flash.Success(noun+" deleted successfully!", flash.ListLifetime))
		back(w, r, base)
	}
}

// Deleters for the tables that support the delete action.

func (h *Handler) DeleteUser() http.HandlerFunc {
	return h.Delete(func(s auth.Session) invoker { return h.userTable(s) }, "/users", "User")
}

func (h *Handler) DeletePin() http.HandlerFunc {
	return h.Delete(func(s auth.Session) invoker { return h.pinTable(s) }, "/pins", "Pin")
}

func (h *Handler) DeleteTag() http.HandlerFunc {
	return h.Delete(func(s auth.Session) invoker { return h.tagTable(s) }, "/tags", "Tag")
}

func (h *Handler) DeleteKeyword() http.HandlerFunc {
	return h.Delete(func(s auth.Session) invoker { return h.keywordTable(s) }, "/keywords", "Keyword")
}

func (h *Handler) DeleteReport() http.HandlerFunc {
	return h.Delete(func(s auth.Session) invoker { return h.reportTable(s, nil) }, "/reports", "Report")
}

// SetRole handles the inline role select of the user table.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.mutationFailed(w, r, "/users", err, "Failed to update role.")
		return
	}
	role, err := model.ParseRole(r.PostFormValue("role"))
	if err != nil {
		h.mutationFailed(w, r, "/users", err, "Failed to update role.")
		return
	}
	if _, err := h.admin.SetRole(r.Context(), session(r), id, role); err != nil {
		h.mutationFailed(w, r, "/users", err, "Failed to update role.")
		return
	}
	h.putFlash(r, flash.Success("Role updated successfully!", flash.ListLifetime))
	back(w, r, "/users")
}

// Reload drops the session's snapshot of one collection and shows the list
// again, freshly fetched.
func (h *Handler) Reload(c api.Collection, base string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.admin.Reload(session(r), c)
		back(w, r, base)
	}
}
