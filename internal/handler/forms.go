package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/pin-admin/internal/apperror"
	"github.com/sakif/pin-admin/internal/flash"
	"github.com/sakif/pin-admin/internal/model"
)

// formPage is the view model of the create and edit forms.
type formPage struct {
	Heading string
	Action  string
	Submit  string
	Cancel  string
	Fields  []formField
	Alert   *flash.Message
}

type formField struct {
	Name      string
	Label     string
	Value     string
	Multiline bool
	Required  bool
	Invalid   bool
}

func modelForm(heading, action, submit string, in model.AIModelInput, withLink bool) formPage {
	f := formPage{
		Heading: heading,
		Action:  action,
		Submit:  submit,
		Cancel:  "/models",
		Fields: []formField{
			{Name: "model_name", Label: "Model Name", Value: in.Name, Required: true},
			{Name: "model_description", Label: "Model Description", Value: in.Description, Multiline: true, Required: true},
		},
	}
	if withLink {
		f.Fields = append(f.Fields, formField{Name: "model_link", Label: "Model Link", Value: in.Link, Required: true})
	}
	return f
}

func tagForm(heading, action, submit string, in model.TagInput) formPage {
	return formPage{
		Heading: heading,
		Action:  action,
		Submit:  submit,
		Cancel:  "/tags",
		Fields: []formField{
			{Name: "tag_content", Label: "Tag Content", Value: in.TagContent, Required: true},
			{Name: "tag_description", Label: "Tag Description", Value: in.TagDescription, Multiline: true, Required: true},
		},
	}
}

// showForm renders f. A non-nil err becomes the form's alert and marks the
// offending field; the submitted values stay in place.
func (h *Handler) showForm(w http.ResponseWriter, r *http.Request, f formPage, err error, fallback string) {
	status := http.StatusOK
	if err != nil {
		status = statusOf(err)
		m := flash.Error(formMessage(err, fallback), flash.FormLifetime)
		f.Alert = &m
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Field != "" {
			for i := range f.Fields {
				f.Fields[i].Invalid = f.Fields[i].Name == appErr.Field
			}
		}
	}
	h.render.Page(w, status, "form", h.page(r, f))
}

// submitFailed re-renders the form after a failed submit, unless the token
// expired.
func (h *Handler) submitFailed(w http.ResponseWriter, r *http.Request, f formPage, err error, fallback string) {
	if errors.Is(err, apperror.ErrUnauthorized) {
		h.signOut(w, r)
		return
	}
	h.logger.Warn("form submit failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	h.showForm(w, r, f, err, fallback)
}

func modelInput(r *http.Request) model.AIModelInput {
	return model.AIModelInput{
		Name:        r.PostFormValue("model_name"),
		Description: r.PostFormValue("model_description"),
		Link:        r.PostFormValue("model_link"),
	}
}

func tagInput(r *http.Request) model.TagInput {
	return model.TagInput{
		TagContent:     r.PostFormValue("tag_content"),
		TagDescription: r.PostFormValue("tag_description"),
	}
}

func (h *Handler) NewModel(w http.ResponseWriter, r *http.Request) {
	h.showForm(w, r, modelForm("Create New Model", "/models/create", "Create Model", model.AIModelInput{}, false), nil, "")
}

func (h *Handler) CreateModel(w http.ResponseWriter, r *http.Request) {
	in := modelInput(r)
	if _, err := h.admin.CreateModel(r.Context(), session(r), in); err != nil {
		h.submitFailed(w, r, modelForm("Create New Model", "/models/create", "Create Model", in, false), err, "Failed to create model.")
		return
	}
	h.putFlash(r, flash.Success("Model created successfully!", flash.ListLifetime))
	http.Redirect(w, r, "/models", http.StatusSeeOther)
}

func (h *Handler) EditModel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to fetch model data.")
		return
	}
	m, err := h.admin.Model(r.Context(), session(r), id)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to fetch model data.")
		return
	}
	in := model.AIModelInput{Name: m.Name, Description: m.Description, Link: m.Link}
	h.showForm(w, r, modelForm("Edit Model", r.URL.Path, "Update Model", in, true), nil, "")
}

func (h *Handler) UpdateModel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to update model.")
		return
	}
	in := modelInput(r)
	if _, err := h.admin.UpdateModel(r.Context(), session(r), id, in); err != nil {
		h.submitFailed(w, r, modelForm("Edit Model", r.URL.Path, "Update Model", in, true), err, "Failed to update model.")
		return
	}
	h.putFlash(r, flash.Success("Model updated successfully!", flash.ListLifetime))
	http.Redirect(w, r, "/models", http.StatusSeeOther)
}

func (h *Handler) NewTag(w http.ResponseWriter, r *http.Request) {
	h.showForm(w, r, tagForm("Create New Tag", "/tags/create", "Create Tag", model.TagInput{}), nil, "")
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	in := tagInput(r)
	if _, err := h.admin.CreateTag(r.Context(), session(r), in); err != nil {
		h.submitFailed(w, r, tagForm("Create New Tag", "/tags/create", "Create Tag", in), err, "Failed to create tag.")
		return
	}
	h.putFlash(r, flash.Success("Tag created successfully!", flash.ListLifetime))
	http.Redirect(w, r, "/tags", http.StatusSeeOther)
}

func (h *Handler) EditTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to fetch tag data.")
		return
	}
	t, err := h.admin.Tag(r.Context(), session(r), id)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to fetch tag data.")
		return
	}
	in := model.TagInput{TagContent: t.TagContent, TagDescription: t.TagDescription}
	h.showForm(w, r, tagForm("Edit Tag", r.URL.Path, "Update Tag", in), nil, "")
}

func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.loadFailed(w, r, err, "Failed to update tag.")
		return
	}
	in := tagInput(r)
	if _, err := h.admin.UpdateTag(r.Context(), session(r), id, in); err != nil {
		h.submitFailed(w, r, tagForm("Edit Tag", r.URL.Path, "Update Tag", in), err, "Failed to update tag.")
		return
	}
	h.putFlash(r, flash.Success("Tag updated successfully!", flash.ListLifetime))
	http.Redirect(w, r, "/tags", http.StatusSeeOther)
}
