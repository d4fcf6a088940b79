package handler

// RESPONSE HELPERS:
// Pages are HTML, but the status code still follows the error class so
// proxies, logs and metrics see what happened. The mapping lives here and
// nowhere else.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/pin-admin/internal/apperror"
)

// writeJSON sends a JSON response with the given status code. Only the
// health endpoint speaks JSON.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusOf maps a domain error to the status of the page that reports it.
func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrTransport), errors.Is(err, apperror.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// loadMessage is the text of a page's error state. Lists show their fixed
// fallback; a missing or forbidden record shows what the API said.
func loadMessage(err error, fallback string) string {
	if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrForbidden) {
		return apperror.MessageOf(err, fallback)
	}
	return fallback
}

// formMessage is the alert shown on a form after a failed submit. The API's
// own message is shown verbatim; a network failure never leaks its detail.
func formMessage(err error, fallback string) string {
	if errors.Is(err, apperror.ErrTransport) {
		return fallback
	}
	return apperror.MessageOf(err, fallback)
}
