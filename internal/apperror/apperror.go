// Package apperror defines the error taxonomy shared by the API client, the
// services and the page handlers.
//
// Every error that crosses a package boundary is either a plain wrapped error
// (fmt.Errorf with %w) or an *AppError wrapping one of the sentinels below.
// Callers branch with errors.Is on the sentinel and read the human-readable
// text with errors.As:
//
//	var appErr *apperror.AppError
//	if errors.Is(err, apperror.ErrConflict) && errors.As(err, &appErr) {
//	    show(appErr.Message)
//	}
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport marks a request that never produced an HTTP response
	// (DNS failure, refused connection, timeout).
	ErrTransport = errors.New("transport failure")

	// ErrUpstream marks any other non-2xx answer from the remote API.
	ErrUpstream = errors.New("upstream error")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Status  int    // Optional: HTTP status reported by the remote API
}

func (e *AppError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized reports that the remote API rejected the bearer token or the
// login credentials.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
		Status:  401,
	}
}

// Transport wraps a network-level failure. The cause stays reachable through
// errors.Unwrap chains so logs keep the original detail.
func Transport(op string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrTransport, cause),
		Message: fmt.Sprintf("%s: %v", op, cause),
	}
}

// Upstream builds the error for a non-2xx response. sentinel is the class the
// status maps to; message is the body's message/error field, or a fallback.
func Upstream(sentinel error, status int, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
		Status:  status,
	}
}

// MessageOf returns the human-readable message of the first AppError in the
// chain, or fallback when there is none or it is empty.
func MessageOf(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
