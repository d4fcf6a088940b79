package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/pin-admin/internal/apperror"
	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/model"
)

const (
	MsgBadCredentials = "Incorrect email or password."
	MsgUnreachable    = "Failed to connect to the server. Please try again later."
)

// Login exchanges the administrator's credentials for a bearer token.
//
// A 401 from the API becomes ErrUnauthorized with MsgBadCredentials, a
// network failure keeps ErrTransport but carries MsgUnreachable. Anything
// else is returned as the API reported it.
func (s *Admin) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperror.ValidationFailed("email", "Email is required")
	}
	if password == "" {
		return "", apperror.ValidationFailed("password", "Password is required")
	}

	token, err := s.login.Login(ctx, email, password)
	switch {
	case err == nil:
		s.logger.Info("admin signed in", slog.String("email", email))
		return token, nil
	case errors.Is(err, apperror.ErrUnauthorized):
		s.logger.Warn("sign-in rejected", slog.String("email", email))
		return "", apperror.Unauthorized(MsgBadCredentials)
	case errors.Is(err, apperror.ErrTransport):
		s.logger.Error("sign-in failed: API unreachable", slog.String("error", err.Error()))
		return "", &apperror.AppError{Err: err, Message: MsgUnreachable}
	default:
		return "", fmt.Errorf("signing in: %w", err)
	}
}

// Logout forgets everything cached for the session.
func (s *Admin) Logout(sess auth.Session) {
	s.cache.Drop(sess.ID)
	s.logger.Info("admin signed out", slog.String("email", sess.Email))
}

// Profile is the auth.ProfileSource backed by GET /me.
func (s *Admin) Profile(ctx context.Context, token string) (model.Admin, error) {
	return s.dial(token).Me(ctx)
}
