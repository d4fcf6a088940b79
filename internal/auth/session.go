// Package auth keeps the administrator's session in a signed cookie and
// gates protected pages on it.
//
// SESSION ENVELOPE:
// The remote API issues an opaque bearer token at login. We never interpret
// that token; we wrap it in a short HS256 JWT together with a local session
// id and store the result in the HttpOnly "token" cookie:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: {"jti": "<xid>", "sub": "<email>", "tok": "<bearer>", "exp": ...}
//
// The signature only proves the cookie came from this server. An envelope
// that fails verification is treated exactly like a missing cookie. Whether
// the bearer token is still accepted upstream is discovered by the first API
// call that uses it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// CookieName is the cookie holding the session envelope.
const CookieName = "token"

const issuer = "pin-admin"

// Session is the decoded envelope.
type Session struct {
	ID    string // local session id, keys the flash store and snapshot cache
	Email string
	Token string // upstream bearer token
}

// Sessions encodes, decodes and stores session envelopes.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessions creates the codec. The secret must be at least 16 characters.
func NewSessions(secret string, ttl time.Duration, secure bool) (*Sessions, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}, nil
}

type claims struct {
	jwt.RegisteredClaims
	Token string `json:"tok"`
}

// Encode signs s into an envelope string.
func (s *Sessions) Encode(sess Session) (string, error) {
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.Email,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Token: sess.Token,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session: %w", err)
	}
	return signed, nil
}

// Decode verifies an envelope. Only HS256 envelopes from this issuer with an
// expiry are accepted.
func (s *Sessions) Decode(raw string) (Session, error) {
	token, err := jwt.ParseWithClaims(
		raw,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, errors.New("auth: session expired")
		}
		return Session{}, fmt.Errorf("auth: invalid session: %w", err)
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.ID == "" {
		return Session{}, errors.New("auth: invalid session claims")
	}
	return Session{ID: c.ID, Email: c.Subject, Token: c.Token}, nil
}

// Issue starts a new session for token and sets the cookie.
func (s *Sessions) Issue(w http.ResponseWriter, email, token string) (Session, error) {
	sess := Session{ID: xid.New().String(), Email: email, Token: token}
	raw, err := s.Encode(sess)
	if err != nil {
		return Session{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    raw,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(s.ttl),
	})
	return sess, nil
}

// Read returns the request's session. A missing, tampered or expired
// envelope, or one without a bearer token, reports false.
func (s *Sessions) Read(r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, false
	}
	sess, err := s.Decode(cookie.Value)
	if err != nil || sess.Token == "" {
		return Session{}, false
	}
	return sess, true
}

// Clear expires the cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

type contextKey string

const (
	sessionKey contextKey = "session"
	profileKey contextKey = "profile"
)

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// FromContext returns the session placed by RequireToken.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey).(Session)
	return sess, ok && sess.Token != ""
}
