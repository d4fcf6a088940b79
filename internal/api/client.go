// Package api is the typed client for the platform's admin REST API.
//
// Client holds the shared transport and serves the unauthenticated login
// call. Session binds a Client to one administrator's bearer token through
// an oauth2 static token source; every other endpoint hangs off Session.
//
// Errors follow internal/apperror: transport failures wrap ErrTransport,
// non-2xx answers map by status (401 ErrUnauthorized, 404 ErrNotFound,
// 409 ErrConflict, anything else ErrUpstream) and carry the body's
// "message" or "error" field verbatim.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/sakif/pin-admin/internal/apperror"
)

// Prefix is the path prefix of every admin endpoint.
const Prefix = "/api/auth/admin"

const maxBody = 8 << 20

// Observer receives one observation per upstream call. status is 0 when no
// response arrived.
type Observer interface {
	ObserveUpstream(op string, status int, d time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *slog.Logger
	Observer  Observer
}

// Client talks to one API base URL.
type Client struct {
	baseURL  string
	hc       *http.Client
	logger   *slog.Logger
	observer Observer
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		hc:       &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		logger:   opts.Logger,
		observer: opts.Observer,
	}
}

// Session is a Client acting with one bearer token.
type Session struct {
	c  *Client
	hc *http.Client
}

// Session returns a view of the client that authenticates every request with
// token. It performs no I/O.
func (c *Client) Session(token string) *Session {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.hc)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &Session{c: c, hc: oauth2.NewClient(ctx, src)}
}

// call is one request: op is the low-cardinality name used in logs and
// metrics, path is relative to Prefix.
type call struct {
	op     string
	method string
	path   string
	in     any
	out    any
}

func (c *Client) do(ctx context.Context, hc *http.Client, cl call) error {
	var body io.Reader
	if cl.in != nil {
		b, err := json.Marshal(cl.in)
		if err != nil {
			return fmt.Errorf("api: %s: encoding request: %w", cl.op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+Prefix+cl.path, body)
	if err != nil {
		return fmt.Errorf("api: %s: building request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestID(ctx))

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.observe(cl.op, 0, time.Since(start))
		c.logger.WarnContext(ctx, "api call failed",
			slog.String("op", cl.op),
			slog.String("error", err.Error()),
		)
		return apperror.Transport(cl.op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	c.observe(cl.op, resp.StatusCode, time.Since(start))
	if err != nil {
		return apperror.Transport(cl.op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.InfoContext(ctx, "api call rejected",
			slog.String("op", cl.op),
			slog.Int("status", resp.StatusCode),
		)
		return statusError(resp.StatusCode, data)
	}
	if cl.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, cl.out); err != nil {
		return fmt.Errorf("api: %s: decoding response: %w", cl.op, err)
	}
	return nil
}

func (c *Client) observe(op string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(op, status, d)
	}
}

func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// errorBody is the error shape the API uses; either field may be set.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

func statusError(status int, data []byte) error {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	msg := eb.text()

	switch status {
	case http.StatusUnauthorized:
		return apperror.Unauthorized(msg)
	case http.StatusNotFound:
		return apperror.Upstream(apperror.ErrNotFound, status, msg)
	case http.StatusConflict:
		return apperror.Upstream(apperror.ErrConflict, status, msg)
	case http.StatusForbidden:
		return apperror.Upstream(apperror.ErrForbidden, status, msg)
	}
	return apperror.Upstream(apperror.ErrUpstream, status, msg)
}

// unwrap returns the value under the first present key of an object
// envelope, or data itself when none is present.
func unwrap(data json.RawMessage, keys ...string) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return data
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return data
	}
	for _, k := range keys {
		if v, ok := env[k]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v
		}
	}
	return data
}
