package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sakif/pin-admin/internal/model"
)

// ProfileState is the lifecycle of a ProfileAccessor.
type ProfileState int

const (
	ProfileLoading ProfileState = iota // not loaded yet
	ProfileNone                        // no token, or the fetch failed
	ProfilePresent
)

func (s ProfileState) String() string {
	switch s {
	case ProfileNone:
		return "none"
	case ProfilePresent:
		return "present"
	}
	return "loading"
}

// ProfileSource fetches the profile for a bearer token.
type ProfileSource func(ctx context.Context, token string) (model.Admin, error)

// ProfileAccessor loads the signed-in administrator's profile at most once.
// One accessor lives for one request.
type ProfileAccessor struct {
	token  string
	source ProfileSource
	logger *slog.Logger

	once  sync.Once
	mu    sync.Mutex
	state ProfileState
	admin model.Admin
	err   error
}

func NewProfileAccessor(token string, source ProfileSource, logger *slog.Logger) *ProfileAccessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileAccessor{token: token, source: source, logger: logger}
}

// Load returns the profile. Without a token it settles on ProfileNone
// without any request; otherwise it fetches once and every later call
// returns the same result.
func (p *ProfileAccessor) Load(ctx context.Context) (model.Admin, ProfileState) {
	p.once.Do(func() {
		state, admin := ProfileNone, model.Admin{}
		var err error
		if p.token != "" && p.source != nil {
			var a model.Admin
			if a, err = p.source(ctx, p.token); err != nil {
				p.logger.WarnContext(ctx, "loading admin profile failed", slog.String("error", err.Error()))
			} else {
				state, admin = ProfilePresent, a
			}
		}
		p.mu.Lock()
		p.state, p.admin, p.err = state, admin, err
		p.mu.Unlock()
	})
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.admin, p.state
}

// State reports the current state without loading.
func (p *ProfileAccessor) State() ProfileState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the error of a failed fetch, or nil.
func (p *ProfileAccessor) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// WithProfile stores p in ctx.
func WithProfile(ctx context.Context, p *ProfileAccessor) context.Context {
	return context.WithValue(ctx, profileKey, p)
}

// ProfileFrom returns the request's accessor, or an accessor that always
// reports ProfileNone.
func ProfileFrom(ctx context.Context) *ProfileAccessor {
	if p, ok := ctx.Value(profileKey).(*ProfileAccessor); ok {
		return p
	}
	return NewProfileAccessor("", nil, nil)
}
