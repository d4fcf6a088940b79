// Package service contains the business logic layer of the console.
//
// Handlers never talk to the remote API directly. They call Admin, which
//
//   - serves collections from the per-session snapshot, fetching on a miss
//   - applies the record the API returns after a mutation to that snapshot
//   - writes one activity entry per mutation to the local repository
//
// Admin knows nothing about HTTP requests or templates. It takes the caller's
// auth.Session (session id, admin email, bearer token) and plain values.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/pin-admin/internal/api"
	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/model"
	"github.com/sakif/pin-admin/internal/repository"
	"github.com/sakif/pin-admin/internal/snapshot"
)

const (
	DefaultActivityLimit = 500
	MaxActivityLimit     = 5000
)

// Gateway is the part of the remote API used on behalf of one signed-in
// administrator. *api.Session satisfies it.
type Gateway interface {
	Me(ctx context.Context) (model.Admin, error)

	Users(ctx context.Context) ([]model.User, error)
	Pins(ctx context.Context) ([]model.Pin, error)
	Models(ctx context.Context) ([]model.AIModel, error)
	Tags(ctx context.Context) ([]model.Tag, error)
	Keywords(ctx context.Context) ([]model.Keyword, error)
	Reports(ctx context.Context) ([]model.Report, error)

	User(ctx context.Context, uid int64) (model.UserDetail, error)
	Pin(ctx context.Context, pid int64) (model.PinDetail, error)
	Model(ctx context.Context, mid int64) (model.AIModel, error)
	Tag(ctx context.Context, tid int64) (model.Tag, error)

	CreateModel(ctx context.Context, in model.AIModelInput) (model.AIModel, error)
	UpdateModel(ctx context.Context, mid int64, in model.AIModelInput) (model.AIModel, error)
	CreateTag(ctx context.Context, in model.TagInput) (model.Tag, error)
	UpdateTag(ctx context.Context, tid int64, in model.TagInput) (model.Tag, error)
	CreateKeyword(ctx context.Context, keyword string) (model.Keyword, error)
	SetRole(ctx context.Context, uid int64, role model.Role) (model.User, error)
	Delete(ctx context.Context, c api.Collection, key int64) error

	NewUsers(ctx context.Context) (model.NewUserSummary, error)
	NewPins(ctx context.Context) (model.NewPinSummary, error)
	ActiveUsers(ctx context.Context) (model.UserActiveSummary, error)
	Interaction(ctx context.Context) (model.InteractionSummary, error)
}

// Authenticator exchanges credentials for a bearer token. *api.Client
// satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Dialer binds a Gateway to a bearer token.
type Dialer func(token string) Gateway

// ClientDialer adapts an *api.Client to a Dialer.
func ClientDialer(c *api.Client) Dialer {
	return func(token string) Gateway { return c.Session(token) }
}

type Admin struct {
	login    Authenticator
	dial     Dialer
	cache    *snapshot.Cache
	activity repository.ActivityRepository
	logger   *slog.Logger
}

func NewAdmin(login Authenticator, dial Dialer, cache *snapshot.Cache, activity repository.ActivityRepository, logger *slog.Logger) *Admin {
	return &Admin{
		login:    login,
		dial:     dial,
		cache:    cache,
		activity: activity,
		logger:   logger,
	}
}

func (s *Admin) gw(sess auth.Session) Gateway {
	return s.dial(sess.Token)
}

// load is the shared read path: snapshot hit or one fetch through the
// session's gateway.
func load[T any](ctx context.Context, s *Admin, sess auth.Session, c api.Collection, fetch func(Gateway) func(context.Context) ([]T, error)) ([]T, error) {
	rows, err := snapshot.Load(ctx, s.cache, sess.ID, string(c), fetch(s.gw(sess)))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", c, err)
	}
	return rows, nil
}

func (s *Admin) Users(ctx context.Context, sess auth.Session) ([]model.User, error) {
	return load(ctx, s, sess, api.Users, func(g Gateway) func(context.Context) ([]model.User, error) { return g.Users })
}

func (s *Admin) Pins(ctx context.Context, sess auth.Session) ([]model.Pin, error) {
	return load(ctx, s, sess, api.Pins, func(g Gateway) func(context.Context) ([]model.Pin, error) { return g.Pins })
}

func (s *Admin) Models(ctx context.Context, sess auth.Session) ([]model.AIModel, error) {
	return load(ctx, s, sess, api.Models, func(g Gateway) func(context.Context) ([]model.AIModel, error) { return g.Models })
}

func (s *Admin) Tags(ctx context.Context, sess auth.Session) ([]model.Tag, error) {
	return load(ctx, s, sess, api.Tags, func(g Gateway) func(context.Context) ([]model.Tag, error) { return g.Tags })
}

func (s *Admin) Keywords(ctx context.Context, sess auth.Session) ([]model.Keyword, error) {
	return load(ctx, s, sess, api.Keywords, func(g Gateway) func(context.Context) ([]model.Keyword, error) { return g.Keywords })
}

func (s *Admin) Reports(ctx context.Context, sess auth.Session) ([]model.Report, error) {
	return load(ctx, s, sess, api.Reports, func(g Gateway) func(context.Context) ([]model.Report, error) { return g.Reports })
}

// Detail pages always go to the API; only list collections are snapshotted.

func (s *Admin) User(ctx context.Context, sess auth.Session, uid int64) (model.UserDetail, error) {
	return s.gw(sess).User(ctx, uid)
}

func (s *Admin) Pin(ctx context.Context, sess auth.Session, pid int64) (model.PinDetail, error) {
	return s.gw(sess).Pin(ctx, pid)
}

func (s *Admin) Model(ctx context.Context, sess auth.Session, mid int64) (model.AIModel, error) {
	return s.gw(sess).Model(ctx, mid)
}

func (s *Admin) Tag(ctx context.Context, sess auth.Session, tid int64) (model.Tag, error) {
	return s.gw(sess).Tag(ctx, tid)
}

// Reload discards the session's snapshot of one collection so the next read
// refetches it.
func (s *Admin) Reload(sess auth.Session, c api.Collection) {
	s.cache.Invalidate(sess.ID, string(c))
	s.logger.Debug("snapshot invalidated",
		slog.String("session", sess.ID),
		slog.String("collection", string(c)),
	)
}

// Activity lists the local audit log, newest first.
func (s *Admin) Activity(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	rows, err := s.activity.List(ctx, repository.ListOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return rows, nil
}

// PruneActivity deletes audit entries older than retention and reports how
// many went.
func (s *Admin) PruneActivity(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.activity.Prune(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("pruning activity: %w", err)
	}
	if n > 0 {
		s.logger.Info("activity pruned", slog.Int64("removed", n))
	}
	return n, nil
}

// record writes the audit entry for a mutation. A failing audit write is
// logged and never fails the mutation itself.
func (s *Admin) record(ctx context.Context, sess auth.Session, action string, c api.Collection, id string, err error) {
	a := &model.Activity{
		Admin:    sess.Email,
		Action:   action,
		Entity:   string(c),
		EntityID: id,
		Outcome:  model.OutcomeSuccess,
	}
	if err != nil {
		a.Outcome = model.OutcomeFailure
		a.Detail = err.Error()
	}
	if rerr := s.activity.Record(context.WithoutCancel(ctx), a); rerr != nil {
		s.logger.Error("failed to record activity",
			slog.String("action", action),
			slog.String("entity", string(c)),
			slog.String("error", rerr.Error()),
		)
	}
}
