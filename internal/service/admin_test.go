package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pin-admin/internal/api"
	"github.com/sakif/pin-admin/internal/apperror"
	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/model"
	"github.com/sakif/pin-admin/internal/repository"
	"github.com/sakif/pin-admin/internal/snapshot"
)

// =========================================================================
// FAKES
// =========================================================================
//
// fakeGateway stands in for the remote API. Each collection is a slice the
// test seeds; calls counts list fetches so tests can tell snapshot hits from
// refetches. Any field ending in Err makes the matching call fail.

type fakeGateway struct {
	mu    sync.Mutex
	calls map[string]int

	users    []model.User
	models   []model.AIModel
	tags     []model.Tag
	keywords []model.Keyword

	createdModel model.AIModel
	updatedTag   model.Tag
	roleEcho     model.User

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	cardErr map[string]error
	deleted []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{calls: map[string]int{}, cardErr: map[string]error{}}
}

func (f *fakeGateway) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeGateway) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeGateway) Me(context.Context) (model.Admin, error) {
	f.hit("me")
	return model.Admin{Username: "root", Email: "root@example.com"}, nil
}

func (f *fakeGateway) Users(context.Context) ([]model.User, error) {
	f.hit("users")
	return f.users, f.listErr
}

func (f *fakeGateway) Pins(context.Context) ([]model.Pin, error) {
	f.hit("pins")
	return nil, f.listErr
}

func (f *fakeGateway) Models(context.Context) ([]model.AIModel, error) {
	f.hit("models")
	return f.models, f.listErr
}

func (f *fakeGateway) Tags(context.Context) ([]model.Tag, error) {
	f.hit("tags")
	return f.tags, f.listErr
}

func (f *fakeGateway) Keywords(context.Context) ([]model.Keyword, error) {
	f.hit("keyword")
	return f.keywords, f.listErr
}

func (f *fakeGateway) Reports(context.Context) ([]model.Report, error) {
	f.hit("report")
	return nil, f.listErr
}

func (f *fakeGateway) User(_ context.Context, uid int64) (model.UserDetail, error) {
	return model.UserDetail{UID: uid}, nil
}

func (f *fakeGateway) Pin(_ context.Context, pid int64) (model.PinDetail, error) {
	return model.PinDetail{PID: pid}, nil
}

func (f *fakeGateway) Model(_ context.Context, mid int64) (model.AIModel, error) {
	return model.AIModel{MID: mid}, nil
}

func (f *fakeGateway) Tag(_ context.Context, tid int64) (model.Tag, error) {
	return model.Tag{TID: tid}, nil
}

func (f *fakeGateway) CreateModel(_ context.Context, in model.AIModelInput) (model.AIModel, error) {
	if f.createErr != nil {
		return model.AIModel{}, f.createErr
	}
	return f.createdModel, nil
}

func (f *fakeGateway) UpdateModel(_ context.Context, mid int64, in model.AIModelInput) (model.AIModel, error) {
	if f.updateErr != nil {
		return model.AIModel{}, f.updateErr
	}
	return model.AIModel{MID: mid, Name: in.Name, Description: in.Description}, nil
}

func (f *fakeGateway) CreateTag(_ context.Context, in model.TagInput) (model.Tag, error) {
	if f.createErr != nil {
		return model.Tag{}, f.createErr
	}
	return model.Tag{TID: 99, TagContent: in.TagContent, TagDescription: in.TagDescription}, nil
}

func (f *fakeGateway) UpdateTag(_ context.Context, _ int64, _ model.TagInput) (model.Tag, error) {
	if f.updateErr != nil {
		return model.Tag{}, f.updateErr
	}
	return f.updatedTag, nil
}

func (f *fakeGateway) CreateKeyword(_ context.Context, keyword string) (model.Keyword, error) {
	if f.createErr != nil {
		return model.Keyword{}, f.createErr
	}
	return model.Keyword{ID: 7, Keyword: keyword}, nil
}

func (f *fakeGateway) SetRole(_ context.Context, _ int64, _ model.Role) (model.User, error) {
	if f.updateErr != nil {
		return model.User{}, f.updateErr
	}
	return f.roleEcho, nil
}

func (f *fakeGateway) Delete(_ context.Context, c api.Collection, key int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	f.deleted = append(f.deleted, string(c)+"/"+itoa(key))
	f.mu.Unlock()
	return nil
}

func itoa(n int64) string { return key(n) }

func (f *fakeGateway) NewUsers(context.Context) (model.NewUserSummary, error) {
	return model.NewUserSummary{NewUserCount: 4}, f.cardErr["newUser"]
}

func (f *fakeGateway) NewPins(context.Context) (model.NewPinSummary, error) {
	return model.NewPinSummary{NewPostCount: 9}, f.cardErr["newPin"]
}

func (f *fakeGateway) ActiveUsers(context.Context) (model.UserActiveSummary, error) {
	return model.UserActiveSummary{TotalUsers: 10, ActiveUsers: 3}, f.cardErr["userActive"]
}

func (f *fakeGateway) Interaction(context.Context) (model.InteractionSummary, error) {
	return model.InteractionSummary{}, f.cardErr["rateInteractive"]
}

type fakeLogin struct {
	token string
	err   error
	email string
}

func (f *fakeLogin) Login(_ context.Context, email, _ string) (string, error) {
	f.email = email
	return f.token, f.err
}

type mockActivityRepo struct {
	mu      sync.Mutex
	entries []model.Activity
	err     error
}

func (m *mockActivityRepo) Record(_ context.Context, a *model.Activity) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = "act-" + itoa(int64(len(m.entries)+1))
	a.CreatedAt = time.Now()
	m.entries = append(m.entries, *a)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Activity, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		out = append(out, m.entries[i])
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *mockActivityRepo) Prune(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, a := range m.entries {
		if !a.CreatedAt.Before(before) {
			kept = append(kept, a)
		}
	}
	n := int64(len(m.entries) - len(kept))
	m.entries = kept
	return n, nil
}

func (m *mockActivityRepo) last(t *testing.T) model.Activity {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.entries, "no activity recorded")
	return m.entries[len(m.entries)-1]
}

// =========================================================================
// TEST HELPER
// =========================================================================

var testSession = auth.Session{ID: "sess-1", Email: "root@example.com", Token: "tok"}

func newTestAdmin(t *testing.T) (*Admin, *fakeGateway, *mockActivityRepo, *fakeLogin) {
	t.Helper()
	gw := newFakeGateway()
	repo := &mockActivityRepo{}
	login := &fakeLogin{token: "tok"}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cache := snapshot.New(snapshot.Config{TTL: time.Minute})
	svc := NewAdmin(login, func(string) Gateway { return gw }, cache, repo, logger)
	return svc, gw, repo, login
}

// =========================================================================
// SNAPSHOT TESTS
// =========================================================================

func TestUsers_ServedFromSnapshot(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	gw.users = []model.User{{UID: 1}, {UID: 2}}
	ctx := context.Background()

	first, err := svc.Users(ctx, testSession)
	require.NoError(t, err)
	second, err := svc.Users(ctx, testSession)
	require.NoError(t, err)

	assert.Len(t, second, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, gw.count("users"))
}

func TestReload_Refetches(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	ctx := context.Background()

	_, err := svc.Tags(ctx, testSession)
	require.NoError(t, err)
	svc.Reload(testSession, api.Tags)
	_, err = svc.Tags(ctx, testSession)
	require.NoError(t, err)

	assert.Equal(t, 2, gw.count("tags"))
}

func TestList_FetchErrorNotCached(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	gw.listErr = apperror.Transport("GET users", io.ErrUnexpectedEOF)
	ctx := context.Background()

	_, err := svc.Users(ctx, testSession)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrTransport))

	gw.listErr = nil
	gw.users = []model.User{{UID: 1}}
	users, err := svc.Users(ctx, testSession)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSnapshots_ArePerSession(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	ctx := context.Background()
	other := auth.Session{ID: "sess-2", Token: "tok2"}

	_, _ = svc.Keywords(ctx, testSession)
	_, _ = svc.Keywords(ctx, other)

	assert.Equal(t, 2, gw.count("keyword"))
}

func TestLogout_DropsSnapshot(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	ctx := context.Background()

	_, _ = svc.Models(ctx, testSession)
	svc.Logout(testSession)
	_, _ = svc.Models(ctx, testSession)

	assert.Equal(t, 2, gw.count("models"))
}

// =========================================================================
// MUTATION TESTS
// =========================================================================

func TestCreateModel_PrependsCanonicalRecord(t *testing.T) {
	svc, gw, repo, _ := newTestAdmin(t)
	gw.models = []model.AIModel{{MID: 1, Name: "old"}}
	gw.createdModel = model.AIModel{MID: 5, Name: "Diffusion XL", PostCount: 0}
	ctx := context.Background()

	_, err := svc.Models(ctx, testSession)
	require.NoError(t, err)

	m, err := svc.CreateModel(ctx, testSession, model.AIModelInput{Name: "  Diffusion XL ", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), m.MID)

	models, err := svc.Models(ctx, testSession)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, int64(5), models[0].MID, "new record goes first")
	assert.Equal(t, 1, gw.count("models"), "no refetch after create")

	act := repo.last(t)
	assert.Equal(t, ActionCreate, act.Action)
	assert.Equal(t, "models", act.Entity)
	assert.Equal(t, "5", act.EntityID)
	assert.Equal(t, model.OutcomeSuccess, act.Outcome)
	assert.Equal(t, testSession.Email, act.Admin)
}

func TestCreateModel_Validation(t *testing.T) {
	svc, _, repo, _ := newTestAdmin(t)

	_, err := svc.CreateModel(context.Background(), testSession, model.AIModelInput{Name: "   ", Description: "d"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "model_name", appErr.Field)
	assert.Empty(t, repo.entries, "rejected input never reaches the API")
}

func TestCreateModel_ConflictMessage(t *testing.T) {
	svc, gw, repo, _ := newTestAdmin(t)
	gw.createErr = apperror.Upstream(apperror.ErrConflict, 409, "Model name already exists")

	_, err := svc.CreateModel(context.Background(), testSession, model.AIModelInput{Name: "dup", Description: "d"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
	assert.Equal(t, "Model name already exists", apperror.MessageOf(err, ""), "create shows the API text as sent")

	act := repo.last(t)
	assert.Equal(t, model.OutcomeFailure, act.Outcome)
	assert.Empty(t, act.EntityID)
}

func TestUpdateTag_ConflictMessage(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	gw.updateErr = apperror.Upstream(apperror.ErrConflict, 409, "Tag content already exists")

	_, err := svc.UpdateTag(context.Background(), testSession, 3, model.TagInput{TagContent: "x", TagDescription: "y"})
	require.Error(t, err)
	assert.Equal(t, "Tag content already exists.", apperror.MessageOf(err, ""))
}

func TestUpdateModel_ConflictMessage(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	gw.updateErr = apperror.Upstream(apperror.ErrConflict, 409, "Model name already exists")

	_, err := svc.UpdateModel(context.Background(), testSession, 4, model.AIModelInput{Name: "x", Description: "y"})
	require.Error(t, err)
	assert.Equal(t, "Model name already exists.", apperror.MessageOf(err, ""))
}

func TestConflictMessages_OtherTextsUnchanged(t *testing.T) {
	ctx := context.Background()

	t.Run("update with another conflict", func(t *testing.T) {
		svc, gw, _, _ := newTestAdmin(t)
		gw.updateErr = apperror.Upstream(apperror.ErrConflict, 409, "Slug is taken")

		_, err := svc.UpdateTag(ctx, testSession, 3, model.TagInput{TagContent: "x", TagDescription: "y"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrConflict))
		assert.Equal(t, "Slug is taken", apperror.MessageOf(err, ""))
	})

	t.Run("create with the duplicate text", func(t *testing.T) {
		svc, gw, _, _ := newTestAdmin(t)
		gw.createErr = apperror.Upstream(apperror.ErrConflict, 409, "Tag content already exists")

		_, err := svc.CreateTag(ctx, testSession, model.TagInput{TagContent: "x", TagDescription: "y"})
		require.Error(t, err)
		assert.Equal(t, "Tag content already exists", apperror.MessageOf(err, ""))
	})
}

func TestUpdateTag_ReplacesInPlace(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	gw.tags = []model.Tag{{TID: 1, TagContent: "a"}, {TID: 2, TagContent: "b"}}
	gw.updatedTag = model.Tag{TID: 2, TagContent: "server says b2", PostCount: 8}
	ctx := context.Background()

	_, _ = svc.Tags(ctx, testSession)
	_, err := svc.UpdateTag(ctx, testSession, 2, model.TagInput{TagContent: "b2", TagDescription: "d"})
	require.NoError(t, err)

	tags, _ := svc.Tags(ctx, testSession)
	require.Len(t, tags, 2)
	assert.Equal(t, "server says b2", tags[1].TagContent, "snapshot holds the server's record, not the submitted form")
	assert.Equal(t, 8, tags[1].PostCount)
}

func TestUpdateTag_EmptyEchoInvalidates(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	gw.tags = []model.Tag{{TID: 1}}
	ctx := context.Background()

	_, _ = svc.Tags(ctx, testSession)
	_, err := svc.UpdateTag(ctx, testSession, 1, model.TagInput{TagContent: "c", TagDescription: "d"})
	require.NoError(t, err)
	_, _ = svc.Tags(ctx, testSession)

	assert.Equal(t, 2, gw.count("tags"))
}

func TestSetRole_NoEchoInvalidatesUsers(t *testing.T) {
	svc, gw, repo, _ := newTestAdmin(t)
	gw.users = []model.User{{UID: 4, Role: model.RoleUser}}
	ctx := context.Background()

	_, _ = svc.Users(ctx, testSession)
	_, err := svc.SetRole(ctx, testSession, 4, model.RoleAdmin)
	require.NoError(t, err)
	_, _ = svc.Users(ctx, testSession)

	assert.Equal(t, 2, gw.count("users"))
	assert.Equal(t, ActionRole, repo.last(t).Action)
}

func TestSetRole_EchoUpdatesSnapshot(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	gw.users = []model.User{{UID: 4, Role: model.RoleUser}}
	gw.roleEcho = model.User{UID: 4, Role: model.RoleAdmin}
	ctx := context.Background()

	_, _ = svc.Users(ctx, testSession)
	_, err := svc.SetRole(ctx, testSession, 4, model.RoleAdmin)
	require.NoError(t, err)

	users, _ := svc.Users(ctx, testSession)
	assert.Equal(t, model.RoleAdmin, users[0].Role)
	assert.Equal(t, 1, gw.count("users"))
}

func TestDelete_RemovesFromSnapshot(t *testing.T) {
	svc, gw, repo, _ := newTestAdmin(t)
	gw.keywords = []model.Keyword{{ID: 1}, {ID: 2}, {ID: 3}}
	ctx := context.Background()

	_, _ = svc.Keywords(ctx, testSession)
	require.NoError(t, svc.Delete(ctx, testSession, api.Keywords, 2))

	kws, _ := svc.Keywords(ctx, testSession)
	assert.Equal(t, []model.Keyword{{ID: 1}, {ID: 3}}, kws)
	assert.Equal(t, []string{"keyword/2"}, gw.deleted)
	assert.Equal(t, "2", repo.last(t).EntityID)
}

func TestDelete_FailureKeepsSnapshot(t *testing.T) {
	svc, gw, repo, _ := newTestAdmin(t)
	gw.keywords = []model.Keyword{{ID: 1}}
	gw.deleteErr = apperror.Upstream(apperror.ErrUpstream, 500, "nope")
	ctx := context.Background()

	_, _ = svc.Keywords(ctx, testSession)
	err := svc.Delete(ctx, testSession, api.Keywords, 1)
	require.Error(t, err)

	kws, _ := svc.Keywords(ctx, testSession)
	assert.Len(t, kws, 1)
	assert.Equal(t, model.OutcomeFailure, repo.last(t).Outcome)
}

func TestActivityWriteFailure_DoesNotFailMutation(t *testing.T) {
	svc, _, repo, _ := newTestAdmin(t)
	repo.err = errors.New("disk full")

	_, err := svc.CreateKeyword(context.Background(), testSession, " sunset ")
	require.NoError(t, err)
}

func TestActivity_LimitClamped(t *testing.T) {
	svc, _, repo, _ := newTestAdmin(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Record(context.Background(), &model.Activity{Action: "x", Entity: "tags"}))
	}

	rows, err := svc.Activity(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "act-3", rows[0].ID)
}

// =========================================================================
// LOGIN & DASHBOARD TESTS
// =========================================================================

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		apiErr   error
		wantIs   error
		wantMsg  string
	}{
		{name: "success", email: " root@example.com ", password: "pw"},
		{name: "missing email", email: " ", password: "pw", wantIs: apperror.ErrValidation, wantMsg: "Email is required"},
		{name: "missing password", email: "a@b.c", wantIs: apperror.ErrValidation, wantMsg: "Password is required"},
		{
			name: "bad credentials", email: "a@b.c", password: "x",
			apiErr: apperror.Upstream(apperror.ErrUnauthorized, 401, "Invalid credentials"),
			wantIs: apperror.ErrUnauthorized, wantMsg: MsgBadCredentials,
		},
		{
			name: "unreachable", email: "a@b.c", password: "x",
			apiErr: apperror.Transport("login", io.ErrUnexpectedEOF),
			wantIs: apperror.ErrTransport, wantMsg: MsgUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, login := newTestAdmin(t)
			login.err = tt.apiErr

			token, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantIs == nil {
				require.NoError(t, err)
				assert.Equal(t, "tok", token)
				assert.Equal(t, "root@example.com", login.email)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantIs), "got %v", err)
			assert.Equal(t, tt.wantMsg, apperror.MessageOf(err, ""))
		})
	}
}

func TestProfile(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)

	admin, err := svc.Profile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "root", admin.Username)
	assert.Equal(t, 1, gw.count("me"))
}

func TestDashboard_PartialFailure(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	gw.cardErr["newPin"] = apperror.Upstream(apperror.ErrUpstream, 500, "boom")

	d, err := svc.Dashboard(context.Background(), testSession)
	require.NoError(t, err)
	assert.Nil(t, d.NewPins)
	require.NotNil(t, d.NewUsers)
	assert.Equal(t, 4, d.NewUsers.NewUserCount)
	assert.NotNil(t, d.ActiveUsers)
	assert.NotNil(t, d.Interaction)
}

func TestDashboard_AllCardsFail(t *testing.T) {
	svc, gw, _, _ := newTestAdmin(t)
	unauth := apperror.Unauthorized("expired")
	for _, c := range []string{"newUser", "newPin", "userActive", "rateInteractive"} {
		gw.cardErr[c] = unauth
	}

	_, err := svc.Dashboard(context.Background(), testSession)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
}

func TestPruneActivity(t *testing.T) {
	admin, _, repo, _ := newTestAdmin(t)
	repo.entries = []model.Activity{
		{ID: "old", CreatedAt: time.Now().Add(-48 * time.Hour)},
		{ID: "new", CreatedAt: time.Now()},
	}

	n, err := admin.PruneActivity(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "new", repo.entries[0].ID)
}
