package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/pin-admin/internal/api"
	"github.com/sakif/pin-admin/internal/apperror"
	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/model"
	"github.com/sakif/pin-admin/internal/snapshot"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionRole   = "set_role"

	MaxNameLength = 200
)

func key(n int64) string { return strconv.FormatInt(n, 10) }

// apply stores the canonical record the API returned. A response that did
// not carry a usable record invalidates the collection instead, so the next
// read shows what the server actually holds.
func apply[T interface{ Key() string }](s *Admin, sess auth.Session, c api.Collection, rec T) {
	if k := rec.Key(); k == "" || k == "0" {
		s.cache.Invalidate(sess.ID, string(c))
		return
	}
	snapshot.Upsert(s.cache, sess.ID, string(c), rec, func(r T) string { return r.Key() })
}

// entityID is the audit id of a record the API may not have returned.
func entityID(k string) string {
	if k == "0" {
		return ""
	}
	return k
}

// updateConflicts are the duplicate-name answers of the update endpoints
// that the edit forms show as sentences. Every other 409 keeps the API's
// text.
var updateConflicts = map[string]string{
	"Tag content already exists": "Tag content already exists.",
	"Model name already exists":  "Model name already exists.",
}

// updateConflictText rewrites an exact duplicate-name conflict from an
// update call. Only UpdateModel and UpdateTag use it.
func updateConflictText(err error) error {
	var appErr *apperror.AppError
	if !errors.Is(err, apperror.ErrConflict) || !errors.As(err, &appErr) {
		return err
	}
	text, ok := updateConflicts[appErr.Message]
	if !ok {
		return err
	}
	return apperror.Upstream(apperror.ErrConflict, appErr.Status, text)
}

func required(field, label, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperror.ValidationFailed(field, label+" is required")
	}
	if len(v) > MaxNameLength {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", label, MaxNameLength))
	}
	return v, nil
}

func normalizeModel(in model.AIModelInput) (model.AIModelInput, error) {
	var err error
	if in.Name, err = required("model_name", "Model name", in.Name); err != nil {
		return in, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return in, apperror.ValidationFailed("model_description", "Model description is required")
	}
	in.Link = strings.TrimSpace(in.Link)
	return in, nil
}

func normalizeTag(in model.TagInput) (model.TagInput, error) {
	var err error
	if in.TagContent, err = required("tag_content", "Tag content", in.TagContent); err != nil {
		return in, err
	}
	in.TagDescription = strings.TrimSpace(in.TagDescription)
	if in.TagDescription == "" {
		return in, apperror.ValidationFailed("tag_description", "Tag description is required")
	}
	return in, nil
}

func (s *Admin) CreateModel(ctx context.Context, sess auth.Session, in model.AIModelInput) (model.AIModel, error) {
	in, err := normalizeModel(in)
	if err != nil {
		return model.AIModel{}, err
	}
	in.ID = 0

	m, err := s.gw(sess).CreateModel(ctx, in)
	s.record(ctx, sess, ActionCreate, api.Models, entityID(m.Key()), err)
	if err != nil {
		return model.AIModel{}, fmt.Errorf("creating model: %w", err)
	}
	apply(s, sess, api.Models, m)

	s.logger.Info("model created", slog.String("id", m.Key()), slog.String("name", in.Name))
	return m, nil
}

func (s *Admin) UpdateModel(ctx context.Context, sess auth.Session, mid int64, in model.AIModelInput) (model.AIModel, error) {
	in, err := normalizeModel(in)
	if err != nil {
		return model.AIModel{}, err
	}
	in.ID = mid

	m, err := s.gw(sess).UpdateModel(ctx, mid, in)
	err = updateConflictText(err)
	s.record(ctx, sess, ActionUpdate, api.Models, key(mid), err)
	if err != nil {
		return model.AIModel{}, fmt.Errorf("updating model %d: %w", mid, err)
	}
	apply(s, sess, api.Models, m)
	return m, nil
}

func (s *Admin) CreateTag(ctx context.Context, sess auth.Session, in model.TagInput) (model.Tag, error) {
	in, err := normalizeTag(in)
	if err != nil {
		return model.Tag{}, err
	}
	in.ID = 0

	t, err := s.gw(sess).CreateTag(ctx, in)
	s.record(ctx, sess, ActionCreate, api.Tags, entityID(t.Key()), err)
	if err != nil {
		return model.Tag{}, fmt.Errorf("creating tag: %w", err)
	}
	apply(s, sess, api.Tags, t)

	s.logger.Info("tag created", slog.String("id", t.Key()), slog.String("content", in.TagContent))
	return t, nil
}

func (s *Admin) UpdateTag(ctx context.Context, sess auth.Session, tid int64, in model.TagInput) (model.Tag, error) {
	in, err := normalizeTag(in)
	if err != nil {
		return model.Tag{}, err
	}
	in.ID = tid

	t, err := s.gw(sess).UpdateTag(ctx, tid, in)
	err = updateConflictText(err)
	s.record(ctx, sess, ActionUpdate, api.Tags, key(tid), err)
	if err != nil {
		return model.Tag{}, fmt.Errorf("updating tag %d: %w", tid, err)
	}
	apply(s, sess, api.Tags, t)
	return t, nil
}

// CreateKeyword is the inline-create callback of the keyword table. Blank
// input never reaches it; the table engine discards it.
func (s *Admin) CreateKeyword(ctx context.Context, sess auth.Session, keyword string) (model.Keyword, error) {
	keyword, err := required("keyword", "Keyword", keyword)
	if err != nil {
		return model.Keyword{}, err
	}

	k, err := s.gw(sess).CreateKeyword(ctx, keyword)
	s.record(ctx, sess, ActionCreate, api.Keywords, entityID(k.Key()), err)
	if err != nil {
		return model.Keyword{}, fmt.Errorf("creating keyword: %w", err)
	}
	apply(s, sess, api.Keywords, k)
	return k, nil
}

// SetRole changes a user's role. When the API echoes no user the users
// snapshot is invalidated.
func (s *Admin) SetRole(ctx context.Context, sess auth.Session, uid int64, role model.Role) (model.User, error) {
	u, err := s.gw(sess).SetRole(ctx, uid, role)
	s.record(ctx, sess, ActionRole, api.Users, key(uid), err)
	if err != nil {
		return model.User{}, fmt.Errorf("setting role of user %d: %w", uid, err)
	}
	apply(s, sess, api.Users, u)

	s.logger.Info("user role changed",
		slog.Int64("uid", uid),
		slog.String("role", role.String()),
		slog.String("admin", sess.Email),
	)
	return u, nil
}

// Delete removes one record of collection c and drops it from the snapshot.
func (s *Admin) Delete(ctx context.Context, sess auth.Session, c api.Collection, id int64) error {
	err := s.gw(sess).Delete(ctx, c, id)
	s.record(ctx, sess, ActionDelete, c, key(id), err)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", c, id, err)
	}

	k := key(id)
	switch c {
	case api.Users:
		snapshot.Remove(s.cache, sess.ID, string(c), k, model.User.Key)
	case api.Pins:
		snapshot.Remove(s.cache, sess.ID, string(c), k, model.Pin.Key)
	case api.Models:
		snapshot.Remove(s.cache, sess.ID, string(c), k, model.AIModel.Key)
	case api.Tags:
		snapshot.Remove(s.cache, sess.ID, string(c), k, model.Tag.Key)
	case api.Keywords:
		snapshot.Remove(s.cache, sess.ID, string(c), k, model.Keyword.Key)
	case api.Reports:
		snapshot.Remove(s.cache, sess.ID, string(c), k, model.Report.Key)
	default:
		s.cache.Invalidate(sess.ID, string(c))
	}
	return nil
}
