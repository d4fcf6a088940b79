package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sakif/pin-admin/internal/apperror"
	"github.com/sakif/pin-admin/internal/model"
)

// Collection names a getDataTable collection as the API spells it.
type Collection string

const (
	Users    Collection = "users"
	Pins     Collection = "pins"
	Models   Collection = "models"
	Tags     Collection = "tags"
	Keywords Collection = "keyword"
	Reports  Collection = "report"
)

func id(n int64) string { return strconv.FormatInt(n, 10) }

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, c.hc, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/login",
		in:     map[string]string{"email": email, "password": password},
		out:    &out,
	})
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", apperror.Upstream(apperror.ErrUpstream, http.StatusOK, "login response carried no token")
	}
	return out.Token, nil
}

func (s *Session) get(ctx context.Context, op, path string, out any) error {
	return s.c.do(ctx, s.hc, call{op: op, method: http.MethodGet, path: path, out: out})
}

func (s *Session) send(ctx context.Context, op, method, path string, in, out any) error {
	return s.c.do(ctx, s.hc, call{op: op, method: method, path: path, in: in, out: out})
}

// Me loads the signed-in administrator's profile.
func (s *Session) Me(ctx context.Context) (model.Admin, error) {
	var out struct {
		Admin model.Admin `json:"admin"`
	}
	if err := s.get(ctx, "me", "/me", &out); err != nil {
		return model.Admin{}, err
	}
	return out.Admin, nil
}

// list fetches a whole collection. The body is either a bare array or an
// object with the array under "data".
func list[T any](ctx context.Context, s *Session, c Collection) ([]T, error) {
	var raw json.RawMessage
	if err := s.get(ctx, "list "+string(c), "/getDataTable/"+string(c), &raw); err != nil {
		return nil, err
	}
	var out []T
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(unwrap(raw, "data"), &out); err != nil {
		return nil, fmt.Errorf("api: list %s: decoding response: %w", c, err)
	}
	return out, nil
}

func (s *Session) Users(ctx context.Context) ([]model.User, error) {
	return list[model.User](ctx, s, Users)
}

func (s *Session) Pins(ctx context.Context) ([]model.Pin, error) {
	return list[model.Pin](ctx, s, Pins)
}

func (s *Session) Models(ctx context.Context) ([]model.AIModel, error) {
	return list[model.AIModel](ctx, s, Models)
}

func (s *Session) Tags(ctx context.Context) ([]model.Tag, error) {
	return list[model.Tag](ctx, s, Tags)
}

func (s *Session) Keywords(ctx context.Context) ([]model.Keyword, error) {
	return list[model.Keyword](ctx, s, Keywords)
}

func (s *Session) Reports(ctx context.Context) ([]model.Report, error) {
	return list[model.Report](ctx, s, Reports)
}

// record decodes a single-record response, accepting the record bare or
// wrapped under one of keys.
func record[T any](op string, raw json.RawMessage, keys ...string) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(unwrap(raw, keys...), &out); err != nil {
		return out, fmt.Errorf("api: %s: decoding response: %w", op, err)
	}
	return out, nil
}

func (s *Session) User(ctx context.Context, uid int64) (model.UserDetail, error) {
	var raw json.RawMessage
	if err := s.get(ctx, "view user", "/actions/view/"+id(uid)+"/user", &raw); err != nil {
		return model.UserDetail{}, err
	}
	return record[model.UserDetail]("view user", raw, "data")
}

func (s *Session) Pin(ctx context.Context, pid int64) (model.PinDetail, error) {
	var raw json.RawMessage
	if err := s.get(ctx, "view pin", "/actions/view/"+id(pid)+"/pin", &raw); err != nil {
		return model.PinDetail{}, err
	}
	return record[model.PinDetail]("view pin", raw, "data")
}

// Model loads one model for its edit form.
func (s *Session) Model(ctx context.Context, mid int64) (model.AIModel, error) {
	var raw json.RawMessage
	if err := s.get(ctx, "get model", "/actions/add/model/"+id(mid), &raw); err != nil {
		return model.AIModel{}, err
	}
	return record[model.AIModel]("get model", raw, "data", "model")
}

// Tag loads one tag for its edit form.
func (s *Session) Tag(ctx context.Context, tid int64) (model.Tag, error) {
	var raw json.RawMessage
	if err := s.get(ctx, "get tag", "/actions/add/tag/"+id(tid), &raw); err != nil {
		return model.Tag{}, err
	}
	return record[model.Tag]("get tag", raw, "data", "tag")
}

func (s *Session) CreateModel(ctx context.Context, in model.AIModelInput) (model.AIModel, error) {
	in.ID, in.Link = 0, ""
	var raw json.RawMessage
	if err := s.send(ctx, "create model", http.MethodPost, "/actions/add/model", in, &raw); err != nil {
		return model.AIModel{}, err
	}
	return record[model.AIModel]("create model", raw, "data", "model")
}

func (s *Session) UpdateModel(ctx context.Context, mid int64, in model.AIModelInput) (model.AIModel, error) {
	in.ID = mid
	var raw json.RawMessage
	if err := s.send(ctx, "update model", http.MethodPut, "/actions/add/model/"+id(mid)+"/put", in, &raw); err != nil {
		return model.AIModel{}, err
	}
	return record[model.AIModel]("update model", raw, "data", "model")
}

func (s *Session) CreateTag(ctx context.Context, in model.TagInput) (model.Tag, error) {
	in.ID = 0
	var raw json.RawMessage
	if err := s.send(ctx, "create tag", http.MethodPost, "/actions/add/tag", in, &raw); err != nil {
		return model.Tag{}, err
	}
	return record[model.Tag]("create tag", raw, "data", "tag")
}

func (s *Session) UpdateTag(ctx context.Context, tid int64, in model.TagInput) (model.Tag, error) {
	in.ID = tid
	var raw json.RawMessage
	if err := s.send(ctx, "update tag", http.MethodPut, "/actions/add/tag/"+id(tid)+"/put", in, &raw); err != nil {
		return model.Tag{}, err
	}
	return record[model.Tag]("update tag", raw, "data", "tag")
}

func (s *Session) CreateKeyword(ctx context.Context, keyword string) (model.Keyword, error) {
	var raw json.RawMessage
	in := map[string]string{"keyword": keyword}
	if err := s.send(ctx, "create keyword", http.MethodPost, "/actions/add/keyword", in, &raw); err != nil {
		return model.Keyword{}, err
	}
	return record[model.Keyword]("create keyword", raw, "data", "keyword")
}

// SetRole changes a user's role. The API may or may not echo the user back;
// a zero UID in the result means it did not.
func (s *Session) SetRole(ctx context.Context, uid int64, role model.Role) (model.User, error) {
	var raw json.RawMessage
	in := map[string]string{"newRole": role.String()}
	if err := s.send(ctx, "set role", http.MethodPut, "/getDataTable/users/"+id(uid), in, &raw); err != nil {
		return model.User{}, err
	}
	u, err := record[model.User]("set role", raw, "data", "user")
	if err != nil {
		// Acknowledgement bodies such as {"message": "..."} are not records.
		return model.User{}, nil
	}
	return u, nil
}

// Delete removes one record. A 2xx answer with {"success": false} is still a
// failure.
func (s *Session) Delete(ctx context.Context, c Collection, key int64) error {
	var out struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	op := "delete " + string(c)
	if err := s.send(ctx, op, http.MethodDelete, "/getDataTable/"+string(c)+"/"+id(key), nil, &out); err != nil {
		var syntax *json.SyntaxError
		var typ *json.UnmarshalTypeError
		if errors.As(err, &syntax) || errors.As(err, &typ) {
			return nil
		}
		return err
	}
	if out.Success != nil && !*out.Success {
		msg := out.Error
		if msg == "" {
			msg = out.Message
		}
		return apperror.Upstream(apperror.ErrUpstream, http.StatusOK, msg)
	}
	return nil
}

func (s *Session) NewUsers(ctx context.Context) (model.NewUserSummary, error) {
	var out model.NewUserSummary
	err := s.get(ctx, "dashboard newUser", "/dashboard/newUser", &out)
	return out, err
}

func (s *Session) NewPins(ctx context.Context) (model.NewPinSummary, error) {
	var out model.NewPinSummary
	err := s.get(ctx, "dashboard newPin", "/dashboard/newPin", &out)
	return out, err
}

func (s *Session) ActiveUsers(ctx context.Context) (model.UserActiveSummary, error) {
	var out model.UserActiveSummary
	err := s.get(ctx, "dashboard userActive", "/dashboard/userActive", &out)
	return out, err
}

func (s *Session) Interaction(ctx context.Context) (model.InteractionSummary, error) {
	var out model.InteractionSummary
	err := s.get(ctx, "dashboard rateInteractive", "/dashboard/rateInteractive", &out)
	return out, err
}
