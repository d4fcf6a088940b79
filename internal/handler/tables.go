package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/sakif/pin-admin/internal/api"
	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/model"
	"github.com/sakif/pin-admin/internal/table"
)

// Table configurations, one per management page. A table is rebuilt per
// request because its row callbacks close over the caller's session.

func atoi(key string) int64 {
	n, _ := strconv.ParseInt(key, 10, 64)
	return n
}

func str(n int64) string { return strconv.FormatInt(n, 10) }

func (h *Handler) deleter(sess auth.Session, c api.Collection) func(context.Context, string) error {
	return func(ctx context.Context, key string) error {
		return h.admin.Delete(ctx, sess, c, atoi(key))
	}
}

var roleChoices = []table.Option{
	{Value: model.RoleUser.String(), Label: model.RoleUser.Label()},
	{Value: model.RoleAdmin.String(), Label: model.RoleAdmin.Label()},
}

func (h *Handler) userTable(sess auth.Session) *table.Table[model.User] {
	return table.New(table.Config[model.User]{
		Base: "/users",
		Key:  model.User.Key,
		Columns: []table.Column[model.User]{
			{Key: "uid", Label: "UID", Value: func(u model.User) any { return u.UID }, Sortable: true},
			{Key: "username", Label: "Username", Value: func(u model.User) any { return u.Username }, Sortable: true},
			{Key: "email", Label: "Email", Value: func(u model.User) any { return u.Email }, Sortable: true},
			{Key: "postCount", Label: "Pins", Value: func(u model.User) any { return u.PostCount }, Sortable: true},
			{Key: "followerCount", Label: "Followers", Value: func(u model.User) any { return u.FollowerCount }, Sortable: true},
			{
				Key:     "role",
				Label:   "Role",
				Value:   func(u model.User) any { return u.Role.String() },
				Kind:    table.CellSelect,
				Choices: roleChoices,
				Action:  "role",
			},
		},
		Search: []table.SearchGroup[model.User]{{
			Name:        table.DefaultSearch,
			Placeholder: "Search by ID, Username, Email...",
			Fields: []func(model.User) string{
				model.User.Key,
				func(u model.User) string { return u.Username },
				func(u model.User) string { return u.Email },
			},
		}},
		Filters: []table.Filter[model.User]{{
			Name:  "role",
			Label: "Role",
			Options: []table.Option{
				{Value: table.FilterAll, Label: "All"},
				{Value: model.RoleAdmin.String(), Label: model.RoleAdmin.Label()},
				{Value: model.RoleUser.String(), Label: model.RoleUser.Label()},
			},
			Value: func(u model.User) string { return u.Role.String() },
		}},
		SortKey:  "uid",
		PerPage:  10,
		Location: h.loc,
		Now:      h.now,
		OnView:   func(key string) string { return "/users/" + key },
		OnDelete: h.deleter(sess, api.Users),
	})
}

func (h *Handler) pinTable(sess auth.Session) *table.Table[model.Pin] {
	return table.New(table.Config[model.Pin]{
		Base: "/pins",
		Key:  model.Pin.Key,
		Columns: []table.Column[model.Pin]{
			{Key: "pid", Label: "ID", Value: func(p model.Pin) any { return p.PID }, Sortable: true},
			{Key: "title", Label: "Title", Value: func(p model.Pin) any { return p.Title }},
			{Key: "description", Label: "Description", Value: func(p model.Pin) any { return p.Description }},
			{Key: "imageUrl", Label: "Image", Value: func(p model.Pin) any { return p.ImageURL }, Kind: table.CellImage},
			{Key: "likes", Label: "Likes", Value: func(p model.Pin) any { return p.Likes }, Sortable: true},
			{Key: "comments", Label: "Comments", Value: func(p model.Pin) any { return p.Comments }, Sortable: true},
			{Key: "seen", Label: "Views", Value: func(p model.Pin) any { return p.Seen }, Sortable: true},
			{Key: "savedPost", Label: "Saved", Value: func(p model.Pin) any { return p.SavedPost }, Sortable: true},
			{Key: "createdAt", Label: "Created At", Value: func(p model.Pin) any { return p.CreatedAt }, Sortable: true},
		},
		Search: []table.SearchGroup[model.Pin]{{
			Name:        table.DefaultSearch,
			Placeholder: "Search by ID, Title, Description...",
			Fields: []func(model.Pin) string{
				model.Pin.Key,
				func(p model.Pin) string { return p.Title },
				func(p model.Pin) string { return p.Description },
			},
		}},
		Date:     func(p model.Pin) time.Time { return p.CreatedAt },
		SortKey:  "pid",
		PerPage:  5,
		Location: h.loc,
		Now:      h.now,
		OnView:   func(key string) string { return "/pins/" + key },
		OnDelete: h.deleter(sess, api.Pins),
	})
}

func (h *Handler) modelTable() *table.Table[model.AIModel] {
	return table.New(table.Config[model.AIModel]{
		Base: "/models",
		Key:  model.AIModel.Key,
		Columns: []table.Column[model.AIModel]{
			{Key: "mid", Label: "Model ID", Value: func(m model.AIModel) any { return m.MID }, Sortable: true},
			{Key: "model_name", Label: "Model Name", Value: func(m model.AIModel) any { return m.Name }, Sortable: true},
			{Key: "model_description", Label: "Description", Value: func(m model.AIModel) any { return m.Description }, Sortable: true},
			{Key: "model_link", Label: "Link", Value: func(m model.AIModel) any { return m.Link }, Sortable: true},
			{Key: "postCount", Label: "Post Count", Value: func(m model.AIModel) any { return m.PostCount }, Sortable: true},
		},
		Search: []table.SearchGroup[model.AIModel]{{
			Name:        table.DefaultSearch,
			Placeholder: "Search by Model ID, Name, Description...",
			Fields: []func(model.AIModel) string{
				model.AIModel.Key,
				func(m model.AIModel) string { return m.Name },
				func(m model.AIModel) string { return m.Description },
			},
		}},
		SortKey:  "postCount",
		PerPage:  5,
		Location: h.loc,
		Now:      h.now,
		OnEdit:   func(key string) string { return "/models/edit/" + key },
	})
}

func (h *Handler) tagTable(sess auth.Session) *table.Table[model.Tag] {
	return table.New(table.Config[model.Tag]{
		Base: "/tags",
		Key:  model.Tag.Key,
		Columns: []table.Column[model.Tag]{
			{Key: "tid", Label: "Tag ID", Value: func(t model.Tag) any { return t.TID }, Sortable: true},
			{Key: "tag_content", Label: "Tag Content", Value: func(t model.Tag) any { return t.TagContent }, Sortable: true},
			{Key: "tag_description", Label: "Description", Value: func(t model.Tag) any { return t.TagDescription }, Sortable: true},
			{Key: "postCount", Label: "Post Count", Value: func(t model.Tag) any { return t.PostCount }, Sortable: true},
		},
		Search: []table.SearchGroup[model.Tag]{{
			Name:        table.DefaultSearch,
			Placeholder: "Search by Tag ID, Name, Description...",
			Fields: []func(model.Tag) string{
				model.Tag.Key,
				func(t model.Tag) string { return t.TagContent },
				func(t model.Tag) string { return t.TagDescription },
			},
		}},
		SortKey:  "postCount",
		PerPage:  10,
		Location: h.loc,
		Now:      h.now,
		OnEdit:   func(key string) string { return "/tags/edit/" + key },
		OnDelete: h.deleter(sess, api.Tags),
	})
}

func (h *Handler) keywordTable(sess auth.Session) *table.Table[model.Keyword] {
	return table.New(table.Config[model.Keyword]{
		Base: "/keywords",
		Key:  model.Keyword.Key,
		Columns: []table.Column[model.Keyword]{
			{Key: "id", Label: "ID", Value: func(k model.Keyword) any { return k.ID }, Sortable: true},
			{Key: "keyword", Label: "Keyword", Value: func(k model.Keyword) any { return k.Keyword }, Sortable: true},
			{Key: "post_count", Label: "Post Count", Value: func(k model.Keyword) any { return k.PostCount }, Sortable: true},
			{Key: "created_at", Label: "Created At", Value: func(k model.Keyword) any { return k.CreatedAt }, Sortable: true},
		},
		Search: []table.SearchGroup[model.Keyword]{{
			Name:        table.DefaultSearch,
			Placeholder: "Search by ID, Keyword...",
			Fields: []func(model.Keyword) string{
				model.Keyword.Key,
				func(k model.Keyword) string { return k.Keyword },
			},
		}},
		Date:     func(k model.Keyword) time.Time { return k.CreatedAt },
		SortKey:  "post_count",
		PerPage:  10,
		Location: h.loc,
		Now:      h.now,
		OnDelete: h.deleter(sess, api.Keywords),
		OnSave: func(ctx context.Context, value string) error {
			_, err := h.admin.CreateKeyword(ctx, sess, value)
			return err
		},
	})
}

// reportTable needs the loaded reports: a report's view action points at
// the reported pin or user, which the key alone does not identify.
func (h *Handler) reportTable(sess auth.Session, reports []model.Report) *table.Table[model.Report] {
	targets := make(map[string]string, len(reports))
	for _, r := range reports {
		targets[r.Key()] = r.TargetURL()
	}
	return table.New(table.Config[model.Report]{
		Base: "/reports",
		Key:  model.Report.Key,
		Columns: []table.Column[model.Report]{
			{Key: "id", Label: "ID", Value: func(r model.Report) any { return r.ID }, Sortable: true},
			{Key: "reason", Label: "Reason", Value: func(r model.Report) any { return r.Reason }, Sortable: true},
			{Key: "reporter", Label: "Reporter", Value: func(r model.Report) any { return r.ReporterEmail() }, Sortable: true},
			{Key: "image", Label: "Image", Value: func(r model.Report) any { return r.PostImage() }, Kind: table.CellImage},
			{Key: "reported", Label: "Reported User", Value: func(r model.Report) any { return r.ReportedEmail() }, Sortable: true},
			{Key: "created_at", Label: "Created At", Value: func(r model.Report) any { return r.CreatedAt }, Sortable: true},
			{Key: "type", Label: "Type of Report", Value: func(r model.Report) any { return r.Kind() }, Text: reportKindLabel, Sortable: true},
		},
		Search: []table.SearchGroup[model.Report]{
			{
				Name:        "reporter",
				Placeholder: "Search reporter email...",
				Fields:      []func(model.Report) string{model.Report.ReporterEmail},
			},
			{
				Name:        "reported",
				Placeholder: "Search reported email...",
				Fields:      []func(model.Report) string{model.Report.ReportedEmail},
			},
		},
		Filters: []table.Filter[model.Report]{{
			Name:  "type",
			Label: "Type",
			Options: []table.Option{
				{Value: table.FilterAll, Label: "All"},
				{Value: model.ReportKindPost, Label: "Post"},
				{Value: model.ReportKindUser, Label: "User"},
			},
			Value: model.Report.Kind,
		}},
		Date:            func(r model.Report) time.Time { return r.CreatedAt },
		ToDefaultsToday: true,
		SortKey:         "id",
		PerPage:         10,
		Location:        h.loc,
		Now:             h.now,
		OnView:          func(key string) string { return targets[key] },
		OnDelete:        h.deleter(sess, api.Reports),
	})
}

func reportKindLabel(r model.Report) string {
	if r.Kind() == model.ReportKindPost {
		return "Post"
	}
	return "User"
}

func (h *Handler) activityTable() *table.Table[model.Activity] {
	return table.New(table.Config[model.Activity]{
		Base: "/activity",
		Key:  model.Activity.Key,
		Columns: []table.Column[model.Activity]{
			{Key: "created_at", Label: "When", Value: func(a model.Activity) any { return a.CreatedAt }, Sortable: true},
			{Key: "admin", Label: "Admin", Value: func(a model.Activity) any { return a.Admin }, Sortable: true},
			{Key: "action", Label: "Action", Value: func(a model.Activity) any { return a.Action }, Sortable: true},
			{Key: "entity", Label: "Entity", Value: func(a model.Activity) any { return a.Entity }, Sortable: true},
			{Key: "entity_id", Label: "Record", Value: func(a model.Activity) any { return a.EntityID }},
			{Key: "outcome", Label: "Outcome", Value: func(a model.Activity) any { return a.Outcome }, Sortable: true},
			{Key: "detail", Label: "Detail", Value: func(a model.Activity) any { return a.Detail }},
		},
		Search: []table.SearchGroup[model.Activity]{{
			Name:        table.DefaultSearch,
			Placeholder: "Search by admin, action, entity...",
			Fields: []func(model.Activity) string{
				func(a model.Activity) string { return a.Admin },
				func(a model.Activity) string { return a.Action },
				func(a model.Activity) string { return a.Entity },
				func(a model.Activity) string { return a.EntityID },
			},
		}},
		Filters: []table.Filter[model.Activity]{{
			Name:  "outcome",
			Label: "Outcome",
			Options: []table.Option{
				{Value: table.FilterAll, Label: "All"},
				{Value: model.OutcomeSuccess, Label: "Success"},
				{Value: model.OutcomeFailure, Label: "Failure"},
			},
			Value: func(a model.Activity) string { return a.Outcome },
		}},
		Date:     func(a model.Activity) time.Time { return a.CreatedAt },
		SortKey:  "created_at",
		PerPage:  20,
		Location: h.loc,
		Now:      h.now,
	})
}
