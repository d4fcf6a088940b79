package model

import "time"

// Tag is a content tag that posts can carry.
type Tag struct {
	TID            int64  `json:"tid"`
	TagContent     string `json:"tag_content"`
	TagDescription string `json:"tag_description"`
	PostCount      int    `json:"postCount"`
}

// TagInput is the body of the tag create and update calls.
type TagInput struct {
	ID             int64  `json:"id,omitempty"`
	TagContent     string `json:"tag_content"`
	TagDescription string `json:"tag_description"`
}

// AIModel is a generation model that posts are attributed to.
type AIModel struct {
	MID         int64  `json:"mid"`
	Name        string `json:"model_name"`
	Description string `json:"model_description"`
	Link        string `json:"model_link"`
	PostCount   int    `json:"postCount"`
}

// AIModelInput is the body of the model create and update calls. Link is
// only sent on update.
type AIModelInput struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"model_name"`
	Description string `json:"model_description"`
	Link        string `json:"model_link,omitempty"`
}

// Keyword is a moderated search keyword.
type Keyword struct {
	ID        int64     `json:"id"`
	Keyword   string    `json:"keyword"`
	PostCount int       `json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
}
