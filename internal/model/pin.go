package model

import "time"

// Pin is one row of the pin management table.
type Pin struct {
	PID         int64     `json:"pid"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
	Seen        int       `json:"seen"`
	SavedPost   int       `json:"savedPost"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PinCreator is the author block of a pin detail payload.
type PinCreator struct {
	UID            int64  `json:"uid"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	AvatarImage    string `json:"avatar_image"`
	Role           Role   `json:"role"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
}

// PinDetail is the payload of GET actions/view/{id}/pin.
type PinDetail struct {
	PID         int64      `json:"pid"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	ImageURL    string     `json:"image_url"`
	PromptUsed  string     `json:"prompt_used"`
	EditedAt    *time.Time `json:"edited_at"`
	User        PinCreator `json:"user"`
	LikesCount  int        `json:"likes_count"`
	ReportCount int        `json:"report_count"`
	Tags        []string   `json:"tags"`
	ModelName   string     `json:"model_name"`
}
