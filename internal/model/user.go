package model

import "time"

// User is one row of the user management table.
type User struct {
	UID           int64  `json:"uid"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	PostCount     int    `json:"postCount"`
	FollowerCount int    `json:"followerCount"`
	Role          Role   `json:"role"`
}

// UserPost is a post listed on the user detail page.
type UserPost struct {
	PID          int64     `json:"pid"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	ImageURL     string    `json:"image_url"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	ReportCount  int       `json:"report_count"`
}

// UserDetail is the payload of GET actions/view/{id}/user.
type UserDetail struct {
	UID                int64      `json:"uid"`
	Username           string     `json:"username"`
	AvatarImage        string     `json:"avatar_image"`
	Bio                string     `json:"bio"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Email              string     `json:"email"`
	CreatedAt          time.Time  `json:"created_at"`
	Role               Role       `json:"role"`
	FollowersCount     int        `json:"followers_count"`
	FollowingCount     int        `json:"following_count"`
	ReportedUserCount  int        `json:"reported_user_count"`
	ReportedPostsCount int        `json:"reported_posts_count"`
	Posts              []UserPost `json:"posts"`
}

// Admin is the signed-in administrator's profile (GET /api/auth/admin/me).
type Admin struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Bio         string `json:"bio"`
	AvatarImage string `json:"avatar_image"`
}

// Initials returns the first letters of the first and last name, used as the
// avatar fallback.
func (a Admin) Initials() string {
	var out []rune
	for _, s := range []string{a.FirstName, a.LastName} {
		for _, r := range s {
			out = append(out, r)
			break
		}
	}
	return string(out)
}

// DisplayName prefers the full name and falls back to the username.
func (a Admin) DisplayName() string {
	switch {
	case a.Name != "":
		return a.Name
	case a.FirstName != "" || a.LastName != "":
		if a.LastName == "" {
			return a.FirstName
		}
		if a.FirstName == "" {
			return a.LastName
		}
		return a.FirstName + " " + a.LastName
	default:
		return a.Username
	}
}
