package model

import "time"

// ReportParty identifies the reporting or reported account.
type ReportParty struct {
	UID   int64  `json:"uid"`
	Email string `json:"email"`
}

// ReportPost is the reported post, when the report targets a post.
type ReportPost struct {
	PID      int64   `json:"pid"`
	Title    *string `json:"title"`
	ImageURL *string `json:"image_url"`
}

// Report is a moderation record referencing either a post or a user.
type Report struct {
	ID             int64        `json:"id"`
	ReporterID     int64        `json:"reporter_id"`
	ReportedPostID *int64       `json:"reported_post_id"`
	ReportedUserID *int64       `json:"reported_user_id"`
	Reason         string       `json:"reason"`
	Details        string       `json:"details"`
	CreatedAt      time.Time    `json:"created_at"`
	Reporter       *ReportParty `json:"User_Report_reporter_idToUser"`
	ReportedUser   *ReportParty `json:"User_Report_reported_user_idToUser"`
	Post           *ReportPost  `json:"Post"`
}

// Report kinds, derived from whether a linked post image exists.
const (
	ReportKindPost = "post"
	ReportKindUser = "user"
)

// ReporterEmail is "" when the reporter block is absent.
func (r Report) ReporterEmail() string {
	if r.Reporter == nil {
		return ""
	}
	return r.Reporter.Email
}

// ReportedEmail is "" when the reported user block is absent.
func (r Report) ReportedEmail() string {
	if r.ReportedUser == nil {
		return ""
	}
	return r.ReportedUser.Email
}

// PostImage is "" when there is no post or the post has no image.
func (r Report) PostImage() string {
	if r.Post == nil || r.Post.ImageURL == nil {
		return ""
	}
	return *r.Post.ImageURL
}

// PostTitle is "" when there is no post or it is untitled.
func (r Report) PostTitle() string {
	if r.Post == nil || r.Post.Title == nil {
		return ""
	}
	return *r.Post.Title
}

// Kind classifies the report: a report with a post image is a post report,
// everything else is a user report.
func (r Report) Kind() string {
	if r.PostImage() != "" {
		return ReportKindPost
	}
	return ReportKindUser
}

// TargetURL is the console page that shows what was reported.
func (r Report) TargetURL() string {
	switch {
	case r.Post != nil && r.Post.PID != 0:
		return "/pins/" + itoa(r.Post.PID)
	case r.ReportedUser != nil && r.ReportedUser.UID != 0:
		return "/users/" + itoa(r.ReportedUser.UID)
	case r.ReportedPostID != nil:
		return "/pins/" + itoa(*r.ReportedPostID)
	case r.ReportedUserID != nil:
		return "/users/" + itoa(*r.ReportedUserID)
	}
	return ""
}
