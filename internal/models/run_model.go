package models

import "time"

type Run struct {
	ID                  string    `db:"id" json:"id"`
	AutomationID        string    `db:"automation_id" json:"automation_id"`
	Topic               string    `db:"topic" json:"topic"`
	ProjectID           string    `db:"project_id" json:"project_id,omitempty"`
	Status              string    `db:"status" json:"status"`
	ErrorMessage        string    `db:"error_message" json:"error_message,omitempty"`
	StartedAt           time.Time `db:"started_at" json:"started_at"`
	DurationSeconds     int       `db:"duration_seconds" json:"duration_seconds"`
	SlidesCount         int       `db:"slides_count" json:"slides_count"`
	ImagePaths          []string  `db:"image_paths" json:"image_paths"`
	NarrationPath       string    `db:"narration_path" json:"narration_path,omitempty"`
	TiktokPosted        bool      `db:"tiktok_posted" json:"tiktok_posted"`
	TiktokPostStatus    string    `db:"tiktok_post_status" json:"tiktok_post_status"`
	TiktokError         string    `db:"tiktok_error" json:"tiktok_error,omitempty"`
	InstagramPosted     bool      `db:"instagram_posted" json:"instagram_posted"`
	InstagramPostStatus string    `db:"instagram_post_status" json:"instagram_post_status"`
	InstagramError      string    `db:"instagram_error" json:"instagram_error,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

const (
	RunStatusPending    = "pending"
	RunStatusProcessing = "processing"
	RunStatusCompleted  = "completed"
	RunStatusPosted     = "posted"
	RunStatusFailed     = "failed"
)

// TikTok post attempts move none -> pending -> processing -> success | failed.
const (
	TiktokPostNone       = "none"
	TiktokPostPending    = "pending"
	TiktokPostProcessing = "processing"
	TiktokPostSuccess    = "success"
	TiktokPostFailed     = "failed"
)

// Instagram publishing is synchronous, so there is no processing state.
const (
	InstagramPostNone    = "none"
	InstagramPostPending = "pending"
	InstagramPostPosted  = "posted"
	InstagramPostFailed  = "failed"
)

const (
	PlatformTiktok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformBoth      = "both"
)
