package models

import "time"

type Project struct {
	ID          string    `db:"id" json:"id"`
	Topic       string    `db:"topic" json:"topic"`
	ContentType string    `db:"content_type" json:"content_type"`
	ImageStyle  string    `db:"image_style" json:"image_style"`
	Script      string    `db:"script" json:"script"`
	SlidePaths  []string  `db:"slide_paths" json:"slide_paths"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

const (
	ProjectStatusDraft = "draft"
	ProjectStatusReady = "ready"
)
