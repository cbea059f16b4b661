package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS automations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT 'slideshow',
		image_style TEXT NOT NULL DEFAULT '',
		queue_mode TEXT NOT NULL DEFAULT 'topics',
		topics TEXT[] NOT NULL DEFAULT '{}',
		project_ids TEXT[] NOT NULL DEFAULT '{}',
		current_topic_index INT NOT NULL DEFAULT 0,
		current_project_index INT NOT NULL DEFAULT 0,
		schedule_times TEXT[] NOT NULL DEFAULT '{}',
		schedule_days TEXT[] NOT NULL DEFAULT '{}',
		tiktok_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		instagram_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		email_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		email_address TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'idle',
		total_runs INT NOT NULL DEFAULT 0,
		successful_runs INT NOT NULL DEFAULT 0,
		failed_runs INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		automation_id TEXT NOT NULL REFERENCES automations(id) ON DELETE CASCADE,
		topic TEXT NOT NULL DEFAULT '',
		project_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		duration_seconds INT NOT NULL DEFAULT 0,
		slides_count INT NOT NULL DEFAULT 0,
		image_paths TEXT[] NOT NULL DEFAULT '{}',
		narration_path TEXT NOT NULL DEFAULT '',
		tiktok_posted BOOLEAN NOT NULL DEFAULT FALSE,
		tiktok_post_status TEXT NOT NULL DEFAULT 'none',
		tiktok_error TEXT NOT NULL DEFAULT '',
		instagram_posted BOOLEAN NOT NULL DEFAULT FALSE,
		instagram_post_status TEXT NOT NULL DEFAULT 'none',
		instagram_error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_automation_id ON runs(automation_id, started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(automation_id, status)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT 'slideshow',
		image_style TEXT NOT NULL DEFAULT '',
		script TEXT NOT NULL DEFAULT '',
		slide_paths TEXT[] NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS social_accounts (
		id BIGSERIAL PRIMARY KEY,
		platform TEXT NOT NULL UNIQUE,
		account_id TEXT NOT NULL DEFAULT '',
		account_name TEXT NOT NULL DEFAULT '',
		account_username TEXT NOT NULL DEFAULT '',
		profile_picture_url TEXT NOT NULL DEFAULT '',
		access_token TEXT NOT NULL DEFAULT '',
		refresh_token TEXT NOT NULL DEFAULT '',
		token_expires_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// RunMigrations executes the schema statements in order. Every statement is
// idempotent, so this is safe to run on each boot.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration %d: %w", i, err)
		}
	}
	return nil
}
