package models

import "time"

type Automation struct {
	ID                  string    `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	ContentType         string    `db:"content_type" json:"content_type"`
	ImageStyle          string    `db:"image_style" json:"image_style"`
	QueueMode           string    `db:"queue_mode" json:"queue_mode"`
	Topics              []string  `db:"topics" json:"topics"`
	ProjectIDs          []string  `db:"project_ids" json:"project_ids"`
	CurrentTopicIndex   int       `db:"current_topic_index" json:"current_topic_index"`
	CurrentProjectIndex int       `db:"current_project_index" json:"current_project_index"`
	ScheduleTimes       []string  `db:"schedule_times" json:"schedule_times"`
	ScheduleDays        []string  `db:"schedule_days" json:"schedule_days"`
	TiktokEnabled       bool      `db:"tiktok_enabled" json:"tiktok_enabled"`
	InstagramEnabled    bool      `db:"instagram_enabled" json:"instagram_enabled"`
	EmailEnabled        bool      `db:"email_enabled" json:"email_enabled"`
	EmailAddress        string    `db:"email_address" json:"email_address"`
	Status              string    `db:"status" json:"status"`
	TotalRuns           int       `db:"total_runs" json:"total_runs"`
	SuccessfulRuns      int       `db:"successful_runs" json:"successful_runs"`
	FailedRuns          int       `db:"failed_runs" json:"failed_runs"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

const (
	AutomationStatusIdle    = "idle"
	AutomationStatusRunning = "running"
	AutomationStatusStopped = "stopped"
)

const (
	QueueModeTopics   = "topics"
	QueueModeProjects = "projects"
)

// QueueLength is the size of the active queue for the automation's mode.
func (a *Automation) QueueLength() int {
	if a.QueueMode == QueueModeProjects {
		return len(a.ProjectIDs)
	}
	return len(a.Topics)
}

// Cursor is the index of the next unconsumed queue item.
func (a *Automation) Cursor() int {
	if a.QueueMode == QueueModeProjects {
		return a.CurrentProjectIndex
	}
	return a.CurrentTopicIndex
}

func (a *Automation) SetCursor(i int) {
	if a.QueueMode == QueueModeProjects {
		a.CurrentProjectIndex = i
	} else {
		a.CurrentTopicIndex = i
	}
}

// IsExhausted reports whether the cursor has consumed the whole queue.
func (a *Automation) IsExhausted() bool {
	return a.Cursor() >= a.QueueLength()
}
