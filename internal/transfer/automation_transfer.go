package transfer

// AutomationCreation carries the create-automation request body.
type AutomationCreation struct {
	Name             string   `json:"name"`
	ContentType      string   `json:"content_type"`
	ImageStyle       string   `json:"image_style"`
	QueueMode        string   `json:"queue_mode"`
	Topics           []string `json:"topics"`
	ProjectIDs       []string `json:"project_ids"`
	ScheduleTimes    []string `json:"schedule_times"`
	ScheduleDays     []string `json:"schedule_days"`
	TiktokEnabled    bool     `json:"tiktok_enabled"`
	InstagramEnabled bool     `json:"instagram_enabled"`
	EmailEnabled     bool     `json:"email_enabled"`
	EmailAddress     string   `json:"email_address"`
}

// AutomationUpdate is a partial update; nil fields are left untouched.
type AutomationUpdate struct {
	Name             *string   `json:"name"`
	ContentType      *string   `json:"content_type"`
	ImageStyle       *string   `json:"image_style"`
	ScheduleTimes    *[]string `json:"schedule_times"`
	ScheduleDays     *[]string `json:"schedule_days"`
	TiktokEnabled    *bool     `json:"tiktok_enabled"`
	InstagramEnabled *bool     `json:"instagram_enabled"`
	EmailEnabled     *bool     `json:"email_enabled"`
	EmailAddress     *string   `json:"email_address"`
}

// QueueItem is the derived per-item view of an automation's queue. Exactly one
// item is "current" unless the queue is exhausted.
type QueueItem struct {
	Index  int    `json:"index"`
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

const (
	QueueItemPending   = "pending"
	QueueItemCurrent   = "current"
	QueueItemCompleted = "completed"
)

// QueueProjection is the response for the queue endpoint.
type QueueProjection struct {
	QueueMode    string      `json:"queue_mode"`
	Items        []QueueItem `json:"items"`
	TotalItems   int         `json:"total_items"`
	CurrentIndex int         `json:"current_index"`
	Remaining    int         `json:"remaining"`
	IsExhausted  bool        `json:"is_exhausted"`
}

type TopicAddition struct {
	Topic string `json:"topic"`
}

type PostRequest struct {
	Platform string `json:"platform"`
}

// PlatformResult reports one platform's posting outcome.
type PlatformResult struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// SamplePreview is the dry-run generation response. Nothing about it is
// persisted.
type SamplePreview struct {
	Topic       string   `json:"topic"`
	Script      string   `json:"script"`
	SlidesCount int      `json:"slides_count"`
	ImagePaths  []string `json:"image_paths"`
}

type ProjectCreation struct {
	Topic       string `json:"topic"`
	ContentType string `json:"content_type"`
	ImageStyle  string `json:"image_style"`
	Script      string `json:"script"`
}
