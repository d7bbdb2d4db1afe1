package model

import "time"

// Segment names in the fixed order they appear in a rendered video.
var SegmentOrder = []string{"hook", "fact1", "fact2", "fact3", "fact4", "payoff"}

// Script is one generated short-video script: a hook, four facts and a payoff.
type Script struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	Topic      string    `json:"topic"`
	Hook       string    `json:"hook"`
	Fact1      string    `json:"fact1"`
	Fact2      string    `json:"fact2"`
	Fact3      string    `json:"fact3"`
	Fact4      string    `json:"fact4"`
	Payoff     string    `json:"payoff"`
	ViralScore float64   `json:"viral_score"`
	Selected   bool      `json:"selected"`
	CreatedAt  time.Time `json:"created_at"`
}

// Segments returns the six script parts keyed by segment name, in order.
// Empty segments are included; callers decide whether to skip them.
func (s *Script) Segments() []ScriptSegment {
	return []ScriptSegment{
		{Name: "hook", Text: s.Hook},
		{Name: "fact1", Text: s.Fact1},
		{Name: "fact2", Text: s.Fact2},
		{Name: "fact3", Text: s.Fact3},
		{Name: "fact4", Text: s.Fact4},
		{Name: "payoff", Text: s.Payoff},
	}
}

type ScriptSegment struct {
	Name string
	Text string
}

// Video statuses.
const (
	VideoStatusPending   = "pending"
	VideoStatusCompleted = "completed"
	VideoStatusPosting   = "posting"
	VideoStatusPosted    = "posted"
	VideoStatusFailed    = "failed"
)

// Video is a rendered deliverable on disk, optionally already published.
type Video struct {
	ID              string     `json:"id"`
	Owner           string     `json:"owner"`
	ScriptID        string     `json:"script_id"`
	FilePath        string     `json:"file_path"`
	PlatformMediaID string     `json:"platform_media_id,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
}

// Generation job statuses (script and video jobs share the lifecycle).
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ScriptGenerationJob asks the text-generation provider for a batch of scripts.
type ScriptGenerationJob struct {
	ID             string     `json:"id"`
	Owner          string     `json:"owner"`
	Status         string     `json:"status"`
	RequestedCount int        `json:"requested_count"`
	PromptRef      string     `json:"prompt_ref,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// VideoGenerationJob renders one selected script into a video file.
type VideoGenerationJob struct {
	ID              string     `json:"id"`
	Owner           string     `json:"owner"`
	ScriptID        string     `json:"script_id"`
	Status          string     `json:"status"`
	VideoPath       string     `json:"video_path,omitempty"`
	PlatformMediaID string     `json:"platform_media_id,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Post/queue entry statuses. Rows are claimed into posting before the upload
// starts, so an upload outlasting the poll interval is never dispatched again
// by the next sweep.
const (
	PostStatusPending = "pending"
	PostStatusQueued  = "queued"
	PostStatusPosting = "posting"
	PostStatusPosted  = "posted"
	PostStatusFailed  = "failed"
)

// ScheduledPost publishes an already-rendered video at a fixed time.
type ScheduledPost struct {
	ID              string     `json:"id"`
	Owner           string     `json:"owner"`
	VideoID         string     `json:"video_id"`
	ScheduledTime   time.Time  `json:"scheduled_time"`
	Status          string     `json:"status"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
	PlatformMediaID string     `json:"platform_media_id,omitempty"`
	StoryID         string     `json:"story_id,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	RetryCount      int        `json:"retry_count"`
}

// QueueEntry is one slot in the rotating post queue: FIFO by queued_at,
// posted one at a time on a fixed cadence.
type QueueEntry struct {
	ID              string     `json:"id"`
	Owner           string     `json:"owner"`
	VideoID         string     `json:"video_id"`
	Status          string     `json:"status"`
	QueuedAt        time.Time  `json:"queued_at"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
	PlatformMediaID string     `json:"platform_media_id,omitempty"`
	StoryID         string     `json:"story_id,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	RetryCount      int        `json:"retry_count"`
}

// Prompt is a stored generation prompt referenced by script jobs.
type Prompt struct {
	ID           string     `json:"id"`
	Owner        string     `json:"owner"`
	Name         string     `json:"name"`
	SystemPrompt string     `json:"system_prompt"`
	Topics       string     `json:"topics"`
	NumScripts   int        `json:"num_scripts"`
	TimesUsed    int        `json:"times_used"`
	LastUsed     *time.Time `json:"last_used,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RecentContent is a topic/hook pair from a recently completed video, fed
// back into generation prompts to avoid repeats.
type RecentContent struct {
	Topic string
	Hook  string
}
