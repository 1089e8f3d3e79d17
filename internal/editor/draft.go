package editor

import "time"

// Draft is a persisted editing state: the video reference plus the step
// list, saved locally so a session can be resumed or submitted later.
type Draft struct {
	ID        string    `json:"id"`
	RecipeID  string    `json:"recipe_id"`
	Title     string    `json:"title"`
	VideoPath string    `json:"video_path,omitempty"`
	VideoURL  string    `json:"video_url,omitempty"`
	Duration  float64   `json:"duration"`
	Segments  []Segment `json:"segments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	JobTypeThumbnails = "thumbnails"
	JobTypeSubmit     = "submit"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is a queued unit of background work: thumbnail sampling for a draft's
// video, or submitting a draft's steps to the recipe service.
type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	DraftID   string    `json:"draft_id,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
