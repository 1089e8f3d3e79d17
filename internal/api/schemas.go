package api

import (
	"time"

	"github.com/stepcut/stepcut-agent/internal/editor"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string       `json:"state"`
	LastError     string       `json:"last_error,omitempty"`
	SessionsCount int          `json:"sessions_count"`
	DraftsCount   int          `json:"drafts_count"`
	JobsRunning   int          `json:"jobs_running"`
	ActiveJob     *JobResponse `json:"active_job,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string          `json:"session_id"`
	Snapshot  editor.Snapshot `json:"snapshot"`
}

type AttachVideoRequest struct {
	Path string `json:"path"`
}

type NavigateRequest struct {
	Direction string `json:"direction"`
}

type MarkRequest struct {
	Boundary string   `json:"boundary"`
	Time     *float64 `json:"time,omitempty"`
}

type TrimRequest struct {
	Values []float64 `json:"values"`
}

type DescriptionRequest struct {
	Text string `json:"text"`
}

type UpdateSegmentRequest struct {
	Description *string  `json:"description,omitempty"`
	StartTime   *float64 `json:"start_time,omitempty"`
	EndTime     *float64 `json:"end_time,omitempty"`
}

type MediaEventRequest struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

type MediaCommandsResponse struct {
	Commands []MediaCommand `json:"commands"`
}

type MediaCommand struct {
	Op   string  `json:"op"`
	Time float64 `json:"time,omitempty"`
}

type SaveDraftRequest struct {
	RecipeID string `json:"recipe_id"`
	Title    string `json:"title"`
}

type SaveDraftResponse struct {
	DraftID string `json:"draft_id"`
}

type DraftResponse struct {
	ID        string           `json:"id"`
	RecipeID  string           `json:"recipe_id"`
	Title     string           `json:"title"`
	VideoPath string           `json:"video_path,omitempty"`
	VideoURL  string           `json:"video_url,omitempty"`
	Duration  float64          `json:"duration"`
	Segments  []editor.Segment `json:"segments"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

type DraftsResponse struct {
	Drafts []DraftResponse `json:"drafts"`
}

type ValidationResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

type JobCreatedResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	DraftID   string `json:"draft_id,omitempty"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func DraftToResponse(d *editor.Draft) DraftResponse {
	return DraftResponse{
		ID:        d.ID,
		RecipeID:  d.RecipeID,
		Title:     d.Title,
		VideoPath: d.VideoPath,
		VideoURL:  d.VideoURL,
		Duration:  d.Duration,
		Segments:  d.Segments,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *editor.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		DraftID:   j.DraftID,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}
