package cloud

import (
	"context"
	"log/slog"
)

// StepPayload is one editor step in wire form. Times are seconds into the
// uploaded video.
type StepPayload struct {
	Description string  `json:"description"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
}

// StepsSubmitResponse is what the ingest endpoint returns on success.
type StepsSubmitResponse struct {
	RecipeID      string `json:"recipe_id"`
	AcceptedCount int    `json:"accepted_count"`
}

// VideoUploadResponse is what the upload endpoint returns on success.
type VideoUploadResponse struct {
	VideoURL string `json:"video_url"`
}

type Client interface {
	// UploadVideo pushes the local video file and returns its hosted URL.
	UploadVideo(ctx context.Context, recipeID, filePath string) (string, error)
	// SubmitSteps sends the finished step list and returns how many the
	// backend accepted.
	SubmitSteps(ctx context.Context, recipeID string, steps []StepPayload) (int, error)
}

// StubClient is the offline client: it logs what it would have sent and
// succeeds. The agent runs on it until credentials are configured.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (c *StubClient) UploadVideo(ctx context.Context, recipeID, filePath string) (string, error) {
	c.logger.Info("cloud stub: video upload requested", "recipe_id", recipeID, "path", filePath)
	return "", nil
}

func (c *StubClient) SubmitSteps(ctx context.Context, recipeID string, steps []StepPayload) (int, error) {
	c.logger.Info("cloud stub: step submission requested", "recipe_id", recipeID, "step_count", len(steps))
	return len(steps), nil
}
