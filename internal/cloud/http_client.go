package cloud

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"log/slog"
)

// SubmitError represents an error response from the cloud API.
type SubmitError struct {
	StatusCode int
	Body       string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("cloud request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and network errors.
// Client errors (4xx) are considered permanent.
func (e *SubmitError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPClient talks to the Stepcut backend: one endpoint for the video
// file, one for the step list.
type HTTPClient struct {
	baseURL    string
	token      string
	deviceID   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) SetDeviceID(id string) {
	c.deviceID = id
}

func (c *HTTPClient) UploadVideo(ctx context.Context, recipeID, filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("video", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read video: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize form: %w", err)
	}

	url := fmt.Sprintf("%s/api/recipes/%s/video", c.baseURL, recipeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setCommonHeaders(req)

	c.logger.Info("uploading video to cloud",
		"url", url,
		"recipe_id", recipeID,
		"file", filepath.Base(filePath),
		"body_bytes", body.Len(),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var result VideoUploadResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return "", fmt.Errorf("decode upload response: %w", err)
		}
		c.logger.Info("video upload succeeded", "recipe_id", recipeID, "video_url", result.VideoURL)
		return result.VideoURL, nil
	}

	return "", &SubmitError{StatusCode: resp.StatusCode, Body: string(respBody)}
}

func (c *HTTPClient) SubmitSteps(ctx context.Context, recipeID string, steps []StepPayload) (int, error) {
	body, err := json.Marshal(map[string]any{"steps": steps})
	if err != nil {
		return 0, fmt.Errorf("marshal steps payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/recipes/%s/steps", c.baseURL, recipeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req)

	c.logger.Info("submitting steps to cloud",
		"url", url,
		"recipe_id", recipeID,
		"step_count", len(steps),
		"body_bytes", len(body),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var result StepsSubmitResponse
		if err := json.Unmarshal(respBody, &result); err == nil {
			c.logger.Info("step submission succeeded",
				"recipe_id", result.RecipeID,
				"accepted_count", result.AcceptedCount,
			)
			return result.AcceptedCount, nil
		}
		return len(steps), nil
	}

	return 0, &SubmitError{StatusCode: resp.StatusCode, Body: string(respBody)}
}

func (c *HTTPClient) setCommonHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Stepcut-Request-Id", generateRequestID())
	if c.deviceID != "" {
		req.Header.Set("X-Stepcut-Device-Id", c.deviceID)
	}
}

func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
