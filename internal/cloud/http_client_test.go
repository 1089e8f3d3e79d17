package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeVideoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0o644); err != nil {
		t.Fatalf("failed to write test video: %v", err)
	}
	return path
}

func TestHTTPClient_SubmitSteps_Success(t *testing.T) {
	var receivedAuth string
	var receivedBody map[string][]StepPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recipes/rec-1/steps" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}

		receivedAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &receivedBody)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(StepsSubmitResponse{RecipeID: "rec-1", AcceptedCount: 2})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	steps := []StepPayload{
		{Description: "Dice the onions finely", StartTime: 0, EndTime: 12},
		{Description: "Brown them over low heat", StartTime: 12, EndTime: 40},
	}

	accepted, err := client.SubmitSteps(context.Background(), "rec-1", steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted != 2 {
		t.Errorf("accepted = %d, want 2", accepted)
	}
	if receivedAuth != "Bearer test-token" {
		t.Errorf("auth = %q, want %q", receivedAuth, "Bearer test-token")
	}
	if got := receivedBody["steps"]; len(got) != 2 || got[0].Description != "Dice the onions finely" {
		t.Errorf("received steps = %+v", got)
	}
}

func TestHTTPClient_SubmitSteps_Returns_SubmitError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"unknown recipe"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	_, err := client.SubmitSteps(context.Background(), "rec-404", []StepPayload{
		{Description: "Dice the onions finely", StartTime: 0, EndTime: 12},
	})

	if err == nil {
		t.Fatal("expected error for 400 response")
	}

	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("expected SubmitError, got %T", err)
	}
	if submitErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status_code = %d, want %d", submitErr.StatusCode, http.StatusBadRequest)
	}
	if !strings.Contains(submitErr.Body, "unknown recipe") {
		t.Fatalf("body = %q, want to contain unknown recipe", submitErr.Body)
	}
}

func TestSubmitError_IsRetryable(t *testing.T) {
	if !(&SubmitError{StatusCode: http.StatusInternalServerError}).IsRetryable() {
		t.Fatal("expected 5xx error to be retryable")
	}
	if (&SubmitError{StatusCode: http.StatusBadRequest}).IsRetryable() {
		t.Fatal("expected 4xx error to be permanent")
	}
}

func TestHTTPClient_UploadVideo_Success(t *testing.T) {
	var receivedFilename string
	var receivedBytes []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recipes/rec-1/video" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		file, header, err := r.FormFile("video")
		if err != nil {
			t.Errorf("missing video form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		receivedFilename = header.Filename
		receivedBytes, _ = io.ReadAll(file)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(VideoUploadResponse{VideoURL: "https://cdn.example.com/rec-1.mp4"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	url, err := client.UploadVideo(context.Background(), "rec-1", writeVideoFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://cdn.example.com/rec-1.mp4" {
		t.Errorf("url = %q", url)
	}
	if receivedFilename != "clip.mp4" {
		t.Errorf("filename = %q, want clip.mp4", receivedFilename)
	}
	if string(receivedBytes) != "fake video bytes" {
		t.Errorf("uploaded bytes = %q", receivedBytes)
	}
}

func TestHTTPClient_UploadVideo_MissingFile(t *testing.T) {
	client := NewHTTPClient("http://localhost:0", "test-token", testLogger())

	_, err := client.UploadVideo(context.Background(), "rec-1", filepath.Join(t.TempDir(), "nope.mp4"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHTTPClient_SendsCorrelationHeaders(t *testing.T) {
	var requestID, deviceID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Stepcut-Request-Id")
		deviceID = r.Header.Get("X-Stepcut-Device-Id")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(StepsSubmitResponse{RecipeID: "rec-1", AcceptedCount: 1})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())
	client.SetDeviceID("device-xyz")

	_, err := client.SubmitSteps(context.Background(), "rec-1", []StepPayload{
		{Description: "Dice the onions finely", StartTime: 0, EndTime: 12},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if requestID == "" {
		t.Fatal("expected X-Stepcut-Request-Id header")
	}
	if deviceID != "device-xyz" {
		t.Fatalf("device_id_header = %q, want %q", deviceID, "device-xyz")
	}
}

func TestHTTPClient_SubmitSteps_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-token", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SubmitSteps(ctx, "rec-1", []StepPayload{
		{Description: "Dice the onions finely", StartTime: 0, EndTime: 12},
	})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestHTTPClient_ImplementsClientInterface(t *testing.T) {
	var _ Client = (*HTTPClient)(nil)
}

func TestStubClient_ImplementsClientInterface(t *testing.T) {
	var _ Client = (*StubClient)(nil)
}

func TestStubClient_NoOp(t *testing.T) {
	stub := NewStubClient(testLogger())

	accepted, err := stub.SubmitSteps(context.Background(), "rec-1", []StepPayload{
		{Description: "Dice the onions finely", StartTime: 0, EndTime: 12},
	})
	if err != nil {
		t.Fatalf("stub should not error: %v", err)
	}
	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}

	if _, err := stub.UploadVideo(context.Background(), "rec-1", "/tmp/clip.mp4"); err != nil {
		t.Fatalf("stub should not error: %v", err)
	}
}
