package editor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stepcut/stepcut-agent/internal/db"
)

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	return database, NewRepository(database.Conn())
}

func testDraft() *Draft {
	now := time.Now().UTC().Truncate(time.Second)
	return &Draft{
		ID:       "draft-1",
		RecipeID: "recipe-9",
		Title:    "Weeknight curry",
		Duration: 95.5,
		Segments: []Segment{
			{ID: "1", Description: "chop the onions", StartTime: 0, EndTime: 12, StartPercent: 0, EndPercent: 12.57},
			{ID: "2", Description: "fry the paste", StartTime: 12, EndTime: 40, StartPercent: 12.57, EndPercent: 41.88},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRepository_SaveAndGetDraft(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	if err := repo.SaveDraft(ctx, testDraft()); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}

	got, err := repo.GetDraft(ctx, "draft-1")
	if err != nil {
		t.Fatalf("GetDraft() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetDraft() = nil, want draft")
	}
	if got.Title != "Weeknight curry" || got.Duration != 95.5 {
		t.Errorf("draft = {%q, %v}, want {Weeknight curry, 95.5}", got.Title, got.Duration)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(got.Segments))
	}
	if got.Segments[0].Description != "chop the onions" || got.Segments[1].StartTime != 12 {
		t.Errorf("segments round-tripped wrong: %+v", got.Segments)
	}
}

func TestRepository_SaveDraftReplacesSegments(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	d := testDraft()
	if err := repo.SaveDraft(ctx, d); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}

	d.Segments = d.Segments[:1]
	d.Segments[0].Description = "rewritten"
	if err := repo.SaveDraft(ctx, d); err != nil {
		t.Fatalf("second SaveDraft() error = %v", err)
	}

	got, err := repo.GetDraft(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDraft() error = %v", err)
	}
	if len(got.Segments) != 1 {
		t.Fatalf("segments = %d after resave, want 1", len(got.Segments))
	}
	if got.Segments[0].Description != "rewritten" {
		t.Errorf("description = %q, want rewritten", got.Segments[0].Description)
	}
}

func TestRepository_GetDraftMissing(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	got, err := repo.GetDraft(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetDraft() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetDraft() = %+v, want nil", got)
	}
}

func TestRepository_DeleteDraft(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	if err := repo.SaveDraft(ctx, testDraft()); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}
	if err := repo.DeleteDraft(ctx, "draft-1"); err != nil {
		t.Fatalf("DeleteDraft() error = %v", err)
	}

	got, _ := repo.GetDraft(ctx, "draft-1")
	if got != nil {
		t.Error("draft still present after delete")
	}

	var count int
	if err := database.Conn().QueryRow("SELECT COUNT(*) FROM draft_segments").Scan(&count); err != nil {
		t.Fatalf("count segments error = %v", err)
	}
	if count != 0 {
		t.Errorf("orphan segment rows = %d, want 0", count)
	}
}

func TestRepository_Jobs(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	now := time.Now()
	job := &Job{
		ID:        "job-1",
		Type:      JobTypeThumbnails,
		Status:    JobStatusPending,
		DraftID:   "draft-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	pending, err := repo.ListPendingJobs(ctx)
	if err != nil {
		t.Fatalf("ListPendingJobs() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "job-1" {
		t.Fatalf("pending = %+v, want job-1", pending)
	}

	if err := repo.UpdateJobStatus(ctx, "job-1", JobStatusRunning, ""); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}
	if err := repo.UpdateJobProgress(ctx, "job-1", 40); err != nil {
		t.Fatalf("UpdateJobProgress() error = %v", err)
	}

	got, err := repo.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != JobStatusRunning || got.Progress != 40 {
		t.Errorf("job = {%s, %d}, want {running, 40}", got.Status, got.Progress)
	}

	pending, _ = repo.ListPendingJobs(ctx)
	if len(pending) != 0 {
		t.Errorf("pending = %d after start, want 0", len(pending))
	}
}

func TestRepository_Config(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	if v, err := repo.GetConfig(ctx, "missing"); err != nil || v != "" {
		t.Errorf("GetConfig(missing) = (%q, %v), want empty", v, err)
	}

	if err := repo.SetConfig(ctx, "auth_token", "abc"); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if err := repo.SetConfig(ctx, "auth_token", "def"); err != nil {
		t.Fatalf("SetConfig() upsert error = %v", err)
	}

	v, err := repo.GetConfig(ctx, "auth_token")
	if err != nil || v != "def" {
		t.Errorf("GetConfig() = (%q, %v), want def", v, err)
	}
}
