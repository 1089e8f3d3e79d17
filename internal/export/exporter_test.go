package export

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stepcut/stepcut-agent/internal/db"
	"github.com/stepcut/stepcut-agent/internal/editor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupExporter(t *testing.T) (editor.Repository, *Exporter) {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := editor.NewRepository(database.Conn())
	return repo, NewExporter(repo, testLogger())
}

func savedDraft(t *testing.T, repo editor.Repository) *editor.Draft {
	t.Helper()

	now := time.Now().UTC()
	draft := &editor.Draft{
		ID:        "draft-1",
		RecipeID:  "rec-1",
		Title:     "Onion Soup",
		VideoPath: "/videos/onion.mp4",
		Duration:  120,
		Segments: []editor.Segment{
			{ID: "1", Description: "Dice the onions", StartTime: 0, EndTime: 10},
			{ID: "2", StartTime: 10, EndTime: 25.5},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.SaveDraft(context.Background(), draft); err != nil {
		t.Fatalf("failed to save draft: %v", err)
	}
	return draft
}

func TestExporter_Export(t *testing.T) {
	repo, exporter := setupExporter(t)
	savedDraft(t, repo)
	outDir := t.TempDir()

	resp, err := exporter.Export(context.Background(), ExportRequest{
		DraftID:   "draft-1",
		Format:    "edl",
		FrameRate: 30,
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if resp.Status != "completed" || resp.ClipCount != 2 {
		t.Errorf("response = %+v", resp)
	}
	if resp.OutputPath != filepath.Join(outDir, "Onion_Soup.edl") {
		t.Errorf("output path = %q", resp.OutputPath)
	}

	content, err := os.ReadFile(resp.OutputPath)
	if err != nil {
		t.Fatalf("failed to read edl: %v", err)
	}
	text := string(content)

	if !strings.Contains(text, "TITLE: Onion Soup") {
		t.Errorf("missing title:\n%s", text)
	}
	if !strings.Contains(text, "* FROM CLIP NAME:  Dice the onions") {
		t.Errorf("missing named clip:\n%s", text)
	}
	// The unnamed step gets a positional name.
	if !strings.Contains(text, "* FROM CLIP NAME:  Step 2") {
		t.Errorf("missing fallback clip name:\n%s", text)
	}
	if !strings.Contains(text, "* MEDIA PATH:  /videos/onion.mp4") {
		t.Errorf("missing media path:\n%s", text)
	}
}

func TestExporter_Export_UnknownDraft(t *testing.T) {
	_, exporter := setupExporter(t)

	_, err := exporter.Export(context.Background(), ExportRequest{
		DraftID:   "nope",
		OutputDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for unknown draft")
	}
}

func TestExporter_Export_UnsupportedFormat(t *testing.T) {
	repo, exporter := setupExporter(t)
	savedDraft(t, repo)

	_, err := exporter.Export(context.Background(), ExportRequest{
		DraftID:   "draft-1",
		Format:    "fcpxml",
		OutputDir: t.TempDir(),
	})
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("err = %v, want unsupported format", err)
	}
}

func TestExporter_Export_BadOutputDir(t *testing.T) {
	repo, exporter := setupExporter(t)
	savedDraft(t, repo)

	_, err := exporter.Export(context.Background(), ExportRequest{
		DraftID:   "draft-1",
		OutputDir: filepath.Join(t.TempDir(), "missing"),
	})
	if err == nil {
		t.Fatal("expected error for missing output dir")
	}
}

func TestClipsFromDraft_MillisecondConversion(t *testing.T) {
	draft := &editor.Draft{
		VideoPath: "/v.mp4",
		Segments: []editor.Segment{
			{ID: "1", Description: "x", StartTime: 1.2345, EndTime: 2.5},
		},
	}

	clips := ClipsFromDraft(draft)
	if len(clips) != 1 {
		t.Fatalf("len(clips) = %d", len(clips))
	}
	if clips[0].StartMs != 1235 || clips[0].EndMs != 2500 {
		t.Errorf("clip ms = [%d, %d], want [1235, 2500]", clips[0].StartMs, clips[0].EndMs)
	}
}
