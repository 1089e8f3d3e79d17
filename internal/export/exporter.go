package export

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/stepcut/stepcut-agent/internal/editor"
)

const maxTitleLen = 80

// Exporter turns stored drafts into cut-list files on disk.
type Exporter struct {
	repo   editor.Repository
	logger *slog.Logger
}

func NewExporter(repo editor.Repository, logger *slog.Logger) *Exporter {
	return &Exporter{repo: repo, logger: logger}
}

// Export renders the draft's steps as an EDL in the requested directory.
// Only the "edl" format exists today; the field is explicit so adding FCPXML
// later does not change the request shape.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (*ExportResponse, error) {
	if req.Format != "" && req.Format != "edl" {
		return nil, fmt.Errorf("unsupported format %q", req.Format)
	}
	if err := ValidateOutputDir(req.OutputDir); err != nil {
		return nil, err
	}

	draft, err := e.repo.GetDraft(ctx, req.DraftID)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if draft == nil {
		return nil, fmt.Errorf("draft %s not found", req.DraftID)
	}
	if draft.VideoPath == "" {
		return nil, fmt.Errorf("draft has no local video to cut against")
	}

	clips := ClipsFromDraft(draft)
	if len(clips) == 0 {
		return nil, fmt.Errorf("draft has no steps")
	}

	title := SanitizeName(draft.Title, maxTitleLen)
	if title == "" {
		title = "Untitled Draft"
	}

	content := GenerateEDL(clips, title, req.FrameRate)

	filename := strings.ReplaceAll(title, " ", "_") + ".edl"
	outputPath := filepath.Join(req.OutputDir, filename)
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write edl: %w", err)
	}

	e.logger.Info("draft exported",
		"draft_id", draft.ID,
		"output_path", outputPath,
		"clip_count", len(clips),
	)

	return &ExportResponse{
		Status:     "completed",
		Format:     "edl",
		OutputPath: outputPath,
		ClipCount:  len(clips),
	}, nil
}

// ClipsFromDraft converts the draft's steps into millisecond clips.
// Unnamed steps get a positional name so the NLE bin stays readable.
func ClipsFromDraft(draft *editor.Draft) []StepClip {
	clips := make([]StepClip, 0, len(draft.Segments))
	for i, seg := range draft.Segments {
		name := SanitizeName(seg.Description, maxTitleLen)
		if name == "" {
			name = fmt.Sprintf("Step %d", i+1)
		}
		clips = append(clips, StepClip{
			Name:      name,
			MediaPath: draft.VideoPath,
			StartMs:   int(math.Round(seg.StartTime * 1000)),
			EndMs:     int(math.Round(seg.EndTime * 1000)),
		})
	}
	return clips
}
