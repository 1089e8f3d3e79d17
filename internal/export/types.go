package export

// ExportRequest asks for a draft's step list as an editable cut list.
type ExportRequest struct {
	DraftID   string  `json:"draft_id"`
	Format    string  `json:"format"`
	FrameRate float64 `json:"frame_rate"`
	OutputDir string  `json:"output_dir"`
}

// StepClip is one step resolved against the draft's video file, in the
// millisecond units cut lists use.
type StepClip struct {
	Name      string
	MediaPath string
	StartMs   int
	EndMs     int
}

type ExportResponse struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	ClipCount  int    `json:"clip_count"`
}
