package editor

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"

	"github.com/stepcut/stepcut-agent/internal/timecode"
)

// Segment is one labeled step: a [StartTime, EndTime] sub-range of the
// source video. Times are seconds; the percent pair is the same range in
// percent-of-duration, kept in sync by the session mutation layer because
// the trim handles operate in percent.
type Segment struct {
	ID           string  `json:"id"`
	Description  string  `json:"description"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	StartPercent float64 `json:"start_percent"`
	EndPercent   float64 `json:"end_percent"`
}

const (
	// Display defaults used when the step list is empty or a segment
	// arrives with unusable times.
	DefaultStartTime = 0.0
	DefaultEndTime   = 10.0

	// PlaceholderDescription is shown for a step that has no text yet.
	PlaceholderDescription = "Describe this step"

	// AddSegmentSeconds is the length of a freshly added step, measured
	// from zero. The surrounding product had two inconsistent defaults for
	// this; the 10-seconds-from-zero one is the documented choice here.
	AddSegmentSeconds = 10.0

	// ResetSlotSeconds is the fixed slot width ResetAll redistributes
	// steps into, in list order.
	ResetSlotSeconds = 5.0
)

// syncPercent re-derives the percent pair from the segment's times.
func (s *Segment) syncPercent(duration float64) {
	s.StartPercent = timecode.SecondsToPercent(s.StartTime, duration)
	s.EndPercent = timecode.SecondsToPercent(s.EndTime, duration)
}

// NextSegmentID computes a fresh id as max(numeric ids)+1. Ids that do not
// parse as a positive integer are ignored rather than treated as errors;
// upstream draft data is known to carry string and junk ids.
func NextSegmentID(segments []Segment) string {
	max := 0
	for _, s := range segments {
		n, err := strconv.Atoi(strings.TrimSpace(s.ID))
		if err != nil || n <= 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// NewSessionID returns a random identifier for an editing session.
func NewSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// VideoExtensions lists the file extensions accepted for upload.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// IsVideoFile reports whether the filename carries an accepted video
// extension.
func IsVideoFile(filename string) bool {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return false
	}
	return VideoExtensions[strings.ToLower(filename[idx:])]
}
