// Package thumbs samples evenly spaced preview frames from an attached
// video. Sampling borrows the playback position, so every seek goes
// through the shared queue and the original position is restored when the
// pass finishes.
package thumbs

import (
	"bytes"
	"context"
	"image/jpeg"
	"log/slog"

	"github.com/stepcut/stepcut-agent/internal/media"
)

const (
	// DefaultCount is the normal strip size.
	DefaultCount = 10
	// ConstrainedCount is used when the host is low on memory or the video
	// is very short.
	ConstrainedCount = 3

	jpegQuality = 80
)

// Thumb is one captured frame, already encoded.
type Thumb struct {
	Index int     `json:"index"`
	Time  float64 `json:"time"`
	Data  []byte  `json:"-"`
}

// Sampler walks the video once, front to back, capturing one frame per
// sample point. Points are D*i/N for i in [0, N): the strip starts at the
// first frame and never lands exactly on the end, where many files have no
// decodable frame.
type Sampler struct {
	handle media.CaptureHandle
	queue  *media.SeekQueue
	logger *slog.Logger
}

func NewSampler(handle media.CaptureHandle, queue *media.SeekQueue, logger *slog.Logger) *Sampler {
	return &Sampler{handle: handle, queue: queue, logger: logger}
}

// Sample captures count thumbnails sequentially. Individual capture
// failures are logged and skipped; the pass keeps going so one bad frame
// does not cost the whole strip. A cancelled context abandons the pass and
// returns what was captured so far along with ctx's error.
//
// Each capture waits for its seek to complete before the next one starts,
// so sampling never overlaps itself or playback-boundary seeks.
func (s *Sampler) Sample(ctx context.Context, count int) ([]Thumb, error) {
	if count <= 0 {
		count = DefaultCount
	}
	duration := s.handle.Duration()
	if duration <= 0 {
		return nil, nil
	}

	restore := s.handle.CurrentTime()
	defer func() {
		// Hand the position back to whoever was using it. Restore rides
		// the same queue; if the context died we still try, detached.
		if err := s.queue.Seek(context.WithoutCancel(ctx), restore); err != nil {
			s.logger.Warn("failed to restore playback position", "target", restore, "error", err)
		}
	}()

	thumbs := make([]Thumb, 0, count)
	for i := 0; i < count; i++ {
		target := duration * float64(i) / float64(count)

		if err := s.queue.Seek(ctx, target); err != nil {
			return thumbs, err
		}

		frame, err := s.handle.CaptureFrame()
		if err != nil {
			s.logger.Warn("frame capture failed, skipping sample",
				"index", i, "time", target, "error", err)
			continue
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
			s.logger.Warn("thumbnail encode failed, skipping sample",
				"index", i, "time", target, "error", err)
			continue
		}

		thumbs = append(thumbs, Thumb{Index: i, Time: target, Data: buf.Bytes()})
	}

	return thumbs, nil
}
