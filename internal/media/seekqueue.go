package media

import (
	"context"
	"sync/atomic"
)

// SeekQueue serializes every seek issued against one handle. Playback
// boundary handling and thumbnail sampling share the media element's
// single position cursor; overlapping seeks race and sample garbage
// frames, so both subsystems route through the same queue and a seek only
// returns once the element reports completion.
type SeekQueue struct {
	handle Handle
	sem    chan struct{}
	seeks  atomic.Int64
}

func NewSeekQueue(handle Handle) *SeekQueue {
	q := &SeekQueue{
		handle: handle,
		sem:    make(chan struct{}, 1),
	}
	q.sem <- struct{}{}
	return q
}

// Seek blocks until the handle completes the seek or ctx is cancelled.
// Concurrent callers are served one at a time in arrival order.
func (q *SeekQueue) Seek(ctx context.Context, t float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-q.sem:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { q.sem <- struct{}{} }()

	done := make(chan struct{})
	var once atomic.Bool
	unsub := q.handle.OnSeekCompleted(func(float64) {
		if once.CompareAndSwap(false, true) {
			close(done)
		}
	})
	defer unsub()

	q.handle.Seek(t)
	q.seeks.Add(1)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		// The element may still land the seek later; the caller has
		// moved on and the next queued seek will supersede it.
		return ctx.Err()
	}
}

// SeekCount returns how many seeks have been issued, for status reporting.
func (q *SeekQueue) SeekCount() int64 {
	return q.seeks.Load()
}
