package editor

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the quiet period after the last drag-move event
// before the pending trim value is committed.
const DefaultDebounceWindow = 300 * time.Millisecond

// TrimDebouncer coalesces bursts of drag-move events into a single trim
// commit. Every Schedule updates the session's live preview immediately;
// the canonical segment times are only written once input has been quiet
// for the window, or when Flush is called on drag release. The pending
// commit is an explicit field rather than a captured closure variable so it
// can be inspected and cancelled.
type TrimDebouncer struct {
	mu      sync.Mutex
	session *Session
	window  time.Duration

	timer      *time.Timer
	pending    [2]float64
	hasPending bool
}

func NewTrimDebouncer(session *Session, window time.Duration) *TrimDebouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &TrimDebouncer{session: session, window: window}
}

// Schedule records a drag-move value. Malformed input (not exactly two
// values) is rejected without touching the preview, the drag flag, or the
// pending commit.
func (d *TrimDebouncer) Schedule(values []float64) bool {
	if len(values) != 2 {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.session.SetTrimPreview(values) {
		return false
	}
	d.pending = [2]float64{values[0], values[1]}
	d.hasPending = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.Flush)
	return true
}

// Flush commits the pending value immediately. Drag release calls this so
// the commit does not wait out the quiet window. A flush with nothing
// pending is a no-op.
func (d *TrimDebouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if !d.hasPending {
		return
	}
	d.hasPending = false
	d.session.CommitTrim(d.pending[:])
}

// Cancel drops the pending commit without applying it.
func (d *TrimDebouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.hasPending = false
}

// Pending reports whether a commit is waiting for the quiet window.
func (d *TrimDebouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasPending
}
