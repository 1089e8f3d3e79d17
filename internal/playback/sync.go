package playback

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/stepcut/stepcut-agent/internal/editor"
	"github.com/stepcut/stepcut-agent/internal/media"
)

// State describes what the synchronizer believes the player is doing.
type State int

const (
	StateIdle State = iota
	StateSeeking
	StatePlaying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSeeking:
		return "seeking"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Synchronizer keeps playback inside the active segment. It watches the
// handle's time updates and, when the position crosses the segment's end,
// either advances the session to the next segment and seeks to its start,
// or seeks back to the active segment's start when it is the last one,
// pausing there unless loop mode keeps it playing.
//
// Boundary seeks go through the shared SeekQueue, so they never overlap
// with thumbnail sampling or user-initiated seeks.
type Synchronizer struct {
	session *editor.Session
	handle  media.Handle
	queue   *media.SeekQueue
	logger  *slog.Logger

	loop        atomic.Bool
	seekPending atomic.Bool

	mu     sync.Mutex
	state  State
	unsubs []func()
}

func NewSynchronizer(session *editor.Session, handle media.Handle, queue *media.SeekQueue, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		session: session,
		handle:  handle,
		queue:   queue,
		logger:  logger,
		state:   StateIdle,
	}
}

// SetLoop toggles whether the last segment replays from its start instead
// of pausing at the boundary.
func (y *Synchronizer) SetLoop(loop bool) {
	y.loop.Store(loop)
}

// Start subscribes to the handle. Safe to call once; Stop releases the
// subscriptions.
func (y *Synchronizer) Start() {
	y.mu.Lock()
	defer y.mu.Unlock()

	if len(y.unsubs) > 0 {
		return
	}
	y.unsubs = append(y.unsubs,
		y.handle.OnTimeUpdate(y.onTimeUpdate),
		y.handle.OnSeekCompleted(y.session.RecordTime),
		y.handle.OnMetadataLoaded(y.onMetadataLoaded),
	)
	y.state = StatePlaying
}

func (y *Synchronizer) Stop() {
	y.mu.Lock()
	defer y.mu.Unlock()

	for _, unsub := range y.unsubs {
		unsub()
	}
	y.unsubs = nil
	y.state = StateIdle
}

func (y *Synchronizer) State() State {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.state
}

func (y *Synchronizer) onMetadataLoaded(duration float64) {
	y.logger.Debug("media metadata loaded", "duration", duration)
	y.session.SetDuration(duration)
}

func (y *Synchronizer) onTimeUpdate(t float64) {
	y.session.RecordTime(t)

	// While a boundary seek is in flight the element still reports stale
	// positions past the old boundary; acting on them would double-fire.
	if y.seekPending.Load() {
		return
	}

	active, ok := y.session.ActiveSegment()
	if !ok || t < active.EndTime {
		return
	}

	next, hasNext := y.session.NextSegment()
	switch {
	case hasNext:
		y.session.Navigate(editor.DirectionNext)
		y.boundarySeek(next.StartTime, StatePlaying, func() {
			y.session.SettleTransition()
		})
	case y.loop.Load():
		y.boundarySeek(active.StartTime, StatePlaying, nil)
	default:
		y.handle.Pause()
		y.boundarySeek(active.StartTime, StateStopped, nil)
	}
}

// boundarySeek runs the queued seek off the event goroutine so a handle
// that completes seeks synchronously cannot re-enter onTimeUpdate while
// state is mid-change.
func (y *Synchronizer) boundarySeek(target float64, after State, then func()) {
	y.seekPending.Store(true)
	y.setState(StateSeeking)

	go func() {
		if err := y.queue.Seek(context.Background(), target); err != nil {
			y.logger.Warn("boundary seek failed", "target", target, "error", err)
		}
		if then != nil {
			then()
		}
		y.setState(after)
		y.seekPending.Store(false)
	}()
}

func (y *Synchronizer) setState(s State) {
	y.mu.Lock()
	y.state = s
	y.mu.Unlock()
}
