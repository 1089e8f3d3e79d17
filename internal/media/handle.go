// Package media abstracts the video element the editor drives. The core
// never touches DOM or player specifics; it sees a Handle that reports
// time, accepts seeks, and emits the three events the editor cares about.
package media

import (
	"image"
	"sync"
)

// Handle is the editor's view of a media element. Seek is asynchronous:
// the position is only trustworthy once the seek-completed event fires,
// which is why all seeking goes through SeekQueue.
type Handle interface {
	CurrentTime() float64
	Duration() float64
	Seek(t float64)
	Play() error
	Pause()

	// Subscriptions return an unsubscribe func.
	OnTimeUpdate(fn func(t float64)) func()
	OnSeekCompleted(fn func(t float64)) func()
	OnMetadataLoaded(fn func(duration float64)) func()
}

// CaptureHandle is a Handle that can sample the current frame, which the
// thumbnail sampler needs.
type CaptureHandle interface {
	Handle
	CaptureFrame() (image.Image, error)
}

// eventHub is the shared listener registry for Handle implementations.
type eventHub struct {
	mu       sync.Mutex
	nextID   int
	timeSubs map[int]func(float64)
	seekSubs map[int]func(float64)
	metaSubs map[int]func(float64)
}

func newEventHub() *eventHub {
	return &eventHub{
		timeSubs: make(map[int]func(float64)),
		seekSubs: make(map[int]func(float64)),
		metaSubs: make(map[int]func(float64)),
	}
}

func (h *eventHub) subscribe(subs map[int]func(float64), fn func(float64)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(subs, id)
		h.mu.Unlock()
	}
}

func (h *eventHub) fire(subs map[int]func(float64), v float64) {
	h.mu.Lock()
	fns := make([]func(float64), 0, len(subs))
	for _, fn := range subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
