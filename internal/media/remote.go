package media

import (
	"fmt"
	"sync"
)

// Command is one instruction for the remote player: a seek target or a
// play/pause toggle. The UI drains these and applies them to its <video>
// element.
type Command struct {
	Op   string  `json:"op"` // "seek", "play", "pause"
	Time float64 `json:"time,omitempty"`
}

// Remote event kinds accepted by HandleEvent, named after the underlying
// element events.
const (
	EventTimeUpdate     = "timeupdate"
	EventSeeked         = "seeked"
	EventMetadataLoaded = "loadedmetadata"
)

// RemoteHandle bridges a media element that lives on the other side of the
// HTTP surface. The element's events are posted in via HandleEvent; the
// editor's commands accumulate until the UI drains them. From the core's
// side it is just another Handle.
type RemoteHandle struct {
	hub *eventHub

	mu          sync.Mutex
	currentTime float64
	duration    float64
	commands    []Command
}

var _ Handle = (*RemoteHandle)(nil)

func NewRemoteHandle() *RemoteHandle {
	return &RemoteHandle{hub: newEventHub()}
}

func (r *RemoteHandle) CurrentTime() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTime
}

func (r *RemoteHandle) Duration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

func (r *RemoteHandle) Seek(t float64) {
	r.mu.Lock()
	r.commands = append(r.commands, Command{Op: "seek", Time: t})
	r.mu.Unlock()
}

func (r *RemoteHandle) Play() error {
	r.mu.Lock()
	r.commands = append(r.commands, Command{Op: "play"})
	r.mu.Unlock()
	return nil
}

func (r *RemoteHandle) Pause() {
	r.mu.Lock()
	r.commands = append(r.commands, Command{Op: "pause"})
	r.mu.Unlock()
}

func (r *RemoteHandle) OnTimeUpdate(fn func(float64)) func() {
	return r.hub.subscribe(r.hub.timeSubs, fn)
}

func (r *RemoteHandle) OnSeekCompleted(fn func(float64)) func() {
	return r.hub.subscribe(r.hub.seekSubs, fn)
}

func (r *RemoteHandle) OnMetadataLoaded(fn func(float64)) func() {
	return r.hub.subscribe(r.hub.metaSubs, fn)
}

// HandleEvent ingests one posted element event and fans it out to
// subscribers. Unknown kinds are an input error, reported rather than
// swallowed so a misbehaving UI shows up in logs.
func (r *RemoteHandle) HandleEvent(kind string, value float64) error {
	switch kind {
	case EventTimeUpdate:
		r.mu.Lock()
		r.currentTime = value
		r.mu.Unlock()
		r.hub.fire(r.hub.timeSubs, value)
	case EventSeeked:
		r.mu.Lock()
		r.currentTime = value
		r.mu.Unlock()
		r.hub.fire(r.hub.seekSubs, value)
	case EventMetadataLoaded:
		r.mu.Lock()
		r.duration = value
		r.mu.Unlock()
		r.hub.fire(r.hub.metaSubs, value)
	default:
		return fmt.Errorf("unknown media event %q", kind)
	}
	return nil
}

// DrainCommands returns and clears the pending command queue.
func (r *RemoteHandle) DrainCommands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.commands
	r.commands = nil
	return out
}
