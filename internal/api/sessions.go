package api

import (
	"log/slog"
	"sync"
	"time"

	"github.com/stepcut/stepcut-agent/internal/editor"
	"github.com/stepcut/stepcut-agent/internal/media"
	"github.com/stepcut/stepcut-agent/internal/playback"
)

// SessionRuntime bundles a session with the moving parts the HTTP surface
// drives: the remote media bridge, the shared seek queue, the playback
// synchronizer, and the trim debouncer.
type SessionRuntime struct {
	Session   *editor.Session
	Handle    *media.RemoteHandle
	Queue     *media.SeekQueue
	Sync      *playback.Synchronizer
	Debouncer *editor.TrimDebouncer
}

// Sessions builds and tracks one runtime per live session.
type Sessions struct {
	manager  *editor.Manager
	logger   *slog.Logger
	debounce time.Duration
	settle   time.Duration

	mu       sync.Mutex
	runtimes map[string]*SessionRuntime
}

func NewSessions(manager *editor.Manager, debounce, settle time.Duration, logger *slog.Logger) *Sessions {
	return &Sessions{
		manager:  manager,
		logger:   logger,
		debounce: debounce,
		settle:   settle,
		runtimes: make(map[string]*SessionRuntime),
	}
}

// Create opens a session and wires its runtime. The synchronizer starts
// immediately; it idles until media events arrive.
func (s *Sessions) Create() *SessionRuntime {
	session := s.manager.Create()
	if s.settle > 0 {
		session.SetSettleFallback(s.settle)
	}

	handle := media.NewRemoteHandle()
	queue := media.NewSeekQueue(handle)
	sync := playback.NewSynchronizer(session, handle, queue, s.logger)
	sync.Start()

	rt := &SessionRuntime{
		Session:   session,
		Handle:    handle,
		Queue:     queue,
		Sync:      sync,
		Debouncer: editor.NewTrimDebouncer(session, s.debounce),
	}

	s.mu.Lock()
	s.runtimes[session.ID()] = rt
	s.mu.Unlock()

	return rt
}

// Get returns the runtime for a session id, or nil.
func (s *Sessions) Get(id string) *SessionRuntime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runtimes[id]
}

// Close tears down the runtime and disposes the session. Pending trim
// input is flushed first so closing never drops a committed-looking edit.
func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	rt, ok := s.runtimes[id]
	delete(s.runtimes, id)
	s.mu.Unlock()

	if !ok {
		return false
	}

	rt.Debouncer.Flush()
	rt.Sync.Stop()
	return s.manager.Close(id)
}

// Count returns the number of live sessions.
func (s *Sessions) Count() int {
	return s.manager.Count()
}

// CloseAll tears down every runtime, e.g. at shutdown.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.runtimes))
	for id := range s.runtimes {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Close(id)
	}
}
