package editor

import (
	"log/slog"
	"sync"
)

// Manager tracks live editing sessions by id. The surrounding product only
// ever edits one video at a time, but the agent keys sessions explicitly so
// a stale UI tab can never mutate a newer session.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Create starts a new editing session.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := NewSession(m.logger)
	m.sessions[s.ID()] = s
	if m.logger != nil {
		m.logger.Info("session created", "session_id", s.ID())
	}
	return s
}

// Get returns the session with the given id, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Close disposes and forgets a session.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.Dispose()
	delete(m.sessions, id)
	if m.logger != nil {
		m.logger.Info("session closed", "session_id", id)
	}
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll disposes every live session, e.g. at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		s.Dispose()
		delete(m.sessions, id)
	}
}
