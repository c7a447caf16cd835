package server

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/harborlight/siteshell/pkg/middleware"
	"github.com/harborlight/siteshell/pkg/protocol"
)

// ErrMaxSessionsReached is returned when the session limit is hit.
var ErrMaxSessionsReached = errors.New("server: maximum sessions reached")

// SessionManager tracks all active sessions.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	maxSessions int
	metrics     *middleware.Metrics
	logger      *slog.Logger

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64
}

// NewSessionManager creates a manager allowing at most maxSessions
// concurrent sessions (0 means unlimited).
func NewSessionManager(maxSessions int, m *middleware.Metrics, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		metrics:     m,
		logger:      logger,
	}
}

// Add registers s. The session is removed automatically when it closes.
func (m *SessionManager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return ErrMaxSessionsReached
	}
	m.sessions[s.ID] = s
	s.onClose = m.remove
	m.totalCreated.Add(1)
	if m.metrics != nil {
		m.metrics.RecordSessionCreate()
	}
	return nil
}

func (m *SessionManager) remove(s *Session) {
	m.mu.Lock()
	_, ok := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	if ok {
		m.totalClosed.Add(1)
		if m.metrics != nil {
			m.metrics.RecordSessionDestroy()
		}
	}
}

// Get returns the session with the given id.
func (m *SessionManager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Count returns the number of active sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stats returns lifetime counters.
func (m *SessionManager) Stats() (created, closed uint64) {
	return m.totalCreated.Load(), m.totalClosed.Load()
}

func (m *SessionManager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// BroadcastReload tells every connected client to reload the document.
func (m *SessionManager) BroadcastReload() int {
	sessions := m.snapshot()
	for _, s := range sessions {
		s.Dispatch(func() { s.Send(protocol.Reload{}) })
	}
	if m.metrics != nil {
		m.metrics.RecordReloadBroadcast()
	}
	m.logger.Info("reload broadcast", "sessions", len(sessions))
	return len(sessions)
}

// Shutdown closes every session.
func (m *SessionManager) Shutdown() {
	for _, s := range m.snapshot() {
		s.Close()
	}
}
