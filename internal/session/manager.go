package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is how long an idle session survives before the janitor
// evicts it.
const DefaultTTL = 60 * time.Minute

const janitorInterval = 5 * time.Minute

// Manager owns the live session set. Sessions are created on first use and
// evicted after a period of inactivity.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	done     chan struct{}
	closed   sync.Once
}

// NewManager starts a manager with a background janitor. Close stops the
// janitor.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

// GetOrCreate returns the session with the given ID, creating it when
// absent.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.Touch()
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Touch()
		return s
	}
	s = New(id)
	m.sessions[s.ID] = s
	zap.L().Debug("session created", zap.String("session_id", s.ID))
	return s
}

// Get returns the session with the given ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Remove drops a session immediately, e.g. when its connection closes after
// a completed submission.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the janitor goroutine.
func (m *Manager) Close() {
	m.closed.Do(func() { close(m.done) })
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			zap.L().Info("session evicted", zap.String("session_id", id))
		}
	}
}
