package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/internal/metrics"
	"github.com/wisdom-keeper/backend/pkg/logger"
)

// Manager hosts one session per visitor and evicts the idle ones.
type Manager struct {
	responder Responder
	idleTTL   time.Duration

	mu       sync.Mutex
	sessions map[string]*Session

	sweepTicker *time.Ticker
	done        chan struct{}
}

func NewManager(responder Responder, idleTTL time.Duration) *Manager {
	if idleTTL == 0 {
		idleTTL = 30 * time.Minute
	}

	m := &Manager{
		responder:   responder,
		idleTTL:     idleTTL,
		sessions:    make(map[string]*Session),
		sweepTicker: time.NewTicker(time.Minute),
		done:        make(chan struct{}),
	}

	go m.sweep()

	return m
}

// Get returns the session for an id, creating it on first use. An empty id
// gets a fresh session under a generated id.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = uuid.New().String()
	}

	s, ok := m.sessions[id]
	if !ok {
		s = New(id, m.responder)
		m.sessions[id] = s
		metrics.ActiveSessions.Set(float64(len(m.sessions)))
		logger.Debug("Session created", zap.String("session_id", id))
	}

	return s
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) sweep() {
	for {
		select {
		case <-m.done:
			return
		case <-m.sweepTicker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.idleTTL)
	for id, s := range m.sessions {
		if s.State() == StateIdle && s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			logger.Debug("Session evicted", zap.String("session_id", id))
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
}

// Close stops the eviction loop.
func (m *Manager) Close() {
	m.sweepTicker.Stop()
	close(m.done)
}
