package session

import (
	"sync"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/gateway"
	"github.com/rs/zerolog"
)

// Manager keeps one session per rep and creates them on first use
type Manager struct {
	gw         gateway.Gateway
	resolver   ContactResolver
	ui         Frontend
	alerter    Alerter
	contextPub ContextPublisher
	opts       Options
	logger     zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager with the shared dependencies
// every session is built from
func NewManager(gw gateway.Gateway, resolver ContactResolver, ui Frontend, alerter Alerter, contextPub ContextPublisher, opts Options, logger zerolog.Logger) *Manager {
	return &Manager{
		gw:         gw,
		resolver:   resolver,
		ui:         ui,
		alerter:    alerter,
		contextPub: contextPub,
		opts:       opts,
		logger:     logger,
		sessions:   make(map[string]*Session),
	}
}

// Get returns the rep's session, creating it on first use
func (m *Manager) Get(userID string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s = New(userID, m.gw, m.resolver, m.ui, m.alerter, m.contextPub, m.opts, m.logger)
	m.sessions[userID] = s
	m.logger.Info().Str("user_id", userID).Msg("session created")
	return s
}

// Lookup returns the rep's session without creating one
func (m *Manager) Lookup(userID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Remove closes and drops the rep's session
func (m *Manager) Remove(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// All returns a snapshot of the active sessions
func (m *Manager) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
