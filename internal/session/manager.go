// Package session keeps one wheel controller per visitor tab.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/mischief-wheel/internal/wheel"
)

// Factory builds a fresh controller for a new session.
type Factory func() *wheel.Controller

// Manager manages live wheel sessions keyed by user and tab.
type Manager struct {
	mu      sync.RWMutex
	active  map[string]map[string]*wheel.Controller
	factory Factory
}

// NewManager creates a new session manager.
func NewManager(factory Factory) *Manager {
	return &Manager{
		active:  make(map[string]map[string]*wheel.Controller),
		factory: factory,
	}
}

// Get returns the controller for a user and session, or nil.
func (m *Manager) Get(userID, sessionID string) *wheel.Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sessions, ok := m.active[userID]; ok {
		return sessions[sessionID]
	}
	return nil
}

// GetOrCreate returns the controller for a user and session, creating it on first use.
func (m *Manager) GetOrCreate(userID, sessionID string) *wheel.Controller {
	if c := m.Get(userID, sessionID); c != nil {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[userID]; !exists {
		m.active[userID] = make(map[string]*wheel.Controller)
	}
	if c, exists := m.active[userID][sessionID]; exists {
		return c
	}

	c := m.factory()
	m.active[userID][sessionID] = c
	slog.Info("Wheel session created", "user_id", userID, "session_id", sessionID, "token", c.Token())
	return c
}

// Close tears down one session. Pending spin callbacks become no-ops.
func (m *Manager) Close(userID, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, ok := m.active[userID]
	if !ok {
		return false
	}
	c, ok := sessions[sessionID]
	if !ok {
		return false
	}

	c.Close()
	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(m.active, userID)
	}
	slog.Info("Wheel session closed", "user_id", userID, "session_id", sessionID)
	return true
}

// CloseUser tears down every session for a user.
func (m *Manager) CloseUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, ok := m.active[userID]
	if !ok {
		return
	}
	for sid, c := range sessions {
		c.Close()
		slog.Info("Wheel session closed", "user_id", userID, "session_id", sid)
	}
	delete(m.active, userID)
}

// CloseAll tears down every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sessions := range m.active {
		for _, c := range sessions {
			c.Close()
		}
	}
	m.active = make(map[string]map[string]*wheel.Controller)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, sessions := range m.active {
		n += len(sessions)
	}
	return n
}

// Sweep closes sessions idle since before now-ttl and returns how many it closed.
// Sessions with a connected subscriber are never idle.
func (m *Manager) Sweep(now time.Time, ttl time.Duration) int {
	threshold := now.Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	swept := 0
	for userID, sessions := range m.active {
		for sid, c := range sessions {
			if c.Subscribers() == 0 && c.LastActive().Before(threshold) {
				c.Close()
				delete(sessions, sid)
				swept++
				slog.Debug("Wheel session expired", "user_id", userID, "session_id", sid)
			}
		}
		if len(sessions) == 0 {
			delete(m.active, userID)
		}
	}
	return swept
}
