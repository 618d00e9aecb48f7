package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// ErrSessionNotFound is returned by Get/Close when id names no live
// session.
var ErrSessionNotFound = fmt.Errorf("session: not found")

// Manager is a session registry (each engine Coordinator owns one), guarded by a single
// reader-writer lock (reads scale with the number of readers, writes
// exclude readers), matching the catalog/session registry half of the
// engine's lock order.
type Manager struct {
	mu       sync.RWMutex
	sessions map[ID]*Session
}

// NewManager returns an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[ID]*Session)}
}

func newSessionID() (ID, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return ID(hex.EncodeToString(b[:])), nil
}

// Create issues a new session for user and registers it, implementing
// Coordinator.create_simple_session.
func (m *Manager) Create(user string) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("session: generate id: %w", err)
	}
	s := newSession(id, user)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
	return s, nil
}

// Get returns the session registered under id.
func (m *Manager) Get(id ID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends one session (SESSION CLOSE), discarding any open explicit
// transaction's undo log without replaying it — callers that need the
// rollback semantics should call Session.Rollback first.
func (m *Manager) Close(id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown drains every registered session. It does not itself flush the
// WAL or write the clean-shutdown marker; the coordinator does that once
// every session here has been dropped, per the external shutdown
// sequencing contract.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.sessions {
		delete(m.sessions, id)
	}
}
