package auth

import (
	"sync"
	"time"
)

// Session associates a client with its authenticated state.
type Session struct {
	ID            string
	Authenticated bool
	CreatedAt     time.Time
}

// SessionStore abstracts session persistence so the gate does not depend on
// any particular storage mechanism.
type SessionStore interface {
	Get(id string) (Session, bool)
	Set(session Session)
	Clear(id string)
}

// MemoryStore implements SessionStore with an in-memory map, suitable for a
// single-process deployment.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Get looks up a session by its opaque identifier.
func (s *MemoryStore) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Set stores or replaces a session.
func (s *MemoryStore) Set(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Clear removes a session; clearing an unknown ID is a no-op.
func (s *MemoryStore) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
