package engine

import (
	"sort"
	"sync"

	"github.com/dr3armsed/AiAlive-sub000/core"
)

// SessionStore retains concluded negotiation sessions for later lookup,
// re-evaluation and inspection. Safe for concurrent use.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]*core.Session{}}
}

// Put stores the session under its id, replacing any prior value.
func (s *SessionStore) Put(session *core.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Get returns the stored session or a NotFoundError.
func (s *SessionStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, &core.NotFoundError{Kind: "session", ID: id}
	}
	return session, nil
}

// IDs returns the stored session ids in sorted order.
func (s *SessionStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
