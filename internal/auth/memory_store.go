package auth

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory. Sessions do not
// survive a restart and are not shared between replicas.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Save(_ context.Context, session *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = memoryEntry{session: *session, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get evicts the entry when it has expired.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
