package storage

import (
	"context"
	"sync"

	"interiordesigner/internal/design"
)

// InMemoryStore is a thread-safe store used when a database is not configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions []design.Session
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make([]design.Session, 0)}
}

// SaveSession prepends the session, keeping the most recent listLimit.
func (s *InMemoryStore) SaveSession(_ context.Context, session design.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sessions {
		if existing.ID == session.ID {
			return ErrDuplicate
		}
	}

	s.sessions = append([]design.Session{session}, s.sessions...)
	if len(s.sessions) > listLimit {
		s.sessions = s.sessions[:listLimit]
	}
	return nil
}

// ListSessions returns a snapshot of stored session records, newest first.
func (s *InMemoryStore) ListSessions(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.sessions))
	for _, sess := range s.sessions {
		records = append(records, RecordFor(sess))
	}
	return records, nil
}

// GetSession returns a session by ID.
func (s *InMemoryStore) GetSession(_ context.Context, id string) (design.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess, nil
		}
	}
	return design.Session{}, ErrNotFound
}

// Close satisfies the Store interface.
func (s *InMemoryStore) Close() {}
