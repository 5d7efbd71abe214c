// Package memory implements an in-memory session store.
package memory

import (
	"context"
	"sync"

	"orderdesk/pkg/session"
)

// Store provides an in-memory implementation of session.Store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
}

// New creates an empty store.
func New() *Store {
	return &Store{sessions: make(map[string]session.Session)}
}

// Get retrieves a session by ID.
func (s *Store) Get(ctx context.Context, id string) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

// Put stores the session.
func (s *Store) Put(ctx context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// Delete removes a session by ID.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	delete(s.sessions, id)
	return true, nil
}

// ListByUser returns all sessions of a user.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []session.Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	return out, nil
}

// Scan visits every session over a snapshot, so fn may call back into the store.
func (s *Store) Scan(ctx context.Context, fn func(session.Session) bool) error {
	s.mu.RLock()
	snapshot := make([]session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		snapshot = append(snapshot, sess)
	}
	s.mu.RUnlock()

	for _, sess := range snapshot {
		if !fn(sess) {
			return nil
		}
	}
	return nil
}

// Len returns the number of stored sessions, expired included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
