package session

import (
	"sync"
	"time"
)

// Store holds live sessions keyed by id. Sessions are lost on restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create starts an empty session.
func (s *Store) Create() *Session {
	sess := newSession(s.now)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
	return sess
}

func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Reset replaces the session id with a fresh, empty one.
func (s *Store) Reset(id string) (*Session, error) {
	if err := s.Delete(id); err != nil {
		return nil, err
	}
	return s.Create(), nil
}

// PruneIdle drops sessions with no activity for longer than maxIdle and
// returns how many were dropped. A session with a turn in flight is kept.
func (s *Store) PruneIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, sess := range s.sessions {
		if !sess.LastActive().Before(cutoff) {
			continue
		}
		if !sess.turn.TryLock() {
			continue
		}
		sess.turn.Unlock()
		delete(s.sessions, id)
		pruned++
	}
	return pruned
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
