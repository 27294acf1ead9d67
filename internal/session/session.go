// Package session keeps conversation transcripts in memory.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidTurn     = errors.New("invalid turn")
	ErrTurnInProgress  = errors.New("a turn is already in progress for this session")
)

// Role is who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a transcript.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is an append-only transcript. All methods are safe for concurrent use.
type Session struct {
	id        string
	createdAt time.Time
	now       func() time.Time

	mu    sync.RWMutex
	turns []Turn

	// turn serializes user turns; it is separate from mu so readers are not
	// blocked while a completion call is in flight.
	turn sync.Mutex
}

func newSession(now func() time.Time) *Session {
	return &Session{
		id:        uuid.NewString(),
		createdAt: now().UTC(),
		now:       now,
		turns:     make([]Turn, 0, 16),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Append adds a turn stamped with the current time.
func (s *Session) Append(role Role, content string) (Turn, error) {
	if role != RoleUser && role != RoleAssistant {
		return Turn{}, fmt.Errorf("%w: unknown role %q", ErrInvalidTurn, role)
	}
	if role == RoleUser && strings.TrimSpace(content) == "" {
		return Turn{}, fmt.Errorf("%w: empty user message", ErrInvalidTurn)
	}

	t := Turn{Role: role, Content: content, Timestamp: s.now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
	return t, nil
}

// Turns returns a copy of the transcript in order.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// LastActive is the time of the latest turn, or the creation time for an
// empty session.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n := len(s.turns); n > 0 {
		return s.turns[n-1].Timestamp
	}
	return s.createdAt
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// BeginTurn claims the session for one user turn. The returned func releases it.
// It fails with ErrTurnInProgress instead of queuing.
func (s *Session) BeginTurn() (func(), error) {
	if !s.turn.TryLock() {
		return nil, ErrTurnInProgress
	}
	return s.turn.Unlock, nil
}
