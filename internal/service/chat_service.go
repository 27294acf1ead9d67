// Package service runs conversation turns: it owns the session transcripts and
// hands each user message to the assistant.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/stock-assistant/internal/assistant"
	"github.com/fleveque/stock-assistant/internal/session"
)

// Responder produces the assistant's answer for one user message.
type Responder interface {
	Respond(ctx context.Context, prompt string) string
}

// ChatService is the entry point for both the HTTP API and the CLI.
type ChatService struct {
	store     *session.Store
	responder Responder
	logger    *zap.Logger
}

func NewChatService(store *session.Store, responder Responder, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:     store,
		responder: responder,
		logger:    logger,
	}
}

// CreateSession starts a new, empty conversation.
func (s *ChatService) CreateSession() *session.Session {
	sess := s.store.Create()
	s.logger.Debug("session created", zap.String("session_id", sess.ID()))
	return sess
}

// History returns the transcript of a session.
func (s *ChatService) History(id string) ([]session.Turn, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Turns(), nil
}

// DeleteSession drops a conversation.
func (s *ChatService) DeleteSession(id string) error {
	return s.store.Delete(id)
}

// ResetSession replaces a conversation with a fresh one.
func (s *ChatService) ResetSession(id string) (*session.Session, error) {
	return s.store.Reset(id)
}

// Send runs one turn: it appends the user message, asks the assistant, and
// appends the answer. Only one turn per session may run at a time.
func (s *ChatService) Send(ctx context.Context, id, text string) (session.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return session.Turn{}, fmt.Errorf("%w: empty user message", session.ErrInvalidTurn)
	}

	sess, err := s.store.Get(id)
	if err != nil {
		return session.Turn{}, err
	}

	end, err := sess.BeginTurn()
	if err != nil {
		return session.Turn{}, err
	}
	defer end()

	if _, err := sess.Append(session.RoleUser, text); err != nil {
		return session.Turn{}, err
	}

	start := time.Now()
	answer := s.responder.Respond(assistant.WithSessionID(ctx, id), text)

	turn, err := sess.Append(session.RoleAssistant, answer)
	if err != nil {
		return session.Turn{}, fmt.Errorf("recording answer: %w", err)
	}

	s.logger.Info("turn completed",
		zap.String("session_id", id),
		zap.Int("turns", sess.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return turn, nil
}

// PruneIdle drops conversations idle for longer than maxIdle.
func (s *ChatService) PruneIdle(maxIdle time.Duration) int {
	pruned := s.store.PruneIdle(maxIdle)
	if pruned > 0 {
		s.logger.Info("idle sessions pruned",
			zap.Int("pruned", pruned),
			zap.Int("remaining", s.store.Len()),
		)
	}
	return pruned
}

// RunPruner calls PruneIdle every interval until ctx is done.
// A non-positive maxIdle disables pruning.
func (s *ChatService) RunPruner(ctx context.Context, maxIdle, interval time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PruneIdle(maxIdle)
		}
	}
}
