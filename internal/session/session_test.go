package session

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	base := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestSession_AppendKeepsOrder(t *testing.T) {
	sess := newSession(fixedClock())

	if _, err := sess.Append(RoleUser, "What is AAPL?"); err != nil {
		t.Fatalf("appending user turn: %v", err)
	}
	if _, err := sess.Append(RoleAssistant, "AAPL is $190."); err != nil {
		t.Fatalf("appending assistant turn: %v", err)
	}

	turns := sess.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("unexpected roles %s, %s", turns[0].Role, turns[1].Role)
	}
	if !turns[0].Timestamp.Before(turns[1].Timestamp) {
		t.Errorf("expected increasing timestamps, got %v then %v", turns[0].Timestamp, turns[1].Timestamp)
	}
}

func TestSession_AppendRejectsInvalid(t *testing.T) {
	sess := newSession(time.Now)

	tests := []struct {
		name    string
		role    Role
		content string
	}{
		{"blank user message", RoleUser, "   "},
		{"unknown role", Role("system"), "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := sess.Append(tt.role, tt.content); !errors.Is(err, ErrInvalidTurn) {
				t.Errorf("expected ErrInvalidTurn, got %v", err)
			}
		})
	}
	if sess.Len() != 0 {
		t.Errorf("expected no turns after rejected appends, got %d", sess.Len())
	}
}

func TestSession_TurnsIsACopy(t *testing.T) {
	sess := newSession(time.Now)
	_, _ = sess.Append(RoleUser, "hello")

	turns := sess.Turns()
	turns[0].Content = "mutated"

	if sess.Turns()[0].Content != "hello" {
		t.Error("expected transcript to be unaffected by caller mutation")
	}
}

func TestSession_BeginTurnIsExclusive(t *testing.T) {
	sess := newSession(time.Now)

	end, err := sess.BeginTurn()
	if err != nil {
		t.Fatalf("beginning turn: %v", err)
	}
	if _, err := sess.BeginTurn(); !errors.Is(err, ErrTurnInProgress) {
		t.Errorf("expected ErrTurnInProgress, got %v", err)
	}

	end()
	end2, err := sess.BeginTurn()
	if err != nil {
		t.Fatalf("expected turn after release, got %v", err)
	}
	end2()
}

func TestSession_ConcurrentAppend(t *testing.T) {
	sess := newSession(time.Now)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sess.Append(RoleAssistant, "x")
		}()
	}
	wg.Wait()

	if sess.Len() != 50 {
		t.Errorf("expected 50 turns, got %d", sess.Len())
	}
}

func TestStore_Lifecycle(t *testing.T) {
	store := NewStore()

	sess := store.Create()
	if sess.ID() == "" {
		t.Fatal("expected generated id")
	}

	got, err := store.Get(sess.ID())
	if err != nil || got != sess {
		t.Fatalf("expected to get the created session, got %v, %v", got, err)
	}

	if err := store.Delete(sess.ID()); err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if _, err := store.Get(sess.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := store.Delete(sess.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestStore_Reset(t *testing.T) {
	store := NewStore()
	old := store.Create()
	_, _ = old.Append(RoleUser, "hi")

	fresh, err := store.Reset(old.ID())
	if err != nil {
		t.Fatalf("resetting: %v", err)
	}
	if fresh.ID() == old.ID() || fresh.Len() != 0 {
		t.Errorf("expected a new empty session, got id=%s len=%d", fresh.ID(), fresh.Len())
	}
	if store.Len() != 1 {
		t.Errorf("expected exactly one live session, got %d", store.Len())
	}
	if _, err := store.Reset("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStore_PruneIdle(t *testing.T) {
	start := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	now := start
	store := NewStore()
	store.now = func() time.Time { return now }

	stale := store.Create()
	active := store.Create()
	busy := store.Create()

	now = start.Add(50 * time.Minute)
	if _, err := active.Append(RoleUser, "What is AAPL?"); err != nil {
		t.Fatalf("appending: %v", err)
	}
	end, err := busy.BeginTurn()
	if err != nil {
		t.Fatalf("beginning turn: %v", err)
	}
	defer end()

	now = start.Add(90 * time.Minute)
	if pruned := store.PruneIdle(time.Hour); pruned != 1 {
		t.Errorf("expected 1 pruned session, got %d", pruned)
	}
	if _, err := store.Get(stale.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected the idle session to be gone, got %v", err)
	}
	if _, err := store.Get(active.ID()); err != nil {
		t.Errorf("expected the recently active session to stay: %v", err)
	}
	if _, err := store.Get(busy.ID()); err != nil {
		t.Errorf("expected the session with a turn in flight to stay: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 live sessions, got %d", store.Len())
	}
}

func TestSession_LastActive(t *testing.T) {
	start := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	now := start
	sess := newSession(func() time.Time { return now })

	if !sess.LastActive().Equal(start) {
		t.Errorf("expected creation time for an empty session, got %v", sess.LastActive())
	}

	now = start.Add(time.Minute)
	if _, err := sess.Append(RoleUser, "hi"); err != nil {
		t.Fatalf("appending: %v", err)
	}
	if !sess.LastActive().Equal(now) {
		t.Errorf("expected the latest turn time, got %v", sess.LastActive())
	}
}
