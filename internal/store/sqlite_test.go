package store

import (
	"context"
	"errors"
	"testing"

	"dealerchat/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestUser(t *testing.T, s *SQLiteStore) string {
	t.Helper()
	id, err := s.AddUser(context.Background(), "Ada", "Lovelace", "ada", "hash", "user")
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	return id
}

func TestAddMessageUnknownUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AddMessage(ctx, "nope", "sess", domain.RoleUser, "hi")
	if !errors.Is(err, domain.ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}

	// no write happened
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows, got %d", count)
	}
}

func TestUnknownUserRejectedEverywhere(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddSession(ctx, "nope", "t"); !errors.Is(err, domain.ErrUnknownUser) {
		t.Fatalf("AddSession: expected ErrUnknownUser, got %v", err)
	}
	if _, err := s.GetSessions(ctx, "nope"); !errors.Is(err, domain.ErrUnknownUser) {
		t.Fatalf("GetSessions: expected ErrUnknownUser, got %v", err)
	}
	if _, err := s.GetMessages(ctx, "nope", "s"); !errors.Is(err, domain.ErrUnknownUser) {
		t.Fatalf("GetMessages: expected ErrUnknownUser, got %v", err)
	}
	if err := s.ClearSession(ctx, "nope", "s"); !errors.Is(err, domain.ErrUnknownUser) {
		t.Fatalf("ClearSession: expected ErrUnknownUser, got %v", err)
	}
	if err := s.DeleteSession(ctx, "nope", "s"); !errors.Is(err, domain.ErrUnknownUser) {
		t.Fatalf("DeleteSession: expected ErrUnknownUser, got %v", err)
	}
}

func TestMessageOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := newTestUser(t, s)

	sid, err := s.AddSession(ctx, uid, "ordering")
	if err != nil {
		t.Fatalf("AddSession: %v", err)
	}

	contents := []string{"one", "two", "three", "four"}
	roles := []domain.Role{domain.RoleSystem, domain.RoleUser, domain.RoleAssistant, domain.RoleUser}
	for i := range contents {
		if err := s.AddMessage(ctx, uid, sid, roles[i], contents[i]); err != nil {
			t.Fatalf("AddMessage %d: %v", i, err)
		}
	}

	msgs, err := s.GetMessages(ctx, uid, sid)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	for i := range contents {
		if msgs[i].Content != contents[i] || msgs[i].Role != roles[i] {
			t.Fatalf("message %d out of order: %+v", i, msgs[i])
		}
	}
}

func TestClearKeepsSessionDeleteRemovesIt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := newTestUser(t, s)

	sid, err := s.AddSession(ctx, uid, "to clear")
	if err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	if err := s.AddMessage(ctx, uid, sid, domain.RoleUser, "hi"); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}

	if err := s.ClearSession(ctx, uid, sid); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	msgs, err := s.GetMessages(ctx, uid, sid)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %d", len(msgs))
	}
	sessions, err := s.GetSessions(ctx, uid)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("session should survive a clear, got %d", len(sessions))
	}

	if err := s.DeleteSession(ctx, uid, sid); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	sessions, err = s.GetSessions(ctx, uid)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}
}

func TestSessionScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	uid := newTestUser(t, s)
	other, err := s.AddUser(ctx, "Bob", "Builder", "bob", "hash", "user")
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	sid, err := s.AddSession(ctx, uid, "mine")
	if err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	if err := s.AddMessage(ctx, uid, sid, domain.RoleUser, "secret"); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}

	// another registered user cannot read or write this session
	if _, err := s.GetMessages(ctx, other, sid); err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	msgs, _ := s.GetMessages(ctx, other, sid)
	if len(msgs) != 0 {
		t.Fatalf("cross-owner read leaked %d messages", len(msgs))
	}
	if err := s.AddMessage(ctx, other, sid, domain.RoleUser, "spoof"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
