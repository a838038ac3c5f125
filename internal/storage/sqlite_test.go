package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLiteAdapter {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "conversations.sqlite"))
	if err != nil {
		t.Fatalf("init sqlite adapter: %v", err)
	}
	return s
}

func TestSQLite_RoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.SaveMessage(ctx, 42, "bob", "Hi"); err != nil {
		t.Fatalf("save message: %v", err)
	}
	if err := s.SaveResponse(ctx, 42, "Hello Bob!"); err != nil {
		t.Fatalf("save response: %v", err)
	}

	msgs := s.GetConversation(ctx, 42, 10)
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "Hi" {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "Hello Bob!" {
		t.Errorf("unexpected second message: %+v", msgs[1])
	}
}

func TestSQLite_LimitReturnsMostRecentInOrder(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		if err := s.SaveMessage(ctx, 99, "u", fmt.Sprintf("M%d", i)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	msgs := s.GetConversation(ctx, 99, 3)
	if len(msgs) != 3 {
		t.Fatalf("want 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"M8", "M9", "M10"} {
		if msgs[i].Content != want {
			t.Errorf("message %d: want %q, got %q", i, want, msgs[i].Content)
		}
	}
}

func TestSQLite_ResetIdempotentAndScoped(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.SaveMessage(ctx, 7, "u", "hi"); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := s.SaveMessage(ctx, 8, "u", "other chat"); err != nil {
		t.Fatalf("save other chat: %v", err)
	}

	if err := s.ResetConversation(ctx, 7); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := s.GetConversation(ctx, 7, 0); len(got) != 0 {
		t.Fatalf("after reset: want empty, got %d messages", len(got))
	}
	if err := s.ResetConversation(ctx, 7); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if got := s.GetConversation(ctx, 8, 0); len(got) != 1 {
		t.Fatalf("other chat affected by reset: want 1 message, got %d", len(got))
	}
}
