package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestCreateUserDuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateUser(ctx, "alice")
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if first.Name != "alice" || first.ID == 0 {
		t.Errorf("unexpected user record: %+v", first)
	}

	if _, err := s.CreateUser(ctx, "alice"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("duplicate create must not add a record, got %d users", len(users))
	}
}

func TestGetUserByNameNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetUserByName(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChatOwnershipScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, _ := s.CreateUser(ctx, "alice")
	if _, err := s.CreateUser(ctx, "bob"); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	chat, err := s.CreateChat(ctx, alice.ID)
	if err != nil {
		t.Fatalf("create chat failed: %v", err)
	}

	if _, err := s.GetChatByID(ctx, "alice", chat.ID); err != nil {
		t.Errorf("owner should see the chat: %v", err)
	}
	if _, err := s.GetChatByID(ctx, "bob", chat.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("chat must not resolve for another user, got %v", err)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, _ := s.CreateUser(ctx, "alice")
	chat, _ := s.CreateChat(ctx, user.ID)

	sources := []WebSource{
		{URL: "https://example.com/a", Text: strPtr("thread text")},
	}

	userMsg, err := s.AddMessage(ctx, "alice", chat.ID, RoleUser, "what is zig?", nil)
	if err != nil {
		t.Fatalf("add user message failed: %v", err)
	}
	assistantMsg, err := s.AddMessage(ctx, "alice", chat.ID, RoleAssistant, "an answer", sources)
	if err != nil {
		t.Fatalf("add assistant message failed: %v", err)
	}

	messages, err := s.GetMessages(ctx, "alice", chat.ID)
	if err != nil {
		t.Fatalf("get messages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	if messages[0].ID != userMsg.ID || messages[0].Role != RoleUser || messages[0].Body != "what is zig?" {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
	if len(messages[0].Sources) != 0 {
		t.Errorf("user message must carry no citations: %+v", messages[0].Sources)
	}

	if messages[1].ID != assistantMsg.ID || messages[1].Role != RoleAssistant || messages[1].Body != "an answer" {
		t.Errorf("unexpected second message: %+v", messages[1])
	}
	if !reflect.DeepEqual(messages[1].Sources, sources) {
		t.Errorf("citations did not round-trip: %+v", messages[1].Sources)
	}
}

func TestMessageOrderingSurvivesFastAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, _ := s.CreateUser(ctx, "alice")
	chat, _ := s.CreateChat(ctx, user.ID)

	for i := 0; i < 10; i++ {
		if _, err := s.AddMessage(ctx, "alice", chat.ID, RoleUser, fmt.Sprintf("msg %d", i), nil); err != nil {
			t.Fatalf("add message %d failed: %v", i, err)
		}
	}

	messages, err := s.GetMessages(ctx, "alice", chat.ID)
	if err != nil {
		t.Fatalf("get messages failed: %v", err)
	}
	for i, msg := range messages {
		if want := fmt.Sprintf("msg %d", i); msg.Body != want {
			t.Fatalf("message %d out of order: got %q, want %q", i, msg.Body, want)
		}
	}
}

func TestMessagesUnknownChat(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "bob"); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	if _, err := s.GetMessages(ctx, "bob", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.AddMessage(ctx, "bob", "missing", RoleUser, "hi", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on append, got %v", err)
	}
}
