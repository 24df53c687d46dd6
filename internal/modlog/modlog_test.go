package modlog

import (
	"context"
	"testing"
	"time"

	"guildhall/internal/storage"

	"go.uber.org/zap"
)

func TestActionPersistsAndNotifies(t *testing.T) {
	store := storage.NewMemory()
	logger := NewLogger(store, zap.NewNop())

	var notified storage.ModerationAction
	var notifiedLevel string
	logger.SetNotifier(func(_ context.Context, level string, action storage.ModerationAction) {
		notifiedLevel = level
		notified = action
	})

	id := logger.Action(context.Background(), LevelWarn, storage.ModerationAction{
		GuildID:     "g1",
		UserID:      "u1",
		ModeratorID: "m1",
		Action:      "mute",
		Reason:      "spam",
		CreatedAt:   time.Unix(1700000000, 0),
	})
	if id == 0 {
		t.Fatalf("expected persisted id")
	}
	if notifiedLevel != LevelWarn {
		t.Fatalf("expected WARN notification, got %q", notifiedLevel)
	}
	if notified.ID != id {
		t.Fatalf("expected notifier to see persisted id %d, got %d", id, notified.ID)
	}

	actions, err := store.ListModerationActions(context.Background(), "g1", "u1", 10)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(actions) != 1 || actions[0].Action != "mute" {
		t.Fatalf("unexpected actions %+v", actions)
	}
}

func TestEventDoesNotPersist(t *testing.T) {
	store := storage.NewMemory()
	logger := NewLogger(store, zap.NewNop())

	called := false
	logger.SetNotifier(func(_ context.Context, level string, action storage.ModerationAction) {
		called = true
		if action.Action != "lockdown" {
			t.Fatalf("expected lockdown event, got %q", action.Action)
		}
	})

	logger.Event(context.Background(), LevelCrit, "g1", "lockdown", "3 channels locked")
	if !called {
		t.Fatalf("expected notifier call")
	}

	actions, err := store.ListModerationActions(context.Background(), "g1", "", 10)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("expected no persisted rows, got %d", len(actions))
	}
}
