package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryAppenderAssignsIdentity(t *testing.T) {
	log := NewMemoryAppender()
	err := log.Append(context.Background(), Entry{
		Action:   ActionPublish,
		Entity:   "content_item",
		EntityID: uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := log.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == uuid.Nil {
		t.Error("expected an assigned id")
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("expected an assigned timestamp")
	}
}

func TestAppendRejectsIncompleteEntry(t *testing.T) {
	log := NewMemoryAppender()
	if err := log.Append(context.Background(), Entry{Entity: "content_item"}); err != ErrInvalidEntry {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
	if err := log.Append(context.Background(), Entry{Action: ActionDelete}); err != ErrInvalidEntry {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
	if len(log.Entries()) != 0 {
		t.Error("rejected entries must not be stored")
	}
}

func TestAutomationActor(t *testing.T) {
	actor := AutomationActor()
	if actor.UserID != "system" {
		t.Errorf("unexpected user id: %q", actor.UserID)
	}
	if actor.Email == "" {
		t.Error("automation actor must be attributable")
	}
}
