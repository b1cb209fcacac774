package content

import (
	"context"
	"testing"
	"time"

	"github.com/emberworks/content-sync/pkg/audit"
)

func newsItem(title, sourceURL string) *Item {
	return &Item{
		Title:       title,
		Slug:        Slugify(title),
		Source:      SourceRSS,
		SourceURL:   sourceURL,
		ContentType: TypeNews,
		PublishedAt: time.Now().UTC(),
	}
}

func releaseItem(title string) *Item {
	return &Item{
		Title:       title,
		Slug:        Slugify(title),
		Source:      SourceCatalog,
		SourceURL:   "catalog:game:" + Slugify(title),
		ContentType: TypeRelease,
		PublishedAt: time.Now().UTC(),
	}
}

func TestReconcileSkipIfExists(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	actor := audit.AutomationActor()

	outcome, err := store.Reconcile(ctx, newsItem("First Post", "https://studio.example/news/1"), actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeInserted {
		t.Fatalf("expected inserted, got %q", outcome)
	}

	// Same source URL, different title: news dedups on source URL.
	outcome, err = store.Reconcile(ctx, newsItem("First Post Renamed", "https://studio.example/news/1"), actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Fatalf("expected skipped, got %q", outcome)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 stored item, got %d", store.Len())
	}
}

func TestReconcileUpsertOnConflict(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	actor := audit.AutomationActor()

	first := releaseItem("Ashen Verge")
	first.Body = "Old summary."
	if _, err := store.Reconcile(ctx, first, actor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := releaseItem("Ashen Verge")
	second.Body = "New summary."
	outcome, err := store.Reconcile(ctx, second, actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("expected updated, got %q", outcome)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 stored item, got %d", store.Len())
	}

	got, err := store.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Body != "New summary." {
		t.Errorf("expected body to be overwritten, got %q", got.Body)
	}
}

func TestReconcileAuditTrail(t *testing.T) {
	log := audit.NewMemoryAppender()
	store := NewMemoryStore(log)
	ctx := context.Background()
	actor := audit.AutomationActor()

	item := newsItem("Audited Post", "https://studio.example/news/2")
	if _, err := store.Reconcile(ctx, item, actor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := log.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Action != audit.ActionCreate {
		t.Errorf("unexpected action: %q", entries[0].Action)
	}
	if entries[0].EntityID != item.ID.String() {
		t.Errorf("audit entry does not reference the item")
	}
}

func TestPublishTransitions(t *testing.T) {
	log := audit.NewMemoryAppender()
	store := NewMemoryStore(log)
	ctx := context.Background()
	actor := audit.Actor{Email: "editor@emberworks.dev"}

	item := newsItem("Draft Post", "https://studio.example/news/3")
	if _, err := store.Reconcile(ctx, item, actor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Status != StatusDraft {
		t.Fatalf("news should land as draft, got %q", item.Status)
	}

	published, err := store.Publish(ctx, item.ID, actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published.Status != StatusPublished {
		t.Errorf("expected published status, got %q", published.Status)
	}

	if _, err := store.Publish(ctx, item.ID, actor); err != ErrAlreadyPublished {
		t.Errorf("expected ErrAlreadyPublished, got %v", err)
	}

	drafts, err := store.ListDrafts(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 0 {
		t.Errorf("expected no remaining drafts, got %d", len(drafts))
	}
}

func TestDelete(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	actor := audit.Actor{Email: "editor@emberworks.dev"}

	item := newsItem("Doomed Post", "https://studio.example/news/4")
	if _, err := store.Reconcile(ctx, item, actor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(ctx, item.ID, actor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(ctx, item.ID, actor); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
