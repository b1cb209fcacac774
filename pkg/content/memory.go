package content

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/emberworks/content-sync/pkg/audit"
	"github.com/google/uuid"
)

// MemoryStore implements Store in memory for tests. It mirrors the reconcile
// semantics of Repository, including per-type policy selection.
type MemoryStore struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*Item
	audit   audit.Appender
	NowFunc func() time.Time

	// FailNextReconcile makes the next Reconcile call return this error,
	// for partial-failure tests.
	FailNextReconcile error
}

func NewMemoryStore(auditLog audit.Appender) *MemoryStore {
	return &MemoryStore{
		items:   make(map[uuid.UUID]*Item),
		audit:   auditLog,
		NowFunc: time.Now,
	}
}

func (m *MemoryStore) Reconcile(ctx context.Context, item *Item, actor audit.Actor) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailNextReconcile; err != nil {
		m.FailNextReconcile = nil
		return "", err
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = InitialStatus(item.ContentType)
	}

	existing := m.findByDedupKey(item)
	policy := PolicyFor(item.ContentType)

	if existing == nil {
		copied := *item
		copied.CreatedAt = m.NowFunc().UTC()
		copied.UpdatedAt = copied.CreatedAt
		m.items[copied.ID] = &copied
		m.appendAudit(ctx, actor, audit.ActionCreate, &copied)
		return OutcomeInserted, nil
	}

	if policy.Reconcile == SkipIfExists {
		return OutcomeSkipped, nil
	}

	existing.Title = item.Title
	existing.Excerpt = item.Excerpt
	existing.Body = item.Body
	existing.ImageURL = item.ImageURL
	existing.PublishedAt = item.PublishedAt
	existing.Metadata = item.Metadata
	existing.UpdatedAt = m.NowFunc().UTC()
	item.ID = existing.ID
	m.appendAudit(ctx, actor, audit.ActionUpdate, existing)
	return OutcomeUpdated, nil
}

func (m *MemoryStore) findByDedupKey(item *Item) *Item {
	for _, it := range m.items {
		if it.ContentType != item.ContentType {
			continue
		}
		if PolicyFor(item.ContentType).DedupField == DedupBySourceURL {
			if it.SourceURL == item.SourceURL {
				return it
			}
		} else if it.Slug == item.Slug {
			return it
		}
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *MemoryStore) ListDrafts(ctx context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var drafts []Item
	for _, it := range m.items {
		if it.Status == StatusDraft {
			drafts = append(drafts, *it)
		}
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].PublishedAt.After(drafts[j].PublishedAt)
	})
	return drafts, nil
}

func (m *MemoryStore) Publish(ctx context.Context, id uuid.UUID, actor audit.Actor) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if item.Status == StatusPublished {
		return nil, ErrAlreadyPublished
	}
	item.Status = StatusPublished
	item.PublishedAt = m.NowFunc().UTC()
	item.UpdatedAt = item.PublishedAt
	m.appendAudit(ctx, actor, audit.ActionPublish, item)
	copied := *item
	return &copied, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID, actor audit.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	m.appendAudit(ctx, actor, audit.ActionDelete, item)
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Seed inserts an item directly, bypassing policy, for test setup.
func (m *MemoryStore) Seed(item Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	m.items[item.ID] = &item
}

func (m *MemoryStore) appendAudit(ctx context.Context, actor audit.Actor, action string, item *Item) {
	if m.audit == nil {
		return
	}
	_ = m.audit.Append(ctx, audit.Entry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      action,
		Entity:      "content_item",
		EntityID:    item.ID.String(),
	})
}
