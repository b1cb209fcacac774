package content

import (
	"context"
	"errors"
	"time"

	"github.com/emberworks/content-sync/pkg/audit"
	"github.com/emberworks/content-sync/pkg/common/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound         = errors.New("content item not found")
	ErrAlreadyPublished = errors.New("content item already published")
)

type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
	OutcomeSkipped  Outcome = "skipped"
)

// Store is the single abstraction every content mutation goes through. Its
// contract guarantees an audit entry is appended as part of each
// create/update/publish/delete, so call sites cannot forget one.
type Store interface {
	Reconcile(ctx context.Context, item *Item, actor audit.Actor) (Outcome, error)
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	ListDrafts(ctx context.Context) ([]Item, error)
	Publish(ctx context.Context, id uuid.UUID, actor audit.Actor) (*Item, error)
	Delete(ctx context.Context, id uuid.UUID, actor audit.Actor) error
}

// EventPublisher receives a change notification after each stored mutation.
// Publishing is best-effort and never fails the mutation.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Repository struct {
	db      *gorm.DB
	audit   audit.Appender
	events  EventPublisher
	nowFunc func() time.Time
}

func NewRepository(db *gorm.DB, auditLog audit.Appender, events EventPublisher) *Repository {
	return &Repository{db: db, audit: auditLog, events: events, nowFunc: time.Now}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Item{})
}

func (r *Repository) Reconcile(ctx context.Context, item *Item, actor audit.Actor) (Outcome, error) {
	now := r.nowFunc().UTC()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = InitialStatus(item.ContentType)
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	policy := PolicyFor(item.ContentType)
	switch policy.Reconcile {
	case UpsertOnConflict:
		return r.upsert(ctx, item, actor)
	default:
		return r.insertIfAbsent(ctx, item, actor, policy)
	}
}

// insertIfAbsent relies on the unique dedup index instead of a read-then-write
// sequence, so two concurrent invocations of the same job cannot create
// duplicate rows; the loser of the race observes zero rows affected.
func (r *Repository) insertIfAbsent(ctx context.Context, item *Item, actor audit.Actor, policy TypePolicy) (Outcome, error) {
	cols := []clause.Column{{Name: "content_type"}, {Name: "slug"}}
	if policy.DedupField == DedupBySourceURL {
		cols = []clause.Column{{Name: "content_type"}, {Name: "source_url"}}
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: cols, DoNothing: true}).
		Create(item)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return OutcomeSkipped, nil
	}

	r.appendAudit(ctx, actor, audit.ActionCreate, item)
	r.publishEvent(ctx, "content.inserted", item)
	return OutcomeInserted, nil
}

func (r *Repository) upsert(ctx context.Context, item *Item, actor audit.Actor) (Outcome, error) {
	var existing Item
	err := r.findByDedupKey(ctx, item).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
			return "", err
		}
		r.appendAudit(ctx, actor, audit.ActionCreate, item)
		r.publishEvent(ctx, "content.inserted", item)
		return OutcomeInserted, nil
	}
	if err != nil {
		return "", err
	}

	updates := map[string]interface{}{
		"title":        item.Title,
		"excerpt":      item.Excerpt,
		"body":         item.Body,
		"image_url":    item.ImageURL,
		"published_at": item.PublishedAt,
		"metadata":     item.Metadata,
		"updated_at":   r.nowFunc().UTC(),
	}
	if err := r.db.WithContext(ctx).Model(&Item{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return "", err
	}

	item.ID = existing.ID
	r.appendAudit(ctx, actor, audit.ActionUpdate, item)
	r.publishEvent(ctx, "content.updated", item)
	return OutcomeUpdated, nil
}

func (r *Repository) findByDedupKey(ctx context.Context, item *Item) *gorm.DB {
	q := r.db.WithContext(ctx).Where("content_type = ?", item.ContentType)
	if PolicyFor(item.ContentType).DedupField == DedupBySourceURL {
		return q.Where("source_url = ?", item.SourceURL)
	}
	return q.Where("slug = ?", item.Slug)
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	var item Item
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) ListDrafts(ctx context.Context) ([]Item, error) {
	var items []Item
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusDraft).
		Order("published_at DESC").
		Find(&items).Error
	return items, err
}

// Publish moves a draft to published. draft -> published is the only forward
// transition; there is no way back to draft.
func (r *Repository) Publish(ctx context.Context, id uuid.UUID, actor audit.Actor) (*Item, error) {
	item, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status == StatusPublished {
		return nil, ErrAlreadyPublished
	}

	now := r.nowFunc().UTC()
	updates := map[string]interface{}{
		"status":       StatusPublished,
		"published_at": now,
		"updated_at":   now,
	}
	if err := r.db.WithContext(ctx).Model(&Item{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}

	item.Status = StatusPublished
	item.PublishedAt = now
	r.appendAudit(ctx, actor, audit.ActionPublish, item)
	r.publishEvent(ctx, "content.published", item)
	return item, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID, actor audit.Actor) error {
	item, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&Item{}, "id = ?", id).Error; err != nil {
		return err
	}

	r.appendAudit(ctx, actor, audit.ActionDelete, item)
	r.publishEvent(ctx, "content.deleted", item)
	return nil
}

func (r *Repository) appendAudit(ctx context.Context, actor audit.Actor, action string, item *Item) {
	if r.audit == nil {
		return
	}
	err := r.audit.Append(ctx, audit.Entry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      action,
		Entity:      "content_item",
		EntityID:    item.ID.String(),
		IPAddress:   actor.IPAddress,
		UserAgent:   actor.UserAgent,
		Metadata: map[string]interface{}{
			"content_type": string(item.ContentType),
			"slug":         item.Slug,
			"source":       string(item.Source),
		},
	})
	if err != nil {
		logger.Log.WithError(err).WithField("entity_id", item.ID).Error("failed to append audit entry")
	}
}

func (r *Repository) publishEvent(ctx context.Context, eventType string, item *Item) {
	if r.events == nil {
		return
	}
	err := r.events.PublishEvent(ctx, eventType, string(item.Source), map[string]interface{}{
		"id":           item.ID.String(),
		"content_type": string(item.ContentType),
		"slug":         item.Slug,
		"status":       item.Status,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("failed to publish content event")
	}
}
