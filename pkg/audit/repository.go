package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidEntry = errors.New("audit: entry missing action or entity")

// Appender is the persistence contract for audit entries. Append-only; no
// update or delete methods exist.
type Appender interface {
	Append(ctx context.Context, e Entry) error
}

type Repository struct {
	db      *gorm.DB
	nowFunc func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, nowFunc: time.Now}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Entry{})
}

func (r *Repository) Append(ctx context.Context, e Entry) error {
	if e.Action == "" || e.Entity == "" {
		return ErrInvalidEntry
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.nowFunc().UTC()
	}
	return r.db.WithContext(ctx).Create(&e).Error
}

// ListForEntity returns entries for one entity, newest first.
func (r *Repository) ListForEntity(ctx context.Context, entity, entityID string) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

// MemoryAppender is an in-memory append-only log for tests.
type MemoryAppender struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryAppender() *MemoryAppender { return &MemoryAppender{} }

func (m *MemoryAppender) Append(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Action == "" || e.Entity == "" {
		return ErrInvalidEntry
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *MemoryAppender) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
