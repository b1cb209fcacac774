package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAdminNotFound = errors.New("admin identity not found")

// Admin is owned by an external identity collaborator; this service only
// reads it to confirm a resolved token belongs to an active admin.
type Admin struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email    string    `json:"email" gorm:"uniqueIndex"`
	Role     string    `json:"role" gorm:"index"`
	IsActive bool      `json:"is_active" gorm:"column:is_active"`
}

func (Admin) TableName() string {
	return "admin_identity"
}

// Finder resolves an admin by email. Implementations must return
// ErrAdminNotFound for unknown emails.
type Finder interface {
	FindByEmail(ctx context.Context, email string) (*Admin, error)
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Admin{})
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	var admin Admin
	err := r.db.WithContext(ctx).First(&admin, "email = ?", strings.ToLower(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// MemoryFinder serves a fixed admin set for tests.
type MemoryFinder struct {
	mu     sync.Mutex
	admins map[string]Admin
}

func NewMemoryFinder(admins ...Admin) *MemoryFinder {
	m := &MemoryFinder{admins: make(map[string]Admin)}
	for _, a := range admins {
		m.admins[strings.ToLower(a.Email)] = a
	}
	return m
}

func (m *MemoryFinder) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	admin, ok := m.admins[strings.ToLower(email)]
	if !ok {
		return nil, ErrAdminNotFound
	}
	return &admin, nil
}
