package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Actions recorded against content entities. The set is wider than what the
// sync pipeline itself emits so that admin tooling shares one vocabulary.
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionPublish    = "publish"
	ActionUnpublish  = "unpublish"
	ActionApprove    = "approve"
	ActionReject     = "reject"
	ActionSync       = "sync"
	ActionAIGenerate = "ai_generate"
)

// Entry is an immutable, append-only audit record. Entries are never updated
// or deleted.
type Entry struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	ActorUserID string            `json:"actor_user_id" gorm:"column:actor_user_id;index"`
	ActorEmail  string            `json:"actor_email" gorm:"column:actor_email"`
	Action      string            `json:"action" gorm:"column:action;index"`
	Entity      string            `json:"entity" gorm:"column:entity"`
	EntityID    string            `json:"entity_id" gorm:"column:entity_id;index"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"column:metadata;type:jsonb"`
	IPAddress   string            `json:"ip_address,omitempty" gorm:"column:ip_address"`
	UserAgent   string            `json:"user_agent,omitempty" gorm:"column:user_agent"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at"`
}

func (Entry) TableName() string {
	return "admin_audit_log"
}

// Actor identifies who initiated a mutation. Automated sync runs use
// AutomationActor so their writes are attributable too.
type Actor struct {
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
}

func AutomationActor() Actor {
	return Actor{UserID: "system", Email: "automation@emberworks.dev"}
}
