package execlog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusTimeout = "timeout"
)

// Execution is the persisted record of one pipeline run. Rows are written
// exactly once per invocation and never updated or deleted by the pipeline.
type Execution struct {
	ExecutionID      uuid.UUID         `json:"execution_id" gorm:"type:uuid;primaryKey;column:execution_id"`
	JobName          string            `json:"job_name" gorm:"column:job_name;index"`
	Status           string            `json:"status" gorm:"column:status;index"`
	StartedAt        time.Time         `json:"started_at" gorm:"column:started_at;index"`
	CompletedAt      time.Time         `json:"completed_at" gorm:"column:completed_at"`
	DurationMs       int64             `json:"duration_ms" gorm:"column:duration_ms"`
	RecordsProcessed int               `json:"records_processed" gorm:"column:records_processed"`
	ErrorMessage     string            `json:"error_message,omitempty" gorm:"column:error_message"`
	ErrorDetails     datatypes.JSONMap `json:"error_details,omitempty" gorm:"column:error_details;type:jsonb"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty" gorm:"column:metadata;type:jsonb"`
}

func (Execution) TableName() string {
	return "sync_execution_log"
}

// JobHealth is the aggregated view one dashboard row is built from.
type JobHealth struct {
	JobName       string     `json:"job_name"`
	Total         int64      `json:"total"`
	Successful    int64      `json:"successful"`
	SuccessRate   float64    `json:"success_rate"`
	AvgDurationMs float64    `json:"avg_duration_ms"`
	LastExecution *Execution `json:"last_execution,omitempty"`
}
