package execlog

import (
	"context"
	"sync"
	"time"

	"github.com/emberworks/content-sync/pkg/common/logger"
	"github.com/emberworks/content-sync/pkg/srcerr"
	"github.com/google/uuid"
)

// Writer persists finished executions. Append-only.
type Writer interface {
	Insert(ctx context.Context, e *Execution) error
}

// Run wraps one pipeline invocation. Exactly one of LogSuccess, LogFailure or
// LogTimeout must be called; the first call wins and later calls are no-ops.
// A failed log write is surfaced to the process log only, so observability
// problems never mask the pipeline's real result.
type Run struct {
	mu       sync.Mutex
	writer   Writer
	jobName  string
	started  time.Time
	records  int
	metadata map[string]interface{}
	logged   bool
	nowFunc  func() time.Time
}

func Start(writer Writer, jobName string) *Run {
	r := &Run{
		writer:   writer,
		jobName:  jobName,
		metadata: make(map[string]interface{}),
		nowFunc:  time.Now,
	}
	r.started = r.nowFunc().UTC()
	return r
}

func (r *Run) SetRecordsProcessed(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = n
}

func (r *Run) IncrementRecordsProcessed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records++
}

func (r *Run) SetMetadata(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[key] = value
}

func (r *Run) LogSuccess(ctx context.Context) {
	r.finish(ctx, StatusSuccess, "", nil)
}

func (r *Run) LogFailure(ctx context.Context, err error) {
	msg := "unknown error"
	var details map[string]interface{}
	if err != nil {
		msg = err.Error()
		details = map[string]interface{}{
			"kind": srcerr.KindOf(err).String(),
		}
	}
	r.finish(ctx, StatusFailure, msg, details)
}

// LogTimeout records a run cut short by an external watchdog, such as the
// platform request deadline. The pipeline never computes timeouts itself.
func (r *Run) LogTimeout(ctx context.Context) {
	r.finish(ctx, StatusTimeout, "execution cancelled by external timeout", nil)
}

func (r *Run) finish(ctx context.Context, status, errMsg string, details map[string]interface{}) {
	r.mu.Lock()
	if r.logged {
		r.mu.Unlock()
		logger.Log.WithField("job_name", r.jobName).Warn("execution already logged, ignoring duplicate log call")
		return
	}
	r.logged = true
	completed := r.nowFunc().UTC()
	exec := &Execution{
		ExecutionID:      uuid.New(),
		JobName:          r.jobName,
		Status:           status,
		StartedAt:        r.started,
		CompletedAt:      completed,
		DurationMs:       completed.Sub(r.started).Milliseconds(),
		RecordsProcessed: r.records,
		ErrorMessage:     errMsg,
		ErrorDetails:     details,
		Metadata:         copyMap(r.metadata),
	}
	r.mu.Unlock()

	if exec.DurationMs < 0 {
		exec.DurationMs = 0
	}

	if err := r.writer.Insert(ctx, exec); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"job_name": r.jobName,
			"status":   status,
		}).Error("failed to persist execution log")
	}
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
