package execlog

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// HealthReader is the read-only aggregation surface consumed by the
// monitoring dashboard. No write path.
type HealthReader interface {
	JobHealth(ctx context.Context) ([]JobHealth, error)
	RecentFailures(ctx context.Context, window time.Duration) ([]Execution, error)
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Execution{})
}

func (r *Repository) Insert(ctx context.Context, e *Execution) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *Repository) JobHealth(ctx context.Context) ([]JobHealth, error) {
	type aggRow struct {
		JobName       string
		Total         int64
		Successful    int64
		AvgDurationMs float64
	}

	var rows []aggRow
	err := r.db.WithContext(ctx).
		Model(&Execution{}).
		Select("job_name, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS successful, AVG(duration_ms) AS avg_duration_ms", StatusSuccess).
		Group("job_name").
		Order("job_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	health := make([]JobHealth, 0, len(rows))
	for _, row := range rows {
		h := JobHealth{
			JobName:       row.JobName,
			Total:         row.Total,
			Successful:    row.Successful,
			AvgDurationMs: row.AvgDurationMs,
		}
		if row.Total > 0 {
			h.SuccessRate = float64(row.Successful) / float64(row.Total)
		}

		var last Execution
		err := r.db.WithContext(ctx).
			Where("job_name = ?", row.JobName).
			Order("started_at DESC").
			First(&last).Error
		if err == nil {
			h.LastExecution = &last
		}

		health = append(health, h)
	}
	return health, nil
}

func (r *Repository) RecentFailures(ctx context.Context, window time.Duration) ([]Execution, error) {
	cutoff := time.Now().UTC().Add(-window)
	var failures []Execution
	err := r.db.WithContext(ctx).
		Where("status <> ? AND started_at >= ?", StatusSuccess, cutoff).
		Order("started_at DESC").
		Find(&failures).Error
	return failures, err
}

// MemoryWriter collects executions in memory and serves the same read model,
// for tests.
type MemoryWriter struct {
	mu         sync.Mutex
	executions []Execution

	// InsertErr, when set, is returned by the next Insert call.
	InsertErr error
}

func NewMemoryWriter() *MemoryWriter { return &MemoryWriter{} }

func (m *MemoryWriter) Insert(ctx context.Context, e *Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		err := m.InsertErr
		m.InsertErr = nil
		return err
	}
	m.executions = append(m.executions, *e)
	return nil
}

func (m *MemoryWriter) Executions() []Execution {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Execution, len(m.executions))
	copy(out, m.executions)
	return out
}

func (m *MemoryWriter) JobHealth(ctx context.Context) ([]JobHealth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byJob := make(map[string][]Execution)
	for _, e := range m.executions {
		byJob[e.JobName] = append(byJob[e.JobName], e)
	}

	names := make([]string, 0, len(byJob))
	for name := range byJob {
		names = append(names, name)
	}
	sort.Strings(names)

	health := make([]JobHealth, 0, len(names))
	for _, name := range names {
		execs := byJob[name]
		h := JobHealth{JobName: name, Total: int64(len(execs))}
		var durationSum int64
		for i := range execs {
			if execs[i].Status == StatusSuccess {
				h.Successful++
			}
			durationSum += execs[i].DurationMs
			if h.LastExecution == nil || execs[i].StartedAt.After(h.LastExecution.StartedAt) {
				last := execs[i]
				h.LastExecution = &last
			}
		}
		h.SuccessRate = float64(h.Successful) / float64(h.Total)
		h.AvgDurationMs = float64(durationSum) / float64(h.Total)
		health = append(health, h)
	}
	return health, nil
}

func (m *MemoryWriter) RecentFailures(ctx context.Context, window time.Duration) ([]Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().UTC().Add(-window)
	var failures []Execution
	for _, e := range m.executions {
		if e.Status != StatusSuccess && !e.StartedAt.Before(cutoff) {
			failures = append(failures, e)
		}
	}
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].StartedAt.After(failures[j].StartedAt)
	})
	return failures, nil
}
