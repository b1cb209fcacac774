package execlog

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/emberworks/content-sync/pkg/common/logger"
	"github.com/emberworks/content-sync/pkg/srcerr"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestRunLogSuccess(t *testing.T) {
	writer := NewMemoryWriter()
	run := Start(writer, "news_sync")
	run.SetRecordsProcessed(12)
	run.SetMetadata("feeds", 3)
	run.LogSuccess(context.Background())

	execs := writer.Executions()
	if len(execs) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(execs))
	}

	e := execs[0]
	if e.Status != StatusSuccess {
		t.Errorf("unexpected status: %q", e.Status)
	}
	if e.JobName != "news_sync" {
		t.Errorf("unexpected job name: %q", e.JobName)
	}
	if e.RecordsProcessed != 12 {
		t.Errorf("unexpected records processed: %d", e.RecordsProcessed)
	}
	if e.DurationMs < 0 {
		t.Errorf("duration must not be negative, got %d", e.DurationMs)
	}
	if e.CompletedAt.Before(e.StartedAt) {
		t.Error("completed_at precedes started_at")
	}
	if e.Metadata["feeds"] != 3 {
		t.Errorf("unexpected metadata: %v", e.Metadata)
	}
}

func TestRunDuplicateLogIgnored(t *testing.T) {
	writer := NewMemoryWriter()
	run := Start(writer, "news_sync")
	run.LogSuccess(context.Background())
	run.LogFailure(context.Background(), errors.New("late failure"))
	run.LogTimeout(context.Background())

	execs := writer.Executions()
	if len(execs) != 1 {
		t.Fatalf("expected exactly 1 execution, got %d", len(execs))
	}
	if execs[0].Status != StatusSuccess {
		t.Errorf("first log call should win, got %q", execs[0].Status)
	}
}

func TestRunLogFailureDetails(t *testing.T) {
	writer := NewMemoryWriter()
	run := Start(writer, "releases_sync")
	run.LogFailure(context.Background(), srcerr.Newf(srcerr.NotConfigured, "catalog", "missing credentials"))

	execs := writer.Executions()
	if len(execs) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(execs))
	}
	e := execs[0]
	if e.Status != StatusFailure {
		t.Errorf("unexpected status: %q", e.Status)
	}
	if e.ErrorMessage == "" {
		t.Error("expected error message")
	}
	if e.ErrorDetails["kind"] != srcerr.NotConfigured.String() {
		t.Errorf("unexpected error details: %v", e.ErrorDetails)
	}
}

func TestRunWriterFailureSwallowed(t *testing.T) {
	writer := NewMemoryWriter()
	writer.InsertErr = errors.New("database unavailable")

	run := Start(writer, "news_sync")
	run.LogSuccess(context.Background())

	if len(writer.Executions()) != 0 {
		t.Fatal("insert should have failed")
	}
	// A later run with a healthy writer still logs.
	next := Start(writer, "news_sync")
	next.LogSuccess(context.Background())
	if len(writer.Executions()) != 1 {
		t.Fatal("subsequent runs should log normally")
	}
}

func TestRunNegativeDurationClamped(t *testing.T) {
	writer := NewMemoryWriter()
	run := Start(writer, "clips_sync")
	// Clock skew: completion timestamp before start.
	run.nowFunc = func() time.Time { return run.started.Add(-time.Second) }
	run.LogSuccess(context.Background())

	execs := writer.Executions()
	if len(execs) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(execs))
	}
	if execs[0].DurationMs != 0 {
		t.Errorf("expected clamped duration, got %d", execs[0].DurationMs)
	}
}
