package syncer

import "github.com/emberworks/content-sync/pkg/srcerr"

// Outcome aggregates one sync invocation's per-source results into the
// machine-readable response shape.
type Outcome struct {
	Success   bool     `json:"success"`
	Fetched   int      `json:"fetched"`
	Inserted  int      `json:"inserted"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
	Attempted []string `json:"attempted,omitempty"`
	Error     string   `json:"error,omitempty"`

	// FailureKind carries the typed classification of a fatal failure so the
	// HTTP layer can pick a status code without inspecting message text.
	FailureKind srcerr.Kind `json:"-"`
}
