// Package srcerr classifies adapter failures so that fallback and reporting
// decisions switch on a kind instead of matching error message text.
package srcerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// NotConfigured means a required credential or setting is absent. It is a
	// deployment problem, never an authorization failure.
	NotConfigured Kind = iota
	// Unauthorized means the upstream rejected our credentials.
	Unauthorized
	// Upstream covers network failures and non-2xx responses from a provider.
	Upstream
	// Persistence covers store write failures for individual records.
	Persistence
)

func (k Kind) String() string {
	switch k {
	case NotConfigured:
		return "not_configured"
	case Unauthorized:
		return "unauthorized"
	case Upstream:
		return "upstream"
	case Persistence:
		return "persistence"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind   Kind
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, source string, err error) *Error {
	return &Error{Kind: kind, Source: source, Err: err}
}

func Newf(kind Kind, source, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Source: source, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the classification of err, or Upstream when err carries none.
// Unclassified errors come from code outside the adapters and are treated as
// provider-side for fallback purposes.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return Upstream
}

func Is(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}
