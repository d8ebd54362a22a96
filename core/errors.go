package core

import "fmt"

// ValidationError rejects malformed entity or knowledge input before any
// mutation takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NotFoundError signals a referenced entity, session or knowledge id that is
// absent. Callers log and degrade by skipping the reference; it never aborts
// a running negotiation.
type NotFoundError struct {
	Kind string // "entity", "session", "knowledge"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ConcurrencyAnomaly reports a post-hoc detected count mismatch on the shared
// entity directory. It is diagnostic: reported to the caller, never fatal.
type ConcurrencyAnomaly struct {
	Expected int
	Actual   int
}

func (e *ConcurrencyAnomaly) Error() string {
	return fmt.Sprintf("directory count mismatch: expected %d, found %d", e.Expected, e.Actual)
}
