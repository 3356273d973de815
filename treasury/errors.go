/*
errors.go - Centralized error types for the treasury engine

ERROR CATEGORIES:
  1. Validation errors - bad user input; the record is not created
  2. Consistency errors - malformed stored data or a broken invariant;
     these fail loudly instead of defaulting to zero
  3. Persistence errors - the backing KV store failed; in-memory state is
     left untouched

USAGE:
  if treasury.IsValidation(err) { ... 400 ... }
  if errors.Is(err, treasury.ErrMalformedDate) { ... }
*/
package treasury

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrMalformedDate   = errors.New("malformed date, expected YYYY-MM-DD")
	ErrMalformedPeriod = errors.New("malformed period, expected YYYY-MM")
	ErrInvalidRange    = errors.New("invalid range: end before start")

	ErrUnknownCategory = errors.New("unknown category")
	ErrNegativeAmount  = errors.New("negative amount")

	// ErrPartitionViolated means the three fund shares of a category did not
	// add up to the category total.
	ErrPartitionViolated = errors.New("fund partition violated")

	ErrArqueoNotFound = errors.New("arqueo not found")

	// ErrRangeMismatch is returned when an arqueo is saved for a range other
	// than the one its reconciliation was computed for.
	ErrRangeMismatch = errors.New("reconciliation range mismatch")

	ErrPersistence = errors.New("persistence failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError describes a rejected user input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConsistencyError points at a stored record that breaks an engine
// invariant.
type ConsistencyError struct {
	RecordID string
	Field    string
	Err      error
}

func (e *ConsistencyError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("record %s: %s: %v", e.RecordID, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// PersistenceError wraps a failure of the backing KV store.
type PersistenceError struct {
	Op  string // "get" or "set"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports input errors. A malformed date inside stored data is
// a consistency error, not a validation error.
func IsValidation(err error) bool {
	if IsConsistency(err) {
		return false
	}
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ErrMalformedPeriod) ||
		errors.Is(err, ErrInvalidRange)
}

func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce) ||
		errors.Is(err, ErrPartitionViolated) ||
		errors.Is(err, ErrRangeMismatch)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrArqueoNotFound)
}

func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}
