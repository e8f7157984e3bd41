/*
errors.go - Centralized error types for the quotation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is/errors.As; the structured variants carry
  the offending field, key or row so failures can be reported precisely.

ERROR CATEGORIES:
  1. Validation errors - Bad input, rejected before numbering or I/O
  2. Sequence errors   - (number, version) collisions
  3. Layout errors     - Rows that cannot fit a page
  4. Persistence errors - I/O failures; the store stays in its prior state
  5. Malformed entries - Corrupt history records, recovered locally

SEE ALSO:
  - totals.go: Produces ValidationError
  - sequence.go: Produces SequenceConflictError
  - layout.go: Produces RowTooLargeError
  - store/jsonfile: Produces MalformedEntryError warnings
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the class of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrSequenceConflict is returned when an allocation would produce a
	// (number, version) pair that already exists in the store.
	ErrSequenceConflict = errors.New("sequence conflict")

	// ErrRowTooLarge is returned when a single item row exceeds the
	// printable height even when given a dedicated page.
	ErrRowTooLarge = errors.New("row too large for page")

	// ErrPersistence wraps I/O failures during append or document write.
	// The store remains in its pre-append state; the operation is safe
	// to retry.
	ErrPersistence = errors.New("persistence failure")

	// ErrMalformedEntry marks a corrupt record found while loading
	// history. The entry is skipped; loading continues.
	ErrMalformedEntry = errors.New("malformed history entry")

	// ErrRecordNotFound is returned when a referenced number or version
	// does not exist in the store.
	ErrRecordNotFound = errors.New("record not found")

	// ErrGenerationBusy is returned when a generation is requested while
	// another is already in flight. The queue has depth 1.
	ErrGenerationBusy = errors.New("a generation is already in progress")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError identifies the field and value that failed validation.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SequenceConflictError reports a duplicate (number, version) pair.
type SequenceConflictError struct {
	Number  string
	Version int
}

func (e *SequenceConflictError) Error() string {
	return fmt.Sprintf("duplicate quotation %s v%d", e.Number, e.Version)
}

func (e *SequenceConflictError) Unwrap() error { return ErrSequenceConflict }

// RowTooLargeError identifies the offending row and the heights involved.
type RowTooLargeError struct {
	Index       int     // zero-based position in the item list
	Description string  // single-line summary of the row
	RowHeight   float64 // measured height
	Printable   float64 // maximum height available on a dedicated page
}

func (e *RowTooLargeError) Error() string {
	return fmt.Sprintf("item %d (%s) is %.1f high, exceeds printable height %.1f",
		e.Index, e.Description, e.RowHeight, e.Printable)
}

func (e *RowTooLargeError) Unwrap() error { return ErrRowTooLarge }

// MalformedEntryError reports a corrupt entry found while loading history.
type MalformedEntryError struct {
	Index int // position within the persisted sequence
	Cause error
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("history entry %d is malformed: %v", e.Index, e.Cause)
}

func (e *MalformedEntryError) Unwrap() error { return ErrMalformedEntry }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// and should be reported with the offending field rather than retried.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrSequenceConflict) ||
		errors.Is(err, ErrRowTooLarge) ||
		errors.Is(err, ErrRecordNotFound)
}

// IsRetryable returns true if the operation might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrGenerationBusy)
}
