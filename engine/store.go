/*
store.go - History store and collaborator contracts

PURPOSE:
  Defines the interface between the engine and its persistence and output
  collaborators. The HistoryStore is append-only in content: records are
  never edited or deleted, the single permitted transition is flipping a
  prior version's status to SUPERSEDED once its successor is durably
  appended.

APPEND-ONLY CONTRACT:
  - Append(): the only way a record enters the store
  - No Update() or Delete() methods exist
  - MarkSuperseded() changes exactly one status field and nothing else

ATOMICITY:
  Append is atomic from the caller's point of view: either the record is
  durably recorded or the store is unchanged. Reads concurrent with a
  pending append observe the pre- or post-append snapshot, never a
  partial record.

IMPLEMENTATIONS:
  - store/jsonfile: Durable JSON document store (production)
  - engine/store:   In-memory store (tests/dev)

SEE ALSO:
  - sequence.go: Allocates against MaxSequenceForYear/MaxVersion
  - issuer.go: Drives the render-then-append ordering
*/
package engine

import (
	"context"
	"strings"
	"time"
)

// =============================================================================
// FILTER
// =============================================================================

// Filter selects records from the history. Zero value matches everything.
type Filter struct {
	// Text matches case-insensitively as a substring of the quotation
	// number or the client name.
	Text string

	// DateFrom/DateTo bound CreatedAt inclusively. Records whose date
	// cannot be parsed are excluded whenever a bound is set.
	DateFrom *time.Time
	DateTo   *time.Time

	// Status restricts to one lifecycle state when non-empty.
	Status Status
}

// Matches reports whether the record satisfies every set criterion.
func (f Filter) Matches(r QuotationRecord) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(r.Number), needle) &&
			!strings.Contains(strings.ToLower(r.Client.Name), needle) {
			return false
		}
	}
	if f.DateFrom != nil || f.DateTo != nil {
		at, err := ParseRecordDate(r.CreatedAt)
		if err != nil {
			return false
		}
		if f.DateFrom != nil && at.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil {
			// Inclusive upper bound: a bare date means "through that day".
			if at.After(f.DateTo.Add(24*time.Hour - time.Nanosecond)) {
				return false
			}
		}
	}
	return true
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// LoadWarning records a malformed entry skipped while loading history.
// Recovery is silent to the end user but surfaced for diagnostics.
type LoadWarning struct {
	Index int
	Err   error
}

// HistoryStore is the durable, ordered collection of quotation records,
// keyed by (number, version).
type HistoryStore interface {
	// Append durably records r. Fails with SequenceConflictError if the
	// (number, version) pair already exists. On any failure the store is
	// unchanged.
	Append(ctx context.Context, r QuotationRecord) error

	// All returns every well-formed record in insertion order.
	All(ctx context.Context) ([]QuotationRecord, error)

	// Find returns the records matching f, in insertion order.
	Find(ctx context.Context, f Filter) ([]QuotationRecord, error)

	// MaxSequenceForYear returns the highest sequence component among
	// numbers of the given year, 0 when the year has none.
	MaxSequenceForYear(ctx context.Context, year int) (int, error)

	// MaxVersion returns the highest version of number, 0 when unknown.
	MaxVersion(ctx context.Context, number string) (int, error)

	// Latest returns the highest version of number, or ErrRecordNotFound.
	Latest(ctx context.Context, number string) (QuotationRecord, error)

	// MarkSuperseded flips the status of (number, version) to SUPERSEDED.
	// This is the only mutation the lifecycle permits.
	MarkSuperseded(ctx context.Context, number string, version int) error

	// LoadWarnings returns the malformed entries skipped at load time.
	LoadWarnings() []LoadWarning
}

// =============================================================================
// COLLABORATOR CONTRACTS
// =============================================================================

// ImageResolver resolves opaque image references attached to item lines
// and the company logo. Image file management lives outside the engine.
type ImageResolver interface {
	Exists(ref string) bool
	Read(ref string) ([]byte, error)
}

// DocumentWriter materializes a laid-out page sequence into a document
// file and returns its location. The file name must be derivable from the
// record's number and version alone.
type DocumentWriter interface {
	Write(ctx context.Context, record QuotationRecord, pages []Page) (string, error)
}

// Notifier observes records reaching ISSUED status, after the document is
// written and the history appended. Used for email dispatch.
type Notifier interface {
	RecordIssued(ctx context.Context, record QuotationRecord, location string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, record QuotationRecord, location string)

func (f NotifierFunc) RecordIssued(ctx context.Context, record QuotationRecord, location string) {
	f(ctx, record, location)
}
