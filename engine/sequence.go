/*
sequence.go - Number and version allocation

PURPOSE:
  Mints unique (number, version) pairs. Numbers are year-scoped, zero
  padded and strictly increasing: COT-2025-00001, COT-2025-00002, ...
  The sequence restarts at 1 each calendar year. Versions of a number form
  a contiguous sequence starting at 1; only the latest version is active.

ALLOCATION STRATEGY:
  The next sequence is derived by scanning the store for the year's
  current maximum rather than keeping a separate counter. A counter file
  can drift from the store after a crash; the store itself cannot.

CONFLICTS:
  Single-writer use can never collide, but the allocator still checks the
  store before the caller appends and surfaces SequenceConflictError
  defensively.
*/
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// NumberPrefix is the fixed series prefix of every quotation number.
const NumberPrefix = "COT"

var numberPattern = regexp.MustCompile(`^COT-(\d{4})-(\d{5})$`)

// FormatNumber renders a quotation number for the given year and sequence.
func FormatNumber(year, sequence int) string {
	return fmt.Sprintf("%s-%04d-%05d", NumberPrefix, year, sequence)
}

// ParseNumber extracts the year and sequence from a quotation number.
func ParseNumber(number string) (year, sequence int, err error) {
	m := numberPattern.FindStringSubmatch(number)
	if m == nil {
		return 0, 0, &ValidationError{Field: "number", Value: number, Reason: "must match COT-YYYY-NNNNN"}
	}
	year, _ = strconv.Atoi(m[1])
	sequence, _ = strconv.Atoi(m[2])
	return year, sequence, nil
}

// SequenceAllocator mints numbers and versions against a history store.
type SequenceAllocator struct {
	store HistoryStore
}

func NewSequenceAllocator(store HistoryStore) *SequenceAllocator {
	return &SequenceAllocator{store: store}
}

// Allocate returns the next free number for the year. The implied version
// is 1: a brand-new quotation lineage.
func (a *SequenceAllocator) Allocate(ctx context.Context, year int) (string, error) {
	max, err := a.store.MaxSequenceForYear(ctx, year)
	if err != nil {
		return "", err
	}
	return FormatNumber(year, max+1), nil
}

// AllocateVersion returns the next version for an existing number. The
// year sequence is unaffected; re-versioning never consumes a new number.
func (a *SequenceAllocator) AllocateVersion(ctx context.Context, number string) (int, error) {
	if _, _, err := ParseNumber(number); err != nil {
		return 0, err
	}
	max, err := a.store.MaxVersion(ctx, number)
	if err != nil {
		return 0, err
	}
	if max == 0 {
		return 0, fmt.Errorf("%w: %s", ErrRecordNotFound, number)
	}
	return max + 1, nil
}

// CheckConflict verifies that (number, version) is still free immediately
// before the caller appends. This must never fail for single-writer use.
func (a *SequenceAllocator) CheckConflict(ctx context.Context, number string, version int) error {
	max, err := a.store.MaxVersion(ctx, number)
	if err != nil {
		return err
	}
	if version <= max {
		return &SequenceConflictError{Number: number, Version: version}
	}
	return nil
}

// RevisionDraft builds the starting draft for a new version of number:
// client, terms and items are copied from the latest existing version so
// the caller can edit before finalizing. The prior version keeps its
// status until the new version is successfully appended.
func (a *SequenceAllocator) RevisionDraft(ctx context.Context, number string) (Draft, error) {
	prior, err := a.store.Latest(ctx, number)
	if err != nil {
		return Draft{}, err
	}
	return Draft{
		Client:       prior.Client,
		Items:        LoadItems(nil, prior.Items, LoadReplace),
		Currency:     prior.Currency,
		TaxIncluded:  prior.TaxIncluded,
		TaxRate:      prior.TaxRate,
		Discount:     prior.Discount,
		Terms:        prior.Terms,
		ReviseNumber: number,
	}, nil
}
