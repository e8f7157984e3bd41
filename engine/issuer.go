/*
issuer.go - Quotation finalization pipeline

PURPOSE:
  Drives a draft through the full issue sequence:

    validate + compute totals
      -> allocate (number, version)
      -> lay out pages
      -> write the document
      -> append to history (record becomes ISSUED)
      -> mark the prior version SUPERSEDED (re-versions only)
      -> notify listeners

  Ordering is the crash-safety contract: the history never contains a
  record whose document was not fully written. Any failure before the
  append leaves the store untouched and the operation safe to retry.

CONCURRENCY:
  Generation runs on a bounded queue of depth 1. IssueAsync rejects with
  ErrGenerationBusy while a generation is in flight, so no two
  generations ever race on the same store's sequence. Reads may proceed
  concurrently; they observe the pre- or post-append snapshot.
*/
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is the caller-assembled input to Issue. ReviseNumber, when set,
// makes the issue a new version of that existing number instead of a new
// lineage.
type Draft struct {
	Client       Client
	Items        []ItemLine
	Currency     Currency
	TaxIncluded  bool
	TaxRate      decimal.Decimal
	Discount     decimal.Decimal
	Terms        string
	ReviseNumber string
}

// IssueResult is delivered on the channel returned by IssueAsync.
type IssueResult struct {
	Record   QuotationRecord
	Location string
	Err      error
}

// Issuer owns the finalization pipeline.
type Issuer struct {
	store  HistoryStore
	alloc  *SequenceAllocator
	layout *LayoutEngine
	writer DocumentWriter
	spec   PageSpec

	notifiers []Notifier

	// clock is replaceable in tests.
	clock func() time.Time

	// inflight is the depth-1 generation queue.
	inflight chan struct{}
}

func NewIssuer(store HistoryStore, layout *LayoutEngine, writer DocumentWriter, spec PageSpec) *Issuer {
	return &Issuer{
		store:    store,
		alloc:    NewSequenceAllocator(store),
		layout:   layout,
		writer:   writer,
		spec:     spec,
		clock:    time.Now,
		inflight: make(chan struct{}, 1),
	}
}

// Subscribe registers a listener invoked after a record reaches ISSUED.
func (i *Issuer) Subscribe(n Notifier) {
	i.notifiers = append(i.notifiers, n)
}

// Allocator exposes the issuer's allocator for revision drafts.
func (i *Issuer) Allocator() *SequenceAllocator { return i.alloc }

// WithClock replaces the time source. Test hook.
func (i *Issuer) WithClock(clock func() time.Time) *Issuer {
	i.clock = clock
	return i
}

// Issue finalizes a draft synchronously. It acquires the generation slot,
// so a concurrent Issue or IssueAsync fails with ErrGenerationBusy.
func (i *Issuer) Issue(ctx context.Context, draft Draft) (QuotationRecord, string, error) {
	select {
	case i.inflight <- struct{}{}:
	default:
		return QuotationRecord{}, "", ErrGenerationBusy
	}
	defer func() { <-i.inflight }()

	return i.issue(ctx, draft)
}

// IssueAsync finalizes a draft on a background goroutine and returns a
// channel that delivers the single result. It fails fast with
// ErrGenerationBusy when a generation is already in flight.
func (i *Issuer) IssueAsync(ctx context.Context, draft Draft) (<-chan IssueResult, error) {
	select {
	case i.inflight <- struct{}{}:
	default:
		return nil, ErrGenerationBusy
	}

	done := make(chan IssueResult, 1)
	go func() {
		defer func() { <-i.inflight }()
		record, location, err := i.issue(ctx, draft)
		done <- IssueResult{Record: record, Location: location, Err: err}
	}()
	return done, nil
}

func (i *Issuer) issue(ctx context.Context, draft Draft) (QuotationRecord, string, error) {
	// 1. Validate and total. Nothing is numbered or written for bad input.
	if draft.Client.Name == "" {
		return QuotationRecord{}, "", &ValidationError{Field: "client.name", Value: "", Reason: "must not be empty"}
	}
	items, totals, err := ComputeTotals(draft.Items, draft.Discount, draft.TaxRate, draft.TaxIncluded)
	if err != nil {
		return QuotationRecord{}, "", err
	}

	// 2. Mint (number, version).
	now := i.clock()
	number := draft.ReviseNumber
	version := 1
	if number == "" {
		number, err = i.alloc.Allocate(ctx, now.Year())
		if err != nil {
			return QuotationRecord{}, "", err
		}
	} else {
		version, err = i.alloc.AllocateVersion(ctx, number)
		if err != nil {
			return QuotationRecord{}, "", err
		}
	}
	if err := i.alloc.CheckConflict(ctx, number, version); err != nil {
		return QuotationRecord{}, "", err
	}

	record := QuotationRecord{
		Number:      number,
		Version:     version,
		Client:      draft.Client,
		Items:       items,
		Currency:    draft.Currency,
		TaxIncluded: draft.TaxIncluded,
		TaxRate:     draft.TaxRate,
		Discount:    draft.Discount,
		Subtotal:    totals.Subtotal,
		TaxAmount:   totals.TaxAmount,
		Total:       totals.Total,
		Status:      StatusDraft,
		CreatedAt:   FormatRecordDate(now),
		Terms:       draft.Terms,
	}

	// 3. Render fully before anything durable happens.
	pages, err := i.layout.Layout(record, i.spec)
	if err != nil {
		return QuotationRecord{}, "", err
	}
	location, err := i.writer.Write(ctx, record, pages)
	if err != nil {
		return QuotationRecord{}, "", fmt.Errorf("%w: document write: %v", ErrPersistence, err)
	}

	// 4. Append. From here the record is issued.
	record.Status = StatusIssued
	if err := i.store.Append(ctx, record); err != nil {
		return QuotationRecord{}, "", err
	}

	// 5. Supersede the prior version only after its successor is durable.
	if version > 1 {
		if err := i.store.MarkSuperseded(ctx, number, version-1); err != nil {
			// The new version is already appended; surfacing the failed
			// transition is better than pretending the whole issue failed.
			log.Printf("issuer: mark %s v%d superseded: %v", number, version-1, err)
		}
	}

	for _, n := range i.notifiers {
		n.RecordIssued(ctx, record, location)
	}
	return record, location, nil
}
