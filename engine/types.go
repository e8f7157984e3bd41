/*
Package engine provides the core quotation document engine.

PURPOSE:
  This package contains the domain types and algorithms for producing
  commercial quotation documents: collision-free numbering, currency-aware
  totals, deterministic multi-page layout, and the contracts for the
  append-only history store that backs them.

KEY CONCEPTS IN THIS FILE (types.go):
  - QuotationRecord: An immutable-once-issued quotation with its totals
  - ItemLine: A priced line with a multi-line description and optional image
  - Currency/Status: Closed enumerations used across the engine
  - Round2: The single rounding rule (half-up to currency precision)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Immutability: Issued records are never edited, only superseded
  3. Explicit dependencies: No package-level mutable state; components
     receive their collaborators at construction time

SEE ALSO:
  - totals.go: Totals calculation and validation
  - sequence.go: Number/version allocation
  - layout.go: Page layout algorithm
  - store.go: History store and collaborator contracts
*/
package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CURRENCY
// =============================================================================

type Currency string

const (
	CurrencySoles   Currency = "SOLES"
	CurrencyDollars Currency = "DOLARES"
	CurrencyEuros   Currency = "EUROS"
)

// Symbol resolves the display symbol for a currency. Unrecognized values
// fall back to the soles symbol, matching the historical store contents.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyDollars:
		return "$"
	case CurrencyEuros:
		return "€"
	default:
		return "S/"
	}
}

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusIssued     Status = "ISSUED"
	StatusSuperseded Status = "SUPERSEDED"
)

// =============================================================================
// ROUNDING
// =============================================================================

// Round2 rounds to currency precision (2 decimals) using round-half-up.
// Every monetary amount in the engine passes through this exactly once.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MustDecimal parses a decimal literal, returning zero on failure.
// Intended for constants and test fixtures, not untrusted input.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// CLIENT AND COMPANY IDENTITY
// =============================================================================

type Client struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	TaxID   string `json:"taxId"`
	Email   string `json:"email"`
}

// CompanyProfile is the issuer identity printed in every document header.
type CompanyProfile struct {
	Name    string `json:"name"`
	TaxID   string `json:"taxId"`
	Address string `json:"address"`
	LogoRef string `json:"logoRef,omitempty"`
}

// =============================================================================
// ITEM LINE
// =============================================================================

// ItemLine is one priced row of a quotation. Description is multi-line;
// embedded newlines are preserved through persistence and layout.
type ItemLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ImageRef    string          `json:"imageRef,omitempty"`
}

// DescriptionLines splits the description on embedded newlines.
func (l ItemLine) DescriptionLines() []string {
	return strings.Split(strings.ReplaceAll(l.Description, "\r\n", "\n"), "\n")
}

// SummaryDescription joins the description into a single line for tabular
// views. The layout engine keeps the original line breaks; only summaries
// use this compact form.
func (l ItemLine) SummaryDescription() string {
	return strings.Join(l.DescriptionLines(), " / ")
}

// =============================================================================
// QUOTATION RECORD
// =============================================================================

// QuotationRecord is one quotation lineage entry. The pair (Number, Version)
// is unique across the store; versions of a number form a contiguous
// sequence starting at 1.
//
// CreatedAt is kept in its persisted string encoding. Historical stores
// contain several date encodings; ParseRecordDate in dates.go is the single
// place that interprets them.
type QuotationRecord struct {
	Number      string          `json:"number"`
	Version     int             `json:"version"`
	Client      Client          `json:"client"`
	Items       []ItemLine      `json:"items"`
	Currency    Currency        `json:"currency"`
	TaxIncluded bool            `json:"taxIncluded"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	Total       decimal.Decimal `json:"total"`
	Status      Status          `json:"status"`
	CreatedAt   string          `json:"createdAt"`
	Terms       string          `json:"terms"`
}

// RecordKey identifies a record within the store.
type RecordKey struct {
	Number  string
	Version int
}

func (r QuotationRecord) Key() RecordKey {
	return RecordKey{Number: r.Number, Version: r.Version}
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s v%d", k.Number, k.Version)
}

// =============================================================================
// ITEM LOADING
// =============================================================================

// LoadMode selects how LoadItems combines an incoming item list with the
// list already being edited. The two historical call sites (reloading a
// prior version, pulling in templates) share this single loader.
type LoadMode int

const (
	// LoadReplace discards the existing items.
	LoadReplace LoadMode = iota
	// LoadMerge appends incoming items after the existing ones.
	LoadMerge
)

// LoadItems returns the item list resulting from loading incoming items
// over existing ones using the given mode. Inputs are not mutated.
func LoadItems(existing, incoming []ItemLine, mode LoadMode) []ItemLine {
	switch mode {
	case LoadReplace:
		out := make([]ItemLine, len(incoming))
		copy(out, incoming)
		return out
	default:
		out := make([]ItemLine, 0, len(existing)+len(incoming))
		out = append(out, existing...)
		out = append(out, incoming...)
		return out
	}
}
