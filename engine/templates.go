/*
templates.go - Derived item template index

PURPOSE:
  Scans a history snapshot and derives the set of reusable item templates:
  one entry per distinct description, alphabetized, with the quantity and
  price of the most recent occurrence and a usage count across all
  records.

  The index is a pure function of the snapshot. It is never persisted as
  authoritative data; discard and rebuild at any time at O(total item
  lines) cost.
*/
package engine

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TemplateEntry is a deduplicated, frequency-ranked item description
// offered for quick reuse.
type TemplateEntry struct {
	Description     string          `json:"description"`
	TypicalQuantity decimal.Decimal `json:"typicalQuantity"`
	TypicalPrice    decimal.Decimal `json:"typicalPrice"`
	UsageCount      int             `json:"usageCount"`
}

// Item converts a template into a starting item line for a new draft.
func (t TemplateEntry) Item() ItemLine {
	return ItemLine{
		Description: t.Description,
		Quantity:    t.TypicalQuantity,
		UnitPrice:   t.TypicalPrice,
	}
}

// BuildTemplateIndex rebuilds the template set from a history snapshot.
// Records arrive in insertion order, so a later occurrence of the same
// description overwrites the typical quantity and price.
func BuildTemplateIndex(records []QuotationRecord) []TemplateEntry {
	byDescription := make(map[string]*TemplateEntry)
	for _, r := range records {
		for _, item := range r.Items {
			e, ok := byDescription[item.Description]
			if !ok {
				e = &TemplateEntry{Description: item.Description}
				byDescription[item.Description] = e
			}
			e.TypicalQuantity = item.Quantity
			e.TypicalPrice = item.UnitPrice
			e.UsageCount++
		}
	}

	entries := make([]TemplateEntry, 0, len(byDescription))
	for _, e := range byDescription {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Description), strings.ToLower(entries[j].Description)
		if a != b {
			return a < b
		}
		return entries[i].Description < entries[j].Description
	})
	return entries
}
