/*
totals.go - Currency-aware totals calculation

PURPOSE:
  Derives subtotal, tax and grand total from an item list, a discount and
  a tax policy. Rounding happens exactly once per item and once for the
  tax/total application; the record subtotal is a plain sum of already
  rounded item subtotals.

INVARIANTS:
  - item subtotal = Round2(quantity x unitPrice)
  - taxAmount     = taxIncluded ? Round2((subtotal - discount) x rate) : 0
  - total         = Round2(subtotal - discount + taxAmount)
  - Recomputing on the same input yields identical results.

VALIDATION:
  Rejected before any numbering or I/O: quantity <= 0, unitPrice < 0,
  discount < 0, discount > subtotal, taxRate outside [0,1]. Errors name
  the offending field and value.
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the IGV rate applied when the caller enables tax and
// does not override the rate.
var DefaultTaxRate = decimal.NewFromFloat(0.18)

// Totals is the derived monetary summary of a quotation.
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// PriceItem validates a single line and returns a copy with its subtotal
// computed and rounded. The input is not mutated.
func PriceItem(l ItemLine) (ItemLine, error) {
	if l.Description == "" {
		return ItemLine{}, &ValidationError{Field: "description", Value: "", Reason: "must not be empty"}
	}
	if !l.Quantity.IsPositive() {
		return ItemLine{}, &ValidationError{
			Field: "quantity", Value: l.Quantity.String(), Reason: "must be greater than zero",
		}
	}
	if l.UnitPrice.IsNegative() {
		return ItemLine{}, &ValidationError{
			Field: "unitPrice", Value: l.UnitPrice.String(), Reason: "must not be negative",
		}
	}
	l.Subtotal = Round2(l.Quantity.Mul(l.UnitPrice))
	return l, nil
}

// ComputeTotals validates and prices every item, then derives the record
// totals. It returns the priced item list alongside the totals so callers
// persist exactly what was summed.
func ComputeTotals(items []ItemLine, discount, taxRate decimal.Decimal, taxIncluded bool) ([]ItemLine, Totals, error) {
	if len(items) == 0 {
		return nil, Totals{}, &ValidationError{Field: "items", Value: "[]", Reason: "at least one item is required"}
	}
	if discount.IsNegative() {
		return nil, Totals{}, &ValidationError{
			Field: "discount", Value: discount.String(), Reason: "must not be negative",
		}
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, Totals{}, &ValidationError{
			Field: "taxRate", Value: taxRate.String(), Reason: "must be within [0,1]",
		}
	}

	priced := make([]ItemLine, 0, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		p, err := PriceItem(item)
		if err != nil {
			return nil, Totals{}, fmt.Errorf("item %d: %w", i, err)
		}
		priced = append(priced, p)
		subtotal = subtotal.Add(p.Subtotal)
	}

	if discount.GreaterThan(subtotal) {
		return nil, Totals{}, &ValidationError{
			Field: "discount", Value: discount.String(),
			Reason: fmt.Sprintf("exceeds subtotal %s", subtotal.String()),
		}
	}

	taxAmount := decimal.Zero
	if taxIncluded {
		taxAmount = Round2(subtotal.Sub(discount).Mul(taxRate))
	}
	total := Round2(subtotal.Sub(discount).Add(taxAmount))

	return priced, Totals{Subtotal: subtotal, TaxAmount: taxAmount, Total: total}, nil
}
