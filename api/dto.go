/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for the query surface. These types decouple
  the engine's domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done by the engine, not in DTOs. DTOs are pure data
  carriers; validation failures come back as structured engine errors.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/lumen/quotation-engine/engine"
)

// =============================================================================
// RECORDS
// =============================================================================

type ItemDTO struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ImageRef    string          `json:"imageRef,omitempty"`

	// Summary is the single-line join used by tabular views; the
	// document itself keeps the original line breaks.
	Summary string `json:"summary"`
}

type RecordDTO struct {
	Number      string          `json:"number"`
	Version     int             `json:"version"`
	Client      engine.Client   `json:"client"`
	Items       []ItemDTO       `json:"items"`
	Currency    string          `json:"currency"`
	Symbol      string          `json:"symbol"`
	TaxIncluded bool            `json:"taxIncluded"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"createdAt"`
	Terms       string          `json:"terms,omitempty"`
	Document    string          `json:"document"`
}

func toRecordDTO(r engine.QuotationRecord, document string) RecordDTO {
	items := make([]ItemDTO, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, ItemDTO{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
			ImageRef:    it.ImageRef,
			Summary:     it.SummaryDescription(),
		})
	}
	return RecordDTO{
		Number:      r.Number,
		Version:     r.Version,
		Client:      r.Client,
		Items:       items,
		Currency:    string(r.Currency),
		Symbol:      r.Currency.Symbol(),
		TaxIncluded: r.TaxIncluded,
		TaxRate:     r.TaxRate,
		Discount:    r.Discount,
		Subtotal:    r.Subtotal,
		TaxAmount:   r.TaxAmount,
		Total:       r.Total,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		Terms:       r.Terms,
		Document:    document,
	}
}

// =============================================================================
// ISSUE REQUESTS
// =============================================================================

type IssueItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	ImageRef    string          `json:"imageRef,omitempty"`
}

type IssueRequest struct {
	Client      engine.Client      `json:"client"`
	Items       []IssueItemRequest `json:"items"`
	Currency    string             `json:"currency"`
	TaxIncluded bool               `json:"taxIncluded"`
	TaxRate     *decimal.Decimal   `json:"taxRate,omitempty"` // default: engine.DefaultTaxRate
	Discount    decimal.Decimal    `json:"discount"`
	Terms       string             `json:"terms"`

	// ReviseNumber issues a new version of an existing number.
	ReviseNumber string `json:"reviseNumber,omitempty"`
}

func (req IssueRequest) draft() engine.Draft {
	items := make([]engine.ItemLine, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, engine.ItemLine{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			ImageRef:    it.ImageRef,
		})
	}
	taxRate := engine.DefaultTaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	return engine.Draft{
		Client:       req.Client,
		Items:        items,
		Currency:     engine.Currency(req.Currency),
		TaxIncluded:  req.TaxIncluded,
		TaxRate:      taxRate,
		Discount:     req.Discount,
		Terms:        req.Terms,
		ReviseNumber: req.ReviseNumber,
	}
}

// =============================================================================
// STATISTICS
// =============================================================================

type CurrencyStatsDTO struct {
	Currency string          `json:"currency"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

type StatsDTO struct {
	Records    int                `json:"records"`
	ByStatus   map[string]int     `json:"byStatus"`
	ByYear     map[string]int     `json:"byYear"`
	ByCurrency []CurrencyStatsDTO `json:"byCurrency"`
	Warnings   int                `json:"loadWarnings"`
}
