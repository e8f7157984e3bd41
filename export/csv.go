// Package export writes history snapshots to interchange formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/lumen/quotation-engine/engine"
)

// historyColumns is the fixed CSV column set, matching the persisted
// record fields a spreadsheet user cares about.
var historyColumns = []string{
	"number", "version", "date", "client", "email", "address",
	"currency", "subtotal", "taxAmount", "total", "status",
}

// HistoryCSV writes the records as CSV, one row per record, in the order
// given. Item lines are summarized by count; the documents themselves
// carry the detail.
func HistoryCSV(w io.Writer, records []engine.QuotationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyColumns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Number,
			fmt.Sprintf("%d", r.Version),
			r.CreatedAt,
			r.Client.Name,
			r.Client.Email,
			r.Client.Address,
			string(r.Currency),
			r.Subtotal.StringFixed(2),
			r.TaxAmount.StringFixed(2),
			r.Total.StringFixed(2),
			string(r.Status),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
