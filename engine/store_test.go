package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lumen/quotation-engine/engine"
)

func dated(number, createdAt string) engine.QuotationRecord {
	return engine.QuotationRecord{
		Number:    number,
		Version:   1,
		Client:    engine.Client{Name: "Cliente SAC"},
		Status:    engine.StatusIssued,
		CreatedAt: createdAt,
	}
}

func TestFilter_ZeroValueMatchesEverything(t *testing.T) {
	assert.True(t, engine.Filter{}.Matches(dated("COT-2025-00001", "2025-01-05 09:00")))
	assert.True(t, engine.Filter{}.Matches(dated("COT-2025-00002", "no fecha")))
}

func TestFilter_DateRangeAcrossEncodings(t *testing.T) {
	// Stores accumulate records in several date encodings; a single range
	// must select across all of them.

	records := []engine.QuotationRecord{
		dated("COT-2024-00009", "2024-12-30 18:00"), // before the range
		dated("COT-2025-00001", "2025-01-05 09:00"), // timestamp encoding
		dated("COT-2025-00002", "2025-01-20"),       // bare date
		dated("COT-2025-00003", "31/01/2025"),       // day-first
		dated("COT-2025-00004", "2025-02-02 08:00"), // after the range
	}
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	f := engine.Filter{DateFrom: &from, DateTo: &to}

	var got []string
	for _, r := range records {
		if f.Matches(r) {
			got = append(got, r.Number)
		}
	}
	assert.Equal(t, []string{"COT-2025-00001", "COT-2025-00002", "COT-2025-00003"}, got)
}

func TestFilter_UnparseableDateExcludedWhenRangeSet(t *testing.T) {
	broken := dated("COT-2025-00001", "hace dos semanas")
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.False(t, engine.Filter{DateFrom: &from}.Matches(broken))
	assert.True(t, engine.Filter{Text: "cot-2025"}.Matches(broken),
		"text-only filtering does not need a parseable date")
}

func TestFilter_StatusAndText(t *testing.T) {
	r := dated("COT-2025-00001", "2025-01-05 09:00")

	assert.True(t, engine.Filter{Status: engine.StatusIssued}.Matches(r))
	assert.False(t, engine.Filter{Status: engine.StatusSuperseded}.Matches(r))
	assert.True(t, engine.Filter{Text: "CLIENTE"}.Matches(r), "client name, case-insensitive")
	assert.True(t, engine.Filter{Text: "25-000"}.Matches(r), "number substring")
	assert.False(t, engine.Filter{Text: "otro"}.Matches(r))
	assert.False(t, engine.Filter{Text: "cliente", Status: engine.StatusDraft}.Matches(r),
		"criteria combine conjunctively")
}
