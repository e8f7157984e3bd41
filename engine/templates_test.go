package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen/quotation-engine/engine"
)

func recordWith(number string, items ...engine.ItemLine) engine.QuotationRecord {
	return engine.QuotationRecord{
		Number:    number,
		Version:   1,
		Client:    engine.Client{Name: "Cliente"},
		Items:     items,
		Status:    engine.StatusIssued,
		CreatedAt: "2025-03-10 12:00",
	}
}

func TestBuildTemplateIndex_DeduplicatesAndCounts(t *testing.T) {
	// GIVEN: the same description across three records, twice with old
	// pricing and once with new pricing
	// THEN: one entry, usage count 3, latest quantity and price win

	index := engine.BuildTemplateIndex([]engine.QuotationRecord{
		recordWith("COT-2025-00001", item("Torta tres leches", "1", "45")),
		recordWith("COT-2025-00002", item("Torta tres leches", "1", "45"), item("Alfajores x12", "2", "18")),
		recordWith("COT-2025-00003", item("Torta tres leches", "2", "50")),
	})

	require.Len(t, index, 2)
	assert.Equal(t, "Alfajores x12", index[0].Description)
	assert.Equal(t, 1, index[0].UsageCount)

	torta := index[1]
	assert.Equal(t, "Torta tres leches", torta.Description)
	assert.Equal(t, 3, torta.UsageCount)
	assert.True(t, dec("2").Equal(torta.TypicalQuantity), "latest quantity wins")
	assert.True(t, dec("50").Equal(torta.TypicalPrice), "latest price wins")
}

func TestBuildTemplateIndex_AlphabetizesCaseInsensitively(t *testing.T) {
	index := engine.BuildTemplateIndex([]engine.QuotationRecord{
		recordWith("COT-2025-00001",
			item("empanadas", "1", "2"),
			item("Brownies", "1", "3"),
			item("alfajores", "1", "1"),
		),
	})

	got := make([]string, 0, len(index))
	for _, e := range index {
		got = append(got, e.Description)
	}
	assert.Equal(t, []string{"alfajores", "Brownies", "empanadas"}, got)
}

func TestBuildTemplateIndex_EmptyHistory(t *testing.T) {
	assert.Empty(t, engine.BuildTemplateIndex(nil))
}

func TestTemplateEntry_Item(t *testing.T) {
	entry := engine.TemplateEntry{
		Description:     "Torta tres leches",
		TypicalQuantity: dec("2"),
		TypicalPrice:    dec("50"),
		UsageCount:      7,
	}

	line := entry.Item()
	assert.Equal(t, "Torta tres leches", line.Description)
	assert.True(t, dec("2").Equal(line.Quantity))
	assert.True(t, dec("50").Equal(line.UnitPrice))
	assert.True(t, line.Subtotal.IsZero(), "pricing happens at issue time")
}
