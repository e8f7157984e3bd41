package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen/quotation-engine/engine"
)

func clientRecord(number, name, email, createdAt string) engine.QuotationRecord {
	return engine.QuotationRecord{
		Number:    number,
		Version:   1,
		Client:    engine.Client{Name: name, Email: email},
		Items:     []engine.ItemLine{item("Torta", "1", "10")},
		Status:    engine.StatusIssued,
		CreatedAt: createdAt,
	}
}

func TestBuildClientDirectory_LatestDataWins(t *testing.T) {
	// GIVEN: the same client twice, with casing drift and a new email
	// THEN: one entry carrying the most recent record's data

	dir := engine.BuildClientDirectory([]engine.QuotationRecord{
		clientRecord("COT-2025-00001", "Panadería San José", "old@sj.pe", "2025-01-05 09:00"),
		clientRecord("COT-2025-00002", "panadería san josé", "new@sj.pe", "2025-02-12 16:30"),
		clientRecord("COT-2025-00003", "Café Central", "hola@cafe.pe", "2025-02-01 11:00"),
	})

	require.Len(t, dir, 2)
	assert.Equal(t, "Café Central", dir[0].Client.Name)

	sj := dir[1]
	assert.Equal(t, "panadería san josé", sj.Client.Name)
	assert.Equal(t, "new@sj.pe", sj.Client.Email)
	assert.Equal(t, "COT-2025-00002", sj.LastNumber)
	assert.Equal(t, "2025-02-12 16:30", sj.LastSeen)
}

func TestBuildClientDirectory_SkipsBlankNames(t *testing.T) {
	dir := engine.BuildClientDirectory([]engine.QuotationRecord{
		clientRecord("COT-2025-00001", "   ", "", "2025-01-05 09:00"),
		clientRecord("COT-2025-00002", "Café Central", "", "2025-01-06 09:00"),
	})
	require.Len(t, dir, 1)
	assert.Equal(t, "Café Central", dir[0].Client.Name)
}

func TestSuggestClients(t *testing.T) {
	dir := engine.BuildClientDirectory([]engine.QuotationRecord{
		clientRecord("COT-2025-00001", "Panadería San José", "", "2025-01-05 09:00"),
		clientRecord("COT-2025-00002", "Café Central", "", "2025-01-06 09:00"),
		clientRecord("COT-2025-00003", "Cafetería Lima", "", "2025-01-07 09:00"),
	})

	matches := engine.SuggestClients(dir, "  CAFE")
	require.Len(t, matches, 1, "matching is literal, not accent-folded")
	assert.Equal(t, "Cafetería Lima", matches[0].Client.Name)

	assert.Len(t, engine.SuggestClients(dir, "café"), 1)
	assert.Nil(t, engine.SuggestClients(dir, ""), "empty query suggests nothing")
	assert.Empty(t, engine.SuggestClients(dir, "zzz"))
}
