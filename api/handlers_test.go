package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen/quotation-engine/engine"
	"github.com/lumen/quotation-engine/engine/store"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// nullWriter satisfies engine.DocumentWriter without touching disk.
type nullWriter struct{}

func (nullWriter) Write(_ context.Context, r engine.QuotationRecord, _ []engine.Page) (string, error) {
	return "out/" + r.Number + ".pdf", nil
}

func setup(t *testing.T) (http.Handler, *store.Memory, *engine.Issuer) {
	t.Helper()
	mem := store.NewMemory()
	layout := engine.NewLayoutEngine(engine.CompanyProfile{Name: "TENTACIONES ELENA"}, nil)
	issuer := engine.NewIssuer(mem, layout, nullWriter{}, engine.A4Spec())
	return NewRouter(NewHandler(mem, issuer)), mem, issuer
}

func seed(t *testing.T, mem *store.Memory, number string, version int, client string, createdAt string) {
	t.Helper()
	err := mem.Append(context.Background(), engine.QuotationRecord{
		Number:  number,
		Version: version,
		Client:  engine.Client{Name: client},
		Items: []engine.ItemLine{{
			Description: "Torta tres leches",
			Quantity:    engine.MustDecimal("3"),
			UnitPrice:   engine.MustDecimal("10.00"),
			Subtotal:    engine.MustDecimal("30.00"),
		}},
		Currency:    engine.CurrencySoles,
		TaxIncluded: true,
		TaxRate:     engine.DefaultTaxRate,
		Subtotal:    engine.MustDecimal("30.00"),
		TaxAmount:   engine.MustDecimal("5.40"),
		Total:       engine.MustDecimal("35.40"),
		Status:      engine.StatusIssued,
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// =============================================================================
// HISTORY
// =============================================================================

func TestListHistory(t *testing.T) {
	h, mem, _ := setup(t)
	seed(t, mem, "COT-2025-00001", 1, "Café Central", "2025-01-05 09:00")
	seed(t, mem, "COT-2025-00002", 1, "Panadería San José", "2025-02-14 11:00")

	rec := get(t, h, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)

	dtos := decode[[]RecordDTO](t, rec)
	require.Len(t, dtos, 2)
	assert.Equal(t, "COT-2025-00001", dtos[0].Number)
	assert.Equal(t, "S/", dtos[0].Symbol)
	assert.Equal(t, "Cotizacion_COT-2025-00001_v1.pdf", dtos[0].Document)
}

func TestListHistory_Filtered(t *testing.T) {
	h, mem, _ := setup(t)
	seed(t, mem, "COT-2025-00001", 1, "Café Central", "2025-01-05 09:00")
	seed(t, mem, "COT-2025-00002", 1, "Panadería San José", "2025-02-14 11:00")

	byText := decode[[]RecordDTO](t, get(t, h, "/api/history?q=panader"))
	require.Len(t, byText, 1)
	assert.Equal(t, "COT-2025-00002", byText[0].Number)

	byDate := decode[[]RecordDTO](t, get(t, h, "/api/history?from=2025-02-01&to=2025-02-14"))
	require.Len(t, byDate, 1)
	assert.Equal(t, "COT-2025-00002", byDate[0].Number)

	rec := get(t, h, "/api/history?from=not-a-date")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, decode[map[string]any](t, rec)["error"] != "")
}

func TestGetLineage(t *testing.T) {
	h, mem, _ := setup(t)
	seed(t, mem, "COT-2025-00001", 1, "Café Central", "2025-01-05 09:00")
	seed(t, mem, "COT-2025-00001", 2, "Café Central", "2025-01-06 09:00")
	seed(t, mem, "COT-2025-00002", 1, "Otro", "2025-01-07 09:00")

	rec := get(t, h, "/api/history/COT-2025-00001")
	require.Equal(t, http.StatusOK, rec.Code)
	dtos := decode[[]RecordDTO](t, rec)
	require.Len(t, dtos, 2)
	assert.Equal(t, 1, dtos[0].Version)
	assert.Equal(t, 2, dtos[1].Version)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/history/COT-2025-00099").Code)
}

func TestExportHistory(t *testing.T) {
	h, mem, _ := setup(t)
	seed(t, mem, "COT-2025-00001", 1, "Café Central", "2025-01-05 09:00")

	rec := get(t, h, "/api/history/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "historial.csv")
	assert.Contains(t, rec.Body.String(), "COT-2025-00001")
	assert.Contains(t, rec.Body.String(), "Café Central")
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

func TestListClients_Suggestions(t *testing.T) {
	h, mem, _ := setup(t)
	seed(t, mem, "COT-2025-00001", 1, "Café Central", "2025-01-05 09:00")
	seed(t, mem, "COT-2025-00002", 1, "Panadería San José", "2025-02-14 11:00")

	all := decode[[]engine.ClientEntry](t, get(t, h, "/api/clients"))
	require.Len(t, all, 2)

	some := decode[[]engine.ClientEntry](t, get(t, h, "/api/clients?q=san"))
	require.Len(t, some, 1)
	assert.Equal(t, "Panadería San José", some[0].Client.Name)

	none := decode[[]engine.ClientEntry](t, get(t, h, "/api/clients?q=zzz"))
	assert.NotNil(t, none)
	assert.Empty(t, none, "no match is an empty array, not null")
}

func TestGetStats(t *testing.T) {
	h, mem, _ := setup(t)
	seed(t, mem, "COT-2024-00009", 1, "Café Central", "2024-11-05 09:00")
	seed(t, mem, "COT-2025-00001", 1, "Café Central", "2025-01-05 09:00")
	seed(t, mem, "COT-2025-00002", 1, "Panadería San José", "2025-02-14 11:00")

	rec := get(t, h, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[StatsDTO](t, rec)

	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 3, stats.ByStatus["ISSUED"])
	assert.Equal(t, 1, stats.ByYear["2024"])
	assert.Equal(t, 2, stats.ByYear["2025"])
	require.Len(t, stats.ByCurrency, 1)
	assert.Equal(t, "SOLES", stats.ByCurrency[0].Currency)
	assert.Equal(t, 3, stats.ByCurrency[0].Count)
	assert.True(t, engine.MustDecimal("106.20").Equal(stats.ByCurrency[0].Total))
}

// =============================================================================
// QUOTATIONS
// =============================================================================

func postJSON(t *testing.T, h http.Handler, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func issueBody(client string) IssueRequest {
	return IssueRequest{
		Client: engine.Client{Name: client},
		Items: []IssueItemRequest{{
			Description: "Torta tres leches",
			Quantity:    engine.MustDecimal("3"),
			UnitPrice:   engine.MustDecimal("10.00"),
		}},
		Currency:    string(engine.CurrencySoles),
		TaxIncluded: true,
	}
}

func TestIssueQuotation(t *testing.T) {
	// GIVEN: a valid issue request with no explicit tax rate
	// THEN: 201 with the default rate applied and the record in history

	h, mem, _ := setup(t)

	rec := postJSON(t, h, "/api/quotations", issueBody("Café Central"))
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	dto := decode[RecordDTO](t, rec)
	assert.Regexp(t, `^COT-\d{4}-00001$`, dto.Number)
	assert.Equal(t, "ISSUED", dto.Status)
	assert.True(t, engine.MustDecimal("35.40").Equal(dto.Total))
	assert.Equal(t, fmt.Sprintf("out/%s.pdf", dto.Number), dto.Document)

	all, err := mem.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIssueQuotation_ValidationError(t *testing.T) {
	h, mem, _ := setup(t)

	rec := postJSON(t, h, "/api/quotations", issueBody(""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[map[string]string](t, rec)
	assert.Contains(t, body["error"], "client.name")

	all, _ := mem.All(context.Background())
	assert.Empty(t, all)
}

func TestIssueQuotation_RevisionFlow(t *testing.T) {
	h, _, _ := setup(t)

	first := decode[RecordDTO](t, postJSON(t, h, "/api/quotations", issueBody("Café Central")))

	// The revision draft comes back prefilled and re-submits as v2.
	rec := get(t, h, "/api/quotations/"+first.Number+"/revision")
	require.Equal(t, http.StatusOK, rec.Code)
	draft := decode[IssueRequest](t, rec)
	assert.Equal(t, first.Number, draft.ReviseNumber)
	assert.Equal(t, "Café Central", draft.Client.Name)
	require.Len(t, draft.Items, 1)

	second := postJSON(t, h, "/api/quotations", draft)
	require.Equal(t, http.StatusCreated, second.Code, "body: %s", second.Body.String())
	dto := decode[RecordDTO](t, second)
	assert.Equal(t, first.Number, dto.Number)
	assert.Equal(t, 2, dto.Version)

	lineage := decode[[]RecordDTO](t, get(t, h, "/api/history/"+first.Number))
	require.Len(t, lineage, 2)
	assert.Equal(t, "SUPERSEDED", lineage[0].Status)
	assert.Equal(t, "ISSUED", lineage[1].Status)
}

func TestGetRevisionDraft_UnknownNumber(t *testing.T) {
	h, _, _ := setup(t)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/quotations/COT-2025-00099/revision").Code)
}
