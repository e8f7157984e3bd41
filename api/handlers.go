/*
handlers.go - HTTP handlers for the quotation query and issue surface

PURPOSE:
  Exposes the engine over REST. Reads (history search, statistics,
  templates, clients) delegate to the store snapshot; the single write
  operation funnels through the Issuer's depth-1 generation queue.

ENDPOINTS:
  History (read-only):
    GET  /api/history                 Filtered history (q, from, to, status)
    GET  /api/history/export          CSV export of the filtered history
    GET  /api/history/{number}        All versions of a number
  Derived views (read-only):
    GET  /api/templates               Item template index
    GET  /api/clients                 Client directory (q = suggestions)
    GET  /api/stats                   Statistics for the UI dashboard
  Quotations:
    POST /api/quotations              Issue a draft (or a revision)
    GET  /api/quotations/{number}/revision  Prefilled revision draft

ERROR HANDLING:
  Engine errors map to HTTP status by class:
  - 400: validation
  - 404: unknown number/version
  - 409: sequence conflict, generation already in flight
  - 500: persistence and layout failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumen/quotation-engine/engine"
	"github.com/lumen/quotation-engine/export"
	"github.com/lumen/quotation-engine/render/pdf"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  engine.HistoryStore
	Issuer *engine.Issuer
}

func NewHandler(store engine.HistoryStore, issuer *engine.Issuer) *Handler {
	return &Handler{Store: store, Issuer: issuer}
}

// =============================================================================
// HISTORY
// =============================================================================

// parseFilter reads q/from/to/status query parameters into an engine
// Filter. Date bounds accept the same encodings as persisted records.
func parseFilter(r *http.Request) (engine.Filter, error) {
	f := engine.Filter{
		Text:   r.URL.Query().Get("q"),
		Status: engine.Status(r.URL.Query().Get("status")),
	}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := engine.ParseRecordDate(from)
		if err != nil {
			return engine.Filter{}, &engine.ValidationError{Field: "from", Value: from, Reason: "unrecognized date"}
		}
		f.DateFrom = &t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := engine.ParseRecordDate(to)
		if err != nil {
			return engine.Filter{}, &engine.ValidationError{Field: "to", Value: to, Reason: "unrecognized date"}
		}
		f.DateTo = &t
	}
	return f, nil
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.Store.Find(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]RecordDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toRecordDTO(rec, pdf.Filename(rec.Number, rec.Version)))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.Store.Find(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="historial.csv"`)
	if err := export.HistoryCSV(w, records); err != nil {
		// Headers are gone; all we can do is log via the middleware chain.
		return
	}
}

func (h *Handler) GetLineage(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	records, err := h.Store.Find(r.Context(), engine.Filter{Text: number})
	if err != nil {
		writeError(w, err)
		return
	}
	var dtos []RecordDTO
	for _, rec := range records {
		if rec.Number == number {
			dtos = append(dtos, toRecordDTO(rec, pdf.Filename(rec.Number, rec.Version)))
		}
	}
	if len(dtos) == 0 {
		writeError(w, fmt.Errorf("%w: %s", engine.ErrRecordNotFound, number))
		return
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, engine.BuildTemplateIndex(records))
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	directory := engine.BuildClientDirectory(records)
	if q := r.URL.Query().Get("q"); q != "" {
		directory = engine.SuggestClients(directory, q)
	}
	if directory == nil {
		directory = []engine.ClientEntry{}
	}
	writeJSON(w, http.StatusOK, directory)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	stats := StatsDTO{
		Records:  len(records),
		ByStatus: make(map[string]int),
		ByYear:   make(map[string]int),
		Warnings: len(h.Store.LoadWarnings()),
	}
	counts := make(map[engine.Currency]*CurrencyStatsDTO)
	for _, rec := range records {
		stats.ByStatus[string(rec.Status)]++
		if year, _, err := engine.ParseNumber(rec.Number); err == nil {
			stats.ByYear[strconv.Itoa(year)]++
		}
		agg, ok := counts[rec.Currency]
		if !ok {
			agg = &CurrencyStatsDTO{Currency: string(rec.Currency)}
			counts[rec.Currency] = agg
		}
		agg.Count++
		agg.Total = agg.Total.Add(rec.Total)
	}
	for _, c := range []engine.Currency{engine.CurrencySoles, engine.CurrencyDollars, engine.CurrencyEuros} {
		if agg, ok := counts[c]; ok {
			stats.ByCurrency = append(stats.ByCurrency, *agg)
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

// =============================================================================
// QUOTATIONS
// =============================================================================

func (h *Handler) IssueQuotation(w http.ResponseWriter, r *http.Request) {
	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &engine.ValidationError{Field: "body", Value: "", Reason: err.Error()})
		return
	}

	done, err := h.Issuer.IssueAsync(r.Context(), req.draft())
	if err != nil {
		writeError(w, err)
		return
	}
	select {
	case res := <-done:
		if res.Err != nil {
			writeError(w, res.Err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecordDTO(res.Record, res.Location))
	case <-r.Context().Done():
		// The generation keeps running; the client just stopped waiting.
		w.WriteHeader(http.StatusAccepted)
	}
}

func (h *Handler) GetRevisionDraft(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	draft, err := h.Issuer.Allocator().RevisionDraft(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]IssueItemRequest, 0, len(draft.Items))
	for _, it := range draft.Items {
		items = append(items, IssueItemRequest{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			ImageRef:    it.ImageRef,
		})
	}
	taxRate := draft.TaxRate
	writeJSON(w, http.StatusOK, IssueRequest{
		Client:       draft.Client,
		Items:        items,
		Currency:     string(draft.Currency),
		TaxIncluded:  draft.TaxIncluded,
		TaxRate:      &taxRate,
		Discount:     draft.Discount,
		Terms:        draft.Terms,
		ReviseNumber: draft.ReviseNumber,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
	Time      string `json:"time"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrSequenceConflict), errors.Is(err, engine.ErrGenerationBusy):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrRowTooLarge):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		Retryable: engine.IsRetryable(err),
		Time:      time.Now().Format(time.RFC3339),
	})
}
