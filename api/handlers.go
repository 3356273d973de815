/*
handlers.go - HTTP API handlers for the church treasury

PURPOSE:
  Exposes the treasury Service over REST. Handlers parse the request,
  call exactly one Service operation and serialize the result. No domain
  math happens here.

ENDPOINTS:
  Records:
    GET    /api/receipts                 List receipts
    POST   /api/receipts                 Add receipt
    DELETE /api/receipts/{id}            Delete receipt (no-op if missing)
    POST   /api/receipts/delete          Bulk delete
    (same four for /api/expenses)
    GET    /api/history?start&end&kind   Merged movement history

  Balances:
    GET    /api/balances/{period}        Resolved opening balance
    PUT    /api/balances/{period}        Set manual opening balance

  Reconciliation:
    GET    /api/reconciliation?start&end Live aggregation
    GET    /api/summary/{period}         One calendar month

  Arqueos:
    GET    /api/arqueos                  List, newest range first
    POST   /api/arqueos                  Reconcile and save
    GET    /api/arqueos/suggest?today    Next range to reconcile
    GET    /api/arqueos/{id}             Get one
    DELETE /api/arqueos/{id}             Delete (no-op if missing)
    GET    /api/arqueos/{id}/export      Rebuild for export (+?format=text)

  Reports:
    GET    /api/reports/annual/{year}    Annual summary (+?format=text)
    GET    /api/reports/period?start&end Period report (+?format=text)

  Config:
    GET    /api/config
    PUT    /api/config

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Arqueo not found
  - 422: Stored data breaks an engine invariant
  - 500: Persistence and internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/treasury-engine/logger"
	"github.com/warp/treasury-engine/report"
	"github.com/warp/treasury-engine/treasury"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *treasury.Service
	Formatter report.Formatter

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the given service.
func NewHandler(svc *treasury.Service, f report.Formatter) *Handler {
	return &Handler{Service: svc, Formatter: f}
}

// =============================================================================
// RECEIPTS & EXPENSES
// =============================================================================

// ListReceipts returns every receipt.
// GET /api/receipts
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Receipts())
}

// CreateReceipt adds a receipt.
// POST /api/receipts
func (h *Handler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var in treasury.ReceiptInput
	if !decodeBody(w, r, &in) {
		return
	}
	rec, err := h.Service.AddReceipt(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// DeleteReceipt removes one receipt.
// DELETE /api/receipts/{id}
func (h *Handler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.DeleteReceipts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: n})
}

// DeleteReceipts removes several receipts in one write.
// POST /api/receipts/delete
func (h *Handler) DeleteReceipts(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.Service.DeleteReceipts(r.Context(), req.IDs...)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: n})
}

// GET /api/expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Expenses())
}

// POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var in treasury.ExpenseInput
	if !decodeBody(w, r, &in) {
		return
	}
	e, err := h.Service.AddExpense(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// DELETE /api/expenses/{id}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.DeleteExpenses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: n})
}

// POST /api/expenses/delete
func (h *Handler) DeleteExpenses(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.Service.DeleteExpenses(r.Context(), req.IDs...)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: n})
}

// GetHistory returns receipts and expenses newest first. start and end are
// optional but must come together.
// GET /api/history?start=YYYY-MM-DD&end=YYYY-MM-DD&kind=receipt|expense
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := treasury.HistoryFilter{Kind: treasury.EntryKind(q.Get("kind"))}
	if f.Kind != "" && f.Kind != treasury.EntryReceipt && f.Kind != treasury.EntryExpense {
		writeError(w, http.StatusBadRequest, "Invalid kind", fmt.Errorf("unknown kind %q", f.Kind))
		return
	}
	if q.Get("start") != "" || q.Get("end") != "" {
		rng, err := treasury.NewDateRange(q.Get("start"), q.Get("end"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		f.Range = &rng
	}
	entries, err := h.Service.History(f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// =============================================================================
// BALANCES & RECONCILIATION
// =============================================================================

// GetBalance returns the resolved opening balance of a period.
// GET /api/balances/{period}
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.OpeningBalance(treasury.Month(chi.URLParam(r, "period")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// SetBalance stores a manual opening balance.
// PUT /api/balances/{period}
func (h *Handler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req BalanceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := h.Service.SetOpeningBalance(r.Context(), treasury.BalanceInput{
		Period:         chi.URLParam(r, "period"),
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GET /api/reconciliation?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	rng, err := queryRange(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rec, err := h.Service.Reconcile(rng)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GET /api/summary/{period}
func (h *Handler) GetMonthSummary(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.MonthSummary(treasury.Month(chi.URLParam(r, "period")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// =============================================================================
// ARQUEOS
// =============================================================================

// GET /api/arqueos
func (h *Handler) ListArqueos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Arqueos())
}

// CreateArqueo reconciles the range over current records and saves it.
// POST /api/arqueos
func (h *Handler) CreateArqueo(w http.ResponseWriter, r *http.Request) {
	var req SaveArqueoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rng, err := treasury.NewDateRange(req.StartDate, req.EndDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	a, err := h.Service.SaveArqueo(r.Context(), rng, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GET /api/arqueos/suggest?today=YYYY-MM-DD
func (h *Handler) SuggestRange(w http.ResponseWriter, r *http.Request) {
	rng, err := h.Service.SuggestRange(treasury.Date(r.URL.Query().Get("today")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rng)
}

// GET /api/arqueos/{id}
func (h *Handler) GetArqueo(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Arqueo(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DELETE /api/arqueos/{id}
func (h *Handler) DeleteArqueo(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteArqueo(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportArqueo rebuilds a saved arqueo for export.
// GET /api/arqueos/{id}/export?format=text
func (h *Handler) ExportArqueo(w http.ResponseWriter, r *http.Request) {
	exp, err := h.Service.ExportArqueo(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	doc := report.Export(exp, h.Service.ChurchConfig().Name, h.Formatter)
	if wantsText(r) {
		writeText(w, r, doc)
		return
	}
	writeJSON(w, http.StatusOK, ExportResponse{Export: exp, Document: doc})
}

// =============================================================================
// REPORTS
// =============================================================================

// GET /api/reports/annual/{year}?format=text
func (h *Handler) GetAnnualReport(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	sum, err := h.Service.AnnualSummary(year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if wantsText(r) {
		writeText(w, r, report.Annual(sum, h.Service.ChurchConfig().Name, h.Formatter))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /api/reports/period?start=YYYY-MM-DD&end=YYYY-MM-DD&format=text
func (h *Handler) GetPeriodReport(w http.ResponseWriter, r *http.Request) {
	rng, err := queryRange(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rec, err := h.Service.Reconcile(rng)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	doc := report.Reconciliation(rec, h.Service.ChurchConfig().Name, h.Formatter)
	if wantsText(r) {
		writeText(w, r, doc)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// =============================================================================
// CONFIG
// =============================================================================

// GET /api/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.ChurchConfig())
}

// PUT /api/config
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg treasury.ChurchConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	out, err := h.Service.SetChurchConfig(r.Context(), cfg)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// HELPERS
// =============================================================================

func queryRange(r *http.Request) (treasury.DateRange, error) {
	q := r.URL.Query()
	return treasury.NewDateRange(q.Get("start"), q.Get("end"))
}

func wantsText(r *http.Request) bool {
	return r.URL.Query().Get("format") == "text"
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeText(w http.ResponseWriter, r *http.Request, doc report.Document) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := doc.WriteText(w); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("write report")
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps treasury errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case treasury.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case treasury.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case treasury.IsConsistency(err):
		logEvent(r, zerolog.WarnLevel, err, "inconsistent data")
		writeError(w, http.StatusUnprocessableEntity, "Inconsistent data", err)
	case treasury.IsPersistence(err):
		logEvent(r, zerolog.ErrorLevel, err, "persistence failed")
		writeError(w, http.StatusInternalServerError, "Failed to save", err)
	default:
		logEvent(r, zerolog.ErrorLevel, err, "internal error")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func logEvent(r *http.Request, level zerolog.Level, err error, msg string) {
	log := logger.FromContext(r.Context())
	log.WithLevel(level).Err(err).Str(logger.FieldPath, r.URL.Path).Msg(msg)
}
