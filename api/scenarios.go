/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the treasury with realistic
  records for demos and manual testing.

AVAILABLE SCENARIOS:
  empty:          No records, church configuration kept
  january-2025:   One month with a manual opening balance
  carry-forward:  Two months, January frozen as an arqueo, February
                  opening derived from January's closing

HOW SCENARIOS WORK:
 1. Reset records (configuration is kept)
 2. Set manual opening balances
 3. Add receipts and expenses through the Service
 4. Optionally save arqueos

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "january-2025"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, svc)
 3. Add entry to 'scenarioLoaders'

NOTE:
  Scenarios reset the records. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: error mapping helpers
  - treasury/service.go: operations used to seed data
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/treasury-engine/logger"
	"github.com/warp/treasury-engine/treasury"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No records, ready for data entry",
	},
	{
		ID:          "january-2025",
		Name:        "January 2025",
		Description: "Opening balance 500, one Sunday service receipt and one expense",
	},
	{
		ID:          "carry-forward",
		Name:        "Carry Forward",
		Description: "January saved as an arqueo, February opens with January's closing",
	},
}

type scenarioLoader func(ctx context.Context, svc *treasury.Service) error

var scenarioLoaders = map[string]scenarioLoader{
	"empty":         func(context.Context, *treasury.Service) error { return nil },
	"january-2025":  loadJanuaryScenario,
	"carry-forward": loadCarryForwardScenario,
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the records and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.Service.Reset(ctx); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := load(ctx, h.Service); err != nil {
		writeServiceError(w, r, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err))
		return
	}
	h.currentScenario = req.ScenarioID

	log := logger.FromContext(ctx)
	log.Info().Str(logger.FieldOperation, logger.OpLoad).Str("scenario", req.ScenarioID).Msg("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all records.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Service.Reset(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadJanuaryScenario(ctx context.Context, svc *treasury.Service) error {
	if _, err := svc.SetOpeningBalance(ctx, treasury.BalanceInput{
		Period:         "2025-01",
		OpeningBalance: decimal.NewFromInt(500),
	}); err != nil {
		return err
	}
	if _, err := svc.AddReceipt(ctx, treasury.ReceiptInput{
		DonorName:  "Ofrenda culto dominical",
		Date:       "2025-01-15",
		Categories: map[string]decimal.Decimal{string(treasury.Cultos): decimal.NewFromInt(200)},
	}); err != nil {
		return err
	}
	_, err := svc.AddExpense(ctx, treasury.ExpenseInput{
		Date:        "2025-01-20",
		Description: "Servicio de luz",
		Amount:      decimal.NewFromInt(50),
	})
	return err
}

func loadCarryForwardScenario(ctx context.Context, svc *treasury.Service) error {
	if err := loadJanuaryScenario(ctx, svc); err != nil {
		return err
	}
	january := treasury.NewMonth(2025, 1).Range()
	if _, err := svc.SaveArqueo(ctx, january, "Arqueo de enero"); err != nil {
		return err
	}

	if _, err := svc.AddReceipt(ctx, treasury.ReceiptInput{
		DonorName: "Familia Quispe",
		Date:      "2025-02-02",
		Categories: map[string]decimal.Decimal{
			string(treasury.Diezmo):       decimal.NewFromInt(300),
			string(treasury.Pobres):       decimal.NewFromInt(100),
			string(treasury.Construccion): decimal.NewFromInt(50),
		},
	}); err != nil {
		return err
	}
	_, err := svc.AddExpense(ctx, treasury.ExpenseInput{
		Date:        "2025-02-10",
		Description: "Materiales de limpieza",
		Amount:      decimal.NewFromInt(30),
	})
	return err
}
