/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zerolog request logging, request logger put in context
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the treasury frontend

ROUTE GROUPS:
  /api/receipts/*       Income receipts
  /api/expenses/*       Expenses
  /api/history          Merged movements
  /api/balances/*       Opening balances
  /api/reconciliation   Live aggregation
  /api/summary/*        Monthly summary
  /api/arqueos/*        Saved reconciliations
  /api/reports/*        Printable reports
  /api/config           Church configuration
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/warp/treasury-engine/logger"
)

// DefaultOrigins are allowed when no CORS origins are configured.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, log zerolog.Logger, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger.Component(log, logger.ComponentHTTP)))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/receipts", func(r chi.Router) {
			r.Get("/", h.ListReceipts)
			r.Post("/", h.CreateReceipt)
			r.Post("/delete", h.DeleteReceipts)
			r.Delete("/{id}", h.DeleteReceipt)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Post("/delete", h.DeleteExpenses)
			r.Delete("/{id}", h.DeleteExpense)
		})

		r.Get("/history", h.GetHistory)

		r.Route("/balances", func(r chi.Router) {
			r.Get("/{period}", h.GetBalance)
			r.Put("/{period}", h.SetBalance)
		})

		r.Get("/reconciliation", h.GetReconciliation)
		r.Get("/summary/{period}", h.GetMonthSummary)

		r.Route("/arqueos", func(r chi.Router) {
			r.Get("/", h.ListArqueos)
			r.Post("/", h.CreateArqueo)
			r.Get("/suggest", h.SuggestRange)
			r.Get("/{id}", h.GetArqueo)
			r.Delete("/{id}", h.DeleteArqueo)
			r.Get("/{id}/export", h.ExportArqueo)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/annual/{year}", h.GetAnnualReport)
			r.Get("/period", h.GetPeriodReport)
		})

		r.Get("/config", h.GetConfig)
		r.Put("/config", h.UpdateConfig)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// requestLogger logs one line per request and stores a request-scoped
// logger in the context for handlers.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			reqLog := log.With().Str(logger.FieldRequestID, middleware.GetReqID(r.Context())).Logger()

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			reqLog.Info().
				Str(logger.FieldMethod, r.Method).
				Str(logger.FieldPath, r.URL.Path).
				Int(logger.FieldStatusCode, status).
				Dur(logger.FieldDuration, time.Since(start)).
				Msg("request")
		})
	}
}
