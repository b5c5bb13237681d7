/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. zerolog:    Request-scoped logger, request ID, access log
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/accounts/*       Accounts
  /api/outgoings/*      Outgoings and their occurrences
  /api/funds/*          Fund sources
  /api/pay-cycle        Pay cycle settings
  /api/pay-period       Pay period lookup
  /api/currency         Currency setting
  /api/allocations/*    Allocation runs
  /api/summary          Derived state
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. The server is meant for a single user on
  a trusted machine.

SEE ALSO:
  - handlers.go: Handler implementations
  - cli/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/budget-engine/logging"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(logging.Middleware(h.Log)...)
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
		})

		r.Route("/outgoings", func(r chi.Router) {
			r.Get("/", h.ListOutgoings)
			r.Post("/", h.CreateOutgoing)
			r.Get("/{id}", h.GetOutgoing)
			r.Put("/{id}", h.UpdateOutgoing)
			r.Delete("/{id}", h.DeleteOutgoing)
			r.Get("/{id}/occurrences", h.GetOccurrences)
		})

		r.Route("/funds", func(r chi.Router) {
			r.Get("/", h.GetFunds)
			r.Post("/", h.AddFundSource)
			r.Post("/reset", h.ResetFunds)
			r.Put("/{id}", h.UpdateFundSource)
			r.Delete("/{id}", h.DeleteFundSource)
		})

		r.Get("/pay-cycle", h.GetPayCycle)
		r.Put("/pay-cycle", h.UpdatePayCycle)
		r.Get("/pay-period", h.GetPayPeriod)
		r.Get("/currency", h.GetCurrency)
		r.Put("/currency", h.UpdateCurrency)

		r.Route("/allocations", func(r chi.Router) {
			r.Get("/", h.ListAllocations)
			r.Post("/recompute", h.RecomputeAllocations)
		})
		r.Get("/summary", h.GetSummary)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
