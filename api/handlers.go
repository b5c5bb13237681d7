/*
handlers.go - HTTP API handlers for the budgeting engine

PURPOSE:
  Exposes records and derived figures as JSON. The Handler is the
  application state layer: it owns the Store, applies whole-record
  mutations, and calls budget.Recompute after each one so the stored
  allocations always match the current records.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                     List accounts (allocation order)
    POST   /api/accounts                     Create account
    GET    /api/accounts/{id}                Get account
    PUT    /api/accounts/{id}                Replace account
    DELETE /api/accounts/{id}                Delete account (409 while in use)

  Outgoings:
    GET    /api/outgoings                    List outgoings
    POST   /api/outgoings                    Create outgoing
    GET    /api/outgoings/{id}               Get outgoing
    PUT    /api/outgoings/{id}               Replace outgoing
    DELETE /api/outgoings/{id}               Delete outgoing
    GET    /api/outgoings/{id}/occurrences   Occurrences in ?start=&end= (default: pay period)

  Funds:
    GET    /api/funds                        Sources and total
    POST   /api/funds                        Add source
    PUT    /api/funds/{id}                   Update source
    DELETE /api/funds/{id}                   Delete source
    POST   /api/funds/reset                  Reset to a single zero source

  Settings:
    GET/PUT /api/pay-cycle                   Pay cycle
    GET     /api/pay-period?at=YYYY-MM-DD    Pay period containing a date
    GET/PUT /api/currency                    Currency code

  Derived:
    GET    /api/allocations                  Latest allocation run
    POST   /api/allocations/recompute        Recompute and replace allocations
    GET    /api/summary                      Full derived state for today

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Account still referenced by outgoings
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store budget.Store

	// Allocator distributes funds on every recompute.
	Allocator budget.Allocator

	// PlanPolicy decides which payment plans are accepted. Nil accepts all.
	PlanPolicy budget.PlanEligibility

	// StrictPayCycle refuses weekly/biweekly cycles without a last pay date.
	StrictPayCycle bool

	// Clock returns today's date. Defaults to budget.Today.
	Clock func() budget.Date

	Log zerolog.Logger

	// mu serializes mutations so each recompute sees a consistent State.
	mu sync.Mutex

	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store budget.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		Store:      store,
		PlanPolicy: budget.DefaultPlanEligibility,
		Clock:      budget.Today,
		Log:        logger,
	}
}

func (h *Handler) today() budget.Date {
	if h.Clock == nil {
		return budget.Today()
	}
	return h.Clock()
}

// Recompute reloads the state, derives the current pay period and
// replaces the stored allocations. Callers hold h.mu or call it from a
// single goroutine.
func (h *Handler) Recompute(ctx context.Context) (budget.Derived, error) {
	state, err := budget.LoadState(ctx, h.Store)
	if err != nil {
		return budget.Derived{}, err
	}
	derived := budget.Recompute(state, h.today(), budget.RecomputeOptions{Allocator: h.Allocator})
	if err := h.Store.ReplaceAllocations(ctx, derived.Allocations); err != nil {
		return budget.Derived{}, err
	}
	h.Log.Debug().
		Str("period", derived.Period.String()).
		Str("total_funds", derived.TotalFunds.String()).
		Str("total_required", derived.TotalRequired.String()).
		Int("allocations", len(derived.Allocations)).
		Msg("recomputed allocations")
	return derived, nil
}

// mutate runs fn under the write lock and recomputes afterwards. Once fn
// has succeeded the write is durable, so a failed recompute is logged and
// left to the next mutation or period check instead of failing the request.
func (h *Handler) mutate(ctx context.Context, fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := fn(); err != nil {
		return err
	}
	if _, err := h.Recompute(ctx); err != nil {
		h.Log.Error().Err(err).Msg("write saved but recompute failed")
	}
	return nil
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccounts(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list accounts", err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetAccount returns a single account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.Store.GetAccount(r.Context(), budget.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeStoreError(w, r, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// CreateAccount creates an account. A missing id is generated.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var account budget.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if account.ID == "" {
		account.ID = budget.AccountID(uuid.NewString())
	}
	h.saveAccount(w, r, account, http.StatusCreated)
}

// UpdateAccount replaces an existing account.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := budget.AccountID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetAccount(r.Context(), id); err != nil {
		h.writeStoreError(w, r, "Failed to get account", err)
		return
	}

	var account budget.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	account.ID = id
	h.saveAccount(w, r, account, http.StatusOK)
}

func (h *Handler) saveAccount(w http.ResponseWriter, r *http.Request, account budget.Account, status int) {
	account.Name = strings.TrimSpace(account.Name)
	if account.Name == "" {
		writeError(w, http.StatusBadRequest, "Account name is required", nil)
		return
	}
	err := h.mutate(r.Context(), func() error {
		return h.Store.SaveAccount(r.Context(), account)
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to save account", err)
		return
	}
	writeJSON(w, status, account)
}

// DeleteAccount deletes an account no outgoing references.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := budget.AccountID(chi.URLParam(r, "id"))
	err := h.mutate(r.Context(), func() error {
		return h.Store.DeleteAccount(r.Context(), id)
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// OUTGOING HANDLERS
// =============================================================================

// ListOutgoings returns all outgoings.
func (h *Handler) ListOutgoings(w http.ResponseWriter, r *http.Request) {
	outgoings, err := h.Store.ListOutgoings(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list outgoings", err)
		return
	}
	writeJSON(w, http.StatusOK, outgoings)
}

// GetOutgoing returns a single outgoing.
func (h *Handler) GetOutgoing(w http.ResponseWriter, r *http.Request) {
	outgoing, err := h.Store.GetOutgoing(r.Context(), budget.OutgoingID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeStoreError(w, r, "Failed to get outgoing", err)
		return
	}
	writeJSON(w, http.StatusOK, outgoing)
}

// CreateOutgoing creates an outgoing. A missing id is generated.
func (h *Handler) CreateOutgoing(w http.ResponseWriter, r *http.Request) {
	var outgoing budget.Outgoing
	if err := json.NewDecoder(r.Body).Decode(&outgoing); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if outgoing.ID == "" {
		outgoing.ID = budget.OutgoingID(uuid.NewString())
	}
	h.saveOutgoing(w, r, outgoing, http.StatusCreated)
}

// UpdateOutgoing replaces an existing outgoing.
func (h *Handler) UpdateOutgoing(w http.ResponseWriter, r *http.Request) {
	id := budget.OutgoingID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetOutgoing(r.Context(), id); err != nil {
		h.writeStoreError(w, r, "Failed to get outgoing", err)
		return
	}

	var outgoing budget.Outgoing
	if err := json.NewDecoder(r.Body).Decode(&outgoing); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	outgoing.ID = id
	h.saveOutgoing(w, r, outgoing, http.StatusOK)
}

func (h *Handler) saveOutgoing(w http.ResponseWriter, r *http.Request, outgoing budget.Outgoing, status int) {
	ctx := r.Context()
	cycle, err := h.Store.GetPayCycle(ctx)
	if err != nil {
		h.writeStoreError(w, r, "Failed to load pay cycle", err)
		return
	}
	if err := budget.ValidateOutgoing(outgoing, cycle, h.PlanPolicy); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid outgoing", err)
		return
	}

	err = h.mutate(ctx, func() error {
		return h.Store.SaveOutgoing(ctx, outgoing)
	})
	if err != nil {
		if errors.Is(err, budget.ErrAccountNotFound) {
			writeError(w, http.StatusBadRequest, "Unknown account", err)
			return
		}
		h.writeStoreError(w, r, "Failed to save outgoing", err)
		return
	}
	writeJSON(w, status, outgoing)
}

// DeleteOutgoing deletes an outgoing.
func (h *Handler) DeleteOutgoing(w http.ResponseWriter, r *http.Request) {
	id := budget.OutgoingID(chi.URLParam(r, "id"))
	err := h.mutate(r.Context(), func() error {
		return h.Store.DeleteOutgoing(r.Context(), id)
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to delete outgoing", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOccurrences expands one outgoing over a window.
// GET /api/outgoings/{id}/occurrences?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) GetOccurrences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	outgoing, err := h.Store.GetOutgoing(ctx, budget.OutgoingID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeStoreError(w, r, "Failed to get outgoing", err)
		return
	}

	today := h.today()
	cycle, err := h.Store.GetPayCycle(ctx)
	if err != nil {
		h.writeStoreError(w, r, "Failed to load pay cycle", err)
		return
	}
	window := cycle.PeriodFor(today)

	if s := r.URL.Query().Get("start"); s != "" {
		if window.Start, err = budget.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start date", err)
			return
		}
	}
	if s := r.URL.Query().Get("end"); s != "" {
		if window.End, err = budget.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end date", err)
			return
		}
	}
	if window.End.Before(window.Start) {
		writeError(w, http.StatusBadRequest, "End date is before start date", nil)
		return
	}

	occurrences := budget.Expander{Today: today}.Expand(outgoing, window)
	if occurrences == nil {
		occurrences = []budget.Occurrence{}
	}
	total := budget.Zero
	for _, o := range occurrences {
		total = total.Add(o.Amount)
	}
	writeJSON(w, http.StatusOK, OccurrencesResponse{
		OutgoingID:  outgoing.ID,
		Period:      window,
		Occurrences: occurrences,
		Total:       total,
	})
}

// =============================================================================
// FUND HANDLERS
// =============================================================================

// GetFunds returns the fund sources and their total.
func (h *Handler) GetFunds(w http.ResponseWriter, r *http.Request) {
	sources, err := h.Store.ListFundSources(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list fund sources", err)
		return
	}
	writeJSON(w, http.StatusOK, fundsResponse(budget.NewFundLedger(sources)))
}

// AddFundSource appends a source.
func (h *Handler) AddFundSource(w http.ResponseWriter, r *http.Request) {
	var req FundSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var added budget.FundSource
	err := h.withLedger(r.Context(), func(l *budget.FundLedger) error {
		added = l.Add(deref(req.Name), amountOf(req.Amount))
		return nil
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to add fund source", err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

// UpdateFundSource replaces a source's amount and, if given, its name.
func (h *Handler) UpdateFundSource(w http.ResponseWriter, r *http.Request) {
	var req FundSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := budget.FundSourceID(chi.URLParam(r, "id"))
	var ledger *budget.FundLedger
	err := h.withLedger(r.Context(), func(l *budget.FundLedger) error {
		ledger = l
		if req.Amount != nil {
			if err := l.Update(id, amountOf(req.Amount)); err != nil {
				return err
			}
		}
		if req.Name != nil {
			return l.Rename(id, *req.Name)
		}
		return nil
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to update fund source", err)
		return
	}
	writeJSON(w, http.StatusOK, fundsResponse(ledger))
}

// DeleteFundSource removes a source.
func (h *Handler) DeleteFundSource(w http.ResponseWriter, r *http.Request) {
	id := budget.FundSourceID(chi.URLParam(r, "id"))
	err := h.withLedger(r.Context(), func(l *budget.FundLedger) error {
		return l.Delete(id)
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to delete fund source", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetFunds leaves a single zero-amount source.
func (h *Handler) ResetFunds(w http.ResponseWriter, r *http.Request) {
	var id budget.FundSourceID
	err := h.withLedger(r.Context(), func(l *budget.FundLedger) error {
		id = l.ResetAll()
		return nil
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to reset funds", err)
		return
	}
	writeJSON(w, http.StatusOK, ResetFundsResponse{ID: id, Total: budget.Zero})
}

// withLedger loads the ledger, applies fn and stores the whole ledger.
func (h *Handler) withLedger(ctx context.Context, fn func(*budget.FundLedger) error) error {
	return h.mutate(ctx, func() error {
		sources, err := h.Store.ListFundSources(ctx)
		if err != nil {
			return err
		}
		ledger := budget.NewFundLedger(sources)
		if err := fn(ledger); err != nil {
			return err
		}
		return h.Store.ReplaceFundSources(ctx, ledger.Sources())
	})
}

func fundsResponse(l *budget.FundLedger) FundsResponse {
	return FundsResponse{Sources: l.Sources(), Total: l.Total()}
}

func amountOf(f *float64) budget.Money {
	if f == nil {
		return budget.Zero
	}
	return budget.MoneyFromFloat(*f)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetPayCycle returns the pay cycle (default when unset).
func (h *Handler) GetPayCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.Store.GetPayCycle(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to load pay cycle", err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

// UpdatePayCycle replaces the pay cycle.
func (h *Handler) UpdatePayCycle(w http.ResponseWriter, r *http.Request) {
	var cycle budget.PayCycle
	if err := json.NewDecoder(r.Body).Decode(&cycle); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cycle = cycle.Normalize()

	if err := cycle.Validate(); err != nil {
		if !errors.Is(err, budget.ErrMissingLastPayDate) || h.StrictPayCycle {
			writeError(w, http.StatusBadRequest, "Invalid pay cycle", err)
			return
		}
		hlog.FromRequest(r).Warn().Err(err).Msg("pay cycle saved without last pay date, periods use the monthly rule")
	}

	err := h.mutate(r.Context(), func() error {
		return h.Store.SavePayCycle(r.Context(), cycle)
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to save pay cycle", err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

// GetPayPeriod returns the pay period containing ?at= (default today).
func (h *Handler) GetPayPeriod(w http.ResponseWriter, r *http.Request) {
	at := h.today()
	if s := r.URL.Query().Get("at"); s != "" {
		parsed, err := budget.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		at = parsed
	}

	cycle, err := h.Store.GetPayCycle(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to load pay cycle", err)
		return
	}
	period := cycle.PeriodFor(at)
	writeJSON(w, http.StatusOK, PayPeriodResponse{
		PayCycle: cycle,
		At:       at,
		Period:   period,
		Next:     cycle.NextPeriod(period),
		Days:     period.Length(),
		Fallback: errors.Is(cycle.Validate(), budget.ErrMissingLastPayDate),
	})
}

// GetCurrency returns the currency code.
func (h *Handler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	code, err := h.Store.GetCurrency(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to load currency", err)
		return
	}
	writeJSON(w, http.StatusOK, CurrencyDTO{Code: code})
}

// UpdateCurrency replaces the currency code.
func (h *Handler) UpdateCurrency(w http.ResponseWriter, r *http.Request) {
	var req CurrencyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if len(code) != 3 {
		writeError(w, http.StatusBadRequest, "Currency must be a 3-letter code", nil)
		return
	}
	err := h.mutate(r.Context(), func() error {
		return h.Store.SaveCurrency(r.Context(), code)
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to save currency", err)
		return
	}
	writeJSON(w, http.StatusOK, CurrencyDTO{Code: code})
}

// =============================================================================
// DERIVED STATE HANDLERS
// =============================================================================

// ListAllocations returns the latest allocation run.
func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := h.Store.ListAllocations(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "Failed to list allocations", err)
		return
	}
	writeJSON(w, http.StatusOK, allocations)
}

// RecomputeAllocations recomputes and replaces the allocations.
func (h *Handler) RecomputeAllocations(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	derived, err := h.Recompute(r.Context())
	h.mu.Unlock()
	if err != nil {
		h.writeStoreError(w, r, "Failed to recompute allocations", err)
		return
	}
	writeJSON(w, http.StatusOK, derived.Allocations)
}

// GetSummary returns the full derived state without writing anything.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	state, err := budget.LoadState(r.Context(), h.Store)
	if err != nil {
		h.writeStoreError(w, r, "Failed to load state", err)
		return
	}
	derived := budget.Recompute(state, h.today(), budget.RecomputeOptions{Allocator: h.Allocator})
	writeJSON(w, http.StatusOK, derived)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStoreError maps budget errors to HTTP statuses.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case budget.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case budget.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case budget.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
