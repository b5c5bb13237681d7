/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	budgets. Each scenario creates accounts, outgoings, fund sources and a
	pay cycle that show off one part of the engine.

AVAILABLE SCENARIOS:

	monthly-salary:  Paid on the 28th, rent, utilities and subscriptions
	weekly-wages:    Weekly pay, weekly groceries, a custom 2-week bill
	payment-plan:    A large annual bill split into biweekly installments
	shortfall:       Fewer funds than required, shows greedy allocation order

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Save the pay cycle
 3. Create accounts in allocation order
 4. Create outgoings, dated relative to today
 5. Replace fund sources
 6. Recompute allocations

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "payment-plan"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler.Recompute
  - cli/scenarios.go: the same loaders from the command line
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	load func(h *Handler, ctx context.Context) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "monthly-salary",
			Name:        "Monthly Salary",
			Description: "Paid on the 28th: rent, electricity, streaming and savings",
		},
		load: (*Handler).loadMonthlySalaryScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "weekly-wages",
			Name:        "Weekly Wages",
			Description: "Weekly pay with weekly groceries and a bill every 2 weeks",
		},
		load: (*Handler).loadWeeklyWagesScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "payment-plan",
			Name:        "Payment Plan",
			Description: "Annual car insurance split into biweekly installments before the due date",
		},
		load: (*Handler).loadPaymentPlanScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "shortfall",
			Name:        "Shortfall",
			Description: "Funds cover only the first accounts; later ones go short",
		},
		load: (*Handler).loadShortfallScenario,
	},
}

// Scenarios returns the available scenarios.
func Scenarios() []ScenarioDTO {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.ScenarioDTO
	}
	return out
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Scenarios())
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s.ScenarioDTO)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.ApplyScenario(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, ErrUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears every record.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	err := h.mutate(r.Context(), func() error {
		h.currentScenario = ""
		return h.Store.Reset(r.Context())
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// ErrUnknownScenario is returned by ApplyScenario for an unlisted ID.
var ErrUnknownScenario = errors.New("unknown scenario")

// ApplyScenario resets the store, loads the scenario and recomputes.
func (h *Handler) ApplyScenario(ctx context.Context, id string) error {
	var found *scenario
	for i := range scenarios {
		if scenarios[i].ID == id {
			found = &scenarios[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}

	return h.mutate(ctx, func() error {
		h.currentScenario = ""
		if err := h.Store.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		if err := found.load(h, ctx); err != nil {
			return err
		}
		h.currentScenario = id
		h.Log.Info().Str("scenario", id).Msg("scenario loaded")
		return nil
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type scenarioData struct {
	cycle     budget.PayCycle
	accounts  []budget.Account
	outgoings []budget.Outgoing
	funds     []budget.FundSource
}

func (h *Handler) saveScenario(ctx context.Context, d scenarioData) error {
	if err := h.Store.SavePayCycle(ctx, d.cycle); err != nil {
		return err
	}
	for _, a := range d.accounts {
		if err := h.Store.SaveAccount(ctx, a); err != nil {
			return fmt.Errorf("account %s: %w", a.ID, err)
		}
	}
	for _, o := range d.outgoings {
		if err := budget.ValidateOutgoing(o, d.cycle, h.PlanPolicy); err != nil {
			return fmt.Errorf("outgoing %s: %w", o.ID, err)
		}
		if err := h.Store.SaveOutgoing(ctx, o); err != nil {
			return fmt.Errorf("outgoing %s: %w", o.ID, err)
		}
	}
	return h.Store.ReplaceFundSources(ctx, d.funds)
}

// onDay returns the next date on or after today with the given day of month.
func onDay(today budget.Date, day int) budget.Date {
	d := budget.NewDate(today.Year(), today.Month(), day)
	if d.Before(today) {
		d = d.AddMonths(1)
	}
	return d
}

func (h *Handler) loadMonthlySalaryScenario(ctx context.Context) error {
	today := h.today()
	return h.saveScenario(ctx, scenarioData{
		cycle: budget.PayCycle{Frequency: budget.PayMonthly, DayOfMonth: 28},
		accounts: []budget.Account{
			{ID: "acc-bills", Name: "Bills", Color: "#2563eb"},
			{ID: "acc-fun", Name: "Fun", Description: "Streaming and eating out", Color: "#f59e0b"},
			{ID: "acc-savings", Name: "Savings", Color: "#16a34a"},
		},
		outgoings: []budget.Outgoing{
			{
				ID: "out-rent", Name: "Rent", AccountID: "acc-bills",
				Amount: budget.MustParseMoney("1200"), DueDate: onDay(today, 1),
				Recurrence: budget.Every(budget.CadenceMonthly),
			},
			{
				ID: "out-power", Name: "Electricity", AccountID: "acc-bills",
				Amount: budget.MustParseMoney("85.50"), DueDate: onDay(today, 15),
				Recurrence: budget.Every(budget.CadenceMonthly),
			},
			{
				ID: "out-streaming", Name: "Streaming", AccountID: "acc-fun",
				Amount: budget.MustParseMoney("15.99"), DueDate: onDay(today, 5),
				Recurrence: budget.Every(budget.CadenceMonthly),
			},
			{
				ID: "out-emergency", Name: "Emergency fund", AccountID: "acc-savings",
				Amount: budget.MustParseMoney("200"), DueDate: onDay(today, 28),
				Recurrence: budget.Every(budget.CadenceMonthly),
			},
		},
		funds: []budget.FundSource{
			{ID: "fund-salary", Name: "Salary", Amount: budget.MustParseMoney("2400")},
		},
	})
}

func (h *Handler) loadWeeklyWagesScenario(ctx context.Context) error {
	today := h.today()
	// Paid on Fridays.
	lastPay := today.AddDays(-((int(today.Time().Weekday()) + 2) % 7))
	return h.saveScenario(ctx, scenarioData{
		cycle: budget.PayCycle{Frequency: budget.PayWeekly, LastPayDate: &lastPay},
		accounts: []budget.Account{
			{ID: "acc-food", Name: "Food", Color: "#dc2626"},
			{ID: "acc-transport", Name: "Transport", Color: "#7c3aed"},
		},
		outgoings: []budget.Outgoing{
			{
				ID: "out-groceries", Name: "Groceries", AccountID: "acc-food",
				Amount: budget.MustParseMoney("95"), DueDate: today.AddDays(2),
				Recurrence: budget.Every(budget.CadenceWeekly),
			},
			{
				ID: "out-bus", Name: "Bus pass", AccountID: "acc-transport",
				Amount: budget.MustParseMoney("40"), DueDate: today.AddDays(4),
				Recurrence: budget.CustomEvery(2, budget.UnitWeek),
			},
			{
				ID: "out-repair", Name: "Bike repair", AccountID: "acc-transport",
				Amount: budget.MustParseMoney("60"), DueDate: today.AddDays(3),
				Recurrence: budget.OneTime(),
			},
		},
		funds: []budget.FundSource{
			{ID: "fund-wages", Name: "Wages", Amount: budget.MustParseMoney("420")},
			{ID: "fund-tips", Name: "Tips", Amount: budget.MustParseMoney("35")},
		},
	})
}

func (h *Handler) loadPaymentPlanScenario(ctx context.Context) error {
	today := h.today()
	lastPay := today.AddDays(-3)
	return h.saveScenario(ctx, scenarioData{
		cycle: budget.PayCycle{Frequency: budget.PayBiweekly, LastPayDate: &lastPay},
		accounts: []budget.Account{
			{ID: "acc-car", Name: "Car", Color: "#0891b2"},
			{ID: "acc-home", Name: "Home", Color: "#2563eb"},
		},
		outgoings: []budget.Outgoing{
			{
				ID: "out-insurance", Name: "Car insurance", AccountID: "acc-car",
				Amount: budget.MustParseMoney("900"), DueDate: today.AddDays(70),
				Recurrence: budget.Every(budget.CadenceYearly),
				PaymentPlan: &budget.PaymentPlan{
					Enabled:   true,
					StartDate: today.AddDays(-3),
					Frequency: budget.PlanBiweekly,
				},
			},
			{
				ID: "out-internet", Name: "Internet", AccountID: "acc-home",
				Amount: budget.MustParseMoney("60"), DueDate: onDay(today, 20),
				Recurrence: budget.Every(budget.CadenceMonthly),
			},
		},
		funds: []budget.FundSource{
			{ID: "fund-pay", Name: "Paycheck", Amount: budget.MustParseMoney("1100")},
		},
	})
}

func (h *Handler) loadShortfallScenario(ctx context.Context) error {
	today := h.today()
	return h.saveScenario(ctx, scenarioData{
		cycle: budget.DefaultPayCycle(),
		accounts: []budget.Account{
			{ID: "acc-housing", Name: "Housing"},
			{ID: "acc-utilities", Name: "Utilities"},
			{ID: "acc-leisure", Name: "Leisure"},
		},
		outgoings: []budget.Outgoing{
			{
				ID: "out-mortgage", Name: "Mortgage", AccountID: "acc-housing",
				Amount: budget.MustParseMoney("1500"), DueDate: today.AddDays(5),
				Recurrence: budget.Every(budget.CadenceMonthly),
			},
			{
				ID: "out-water", Name: "Water", AccountID: "acc-utilities",
				Amount: budget.MustParseMoney("120"), DueDate: today.AddDays(10),
				Recurrence: budget.Every(budget.CadenceQuarterly),
			},
			{
				ID: "out-gym", Name: "Gym", AccountID: "acc-leisure",
				Amount: budget.MustParseMoney("45"), DueDate: today.AddDays(12),
				Recurrence: budget.Every(budget.CadenceMonthly),
			},
		},
		funds: []budget.FundSource{
			{ID: "fund-salary", Name: "Salary", Amount: budget.MustParseMoney("1550")},
		},
	})
}
