/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario sets up the expected state:
	- Accounts, outgoings and funds are created
	- The pay cycle is stored
	- Allocations are recomputed for the current period

The clock is pinned to testToday so dates relative to today are stable.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
)

func TestScenarios_AllocationsPerScenario(t *testing.T) {
	tests := []struct {
		id         string
		period     budget.Period
		allocated  map[budget.AccountID]string
		remainder  string
		shortfalls map[budget.AccountID]string
	}{
		{
			// Rent and streaming roll to March but stay visible.
			id:     "monthly-salary",
			period: budget.Period{Start: budget.MustParseDate("2024-01-28"), End: budget.MustParseDate("2024-02-27")},
			allocated: map[budget.AccountID]string{
				"acc-bills":   "1285.50",
				"acc-fun":     "15.99",
				"acc-savings": "200.00",
			},
			remainder: "898.51",
		},
		{
			id:     "weekly-wages",
			period: budget.Period{Start: budget.MustParseDate("2024-02-09"), End: budget.MustParseDate("2024-02-15")},
			allocated: map[budget.AccountID]string{
				"acc-food":      "95.00",
				"acc-transport": "100.00",
			},
			remainder: "260.00",
		},
		{
			// 900 over six biweekly installments, one of which is in this period.
			id:     "payment-plan",
			period: budget.Period{Start: budget.MustParseDate("2024-02-07"), End: budget.MustParseDate("2024-02-20")},
			allocated: map[budget.AccountID]string{
				"acc-car":  "150.00",
				"acc-home": "60.00",
			},
			remainder: "890.00",
		},
		{
			id:     "shortfall",
			period: budget.Period{Start: budget.MustParseDate("2024-01-28"), End: budget.MustParseDate("2024-02-27")},
			allocated: map[budget.AccountID]string{
				"acc-housing":   "1500.00",
				"acc-utilities": "50.00",
			},
			remainder: "0.00",
			shortfalls: map[budget.AccountID]string{
				"acc-utilities": "70.00",
				"acc-leisure":   "45.00",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			h := setupTestHandler(t)
			ctx := context.Background()

			require.NoError(t, h.ApplyScenario(ctx, tt.id))

			allocations, err := h.Store.ListAllocations(ctx)
			require.NoError(t, err)
			got := make(map[budget.AccountID]string, len(allocations))
			for _, a := range allocations {
				got[a.AccountID] = a.Amount.String()
			}
			assert.Equal(t, tt.allocated, got)

			state, err := budget.LoadState(ctx, h.Store)
			require.NoError(t, err)
			derived := budget.Recompute(state, testToday, budget.RecomputeOptions{})
			assert.Equal(t, tt.period, derived.Period)
			assert.Equal(t, tt.remainder, derived.Remainder.String())

			for _, s := range derived.Accounts {
				want, ok := tt.shortfalls[s.AccountID]
				if !ok {
					want = "0.00"
				}
				assert.Equal(t, want, s.Shortfall.String(), s.AccountID)
			}
		})
	}
}

func TestScenario_PaymentPlanInstallments(t *testing.T) {
	h := setupTestHandler(t)
	c := newTestClient(t, h)
	require.NoError(t, h.ApplyScenario(context.Background(), "payment-plan"))

	var resp OccurrencesResponse
	require.Equal(t, http.StatusOK,
		c.do(http.MethodGet, "/api/outgoings/out-insurance/occurrences?start=2024-02-01&end=2024-04-30", nil, &resp))
	require.Len(t, resp.Occurrences, 6)
	assert.Equal(t, "Installment 1 of 6", resp.Occurrences[0].Label)
	assert.Equal(t, budget.MustParseDate("2024-04-17"), resp.Occurrences[5].Date)
	assert.Equal(t, "900.00", resp.Total.String())
}

func TestScenarios_HTTP(t *testing.T) {
	c := newTestClient(t, setupTestHandler(t))

	var list []ScenarioDTO
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/scenarios", nil, &list))
	assert.Len(t, list, len(Scenarios()))

	var errResp ErrorResponse
	assert.Equal(t, http.StatusBadRequest,
		c.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "lottery-win"}, &errResp))
	assert.Equal(t, "Unknown scenario", errResp.Error)

	require.Equal(t, http.StatusOK,
		c.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "shortfall"}, nil))

	var current ScenarioDTO
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/scenarios/current", nil, &current))
	assert.Equal(t, "shortfall", current.ID)

	// Loading again replaces rather than appends.
	require.Equal(t, http.StatusOK,
		c.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "shortfall"}, nil))
	var accounts []budget.Account
	c.do(http.MethodGet, "/api/accounts", nil, &accounts)
	assert.Len(t, accounts, 3)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/scenarios/reset", nil, nil))
	c.do(http.MethodGet, "/api/accounts", nil, &accounts)
	assert.Empty(t, accounts)

	var cleared *ScenarioDTO
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/scenarios/current", nil, &cleared))
	assert.Nil(t, cleared)
}
