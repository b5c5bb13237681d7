package budget_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/budget/store"
)

func sampleState() budget.State {
	rent := outgoing("rent", "2024-02-01", "1200", budget.Every(budget.CadenceMonthly))
	rent.AccountID = "bills"
	power := outgoing("power", "2024-02-15", "85.50", budget.Every(budget.CadenceMonthly))
	power.AccountID = "bills"
	streaming := outgoing("streaming", "2024-02-05", "15.99", budget.Every(budget.CadenceMonthly))
	streaming.AccountID = "fun"
	gym := outgoing("gym", "2024-02-10", "45", budget.Every(budget.CadenceMonthly))
	gym.AccountID = "fun"
	gym.IsPaused = true

	return budget.State{
		Accounts:  accounts("bills", "fun", "savings"),
		Outgoings: []budget.Outgoing{rent, power, streaming, gym},
		FundSources: []budget.FundSource{
			{ID: "salary", Amount: money("1250")},
			{ID: "refund", Amount: money("-30")},
		},
		PayCycle: budget.DefaultPayCycle(),
	}
}

func TestRecompute_DerivesPeriodRequirementsAndAllocations(t *testing.T) {
	// GIVEN: Bills needing 1285.50 and Fun needing 15.99, with 1250 available
	// WHEN: Recomputing on Feb 10 with a payday on the 28th
	// THEN: Bills takes everything and Fun goes short

	d := budget.Recompute(sampleState(), day("2024-02-10"), budget.RecomputeOptions{})

	assert.Equal(t, period("2024-01-28", "2024-02-27"), d.Period)
	assertMoney(t, "1250", d.TotalFunds)
	assertMoney(t, "1301.49", d.TotalRequired)
	assertMoney(t, "1285.50", d.Required["bills"])
	assertMoney(t, "15.99", d.Required["fun"])

	assert.Equal(t, []pair{{"bills", "1250.00"}}, pairs(d.Allocations))
	assertMoney(t, "1250", d.Allocated)
	assertMoney(t, "0", d.Remainder)

	require.Len(t, d.Accounts, 3)
	assertMoney(t, "35.50", d.Accounts[0].Shortfall)
	assertMoney(t, "15.99", d.Accounts[1].Shortfall)
	assertMoney(t, "0", d.Accounts[2].Required)

	assert.NotContains(t, d.Occurrences, budget.OutgoingID("gym"))
	assert.Len(t, d.Occurrences["rent"], 1)
	assert.Equal(t, budget.DefaultCurrency, d.Currency)
}

func TestRecompute_SurplusLeavesRemainder(t *testing.T) {
	s := sampleState()
	s.FundSources = []budget.FundSource{{ID: "salary", Amount: money("2000")}}
	s.Currency = "EUR"

	d := budget.Recompute(s, day("2024-02-10"), budget.RecomputeOptions{})

	assertMoney(t, "1301.49", d.Allocated)
	assertMoney(t, "698.51", d.Remainder)
	assert.Equal(t, "EUR", d.Currency)
	for _, a := range d.Accounts {
		assert.True(t, a.Shortfall.IsZero(), a.AccountID)
	}
}

func TestRecompute_Repeatable(t *testing.T) {
	s := sampleState()
	opts := budget.RecomputeOptions{}

	first := budget.Recompute(s, day("2024-02-10"), opts)
	second := budget.Recompute(s, day("2024-02-10"), opts)

	assert.Equal(t, pairs(first.Allocations), pairs(second.Allocations))
	assert.Equal(t, first.Period, second.Period)
}

func TestRecompute_EmptyState(t *testing.T) {
	d := budget.Recompute(budget.State{}, day("2024-02-10"), budget.RecomputeOptions{})

	assert.Empty(t, d.Allocations)
	assert.True(t, d.TotalFunds.IsZero())
	assert.Equal(t, period("2024-01-28", "2024-02-27"), d.Period)
}

func TestLoadState_FromStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	require.NoError(t, mem.SaveAccount(ctx, budget.Account{ID: "acc-1", Name: "Bills"}))
	require.NoError(t, mem.SaveOutgoing(ctx, outgoing("rent", "2024-02-01", "1200", budget.Every(budget.CadenceMonthly))))
	require.NoError(t, mem.ReplaceFundSources(ctx, []budget.FundSource{{ID: "f", Amount: money("500")}}))
	require.NoError(t, mem.SaveCurrency(ctx, "GBP"))

	s, err := budget.LoadState(ctx, mem)
	require.NoError(t, err)

	assert.Len(t, s.Accounts, 1)
	assert.Len(t, s.Outgoings, 1)
	assert.Len(t, s.FundSources, 1)
	assert.Equal(t, budget.DefaultPayCycle(), s.PayCycle)
	assert.Equal(t, "GBP", s.Currency)

	d := budget.Recompute(s, day("2024-02-10"), budget.RecomputeOptions{})
	assert.Equal(t, []pair{{"acc-1", "500.00"}}, pairs(d.Allocations))
}
