package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
)

func TestPeriodScheduler_RecomputesOncePerPeriod(t *testing.T) {
	// GIVEN: A budget with funds and a requirement
	// WHEN: The scheduler checks repeatedly while the clock moves
	// THEN: It recomputes only when the pay period start changes

	h := setupTestHandler(t)
	now := budget.MustParseDate("2024-02-10")
	h.Clock = func() budget.Date { return now }

	ctx := context.Background()
	require.NoError(t, h.Store.SaveAccount(ctx, budget.Account{ID: "acc-1", Name: "Bills"}))
	require.NoError(t, h.Store.SaveOutgoing(ctx, budget.Outgoing{
		ID: "rent", Name: "Rent", AccountID: "acc-1",
		Amount: budget.MustParseMoney("500"), DueDate: budget.MustParseDate("2024-02-01"),
		Recurrence: budget.Every(budget.CadenceMonthly),
	}))
	require.NoError(t, h.Store.ReplaceFundSources(ctx, []budget.FundSource{
		{ID: "pay", Amount: budget.MustParseMoney("800")},
	}))

	ps := NewPeriodScheduler(h)

	assert.True(t, ps.CheckOnce(ctx), "first check always recomputes")
	allocations, err := h.Store.ListAllocations(ctx)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, "500.00", allocations[0].Amount.String())

	now = budget.MustParseDate("2024-02-27")
	assert.False(t, ps.CheckOnce(ctx), "same period")

	// Remove the funds behind the scheduler's back; the next period
	// recompute must pick that up.
	require.NoError(t, h.Store.ReplaceFundSources(ctx, nil))
	now = budget.MustParseDate("2024-02-28")
	assert.True(t, ps.CheckOnce(ctx), "new period")

	allocations, err = h.Store.ListAllocations(ctx)
	require.NoError(t, err)
	assert.Empty(t, allocations)
}

func TestPeriodScheduler_StartStop(t *testing.T) {
	h := setupTestHandler(t)

	disabled := NewPeriodScheduler(h)
	disabled.Enabled = false
	disabled.Start()
	assert.True(t, disabled.NextRunTime().IsZero())
	disabled.Stop()

	ps := NewPeriodScheduler(h)
	ps.CheckInterval = 10 * time.Millisecond
	ps.Start()
	ps.Start()

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return !ps.lastStart.IsZero()
	}, time.Second, 5*time.Millisecond)
	assert.WithinDuration(t, time.Now().Add(ps.CheckInterval), ps.NextRunTime(), time.Second)

	ps.Stop()
	ps.Stop()
	assert.True(t, ps.NextRunTime().IsZero())
}
