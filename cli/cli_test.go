package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/budget/store"
)

func TestSeedCurrency(t *testing.T) {
	ctx := context.Background()

	// GIVEN: A fresh store and a configured default
	// WHEN: Seeding
	// THEN: The default is stored, but a user's choice is never overwritten
	mem := store.NewMemory()
	require.NoError(t, seedCurrency(ctx, mem, "EUR"))
	code, _ := mem.GetCurrency(ctx)
	assert.Equal(t, "EUR", code)

	require.NoError(t, seedCurrency(ctx, mem, "GBP"))
	code, _ = mem.GetCurrency(ctx)
	assert.Equal(t, "EUR", code)

	empty := store.NewMemory()
	require.NoError(t, seedCurrency(ctx, empty, ""))
	code, _ = empty.GetCurrency(ctx)
	assert.Equal(t, budget.DefaultCurrency, code)
}

func TestDescribeCycle(t *testing.T) {
	last := budget.MustParseDate("2024-02-09")

	assert.Equal(t, "monthly on day 28", describeCycle(budget.PayCycle{}))
	assert.Equal(t, "biweekly, last paid 2024-02-09", describeCycle(budget.PayCycle{Frequency: budget.PayBiweekly, LastPayDate: &last}))
	assert.Equal(t, "weekly", describeCycle(budget.PayCycle{Frequency: budget.PayWeekly}))
}

func TestPrintSummary(t *testing.T) {
	d := budget.Derived{
		Period: budget.Period{Start: budget.MustParseDate("2024-01-28"), End: budget.MustParseDate("2024-02-27")},
		Accounts: []budget.AccountSummary{
			{AccountID: "acc-bills", Required: budget.MustParseMoney("100"), Allocated: budget.MustParseMoney("80"), Shortfall: budget.MustParseMoney("20")},
			{AccountID: "acc-orphan"},
		},
		TotalFunds:    budget.MustParseMoney("80"),
		TotalRequired: budget.MustParseMoney("100"),
		Allocated:     budget.MustParseMoney("80"),
		Currency:      "EUR",
	}

	var out bytes.Buffer
	require.NoError(t, printSummary(&out, d, []budget.Account{{ID: "acc-bills", Name: "Bills"}}))

	s := out.String()
	assert.Contains(t, s, "Pay period [2024-01-28, 2024-02-27]")
	assert.Contains(t, s, "Bills")
	assert.Contains(t, s, "acc-orphan")
	assert.Contains(t, s, "Funds:      80.00 EUR")
	assert.Contains(t, s, "Remainder:  0.00 EUR")
}
