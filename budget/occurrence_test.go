package budget_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/budget"
)

func outgoing(id, due string, amount string, r budget.Recurrence) budget.Outgoing {
	return budget.Outgoing{
		ID:         budget.OutgoingID(id),
		Name:       id,
		Amount:     money(amount),
		DueDate:    day(due),
		Recurrence: r,
		AccountID:  "acc-1",
	}
}

func dates(occ []budget.Occurrence) []budget.Date {
	out := make([]budget.Date, len(occ))
	for i, o := range occ {
		out[i] = o.Date
	}
	return out
}

// =============================================================================
// RECURRING
// =============================================================================

func TestExpand_WeeklyFillsWindow(t *testing.T) {
	// GIVEN: A weekly outgoing first due Jan 1
	// WHEN: Expanding over [Jan 8, Jan 22]
	// THEN: Three occurrences at the full amount, including both ends

	o := outgoing("groceries", "2024-01-01", "95", budget.Every(budget.CadenceWeekly))
	exp := budget.Expander{Today: day("2024-01-08")}

	occ := exp.Expand(o, period("2024-01-08", "2024-01-22"))

	require.Len(t, occ, 3)
	assert.Equal(t, []budget.Date{day("2024-01-08"), day("2024-01-15"), day("2024-01-22")}, dates(occ))
	for _, x := range occ {
		assertMoney(t, "95", x.Amount)
		assert.Equal(t, budget.OutgoingID("groceries"), x.OutgoingID)
		assert.Equal(t, budget.AccountID("acc-1"), x.AccountID)
		assert.Zero(t, x.Installment)
	}
}

func TestExpand_BiweeklyAndCustomTwoWeeksRepeat(t *testing.T) {
	window := period("2024-01-01", "2024-01-31")
	exp := budget.Expander{Today: day("2024-01-01")}

	biweekly := outgoing("a", "2024-01-03", "10", budget.Every(budget.CadenceBiweekly))
	assert.Equal(t, []budget.Date{day("2024-01-03"), day("2024-01-17"), day("2024-01-31")}, dates(exp.Expand(biweekly, window)))

	custom := outgoing("b", "2024-01-03", "10", budget.CustomEvery(2, budget.UnitWeek))
	assert.Len(t, exp.Expand(custom, window), 3)
}

func TestExpand_CoarseCadencesAtMostOncePerWindow(t *testing.T) {
	// GIVEN: Cadences that are not weekly-grained
	// WHEN: Expanding over a window long enough for several hits
	// THEN: Only the first one is produced

	window := period("2024-01-01", "2024-03-31")
	exp := budget.Expander{Today: day("2024-01-01")}

	for _, r := range []budget.Recurrence{
		budget.Every(budget.CadenceDaily),
		budget.Every(budget.CadenceMonthly),
		budget.CustomEvery(3, budget.UnitWeek),
		budget.CustomEvery(10, budget.UnitDay),
		budget.CustomEvery(1, budget.UnitMonth),
	} {
		occ := exp.Expand(outgoing("x", "2024-01-10", "10", r), window)
		require.Len(t, occ, 1, r.String())
		assert.Equal(t, day("2024-01-10"), occ[0].Date, r.String())
	}
}

func TestExpand_RecurringBeyondWindowStillSurfaced(t *testing.T) {
	// GIVEN: A monthly bill next due after the window ends
	// WHEN: Expanding the current period
	// THEN: The upcoming occurrence is produced on its own

	o := outgoing("rent", "2024-03-10", "1200", budget.Every(budget.CadenceMonthly))
	exp := budget.Expander{Today: day("2024-02-01")}

	occ := exp.Expand(o, period("2024-01-28", "2024-02-27"))

	require.Len(t, occ, 1)
	assert.Equal(t, day("2024-03-10"), occ[0].Date)
}

func TestExpand_RecurringRolledForwardFromToday(t *testing.T) {
	o := outgoing("gym", "2024-01-01", "45", budget.Every(budget.CadenceWeekly))
	exp := budget.Expander{Today: day("2024-01-20")}

	occ := exp.Expand(o, period("2024-01-20", "2024-01-26"))

	require.Len(t, occ, 1)
	assert.Equal(t, day("2024-01-22"), occ[0].Date)
}

// =============================================================================
// ONE-TIME
// =============================================================================

func TestExpand_OneTimeBeforeWindowDropped(t *testing.T) {
	// GIVEN: A one-time payment due Mar 1, today Jun 1
	// WHEN: Expanding June
	// THEN: Nothing; past one-time payments are not carried forward

	o := outgoing("repair", "2024-03-01", "60", budget.OneTime())
	exp := budget.Expander{Today: day("2024-06-01")}

	assert.Empty(t, exp.Expand(o, period("2024-06-01", "2024-06-30")))
}

func TestExpand_OneTimeAfterWindowSurfaced(t *testing.T) {
	o := outgoing("repair", "2024-07-15", "60", budget.OneTime())
	exp := budget.Expander{Today: day("2024-06-01")}

	occ := exp.Expand(o, period("2024-06-01", "2024-06-30"))

	require.Len(t, occ, 1)
	assert.Equal(t, day("2024-07-15"), occ[0].Date)
}

func TestExpand_OneTimeInsideWindow(t *testing.T) {
	o := outgoing("repair", "2024-06-10", "60", budget.OneTime())
	exp := budget.Expander{Today: day("2024-06-01")}

	occ := exp.Expand(o, period("2024-06-01", "2024-06-30"))
	require.Len(t, occ, 1)
	assertMoney(t, "60", occ[0].Amount)
}

// =============================================================================
// PAUSED / MALFORMED
// =============================================================================

func TestExpand_PausedProducesNothing(t *testing.T) {
	exp := budget.Expander{Today: day("2024-01-01")}
	window := period("2024-01-01", "2024-01-31")

	for _, r := range []budget.Recurrence{
		budget.OneTime(),
		budget.Every(budget.CadenceWeekly),
		budget.Every(budget.CadenceMonthly),
	} {
		o := outgoing("paused", "2024-01-10", "100", r)
		o.IsPaused = true

		assert.Empty(t, exp.Expand(o, window), r.String())
		assert.True(t, exp.RequiredFor(o, window).IsZero(), r.String())
	}
}

func TestExpand_MalformedRecordsProduceNothing(t *testing.T) {
	exp := budget.Expander{Today: day("2024-01-01")}
	window := period("2024-01-01", "2024-01-31")

	noDue := outgoing("x", "2024-01-10", "10", budget.OneTime())
	noDue.DueDate = budget.Date{}
	assert.Empty(t, exp.Expand(noDue, window))

	negative := outgoing("x", "2024-01-10", "-10", budget.OneTime())
	assert.Empty(t, exp.Expand(negative, window))

	inverted := outgoing("x", "2024-01-10", "10", budget.OneTime())
	assert.Empty(t, exp.Expand(inverted, period("2024-01-31", "2024-01-01")))
}

// =============================================================================
// PAYMENT PLANS
// =============================================================================

func planOutgoing(freq budget.PlanFrequency, start, due string) budget.Outgoing {
	o := outgoing("insurance", due, "100", budget.Every(budget.CadenceYearly))
	o.PaymentPlan = &budget.PaymentPlan{
		Enabled:   true,
		StartDate: day(start),
		Frequency: freq,
	}
	return o
}

func TestInstallments_RoundedUpToCent(t *testing.T) {
	// GIVEN: 100 due Apr 1, saved monthly from Jan 1
	// WHEN: Computing installments
	// THEN: Three installments of 33.34, together at least the total

	o := planOutgoing(budget.PlanMonthly, "2024-01-01", "2024-04-01")

	ds, ok := budget.InstallmentDates(o)
	require.True(t, ok)
	assert.Equal(t, []budget.Date{day("2024-01-01"), day("2024-02-01"), day("2024-03-01")}, ds)

	amount := budget.InstallmentAmount(o)
	assertMoney(t, "33.34", amount)
	assertMoney(t, "100.02", budget.Sum(amount, amount, amount))
}

func TestExpand_PlanReplacesRecurrence(t *testing.T) {
	o := planOutgoing(budget.PlanMonthly, "2024-01-01", "2024-04-01")
	exp := budget.Expander{Today: day("2024-02-01")}

	occ := exp.Expand(o, period("2024-01-28", "2024-02-27"))

	require.Len(t, occ, 1)
	assert.Equal(t, day("2024-02-01"), occ[0].Date)
	assertMoney(t, "33.34", occ[0].Amount)
	assert.Equal(t, 2, occ[0].Installment)
	assert.Equal(t, 3, occ[0].Installments)
	assert.Equal(t, "Installment 2 of 3", occ[0].Label)
}

func TestExpand_PlanInstallmentsOutsideWindowDropped(t *testing.T) {
	o := planOutgoing(budget.PlanWeekly, "2024-01-01", "2024-02-01")
	exp := budget.Expander{Today: day("2024-01-01")}

	// Installments Jan 1, 8, 15, 22, 29; the due date itself is not one.
	occ := exp.Expand(o, period("2024-01-10", "2024-02-10"))
	assert.Equal(t, []budget.Date{day("2024-01-15"), day("2024-01-22"), day("2024-01-29")}, dates(occ))
	assertMoney(t, "20", occ[0].Amount)
}

func TestExpand_PlanOverrideAmount(t *testing.T) {
	o := planOutgoing(budget.PlanBiweekly, "2024-01-01", "2024-03-01")
	override := money("40")
	o.PaymentPlan.InstallmentAmount = &override

	assertMoney(t, "40", budget.InstallmentAmount(o))
}

func TestExpand_InvalidPlanProducesNothing(t *testing.T) {
	// GIVEN: A plan starting after its due date
	// WHEN: Expanding
	// THEN: The outgoing is invisible rather than an error

	o := planOutgoing(budget.PlanMonthly, "2024-05-01", "2024-04-01")
	exp := budget.Expander{Today: day("2024-01-01")}

	_, ok := budget.InstallmentDates(o)
	assert.False(t, ok)
	assert.Empty(t, exp.Expand(o, period("2024-01-01", "2024-12-31")))
	assert.True(t, budget.InstallmentAmount(o).IsZero())
}

func TestExpand_DisabledPlanUsesRecurrence(t *testing.T) {
	o := planOutgoing(budget.PlanMonthly, "2024-01-01", "2024-04-01")
	o.PaymentPlan.Enabled = false
	exp := budget.Expander{Today: day("2024-01-01")}

	occ := exp.Expand(o, period("2024-03-28", "2024-04-27"))
	require.Len(t, occ, 1)
	assert.Equal(t, day("2024-04-01"), occ[0].Date)
	assertMoney(t, "100", occ[0].Amount)
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestExpandAll_SortedByDateThenID(t *testing.T) {
	exp := budget.Expander{Today: day("2024-01-01")}
	window := period("2024-01-01", "2024-01-14")

	all := exp.ExpandAll([]budget.Outgoing{
		outgoing("b", "2024-01-05", "1", budget.OneTime()),
		outgoing("c", "2024-01-02", "1", budget.Every(budget.CadenceWeekly)),
		outgoing("a", "2024-01-05", "1", budget.OneTime()),
	}, window)

	require.Len(t, all, 4)
	assert.Equal(t, budget.OutgoingID("c"), all[0].OutgoingID)
	assert.Equal(t, budget.OutgoingID("a"), all[1].OutgoingID)
	assert.Equal(t, budget.OutgoingID("b"), all[2].OutgoingID)
	assert.Equal(t, day("2024-01-09"), all[3].Date)
}

func TestRequiredByAccount(t *testing.T) {
	exp := budget.Expander{Today: day("2024-01-01")}
	window := period("2024-01-01", "2024-01-31")

	rent := outgoing("rent", "2024-01-01", "1200", budget.Every(budget.CadenceMonthly))
	food := outgoing("food", "2024-01-06", "50", budget.Every(budget.CadenceWeekly))
	food.AccountID = "acc-2"
	paused := outgoing("paused", "2024-01-06", "999", budget.OneTime())
	paused.AccountID = "acc-3"
	paused.IsPaused = true

	required := exp.RequiredByAccount([]budget.Outgoing{rent, food, paused}, window)

	assertMoney(t, "1200", required["acc-1"])
	assertMoney(t, "200", required["acc-2"])
	_, present := required["acc-3"]
	assert.False(t, present)
}
