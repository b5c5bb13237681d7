/*
occurrence.go - Concrete dated payments of an outgoing inside a window

PURPOSE:
  Turns an outgoing (due date + recurrence, or a payment plan) into the
  list of payments that fall into a pay period. The sum of these is what
  an account needs for the period.

RULES (first match wins):
  1. Paused outgoings produce nothing.
  2. An enabled payment plan produces its installments that fall inside
     the window. Normal recurrence is ignored for that outgoing.
  3. A one-time outgoing produces its due date if it is on or after the
     window start, even when it is after the window end. Due dates before
     the window start are dropped.
  4. A recurring outgoing produces its first occurrence on or after the
     window start. If that is already past the window end it is still
     produced, alone, so upcoming payments stay visible. Otherwise weekly,
     biweekly and custom every-1-or-2-weeks cadences keep producing until
     the window end; coarser cadences produce at most one per window.

MALFORMED RECORDS:
  A zero due date, a negative amount or an invalid plan produces nothing
  instead of failing the aggregate.

EXAMPLE:
  exp := Expander{Today: MustParseDate("2024-01-08")}
  occ := exp.Expand(weeklyRent, Period{Start: jan8, End: jan22})
  // jan8, jan15, jan22
*/
package budget

import (
	"fmt"
	"sort"
)

// Occurrence is one dated payment of an outgoing. Installment and
// Installments are set only for payment-plan occurrences (1-based).
type Occurrence struct {
	OutgoingID   OutgoingID `json:"outgoing_id"`
	AccountID    AccountID  `json:"account_id"`
	Date         Date       `json:"date"`
	Amount       Money      `json:"amount"`
	Label        string     `json:"label,omitempty"`
	Installment  int        `json:"installment,omitempty"`
	Installments int        `json:"installments,omitempty"`
}

// Expander expands outgoings relative to Today. A zero Today means the
// current date.
type Expander struct {
	Today Date
}

func (e Expander) today() Date {
	if e.Today.IsZero() {
		return Today()
	}
	return e.Today
}

// Expand returns the occurrences of o in window, in date order.
func (e Expander) Expand(o Outgoing, window Period) []Occurrence {
	if o.IsPaused {
		return nil
	}
	if o.DueDate.IsZero() || o.Amount.IsNegative() || window.End.Before(window.Start) {
		return nil
	}
	if o.HasActivePlan() {
		return e.expandPlan(o, window)
	}
	if o.Recurrence.IsOneTime() {
		return e.expandOnce(o, window)
	}
	return e.expandRecurring(o, window)
}

func (e Expander) expandOnce(o Outgoing, window Period) []Occurrence {
	due := NextOccurrence(o.DueDate, o.Recurrence, e.today())
	if due.Before(window.Start) {
		return nil
	}
	return []Occurrence{occurrenceOf(o, due, o.Amount)}
}

func (e Expander) expandRecurring(o Outgoing, window Period) []Occurrence {
	current := NextOccurrence(o.DueDate, o.Recurrence, e.today())
	for current.Before(window.Start) {
		stepped := Step(current, o.Recurrence)
		if !stepped.After(current) {
			return nil
		}
		current = stepped
	}

	occurrences := []Occurrence{occurrenceOf(o, current, o.Amount)}
	if current.After(window.End) || !o.Recurrence.allowsMultiplePerPeriod() {
		return occurrences
	}

	for next := Step(current, o.Recurrence); next.BeforeOrEqual(window.End); next = Step(next, o.Recurrence) {
		occurrences = append(occurrences, occurrenceOf(o, next, o.Amount))
	}
	return occurrences
}

func (e Expander) expandPlan(o Outgoing, window Period) []Occurrence {
	dates, ok := InstallmentDates(o)
	if !ok {
		return nil
	}
	amount := InstallmentAmount(o)

	var occurrences []Occurrence
	for i, d := range dates {
		if !window.Contains(d) {
			continue
		}
		occ := occurrenceOf(o, d, amount)
		occ.Installment = i + 1
		occ.Installments = len(dates)
		occ.Label = fmt.Sprintf("Installment %d of %d", i+1, len(dates))
		occurrences = append(occurrences, occ)
	}
	return occurrences
}

func occurrenceOf(o Outgoing, d Date, amount Money) Occurrence {
	return Occurrence{
		OutgoingID: o.ID,
		AccountID:  o.AccountID,
		Date:       d,
		Amount:     amount,
	}
}

// =============================================================================
// PAYMENT PLAN INSTALLMENTS
// =============================================================================

// InstallmentDates walks from the plan start towards the due date
// (exclusive) at the plan frequency. It returns false when o has no
// enabled plan or the plan is invalid.
func InstallmentDates(o Outgoing) ([]Date, bool) {
	if !o.HasActivePlan() || o.DueDate.IsZero() {
		return nil, false
	}
	plan := o.PaymentPlan
	if err := plan.validate(o.DueDate); err != nil {
		return nil, false
	}
	r, _ := plan.Frequency.recurrence()

	var dates []Date
	for d := plan.StartDate; d.Before(o.DueDate); d = Step(d, r) {
		dates = append(dates, d)
	}
	return dates, len(dates) > 0
}

// InstallmentAmount is the plan's override, or the total divided by the
// installment count rounded up to the cent. The installments together
// may exceed the total by a few cents but never fall short of it.
func InstallmentAmount(o Outgoing) Money {
	if !o.HasActivePlan() {
		return o.Amount
	}
	if o.PaymentPlan.InstallmentAmount != nil {
		return *o.PaymentPlan.InstallmentAmount
	}
	dates, ok := InstallmentDates(o)
	if !ok {
		return Zero
	}
	return o.Amount.DivCeil(len(dates))
}

// =============================================================================
// AGGREGATION
// =============================================================================

// ExpandAll expands every outgoing and sorts the result by date, then
// outgoing id, for date-grouped display.
func (e Expander) ExpandAll(outgoings []Outgoing, window Period) []Occurrence {
	var all []Occurrence
	for _, o := range outgoings {
		all = append(all, e.Expand(o, window)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.Before(all[j].Date)
		}
		return all[i].OutgoingID < all[j].OutgoingID
	})
	return all
}

// RequiredFor is the total of o's occurrences in window.
func (e Expander) RequiredFor(o Outgoing, window Period) Money {
	total := Zero
	for _, occ := range e.Expand(o, window) {
		total = total.Add(occ.Amount)
	}
	return total
}

// RequiredByAccount sums the occurrences in window per account. Accounts
// with nothing due are absent from the map.
func (e Expander) RequiredByAccount(outgoings []Outgoing, window Period) map[AccountID]Money {
	required := make(map[AccountID]Money)
	for _, o := range outgoings {
		amount := e.RequiredFor(o, window)
		if amount.IsZero() {
			continue
		}
		required[o.AccountID] = required[o.AccountID].Add(amount)
	}
	return required
}
