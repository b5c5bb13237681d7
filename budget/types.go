/*
Package budget is the pay-period budgeting engine.

PURPOSE:
  Works out how much money each spending account needs during a pay
  period, and splits the available funds across accounts to cover it.
  Everything here is a pure computation over plain records; persistence,
  HTTP and scheduling live in collaborator packages.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: a spending bucket that outgoings are paid from
  - Outgoing: a one-time or recurring payment obligation
  - PaymentPlan: splits one large outgoing into installments before it is due
  - FundSource: one contribution to the pool of available funds
  - Allocation: funds assigned to an account by the allocation engine

DESIGN PRINCIPLES:
  1. Records are values. Changing a record means replacing it.
  2. Money is decimal, never float arithmetic.
  3. Malformed records degrade to "contributes nothing" instead of failing
     a whole computation.

DATA FLOW:
  PayCycle.PeriodFor -> Expander.Expand -> RequiredByAccount
    -> Allocator.Allocate (funds from FundLedger.Total) -> []Allocation

SEE ALSO:
  - recurrence.go: cadence stepping
  - occurrence.go: occurrences inside a window
  - allocation.go: greedy fund allocation
  - recompute.go: one-shot derivation of everything above
*/
package budget

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID string
type OutgoingID string
type FundSourceID string
type AllocationID string

// =============================================================================
// ACCOUNT
// =============================================================================

// Account is a spending bucket. Deleting an account that outgoings still
// reference is refused by the store.
type Account struct {
	ID          AccountID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
}

// =============================================================================
// PAYMENT PLAN
// =============================================================================

// PlanFrequency is how often installments fall due.
type PlanFrequency string

const (
	PlanWeekly   PlanFrequency = "weekly"
	PlanBiweekly PlanFrequency = "biweekly"
	PlanMonthly  PlanFrequency = "monthly"
)

func (f PlanFrequency) recurrence() (Recurrence, bool) {
	switch f {
	case PlanWeekly:
		return Every(CadenceWeekly), true
	case PlanBiweekly:
		return Every(CadenceBiweekly), true
	case PlanMonthly:
		return Every(CadenceMonthly), true
	}
	return Recurrence{}, false
}

// PaymentPlan saves up for an outgoing in installments from StartDate
// until the outgoing's due date. StartDate must be strictly before the
// due date.
type PaymentPlan struct {
	Enabled   bool          `json:"enabled"`
	StartDate Date          `json:"start_date"`
	Frequency PlanFrequency `json:"frequency"`

	// InstallmentAmount overrides the computed per-installment amount.
	InstallmentAmount *Money `json:"installment_amount,omitempty"`
}

// =============================================================================
// OUTGOING
// =============================================================================

// Outgoing is a payment obligation paid from one account.
type Outgoing struct {
	ID          OutgoingID
	Name        string
	Amount      Money
	DueDate     Date
	Recurrence  Recurrence
	AccountID   AccountID
	PaymentPlan *PaymentPlan
	IsPaused    bool
}

// HasActivePlan reports whether installments replace normal recurrence.
func (o Outgoing) HasActivePlan() bool {
	return o.PaymentPlan != nil && o.PaymentPlan.Enabled
}

// outgoingJSON is the flat wire shape: custom_interval and custom_unit
// are present only for the custom cadence.
type outgoingJSON struct {
	ID             OutgoingID   `json:"id"`
	Name           string       `json:"name"`
	Amount         Money        `json:"amount"`
	DueDate        Date         `json:"due_date"`
	Recurrence     string       `json:"recurrence"`
	CustomInterval *int         `json:"custom_interval,omitempty"`
	CustomUnit     *string      `json:"custom_unit,omitempty"`
	AccountID      AccountID    `json:"account_id"`
	PaymentPlan    *PaymentPlan `json:"payment_plan,omitempty"`
	IsPaused       bool         `json:"is_paused"`
}

func (o Outgoing) MarshalJSON() ([]byte, error) {
	wire := outgoingJSON{
		ID:          o.ID,
		Name:        o.Name,
		Amount:      o.Amount,
		DueDate:     o.DueDate,
		Recurrence:  string(o.Recurrence.Cadence()),
		AccountID:   o.AccountID,
		PaymentPlan: o.PaymentPlan,
		IsPaused:    o.IsPaused,
	}
	if interval, unit, ok := o.Recurrence.Custom(); ok {
		u := string(unit)
		wire.CustomInterval = &interval
		wire.CustomUnit = &u
	}
	return json.Marshal(wire)
}

func (o *Outgoing) UnmarshalJSON(data []byte) error {
	var wire outgoingJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r, err := ParseRecurrence(wire.Recurrence, wire.CustomInterval, wire.CustomUnit)
	if err != nil {
		return err
	}
	*o = Outgoing{
		ID:          wire.ID,
		Name:        wire.Name,
		Amount:      wire.Amount,
		DueDate:     wire.DueDate,
		Recurrence:  r,
		AccountID:   wire.AccountID,
		PaymentPlan: wire.PaymentPlan,
		IsPaused:    wire.IsPaused,
	}
	return nil
}

// Validate checks the record invariants: non-negative amount, a real due
// date, a known account and a plan that starts before the due date.
func (o Outgoing) Validate() error {
	if o.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if o.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Message: "amount must not be negative"}
	}
	if o.DueDate.IsZero() {
		return &ValidationError{Field: "due_date", Message: "due date is required"}
	}
	if o.AccountID == "" {
		return &ValidationError{Field: "account_id", Message: "account is required"}
	}
	if o.PaymentPlan != nil {
		if err := o.PaymentPlan.validate(o.DueDate); err != nil {
			return err
		}
	}
	return nil
}

func (p PaymentPlan) validate(due Date) error {
	if !p.Enabled {
		return nil
	}
	if _, ok := p.Frequency.recurrence(); !ok {
		return &ValidationError{Field: "payment_plan.frequency", Message: fmt.Sprintf("unknown frequency %q", p.Frequency), err: ErrInvalidPaymentPlan}
	}
	if p.StartDate.IsZero() || !p.StartDate.Before(due) {
		return &ValidationError{Field: "payment_plan.start_date", Message: "start date must be before the due date", err: ErrInvalidPaymentPlan}
	}
	if p.InstallmentAmount != nil && p.InstallmentAmount.IsNegative() {
		return &ValidationError{Field: "payment_plan.installment_amount", Message: "installment amount must not be negative", err: ErrInvalidPaymentPlan}
	}
	return nil
}

// =============================================================================
// FUNDS AND ALLOCATIONS
// =============================================================================

// FundSource is one named or anonymous contribution to available funds.
type FundSource struct {
	ID     FundSourceID `json:"id"`
	Name   string       `json:"name,omitempty"`
	Amount Money        `json:"amount"`
}

// Allocation is an amount of funds assigned to an account. Allocation
// sets are replaced wholesale on every run.
type Allocation struct {
	ID        AllocationID `json:"id"`
	AccountID AccountID    `json:"account_id"`
	Amount    Money        `json:"amount"`
}
