/*
errors.go - Error types for the budget engine and its stores

PURPOSE:
  The pure computations (expansion, allocation, periods) never fail; bad
  input degrades to empty results. Errors exist for the operations that
  touch records: validation, store lookups and referential integrity.

USAGE:
    if errors.Is(err, budget.ErrAccountInUse) {
        // refuse the delete, the account still has outgoings
    }
*/
package budget

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountNotFound is returned when a referenced account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrOutgoingNotFound is returned when a referenced outgoing doesn't exist.
	ErrOutgoingNotFound = errors.New("outgoing not found")

	// ErrFundSourceNotFound is returned when a fund source id is unknown.
	ErrFundSourceNotFound = errors.New("fund source not found")

	// ErrAccountInUse is returned when deleting an account outgoings still reference.
	ErrAccountInUse = errors.New("account is referenced by outgoings")

	// ErrInvalidOutgoing wraps every outgoing validation failure.
	ErrInvalidOutgoing = errors.New("invalid outgoing")

	// ErrInvalidRecurrence is returned for inconsistent recurrence fields.
	ErrInvalidRecurrence = errors.New("invalid recurrence")

	// ErrInvalidPaymentPlan is returned for plans that cannot be expanded.
	ErrInvalidPaymentPlan = errors.New("invalid payment plan")

	// ErrInvalidPayCycle is returned for unknown frequencies or days of month.
	ErrInvalidPayCycle = errors.New("invalid pay cycle")

	// ErrMissingLastPayDate flags a weekly or biweekly cycle with no anchor.
	// PeriodFor falls back to the monthly rule for such cycles.
	ErrMissingLastPayDate = errors.New("weekly and biweekly pay cycles need a last pay date")

	// ErrPlanNotEligible is returned when the eligibility policy rejects a plan.
	ErrPlanNotEligible = errors.New("payment plan not eligible for this pay cycle")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
	err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the specific sentinel, or ErrInvalidOutgoing.
func (e *ValidationError) Unwrap() error {
	if e.err != nil {
		return e.err
	}
	return ErrInvalidOutgoing
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrOutgoingNotFound) ||
		errors.Is(err, ErrFundSourceNotFound)
}

// IsConflict returns true if the error is a referential-integrity refusal.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAccountInUse)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidOutgoing) ||
		errors.Is(err, ErrInvalidRecurrence) ||
		errors.Is(err, ErrInvalidPaymentPlan) ||
		errors.Is(err, ErrInvalidPayCycle) ||
		errors.Is(err, ErrMissingLastPayDate) ||
		errors.Is(err, ErrPlanNotEligible)
}
