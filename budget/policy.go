package budget

import "fmt"

// PlanEligibility decides whether a payment plan makes sense for an
// outgoing under a pay cycle. Callers pick the policy; the engine expands
// any valid plan it is given.
type PlanEligibility func(o Outgoing, cycle PayCycle) bool

// DefaultPlanEligibility allows plans for one-time outgoings and for
// outgoings that recur less often than the user is paid. Saving up for a
// weekly bill on a monthly salary is pointless.
func DefaultPlanEligibility(o Outgoing, cycle PayCycle) bool {
	if o.Recurrence.IsOneTime() {
		return true
	}
	return o.Recurrence.approxDays() > cycle.approxDays()
}

// AnyPlanEligible accepts every plan.
func AnyPlanEligible(Outgoing, PayCycle) bool { return true }

// ValidateOutgoing checks the record invariants and, for outgoings with an
// enabled plan, the eligibility policy. A nil policy accepts every plan.
func ValidateOutgoing(o Outgoing, cycle PayCycle, policy PlanEligibility) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.HasActivePlan() && policy != nil && !policy(o, cycle.Normalize()) {
		return fmt.Errorf("%w: %s outgoing on a %s pay cycle", ErrPlanNotEligible, o.Recurrence, cycle.Normalize().Frequency)
	}
	return nil
}
