/*
recompute.go - One-shot derivation of everything shown for a pay period

PURPOSE:
  The application keeps its records in a State value and calls Recompute
  after every change. There are no watchers: the caller decides when to
  recompute, and the result is a fresh Derived value every time.

  Recompute is pure. Given the same State, now and options it returns the
  same Derived, apart from generated allocation IDs.

FLOW:
  1. Period    = PayCycle.PeriodFor(now)
  2. Required  = Expander.Expand per outgoing, summed per account
  3. Funds     = sum of fund sources
  4. Allocs    = Allocator.Allocate(funds, accounts, required)
  5. Summaries = per-account required / allocated / shortfall

SEE ALSO:
  - store.go: LoadState reads a State from a Store
*/
package budget

import (
	"context"
	"fmt"
)

// State is the full set of records the engine works from.
type State struct {
	Accounts    []Account
	Outgoings   []Outgoing
	FundSources []FundSource
	PayCycle    PayCycle
	Currency    string
}

// RecomputeOptions carries the collaborators Recompute uses.
type RecomputeOptions struct {
	Allocator Allocator
}

// AccountSummary is the per-account view of a recompute.
type AccountSummary struct {
	AccountID AccountID `json:"account_id"`
	Required  Money     `json:"required"`
	Allocated Money     `json:"allocated"`
	Shortfall Money     `json:"shortfall"`
}

// Derived is everything computed from a State for one pay period.
type Derived struct {
	Period        Period                      `json:"period"`
	Occurrences   map[OutgoingID][]Occurrence `json:"occurrences"`
	Required      map[AccountID]Money         `json:"required"`
	TotalFunds    Money                       `json:"total_funds"`
	TotalRequired Money                       `json:"total_required"`
	Allocations   []Allocation                `json:"allocations"`
	Allocated     Money                       `json:"allocated"`
	Remainder     Money                       `json:"remainder"`
	Accounts      []AccountSummary            `json:"accounts"`
	Currency      string                      `json:"currency"`
}

// Recompute derives the pay period, requirements and allocations for now.
func Recompute(s State, now Date, opts RecomputeOptions) Derived {
	period := s.PayCycle.PeriodFor(now)
	expander := Expander{Today: now}

	occurrences := make(map[OutgoingID][]Occurrence, len(s.Outgoings))
	required := make(map[AccountID]Money)
	for _, o := range s.Outgoings {
		occ := expander.Expand(o, period)
		if len(occ) == 0 {
			continue
		}
		occurrences[o.ID] = occ
		for _, x := range occ {
			required[o.AccountID] = required[o.AccountID].Add(x.Amount)
		}
	}

	totalFunds := NewFundLedger(s.FundSources).Total()
	totalRequired := Zero
	for _, amount := range required {
		totalRequired = totalRequired.Add(amount)
	}

	allocations := opts.Allocator.Allocate(totalFunds, s.Accounts, required)
	allocated := Allocated(allocations)

	summaries := make([]AccountSummary, 0, len(s.Accounts))
	for _, a := range s.Accounts {
		need := required[a.ID]
		got := AllocatedTo(allocations, a.ID)
		summaries = append(summaries, AccountSummary{
			AccountID: a.ID,
			Required:  need,
			Allocated: got,
			Shortfall: need.Sub(got).NonNegative(),
		})
	}

	currency := s.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	return Derived{
		Period:        period,
		Occurrences:   occurrences,
		Required:      required,
		TotalFunds:    totalFunds,
		TotalRequired: totalRequired,
		Allocations:   allocations,
		Allocated:     allocated,
		Remainder:     totalFunds.Sub(allocated),
		Accounts:      summaries,
		Currency:      currency,
	}
}

// LoadState reads every record the engine needs from store.
func LoadState(ctx context.Context, store Store) (State, error) {
	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return State{}, fmt.Errorf("load accounts: %w", err)
	}
	outgoings, err := store.ListOutgoings(ctx)
	if err != nil {
		return State{}, fmt.Errorf("load outgoings: %w", err)
	}
	sources, err := store.ListFundSources(ctx)
	if err != nil {
		return State{}, fmt.Errorf("load fund sources: %w", err)
	}
	cycle, err := store.GetPayCycle(ctx)
	if err != nil {
		return State{}, fmt.Errorf("load pay cycle: %w", err)
	}
	currency, err := store.GetCurrency(ctx)
	if err != nil {
		return State{}, fmt.Errorf("load currency: %w", err)
	}
	return State{
		Accounts:    accounts,
		Outgoings:   outgoings,
		FundSources: sources,
		PayCycle:    cycle,
		Currency:    currency,
	}, nil
}
