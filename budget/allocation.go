/*
allocation.go - Greedy distribution of available funds across accounts

PURPOSE:
  Given the total available funds and what each account needs this pay
  period, decides how much goes to each account.

ALGORITHM:
  Single pass over accounts in the order they are given:
    remaining = total
    for each account with required > 0 while remaining > 0:
        give min(required, remaining)
  Accounts that need nothing get no record. Whatever is left is the
  remainder; nothing is proportional or priority-weighted, so reordering
  accounts changes the outcome.

RE-RUNS:
  Allocate is a pure function of its inputs apart from generated IDs.
  Callers replace the whole allocation set with each result.

EXAMPLE:
  alloc := Allocator{}
  result := alloc.Allocate(NewMoney(500), accounts, required)
  for _, a := range result {
      fmt.Printf("%s: %v\n", a.AccountID, a.Amount)
  }
*/
package budget

import "github.com/google/uuid"

// Allocator distributes funds. NewID generates allocation IDs and
// defaults to random UUIDs.
type Allocator struct {
	NewID func() string
}

func (a Allocator) newID() AllocationID {
	if a.NewID != nil {
		return AllocationID(a.NewID())
	}
	return AllocationID(uuid.NewString())
}

// Allocate fills accounts in order, each capped at its requirement.
func (a Allocator) Allocate(total Money, accounts []Account, required map[AccountID]Money) []Allocation {
	if !total.IsPositive() {
		return []Allocation{}
	}

	allocations := []Allocation{}
	remaining := total
	for _, account := range accounts {
		if !remaining.IsPositive() {
			break
		}
		need := required[account.ID]
		if !need.IsPositive() {
			continue
		}

		give := need.Min(remaining)
		allocations = append(allocations, Allocation{
			ID:        a.newID(),
			AccountID: account.ID,
			Amount:    give,
		})
		remaining = remaining.Sub(give)
	}
	return allocations
}

// Allocated sums allocation amounts.
func Allocated(allocations []Allocation) Money {
	total := Zero
	for _, a := range allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// AllocatedTo returns the amount allocated to one account.
func AllocatedTo(allocations []Allocation, id AccountID) Money {
	total := Zero
	for _, a := range allocations {
		if a.AccountID == id {
			total = total.Add(a.Amount)
		}
	}
	return total
}
