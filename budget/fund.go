package budget

import (
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// FUND LEDGER - The pool of available funds
// =============================================================================

// FundLedger holds the fund sources. Its total is always recomputed from
// the sources and never stored. Amounts are clamped to zero at every
// entry point.
//
// A FundLedger is owned by a single writer and is not safe for concurrent
// use.
type FundLedger struct {
	sources []FundSource
	newID   func() string
}

// NewFundLedger builds a ledger over a copy of sources.
func NewFundLedger(sources []FundSource) *FundLedger {
	l := &FundLedger{newID: uuid.NewString}
	for _, s := range sources {
		s.Amount = s.Amount.NonNegative()
		l.sources = append(l.sources, s)
	}
	return l
}

// WithIDGenerator replaces the ID generator, for deterministic tests.
func (l *FundLedger) WithIDGenerator(fn func() string) *FundLedger {
	l.newID = fn
	return l
}

// Sources returns a copy of the sources in insertion order.
func (l *FundLedger) Sources() []FundSource {
	out := make([]FundSource, len(l.sources))
	copy(out, l.sources)
	return out
}

// Total is the sum of all source amounts.
func (l *FundLedger) Total() Money {
	total := Zero
	for _, s := range l.sources {
		total = total.Add(s.Amount)
	}
	return total
}

// Add appends a source and returns it.
func (l *FundLedger) Add(name string, amount Money) FundSource {
	s := FundSource{
		ID:     FundSourceID(l.newID()),
		Name:   name,
		Amount: amount.NonNegative(),
	}
	l.sources = append(l.sources, s)
	return s
}

// Update replaces the amount of a source.
func (l *FundLedger) Update(id FundSourceID, amount Money) error {
	i, err := l.index(id)
	if err != nil {
		return err
	}
	s := l.sources[i]
	s.Amount = amount.NonNegative()
	l.sources[i] = s
	return nil
}

// Rename replaces the name of a source.
func (l *FundLedger) Rename(id FundSourceID, name string) error {
	i, err := l.index(id)
	if err != nil {
		return err
	}
	s := l.sources[i]
	s.Name = name
	l.sources[i] = s
	return nil
}

// Delete removes a source.
func (l *FundLedger) Delete(id FundSourceID) error {
	i, err := l.index(id)
	if err != nil {
		return err
	}
	l.sources = append(l.sources[:i:i], l.sources[i+1:]...)
	return nil
}

// ResetAll drops every source and leaves a single zero-amount one, whose
// id is returned. The ledger is never left empty by a reset.
func (l *FundLedger) ResetAll() FundSourceID {
	s := FundSource{ID: FundSourceID(l.newID()), Amount: Zero}
	l.sources = []FundSource{s}
	return s.ID
}

func (l *FundLedger) index(id FundSourceID) (int, error) {
	for i, s := range l.sources {
		if s.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrFundSourceNotFound, id)
}
