/*
recurrence.go - Cadence resolution for outgoings and payment plans

PURPOSE:
  Answers two questions about a dated obligation:
    1. When is it next due, on or after today? (NextOccurrence)
    2. Given one due date, when is the following one? (Step)

RECURRENCE VARIANTS:
  OneTime()              never repeats; past dates are never rolled forward
  Every(CadenceMonthly)  named cadence: daily, weekly, biweekly, monthly,
                         quarterly, yearly
  CustomEvery(3, UnitWeek) every N days/weeks/months/years

  Recurrence has unexported fields; the constructors are the only way to
  build one, so a custom interval can never exist without its unit.

CALENDAR ARITHMETIC:
  Month and year steps use time.AddDate and accumulate from the previous
  stepped date. Jan 31 + 1 month lands on Mar 2 (or Mar 3 in non-leap
  years) and the cadence continues from there.

SEE ALSO:
  - occurrence.go: walks these steps inside a window
  - period.go: pay cycles use the same day/month arithmetic
*/
package budget

import (
	"fmt"
	"strings"
)

// Cadence names a recurrence rule as it appears on the wire.
type Cadence string

const (
	CadenceNone      Cadence = "none"
	CadenceDaily     Cadence = "daily"
	CadenceWeekly    Cadence = "weekly"
	CadenceBiweekly  Cadence = "biweekly"
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceYearly    Cadence = "yearly"
	CadenceCustom    Cadence = "custom"
)

// IntervalUnit is the unit of a custom recurrence.
type IntervalUnit string

const (
	UnitDay   IntervalUnit = "day"
	UnitWeek  IntervalUnit = "week"
	UnitMonth IntervalUnit = "month"
	UnitYear  IntervalUnit = "year"
)

func (u IntervalUnit) valid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// Recurrence is a tagged variant: one-time, a named cadence, or a custom
// interval. The zero value is one-time.
type Recurrence struct {
	cadence  Cadence
	interval int
	unit     IntervalUnit
}

// OneTime is a recurrence that never repeats.
func OneTime() Recurrence {
	return Recurrence{cadence: CadenceNone}
}

// Every returns a named cadence. Passing CadenceCustom or an unknown name
// yields OneTime; use CustomEvery for custom intervals.
func Every(c Cadence) Recurrence {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceBiweekly, CadenceMonthly, CadenceQuarterly, CadenceYearly:
		return Recurrence{cadence: c}
	}
	return OneTime()
}

// CustomEvery repeats every interval units. Intervals below 1 are treated as 1.
func CustomEvery(interval int, unit IntervalUnit) Recurrence {
	if interval < 1 {
		interval = 1
	}
	return Recurrence{cadence: CadenceCustom, interval: interval, unit: unit}
}

// ParseRecurrence builds a Recurrence from the flat wire fields. Custom
// interval and unit must be present together and only for "custom".
func ParseRecurrence(cadence string, interval *int, unit *string) (Recurrence, error) {
	c := Cadence(strings.ToLower(strings.TrimSpace(cadence)))
	if c == "" {
		c = CadenceNone
	}
	hasCustom := interval != nil || unit != nil
	if c != CadenceCustom {
		if hasCustom {
			return Recurrence{}, fmt.Errorf("%w: custom interval given for %q", ErrInvalidRecurrence, c)
		}
		if c == CadenceNone {
			return OneTime(), nil
		}
		r := Every(c)
		if r.IsOneTime() {
			return Recurrence{}, fmt.Errorf("%w: unknown cadence %q", ErrInvalidRecurrence, cadence)
		}
		return r, nil
	}
	if interval == nil || unit == nil {
		return Recurrence{}, fmt.Errorf("%w: custom recurrence needs interval and unit", ErrInvalidRecurrence)
	}
	if *interval < 1 {
		return Recurrence{}, fmt.Errorf("%w: custom interval must be positive, got %d", ErrInvalidRecurrence, *interval)
	}
	u := IntervalUnit(strings.ToLower(*unit))
	if !u.valid() {
		return Recurrence{}, fmt.Errorf("%w: unknown custom unit %q", ErrInvalidRecurrence, *unit)
	}
	return CustomEvery(*interval, u), nil
}

// Cadence returns the wire name. The zero value reports CadenceNone.
func (r Recurrence) Cadence() Cadence {
	if r.cadence == "" {
		return CadenceNone
	}
	return r.cadence
}

// Custom returns the interval and unit for custom recurrences.
func (r Recurrence) Custom() (interval int, unit IntervalUnit, ok bool) {
	if r.cadence != CadenceCustom {
		return 0, "", false
	}
	return r.interval, r.unit, true
}

func (r Recurrence) IsOneTime() bool { return r.Cadence() == CadenceNone }

func (r Recurrence) String() string {
	if interval, unit, ok := r.Custom(); ok {
		return fmt.Sprintf("every %d %s(s)", interval, unit)
	}
	return string(r.Cadence())
}

// allowsMultiplePerPeriod reports whether a cadence is fine-grained enough
// to hit several times inside one pay period.
func (r Recurrence) allowsMultiplePerPeriod() bool {
	switch r.Cadence() {
	case CadenceWeekly, CadenceBiweekly:
		return true
	case CadenceCustom:
		return r.unit == UnitWeek && r.interval <= 2
	}
	return false
}

// approxDays is the nominal cadence length, used only to compare cadences.
func (r Recurrence) approxDays() int {
	switch r.Cadence() {
	case CadenceDaily:
		return 1
	case CadenceWeekly:
		return 7
	case CadenceBiweekly:
		return 14
	case CadenceMonthly:
		return 30
	case CadenceQuarterly:
		return 91
	case CadenceYearly:
		return 365
	case CadenceCustom:
		switch r.unit {
		case UnitDay:
			return r.interval
		case UnitWeek:
			return 7 * r.interval
		case UnitMonth:
			return 30 * r.interval
		case UnitYear:
			return 365 * r.interval
		}
	}
	return 0
}

// =============================================================================
// RESOLVER
// =============================================================================

// Step advances exactly one cadence period from d. One-time recurrences
// return d unchanged.
func Step(d Date, r Recurrence) Date {
	switch r.Cadence() {
	case CadenceDaily:
		return d.AddDays(1)
	case CadenceWeekly:
		return d.AddDays(7)
	case CadenceBiweekly:
		return d.AddDays(14)
	case CadenceMonthly:
		return d.AddMonths(1)
	case CadenceQuarterly:
		return d.AddMonths(3)
	case CadenceYearly:
		return d.AddYears(1)
	case CadenceCustom:
		switch r.unit {
		case UnitDay:
			return d.AddDays(r.interval)
		case UnitWeek:
			return d.AddDays(7 * r.interval)
		case UnitMonth:
			return d.AddMonths(r.interval)
		case UnitYear:
			return d.AddYears(r.interval)
		}
	}
	return d
}

// NextOccurrence returns the earliest date on or after today that lies on
// r's cadence starting from base. A base on or after today is returned
// as is, and one-time obligations are never rolled forward.
func NextOccurrence(base Date, r Recurrence, today Date) Date {
	if base.IsZero() || base.AfterOrEqual(today) || r.IsOneTime() {
		return base
	}
	next := base
	for next.Before(today) {
		stepped := Step(next, r)
		if !stepped.After(next) {
			return next
		}
		next = stepped
	}
	return next
}
