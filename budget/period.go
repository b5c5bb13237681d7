package budget

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// PERIOD - An inclusive date range
// =============================================================================

// Period is the inclusive range [Start, End]. For a pay period End is the
// day before the next payday.
type Period struct {
	Start Date `json:"start_date"`
	End   Date `json:"end_date"`
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every date in the period.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Length is the number of days in the period.
func (p Period) Length() int {
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PAY CYCLE
// =============================================================================

// PayFrequency is how often the user is paid.
type PayFrequency string

const (
	PayMonthly  PayFrequency = "monthly"
	PayBiweekly PayFrequency = "biweekly"
	PayWeekly   PayFrequency = "weekly"
)

// DefaultDayOfMonth is the payday used when no pay cycle is configured.
const DefaultDayOfMonth = 28

// PayCycle anchors pay periods. DayOfMonth is used for monthly cycles,
// LastPayDate for weekly and biweekly ones.
type PayCycle struct {
	Frequency   PayFrequency `json:"frequency"`
	DayOfMonth  int          `json:"day_of_month,omitempty"`
	LastPayDate *Date        `json:"last_pay_date,omitempty"`
}

// DefaultPayCycle is paid monthly on the 28th.
func DefaultPayCycle() PayCycle {
	return PayCycle{Frequency: PayMonthly, DayOfMonth: DefaultDayOfMonth}
}

// Normalize fills absent values with defaults.
func (c PayCycle) Normalize() PayCycle {
	c.Frequency = PayFrequency(strings.ToLower(string(c.Frequency)))
	if c.Frequency == "" {
		c.Frequency = PayMonthly
	}
	if c.DayOfMonth == 0 {
		c.DayOfMonth = DefaultDayOfMonth
	}
	return c
}

// Validate reports unknown frequencies, out-of-range days and weekly or
// biweekly cycles with no last pay date. The last case still produces a
// period through the monthly fallback in PeriodFor; Validate lets callers
// refuse it explicitly.
func (c PayCycle) Validate() error {
	c = c.Normalize()
	switch c.Frequency {
	case PayMonthly:
	case PayWeekly, PayBiweekly:
		if c.LastPayDate == nil || c.LastPayDate.IsZero() {
			return ErrMissingLastPayDate
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidPayCycle, c.Frequency)
	}
	if c.DayOfMonth < 1 || c.DayOfMonth > 31 {
		return fmt.Errorf("%w: day of month %d outside 1-31", ErrInvalidPayCycle, c.DayOfMonth)
	}
	return nil
}

// stepDays is the fixed cycle length for weekly and biweekly cycles.
func (c PayCycle) stepDays() int {
	if c.Frequency == PayBiweekly {
		return 14
	}
	return 7
}

// approxDays is the nominal cycle length, used to compare with cadences.
func (c PayCycle) approxDays() int {
	switch c.Normalize().Frequency {
	case PayWeekly:
		return 7
	case PayBiweekly:
		return 14
	}
	return 30
}

// =============================================================================
// PERIOD CALCULATOR
// =============================================================================

// PeriodFor returns the pay period containing now.
func (c PayCycle) PeriodFor(now Date) Period {
	c = c.Normalize()
	switch c.Frequency {
	case PayWeekly, PayBiweekly:
		if c.LastPayDate == nil || c.LastPayDate.IsZero() {
			// No anchor: use the monthly rule for this period.
			return c.monthlyPeriod(now)
		}
		return c.steppedPeriod(now)
	default:
		return c.monthlyPeriod(now)
	}
}

func (c PayCycle) monthlyPeriod(now Date) Period {
	anchor := func(offset int) Date {
		return NewDate(now.Year(), now.Month()+time.Month(offset), c.DayOfMonth)
	}

	// Payday still ahead this month: we're in the period that started last
	// month. Days past a short month's end overflow, so keep walking until
	// the anchor is really behind us.
	offset := 0
	for anchor(offset).After(now) {
		offset--
	}
	for !anchor(offset + 1).After(now) {
		offset++
	}
	return Period{Start: anchor(offset), End: anchor(offset + 1).AddDays(-1)}
}

func (c PayCycle) steppedPeriod(now Date) Period {
	step := c.stepDays()
	next := *c.LastPayDate

	// Anchor in the future: walk back until a payday is on or before now.
	for next.After(now) {
		next = next.AddDays(-step)
	}
	for !next.After(now) {
		next = next.AddDays(step)
	}
	return Period{Start: next.AddDays(-step), End: next.AddDays(-1)}
}

// NextPeriod returns the pay period that starts the day after p ends.
func (c PayCycle) NextPeriod(p Period) Period {
	return c.PeriodFor(p.End.AddDays(1))
}
