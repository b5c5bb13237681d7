/*
scheduler.go - Pay period rollover scheduler

PURPOSE:
  Allocations are only recomputed after a mutation. When the calendar
  crosses into a new pay period nothing changes in the records, so the
  stored allocations would describe the old period until the next edit.
  The scheduler checks the current pay period on an interval and
  recomputes when its start date moves.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Remembers the start of the last period it recomputed for
  - Checks once immediately on Start

USAGE:
  scheduler := NewPeriodScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Handler.Recompute
  - budget/period.go: PayCycle.PeriodFor
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/budget-engine/budget"
)

// PeriodScheduler recomputes allocations when the pay period rolls over.
type PeriodScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	lastStart budget.Date

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodScheduler creates a new scheduler.
func NewPeriodScheduler(handler *Handler) *PeriodScheduler {
	return &PeriodScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (ps *PeriodScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	log := ps.Handler.Log
	if !ps.Enabled {
		log.Info().Msg("scheduler disabled, not starting")
		return
	}
	if ps.ticker != nil {
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.stop = make(chan struct{})
	ps.wg.Add(1)

	go ps.run(ps.ticker, ps.stop)

	log.Info().Dur("interval", ps.CheckInterval).Msg("scheduler started")
}

// Stop stops the scheduler and waits for the goroutine to exit.
func (ps *PeriodScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker == nil {
		return
	}
	ps.ticker.Stop()
	close(ps.stop)
	ps.wg.Wait()
	ps.ticker = nil
	ps.Handler.Log.Info().Msg("scheduler stopped")
}

func (ps *PeriodScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ps.wg.Done()

	ps.CheckOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			ps.CheckOnce(context.Background())
		case <-stop:
			return
		}
	}
}

// CheckOnce recomputes if the current pay period differs from the one
// last recomputed. It reports whether a recompute ran.
func (ps *PeriodScheduler) CheckOnce(ctx context.Context) bool {
	h := ps.Handler
	log := h.Log

	h.mu.Lock()
	defer h.mu.Unlock()

	cycle, err := h.Store.GetPayCycle(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: loading pay cycle")
		return false
	}
	period := cycle.PeriodFor(h.today())
	if !ps.lastStart.IsZero() && ps.lastStart.Equal(period.Start) {
		return false
	}

	derived, err := h.Recompute(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: recompute failed")
		return false
	}

	ps.lastStart = derived.Period.Start
	log.Info().
		Str("period", derived.Period.String()).
		Str("allocated", derived.Allocated.String()).
		Str("remainder", derived.Remainder.String()).
		Msg("pay period recomputed")
	return true
}

// NextRunTime returns when the next scheduled check will occur, or the
// zero time when the scheduler is not running.
func (ps *PeriodScheduler) NextRunTime() time.Time {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker == nil {
		return time.Time{}
	}
	return time.Now().Add(ps.CheckInterval)
}
