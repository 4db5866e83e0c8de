package sim

import (
	"context"
	"errors"
	"time"

	"arena-shooter/core/logging"
)

var errNilSimulation = errors.New("sim: loop has no simulation")

// Loop drives a Simulation from wall-clock time. Each wake-up feeds the
// elapsed time to the driver, which runs however many fixed ticks are due.
type Loop struct {
	Sim *Simulation

	// Interval is the wake-up period. Zero uses the tick period.
	Interval time.Duration
	Clock    logging.Clock
	Inputs   InputSource

	// AfterStep sees every report in tick order.
	AfterStep func(Report)
}

// Run blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil || l.Sim == nil {
		return errNilSimulation
	}
	interval := l.Interval
	if interval <= 0 {
		interval = time.Duration(l.Sim.dt * float64(time.Second))
	}
	if interval <= 0 {
		interval = time.Second / 60
	}
	clock := l.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := clock.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := clock.Now()
			elapsed := now.Sub(last).Seconds()
			last = now
			for _, report := range l.Sim.Advance(ctx, elapsed, l.Inputs) {
				if l.AfterStep != nil {
					l.AfterStep(report)
				}
			}
		}
	}
}
