// Package watch repeats a unit of work on a fixed delay, reporting the time left
// until the next run so callers can show a countdown.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTick is the countdown granularity.
const DefaultTick = time.Second

// ErrStop can be returned by a cycle to end the loop without an error.
var ErrStop = errors.New("watch: stop")

// CycleFunc performs one refresh. A returned error ends the loop.
type CycleFunc func(ctx context.Context, cycle int) error

// Loop runs a CycleFunc immediately and then again every Interval after the
// previous cycle finished, until the context is cancelled.
type Loop struct {
	Interval time.Duration
	Tick     time.Duration

	// Countdown is called before each wait tick with the time left until the next cycle.
	Countdown func(remaining time.Duration)
}

// New returns a loop with the given interval and the default tick.
func New(interval time.Duration, countdown func(remaining time.Duration)) *Loop {
	return &Loop{
		Interval:  interval,
		Tick:      DefaultTick,
		Countdown: countdown,
	}
}

// Run executes cycles until ctx is done or a cycle fails. Cancellation and ErrStop
// are a normal way out and return nil.
func (l *Loop) Run(ctx context.Context, fn CycleFunc) error {
	if l.Interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", l.Interval)
	}
	tick := l.Tick
	if tick <= 0 || tick > l.Interval {
		tick = l.Interval
	}

	for cycle := 1; ; cycle++ {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if err := fn(ctx, cycle); err != nil {
			if errors.Is(err, ErrStop) || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
				return nil
			}
			return err
		}

		if !l.wait(ctx, tick) {
			return nil
		}
	}
}

// wait counts down one interval and reports whether it ran to completion.
func (l *Loop) wait(ctx context.Context, tick time.Duration) bool {
	timer := time.NewTimer(tick)
	defer timer.Stop()

	for remaining := l.Interval; remaining > 0; remaining -= tick {
		if l.Countdown != nil {
			l.Countdown(remaining)
		}

		step := min(tick, remaining)
		timer.Reset(step)

		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
		}
	}
	return true
}
