// Package timectrl provides the simulation clock and wall-clock pacing for
// the tick loop.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// Mode describes how the clock paces the simulation loop.
type Mode int

const (
	// RealTime sleeps until each tick's wall-clock boundary.
	RealTime Mode = iota
	// FastForward free-runs as fast as the loop can step.
	FastForward
)

func (m Mode) String() string {
	if m == FastForward {
		return "fast_forward"
	}
	return "real_time"
}

// Clock tracks simulation time as an epoch plus a whole number of fixed
// ticks, and paces the producer loop according to its mode. Now is safe to
// call from any goroutine; Advance and Pace belong to the producer loop.
type Clock struct {
	mu      sync.RWMutex
	epoch   time.Time
	tick    time.Duration
	mode    Mode
	elapsed time.Duration

	// nextWall is the wall-clock deadline of the next tick in RealTime mode.
	nextWall time.Time
}

// NewClock constructs a clock starting at epoch with the given tick size.
func NewClock(epoch time.Time, tick time.Duration, mode Mode) *Clock {
	return &Clock{
		epoch:    epoch,
		tick:     tick,
		mode:     mode,
		nextWall: time.Now().Add(tick),
	}
}

// Now returns the current simulation time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch.Add(c.elapsed)
}

// Elapsed returns simulation time elapsed since the epoch.
func (c *Clock) Elapsed() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.elapsed
}

// Mode returns the pacing mode the clock was built with.
func (c *Clock) Mode() Mode {
	return c.mode
}

// Advance moves simulation time forward by one tick and returns the new
// simulation time.
func (c *Clock) Advance() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed += c.tick
	return c.epoch.Add(c.elapsed)
}

// Pace blocks until the next tick boundary in RealTime mode; in FastForward
// it returns immediately. A cancelled context aborts the wait. When the loop
// has fallen behind wall clock, Pace returns immediately and lets the loop
// catch up tick by tick.
func (c *Clock) Pace(ctx context.Context) error {
	if c.mode == FastForward {
		return ctx.Err()
	}

	c.mu.Lock()
	deadline := c.nextWall
	c.nextWall = c.nextWall.Add(c.tick)
	c.mu.Unlock()

	wait := time.Until(deadline)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset rewinds simulation time to the epoch and restarts pacing from now.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed = 0
	c.nextWall = time.Now().Add(c.tick)
}
