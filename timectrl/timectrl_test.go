package timectrl

import (
	"context"
	"testing"
	"time"
)

func TestAdvanceAccumulatesTicks(t *testing.T) {
	epoch := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(epoch, time.Second, FastForward)

	for i := 0; i < 42; i++ {
		c.Advance()
	}

	want := epoch.Add(42 * time.Second)
	if got := c.Now(); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
	if got := c.Elapsed(); got != 42*time.Second {
		t.Fatalf("Elapsed() = %v, want 42s", got)
	}
}

func TestFastForwardPaceDoesNotBlock(t *testing.T) {
	c := NewClock(time.Now(), time.Hour, FastForward)

	start := time.Now()
	for i := 0; i < 1000; i++ {
		if err := c.Pace(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if wall := time.Since(start); wall > time.Second {
		t.Fatalf("fast-forward pacing took %v for 1000 ticks", wall)
	}
}

func TestRealTimePaceHonoursCancellation(t *testing.T) {
	c := NewClock(time.Now(), time.Hour, RealTime)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Pace(ctx); err == nil {
		t.Fatal("expected context error from cancelled Pace")
	}
}

func TestRealTimePaceWaitsRoughlyOneTick(t *testing.T) {
	const tick = 20 * time.Millisecond
	c := NewClock(time.Now(), tick, RealTime)

	start := time.Now()
	if err := c.Pace(context.Background()); err != nil {
		t.Fatal(err)
	}
	if wall := time.Since(start); wall < tick/2 {
		t.Fatalf("real-time pace returned after %v, want ≈ %v", wall, tick)
	}
}

func TestResetRewindsToEpoch(t *testing.T) {
	epoch := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(epoch, time.Second, FastForward)

	c.Advance()
	c.Advance()
	c.Reset()

	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() after reset = %v, want epoch %v", got, epoch)
	}
}
