package sim

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/spaceflight-sim/internal/logging"
	"github.com/signalsfoundry/spaceflight-sim/internal/observability"
)

// pausePollInterval is how often the run loop re-checks a paused simulation.
const pausePollInterval = 10 * time.Millisecond

// Run drives the simulation until it reaches a terminal state or ctx is
// cancelled. In real-time mode each tick is paced to the wall clock; in
// fast-forward mode ticks run back to back. While paused the loop polls
// until the run resumes or terminates.
//
// Run is the single producer; concurrent readers use Snapshot and the
// telemetry stream.
func (c *Controller) Run(ctx context.Context) error {
	ctx, log := logging.WithRunLogger(ctx, c.log)
	runID := logging.RunIDFromContext(ctx)

	tracer := otel.Tracer(observability.TracerName)
	ctx, span := tracer.Start(ctx, "simulation.run",
		trace.WithAttributes(attribute.String("run.id", runID)),
	)
	defer span.End()

	events, unsubscribe := c.Subscribe(16)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			span.SetStatus(codes.Error, "cancelled")
			return ctx.Err()
		default:
		}

		drainEvents(events, span, log)

		c.mu.RLock()
		state := c.state
		clock := c.clock
		c.mu.RUnlock()

		switch state {
		case StateCompleted:
			span.SetAttributes(attribute.String("run.outcome", "completed"))
			return nil
		case StateAborted:
			snap := c.Snapshot()
			span.SetAttributes(
				attribute.String("run.outcome", "aborted"),
				attribute.String("run.abort_reason", snap.AbortReason),
			)
			span.SetStatus(codes.Error, snap.AbortReason)
			return nil
		case StateIdle:
			return errors.New("sim: run called with no active simulation")
		}

		if state == StatePaused {
			select {
			case <-ctx.Done():
				span.SetStatus(codes.Error, "cancelled")
				return ctx.Err()
			case <-time.After(pausePollInterval):
			}
			continue
		}

		if err := clock.Pace(ctx); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return err
		}

		if _, _, err := c.Step(); err != nil {
			if errors.Is(err, ErrNotRunning) {
				// Paused or terminated between the state read and the
				// step; loop around and re-evaluate.
				continue
			}
			if errors.Is(err, ErrNumericDivergence) {
				// Terminal; the abort is already recorded.
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
}

func drainEvents(events <-chan Event, span trace.Span, log logging.Logger) {
	for {
		select {
		case ev := <-events:
			span.AddEvent(ev.Kind.String(), trace.WithAttributes(
				attribute.Float64("sim_time_s", ev.SimTime),
				attribute.String("phase", ev.Phase.String()),
			))
			if ev.Kind == EventMissionAborted {
				log.Warn(context.Background(), "run event",
					logging.String("event", ev.Kind.String()),
					logging.String("reason", ev.Reason),
				)
			}
		default:
			return
		}
	}
}
