// Package sim owns the authoritative simulation run: the state machine, the
// fixed-step propagation loop, and thread-safe snapshots for any number of
// concurrent readers.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/signalsfoundry/spaceflight-sim/core"
	"github.com/signalsfoundry/spaceflight-sim/internal/logging"
	"github.com/signalsfoundry/spaceflight-sim/internal/observability"
	"github.com/signalsfoundry/spaceflight-sim/model"
	"github.com/signalsfoundry/spaceflight-sim/sensors"
	"github.com/signalsfoundry/spaceflight-sim/telemetry"
	"github.com/signalsfoundry/spaceflight-sim/timectrl"
)

// State is the run lifecycle state machine:
// Idle → Running ⇄ Paused → Completed | Aborted, with Reset returning any
// state to Idle. Completed and Aborted are terminal.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of the run observable by any goroutine.
type Snapshot struct {
	State   State
	Vehicle model.VehicleState
	Tick    uint64
	// AppliedThrustN is the thrust the fuel model actually allowed on the
	// last tick, after clamping and exhaustion.
	AppliedThrustN float64
	AbortReason    string
	// Readings holds the most recent telemetry, newest last.
	Readings []model.SensorReading
}

// RunStats summarises a run so far, including the osculating orbit.
type RunStats struct {
	Ticks        uint64
	MaxAltitudeM float64
	MinAltitudeM float64
	MaxSpeedMS   float64
	FuelConsumed float64
	Elements     core.OrbitalElements
}

// Controller drives the simulation. One producer goroutine steps it (either
// manually via Step or through Run); any number of readers may call
// Snapshot, Stats, and the telemetry accessors concurrently.
type Controller struct {
	mu sync.RWMutex

	log       logging.Logger
	metrics   *observability.EngineCollector
	streamCap int
	seed      int64
	epoch     time.Time
	epochSet  bool

	state       State
	cfg         model.VehicleConfig
	vehicle     model.VehicleState
	abortReason string
	tick        uint64

	forces *core.ForceModel
	integ  *core.Integrator
	fuel   *core.FuelModel
	synth  *sensors.Synthesizer
	stream *telemetry.Stream
	clock  *timectrl.Clock

	// thrust is the currently commanded thrust; applied is what the fuel
	// model actually allowed last tick.
	thrust  model.ThrustCommand
	applied float64

	maxAlt, minAlt, maxSpeed, initialFuel float64

	stepObserver func(wall time.Time, state model.VehicleState, readings []model.SensorReading)

	subscribers []chan Event
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger; Noop by default.
func WithLogger(log logging.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithMetrics attaches a Prometheus collector.
func WithMetrics(m *observability.EngineCollector) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithStreamCapacity bounds the telemetry ring buffer (default 65536).
func WithStreamCapacity(n int) Option {
	return func(c *Controller) { c.streamCap = n }
}

// WithSeed fixes the sensor PRNG seed for reproducible runs.
func WithSeed(seed int64) Option {
	return func(c *Controller) { c.seed = seed }
}

// WithEpoch pins the run epoch instead of using the wall clock at Start,
// making reading timestamps reproducible.
func WithEpoch(epoch time.Time) Option {
	return func(c *Controller) { c.epoch, c.epochSet = epoch, true }
}

// WithStepObserver registers a callback invoked after every committed tick
// with the post-step state and the readings it emitted. The callback runs
// under the controller lock and must not call back into the controller.
func WithStepObserver(fn func(wall time.Time, state model.VehicleState, readings []model.SensorReading)) Option {
	return func(c *Controller) { c.stepObserver = fn }
}

// NewController builds an idle controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		log:       logging.Noop(),
		streamCap: 65536,
		seed:      1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start validates the configuration, allocates a fresh run, and transitions
// Idle → Running. Rejections happen before any state mutation. Options
// passed here (seed, stream capacity) apply to this run only.
func (c *Controller) Start(cfg model.VehicleConfig, suite []model.SensorConfig, mode timectrl.Mode, opts ...Option) error {
	if err := validateVehicleConfig(cfg); err != nil {
		return err
	}
	if err := validateSensorConfigs(suite); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("%w: state is %s", ErrNotIdle, c.state)
	}
	for _, opt := range opts {
		opt(c)
	}

	synth, err := sensors.NewSynthesizer(suite, c.seed)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}

	epoch := c.epoch
	if !c.epochSet {
		epoch = time.Now().UTC()
	}

	c.cfg = cfg
	c.vehicle = initialVehicleState(cfg)
	c.forces = core.NewForceModel(cfg)
	c.integ = core.NewIntegrator(c.forces)
	c.fuel = core.NewFuelModel(cfg)
	c.synth = synth
	c.stream = telemetry.NewStream(c.streamCap, telemetry.WithEvictionHook(func(n int) {
		c.metrics.AddEvictions(n)
	}))
	c.clock = timectrl.NewClock(epoch, time.Duration(cfg.TimeStepS*float64(time.Second)), mode)
	c.tick = 0
	c.thrust = model.ThrustCommand{}
	c.applied = 0
	c.abortReason = ""
	c.initialFuel = cfg.FuelMassKg
	alt := core.Altitude(c.vehicle.Position)
	c.maxAlt, c.minAlt = alt, alt
	c.maxSpeed = c.vehicle.Velocity.Norm()

	c.state = StateRunning
	c.log.Info(context.Background(), "simulation started",
		logging.String("phase", c.vehicle.Phase.String()),
		logging.Float64("altitude_km", alt/1000),
		logging.Float64("fuel_kg", c.vehicle.Fuel),
		logging.String("mode", mode.String()),
	)
	return nil
}

// Step advances exactly one tick. It is valid while Running, and also while
// Paused as an explicit single-step. It fails with ErrNotRunning in every
// other state and ErrNumericDivergence when propagation leaves sanity
// bounds; the pre-step snapshot is retained in the latter case. On success
// it returns the post-step vehicle state and the readings emitted this tick.
func (c *Controller) Step() (model.VehicleState, []model.SensorReading, error) {
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning && c.state != StatePaused {
		return c.vehicle, nil, fmt.Errorf("%w: state is %s", ErrNotRunning, c.state)
	}

	dt := c.cfg.TimeStepS
	fuelBefore := c.vehicle.Fuel

	// Fuel gates thrust before the forces see it.
	fuel, applied := c.fuel.Consume(c.vehicle.Fuel, c.thrust, dt)

	pos, vel, acc := c.vehicle.Position, c.vehicle.Velocity, model.Vec3{}
	onPad := c.vehicle.Phase == model.PhasePreLaunch && core.Altitude(pos) <= 0
	if !onPad || applied.Newtons > 0 {
		pos, vel, acc = c.integ.Step(pos, vel, c.vehicle.Mass, applied, dt)
	}

	if !pos.IsFinite() || !vel.IsFinite() ||
		pos.Norm() > maxSanePositionM || vel.Norm() > maxSaneVelocityMS {
		// Freeze on the last valid state; do not commit the bad step.
		c.abortLocked("numeric divergence during propagation", "numeric_divergence")
		return c.vehicle, nil, fmt.Errorf("%w at t=%.1fs", ErrNumericDivergence, c.vehicle.SimTime)
	}

	c.vehicle.Position = pos
	c.vehicle.Velocity = vel
	c.vehicle.Acceleration = acc
	c.vehicle.Fuel = fuel
	c.vehicle.Mass = c.cfg.DryMassKg + fuel
	c.vehicle.SimTime += dt
	c.applied = applied.Newtons
	c.tick++
	wall := c.clock.Advance()

	c.updatePhase(applied.Newtons, fuelBefore)
	c.updateStats()

	active := c.state == StateRunning || c.state == StatePaused

	var readings []model.SensorReading
	if active {
		readings = c.synth.Sample(c.tick-1, dt, sensors.TruthInput{
			State:   c.vehicle,
			ThrustN: applied.Newtons,
		}, wall)
		c.stream.Append(readings...)
	}

	if active && c.vehicle.SimTime >= c.cfg.MissionDurationS {
		c.state = StateCompleted
		c.publish(Event{Kind: EventMissionCompleted, SimTime: c.vehicle.SimTime, Phase: c.vehicle.Phase})
		c.log.Info(context.Background(), "mission completed",
			logging.Float64("sim_time_s", c.vehicle.SimTime),
			logging.String("phase", c.vehicle.Phase.String()),
		)
	}

	counts := c.synth.HealthCounts()
	c.metrics.SetSensorCounts(
		counts[model.HealthNominal],
		counts[model.HealthDegraded],
		counts[model.HealthFailed],
	)
	c.metrics.ObserveStep(time.Since(start).Seconds(), len(readings), int(c.vehicle.Phase))

	if c.stepObserver != nil {
		c.stepObserver(wall, c.vehicle, readings)
	}
	return c.vehicle, readings, nil
}

// updatePhase runs the mission phase machine after a committed step.
// Callers hold c.mu.
func (c *Controller) updatePhase(appliedThrustN, fuelBefore float64) {
	alt := core.Altitude(c.vehicle.Position)

	switch c.vehicle.Phase {
	case model.PhasePreLaunch:
		if appliedThrustN > 0 {
			c.transitionPhase(model.PhaseAscent)
		}
	case model.PhaseAscent:
		if alt < 0 {
			c.abortLocked("vehicle impacted surface during ascent", "crash")
			return
		}
		if alt > karmanLineM {
			c.transitionPhase(model.PhaseOrbitInsertion)
		}
	case model.PhaseOrbitInsertion:
		el := core.ElementsFrom(c.vehicle.Position, c.vehicle.Velocity)
		if el.PeriapsisM > core.EarthRadiusM+targetOrbitAltM {
			c.transitionPhase(model.PhaseOnOrbit)
		}
	case model.PhaseOnOrbit:
		if alt < karmanLineM {
			c.transitionPhase(model.PhaseDescent)
		}
	case model.PhaseDescent:
		if alt <= 0 {
			// Touchdown: pin to the surface and stop.
			r := c.vehicle.Position.Norm()
			if r > 0 {
				c.vehicle.Position = c.vehicle.Position.Scale(core.EarthRadiusM / r)
			}
			c.vehicle.Velocity = model.Vec3{}
			c.transitionPhase(model.PhaseLanded)
			c.state = StateCompleted
			c.publish(Event{Kind: EventMissionCompleted, SimTime: c.vehicle.SimTime, Phase: model.PhaseLanded})
		}
	}

	if c.state != StateRunning && c.state != StatePaused {
		return
	}

	// Crash condition outside the phases handled above. A vehicle on the
	// pad sits at exactly zero altitude and never trips this.
	if alt < 0 && c.vehicle.Phase != model.PhaseLanded {
		c.abortLocked(fmt.Sprintf("position fell below planet radius in phase %s", c.vehicle.Phase), "crash")
		return
	}

	// Fuel exhausted mid-powered-flight with a sub-orbital trajectory.
	if fuelBefore > 0 && c.vehicle.Fuel == 0 &&
		(c.vehicle.Phase == model.PhaseAscent || c.vehicle.Phase == model.PhaseOrbitInsertion) {
		el := core.ElementsFrom(c.vehicle.Position, c.vehicle.Velocity)
		if el.PeriapsisM < core.EarthRadiusM+targetOrbitAltM {
			c.abortLocked("fuel exhausted with insufficient energy for target orbit", "fuel_exhausted")
		}
	}
}

// transitionPhase commits a phase change and notifies subscribers.
// Callers hold c.mu.
func (c *Controller) transitionPhase(next model.Phase) {
	if c.vehicle.Phase == next {
		return
	}
	c.vehicle.Phase = next
	c.publish(Event{Kind: EventPhaseChanged, SimTime: c.vehicle.SimTime, Phase: next})
	c.log.Info(context.Background(), "phase changed",
		logging.String("phase", next.String()),
		logging.Float64("sim_time_s", c.vehicle.SimTime),
	)
}

// abortLocked freezes the run in Aborted. Callers hold c.mu.
func (c *Controller) abortLocked(reason, category string) {
	c.state = StateAborted
	c.abortReason = reason
	c.vehicle.Phase = model.PhaseAborted
	c.metrics.RecordAbort(category)
	c.publish(Event{Kind: EventMissionAborted, SimTime: c.vehicle.SimTime, Phase: model.PhaseAborted, Reason: reason})
	c.log.Warn(context.Background(), "mission aborted",
		logging.String("reason", reason),
		logging.Float64("sim_time_s", c.vehicle.SimTime),
	)
}

func (c *Controller) updateStats() {
	alt := core.Altitude(c.vehicle.Position)
	c.maxAlt = math.Max(c.maxAlt, alt)
	c.minAlt = math.Min(c.minAlt, alt)
	c.maxSpeed = math.Max(c.maxSpeed, c.vehicle.Velocity.Norm())
}

// SetThrust updates the commanded thrust applied from the next tick on.
// Valid while Running or Paused.
func (c *Controller) SetThrust(cmd model.ThrustCommand) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning && c.state != StatePaused {
		return fmt.Errorf("%w: state is %s", ErrNotRunning, c.state)
	}
	if cmd.Newtons < 0 {
		return fmt.Errorf("%w: thrust must be non-negative", ErrInvalidConfig)
	}
	c.thrust = cmd
	return nil
}

// Pause transitions Running → Paused. No state mutation occurs while paused.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return fmt.Errorf("%w: state is %s", ErrNotRunning, c.state)
	}
	c.state = StatePaused
	return nil
}

// Resume transitions Paused → Running.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePaused {
		return fmt.Errorf("%w: state is %s", ErrNotRunning, c.state)
	}
	c.state = StateRunning
	return nil
}

// Abort freezes the run in Aborted with the given reason. Safe to call from
// any goroutine; at most the in-flight tick completes first.
func (c *Controller) Abort(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning && c.state != StatePaused {
		return fmt.Errorf("%w: state is %s", ErrNotRunning, c.state)
	}
	if reason == "" {
		reason = "operator abort"
	}
	c.abortLocked(reason, "commanded")
	return nil
}

// Reset discards the current run and returns to Idle, reallocating a fresh
// VehicleState from the retained VehicleConfig. Safe from any goroutine.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateIdle
	c.abortReason = ""
	c.tick = 0
	c.thrust = model.ThrustCommand{}
	c.applied = 0
	if c.fuel != nil {
		c.fuel.Reset()
	}
	if c.clock != nil {
		c.clock.Reset()
	}
	c.vehicle = initialVehicleState(c.cfg)
	c.stream = nil
	c.synth = nil
	c.log.Info(context.Background(), "simulation reset")
}

// Snapshot returns an immutable copy of the current state plus the latest
// readings. Safe to call from any goroutine at any time.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		State:          c.state,
		Vehicle:        c.vehicle,
		Tick:           c.tick,
		AppliedThrustN: c.applied,
		AbortReason:    c.abortReason,
	}
	if c.stream != nil {
		snap.Readings = c.stream.Latest(64)
	}
	return snap
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Stats summarises the run so far.
func (c *Controller) Stats() RunStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return RunStats{
		Ticks:        c.tick,
		MaxAltitudeM: c.maxAlt,
		MinAltitudeM: c.minAlt,
		MaxSpeedMS:   c.maxSpeed,
		FuelConsumed: c.initialFuel - c.vehicle.Fuel,
		Elements:     core.ElementsFrom(c.vehicle.Position, c.vehicle.Velocity),
	}
}

// Telemetry exposes the run's stream for cursor-based consumers, or nil
// when no run exists.
func (c *Controller) Telemetry() *telemetry.Stream {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stream
}

// FailSensor and RepairSensor inject sensor faults for drills. Valid for an
// active (Running or Paused) run.
func (c *Controller) FailSensor(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.synth == nil {
		return fmt.Errorf("%w: no active run", ErrNotRunning)
	}
	return c.synth.Fail(id)
}

func (c *Controller) RepairSensor(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.synth == nil {
		return fmt.Errorf("%w: no active run", ErrNotRunning)
	}
	return c.synth.Repair(id)
}
