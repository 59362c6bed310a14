package sim

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/spaceflight-sim/core"
	"github.com/signalsfoundry/spaceflight-sim/model"
)

// Altitude thresholds the phase machine keys off, in metres.
const (
	// karmanLineM separates atmospheric flight from space for phase
	// purposes.
	karmanLineM = 100e3
	// targetOrbitAltM is the minimum periapsis altitude considered a
	// stable orbit when judging fuel-exhaustion aborts.
	targetOrbitAltM = 100e3
)

// Sanity bounds for divergence detection. An LEO-scale vehicle has no
// business beyond these.
const (
	maxSanePositionM  = 1e10 // ~25× lunar distance
	maxSaneVelocityMS = 1e6
)

// validateVehicleConfig rejects non-physical parameters before any state is
// touched. Every rejection wraps ErrInvalidConfig with a specific reason.
func validateVehicleConfig(cfg model.VehicleConfig) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if cfg.DryMassKg <= 0 {
		return fail("dry_mass_kg must be positive, got %v", cfg.DryMassKg)
	}
	if cfg.FuelMassKg < 0 {
		return fail("fuel_mass_kg must be non-negative, got %v", cfg.FuelMassKg)
	}
	if cfg.MaxThrustN < 0 {
		return fail("max_thrust_n must be non-negative, got %v", cfg.MaxThrustN)
	}
	if cfg.MaxThrustN > 0 && cfg.SpecificImpulseS <= 0 && cfg.FuelFlowKgS <= 0 {
		return fail("thrusting vehicle needs specific_impulse_s or fuel_flow_kg_s")
	}
	if cfg.SpecificImpulseS < 0 {
		return fail("specific_impulse_s must be non-negative, got %v", cfg.SpecificImpulseS)
	}
	if cfg.DragCoefficient < 0 || cfg.ReferenceAreaM2 < 0 {
		return fail("drag coefficient and reference area must be non-negative")
	}
	if cfg.InitialAltitudeKm < 0 {
		return fail("initial_altitude_km must be non-negative, got %v", cfg.InitialAltitudeKm)
	}
	if cfg.InitialEccentricity < 0 || cfg.InitialEccentricity >= 1 {
		return fail("initial_eccentricity must be in [0, 1), got %v", cfg.InitialEccentricity)
	}
	if cfg.MissionDurationS <= 0 {
		return fail("mission_duration_s must be positive, got %v", cfg.MissionDurationS)
	}
	if cfg.TimeStepS <= 0 {
		return fail("time_step_s must be positive, got %v", cfg.TimeStepS)
	}
	return nil
}

// validateSensorConfigs checks suite-level invariants the synthesizer does
// not cover itself.
func validateSensorConfigs(suite []model.SensorConfig) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	seen := make(map[string]bool, len(suite))
	for _, cfg := range suite {
		if cfg.ID == "" {
			return fail("sensor with empty id")
		}
		if seen[cfg.ID] {
			return fail("duplicate sensor id %q", cfg.ID)
		}
		seen[cfg.ID] = true

		switch cfg.FailurePolicy {
		case model.FailureStale, model.FailureFlagged, model.FailureOmit:
		case "":
			return fail("sensor %q has no failure_policy; choose stale, flagged, or omit", cfg.ID)
		default:
			return fail("sensor %q has unknown failure_policy %q", cfg.ID, cfg.FailurePolicy)
		}

		if cfg.NoiseStd < 0 || cfg.DriftRate < 0 || cfg.CalibrationStd < 0 {
			return fail("sensor %q noise/drift/calibration must be non-negative", cfg.ID)
		}
		if cfg.FailureProbPerTick < 0 || cfg.FailureProbPerTick > 1 {
			return fail("sensor %q failure_prob_per_tick must be in [0, 1]", cfg.ID)
		}
		if cfg.RepairProbPerTick < 0 || cfg.RepairProbPerTick > 1 {
			return fail("sensor %q repair_prob_per_tick must be in [0, 1]", cfg.ID)
		}
		if cfg.SampleEveryNTicks < 0 {
			return fail("sensor %q sample_every_n_ticks must be non-negative", cfg.ID)
		}
	}
	return nil
}

// initialVehicleState allocates the fresh state a run starts from: either at
// rest on the surface, or at the perigee of the configured orbit.
func initialVehicleState(cfg model.VehicleConfig) model.VehicleState {
	altitude := cfg.InitialAltitudeKm * 1000
	r := core.EarthRadiusM + altitude

	state := model.VehicleState{
		Position: model.Vec3{X: r},
		Mass:     cfg.DryMassKg + cfg.FuelMassKg,
		Fuel:     cfg.FuelMassKg,
		Phase:    model.PhasePreLaunch,
	}

	if altitude <= 0 {
		// On the pad: co-located with the surface, no orbital velocity.
		return state
	}

	// Perigee of an orbit with the configured eccentricity:
	// v² = μ(1+e)/r.
	v := math.Sqrt(core.EarthMu * (1 + cfg.InitialEccentricity) / r)
	state.Velocity = model.Vec3{Y: v}
	if altitude > karmanLineM {
		state.Phase = model.PhaseOnOrbit
	}
	return state
}
