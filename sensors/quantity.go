package sensors

import (
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/spaceflight-sim/core"
	"github.com/signalsfoundry/spaceflight-sim/model"
)

// TruthInput carries everything a sensor can observe for one tick: the
// authoritative vehicle state plus the thrust actually applied this tick.
type TruthInput struct {
	State   model.VehicleState
	ThrustN float64
}

// quantityFn derives the true physical value of a quantity from the input.
type quantityFn func(in TruthInput) float64

// quantities maps the SensorConfig.Quantity names onto their derivations.
// Direct fields and derived quantities alike; unknown names are rejected at
// start, never deep inside the tick loop.
var quantities = map[string]quantityFn{
	"sim_time":   func(in TruthInput) float64 { return in.State.SimTime },
	"altitude":   func(in TruthInput) float64 { return core.Altitude(in.State.Position) },
	"speed":      func(in TruthInput) float64 { return in.State.Velocity.Norm() },
	"mass":       func(in TruthInput) float64 { return in.State.Mass },
	"fuel_level": func(in TruthInput) float64 { return in.State.Fuel },

	"accel_x": func(in TruthInput) float64 { return in.State.Acceleration.X },
	"accel_y": func(in TruthInput) float64 { return in.State.Acceleration.Y },
	"accel_z": func(in TruthInput) float64 { return in.State.Acceleration.Z },
	"g_force": func(in TruthInput) float64 { return in.State.Acceleration.Norm() / core.G0 },

	"thrust_magnitude": func(in TruthInput) float64 { return in.ThrustN },

	// Sub-satellite point, treating ECI as instantaneously Earth-fixed.
	"latitude": func(in TruthInput) float64 {
		r := in.State.Position.Norm()
		if r == 0 {
			return 0
		}
		return math.Asin(in.State.Position.Z/r) * 180 / math.Pi
	},
	"longitude": func(in TruthInput) float64 {
		return math.Atan2(in.State.Position.Y, in.State.Position.X) * 180 / math.Pi
	},

	// Housekeeping quantities with simple physical trends.
	"battery_voltage": func(in TruthInput) float64 {
		return 28.0 - 1e-5*in.State.SimTime
	},
	"radiation_level": func(in TruthInput) float64 {
		return 0.1 * (1 + core.Altitude(in.State.Position)/400e3)
	},
}

// KnownQuantities returns the sorted list of recognised quantity names.
func KnownQuantities() []string {
	names := make([]string, 0, len(quantities))
	for name := range quantities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveQuantity looks up the derivation for a quantity name.
func resolveQuantity(name string) (quantityFn, error) {
	fn, ok := quantities[name]
	if !ok {
		return nil, fmt.Errorf("unknown sensor quantity %q", name)
	}
	return fn, nil
}
