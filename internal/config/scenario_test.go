package config

import (
	"strings"
	"testing"

	"github.com/signalsfoundry/spaceflight-sim/model"
	"github.com/signalsfoundry/spaceflight-sim/timectrl"
)

const sampleScenario = `
name: leo-demo-orbit
seed: 42
mode: fast_forward
stream_capacity: 4096
vehicle:
  dry_mass_kg: 1200
  fuel_mass_kg: 300
  max_thrust_n: 20000
  specific_impulse_s: 310
  drag_coefficient: 2.2
  reference_area_m2: 4.5
  initial_altitude_km: 400
  mission_duration_s: 5400
  time_step_s: 1
sensors:
  - id: nav_altitude
    quantity: altitude
    unit: m
    noise_std: 5
    failure_policy: flagged
  - id: prop_fuel_level
    quantity: fuel_level
    unit: kg
    failure_policy: stale
`

func TestParseScenario(t *testing.T) {
	sc, err := Parse(strings.NewReader(sampleScenario))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.Seed != 42 {
		t.Errorf("Seed = %d, want 42", sc.Seed)
	}
	if sc.StreamCapacity != 4096 {
		t.Errorf("StreamCapacity = %d, want 4096", sc.StreamCapacity)
	}
	if sc.Vehicle.DryMassKg != 1200 || sc.Vehicle.TimeStepS != 1 {
		t.Errorf("vehicle not decoded: %+v", sc.Vehicle)
	}
	if len(sc.Sensors) != 2 {
		t.Fatalf("sensors = %d, want 2", len(sc.Sensors))
	}
	if sc.Sensors[0].FailurePolicy != model.FailureFlagged {
		t.Errorf("sensor 0 policy = %q, want flagged", sc.Sensors[0].FailurePolicy)
	}
	if mode, err := sc.ClockMode(); err != nil || mode != timectrl.FastForward {
		t.Errorf("ClockMode = %v, %v; want fast_forward", mode, err)
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	in := `
vehicle:
  dry_mass_kg: 100
  warp_factor: 9
`
	if _, err := Parse(strings.NewReader(in)); err == nil {
		t.Fatal("Parse accepted an unknown vehicle field")
	}
}

func TestStreamCapacityDefaults(t *testing.T) {
	sc, err := Parse(strings.NewReader("name: minimal"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.StreamCapacity != DefaultStreamCapacity {
		t.Errorf("StreamCapacity = %d, want %d", sc.StreamCapacity, DefaultStreamCapacity)
	}
}

func TestClockModeDefaultsToRealTime(t *testing.T) {
	sc := &Scenario{}
	mode, err := sc.ClockMode()
	if err != nil || mode != timectrl.RealTime {
		t.Fatalf("ClockMode = %v, %v; want real_time", mode, err)
	}
}

func TestClockModeRejectsUnknown(t *testing.T) {
	sc := &Scenario{Mode: "ludicrous_speed"}
	if _, err := sc.ClockMode(); err == nil {
		t.Fatal("ClockMode accepted an unknown mode")
	}
}

func TestTLERewritesInitialOrbit(t *testing.T) {
	in := `
vehicle:
  dry_mass_kg: 1000
  mission_duration_s: 5400
  time_step_s: 1
tle:
  line1: "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
  line2: "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
  epoch: 2021-10-02T14:10:00Z
`
	sc, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// ISS orbit: roughly 420 km and nearly circular.
	if alt := sc.Vehicle.InitialAltitudeKm; alt < 350 || alt > 450 {
		t.Errorf("InitialAltitudeKm = %v, want ISS-like altitude", alt)
	}
	if e := sc.Vehicle.InitialEccentricity; e < 0 || e > 0.01 {
		t.Errorf("InitialEccentricity = %v, want near-circular", e)
	}
}

func TestTLERequiresEpoch(t *testing.T) {
	in := `
vehicle:
  dry_mass_kg: 1000
tle:
  line1: "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
  line2: "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
`
	if _, err := Parse(strings.NewReader(in)); err == nil {
		t.Fatal("Parse accepted a TLE without an epoch")
	}
}
