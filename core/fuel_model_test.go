package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

func TestFuelNeverNegative(t *testing.T) {
	cfg := model.VehicleConfig{MaxThrustN: 10000, SpecificImpulseS: 300}
	fm := NewFuelModel(cfg)

	fuel := 5.0
	// Command far more burn than the tank holds, repeatedly.
	for i := 0; i < 100; i++ {
		var cmd model.ThrustCommand
		cmd.Newtons = 10000
		fuel, cmd = fm.Consume(fuel, cmd, 10)
		if fuel < 0 {
			t.Fatalf("fuel went negative at tick %d: %v", i, fuel)
		}
	}
	if fuel != 0 {
		t.Fatalf("fuel = %v after sustained over-burn, want 0", fuel)
	}
}

func TestConsumeRocketEquationRate(t *testing.T) {
	cfg := model.VehicleConfig{MaxThrustN: 1000, SpecificImpulseS: 300}
	fm := NewFuelModel(cfg)

	fuel, _ := fm.Consume(100, model.ThrustCommand{Newtons: 1000}, 1)
	wantBurn := 1000.0 / (300 * G0)
	if math.Abs((100-fuel)-wantBurn) > 1e-12 {
		t.Fatalf("burned %v kg, want %v kg", 100-fuel, wantBurn)
	}
}

func TestConsumeFlatFlowRate(t *testing.T) {
	cfg := model.VehicleConfig{MaxThrustN: 1000, FuelFlowKgS: 0.5}
	fm := NewFuelModel(cfg)

	fuel, _ := fm.Consume(10, model.ThrustCommand{Newtons: 700}, 2)
	if math.Abs(fuel-9) > 1e-12 {
		t.Fatalf("fuel = %v after 2 s at 0.5 kg/s, want 9", fuel)
	}
}

func TestExhaustionLatchesUntilReset(t *testing.T) {
	cfg := model.VehicleConfig{MaxThrustN: 1000, SpecificImpulseS: 100}
	fm := NewFuelModel(cfg)

	fuel, _ := fm.Consume(0.0001, model.ThrustCommand{Newtons: 1000}, 10)
	if fuel != 0 {
		t.Fatalf("fuel = %v, want 0", fuel)
	}
	if !fm.Exhausted() {
		t.Fatal("model should latch exhausted")
	}

	// Subsequent commands get zero thrust even if fuel were somehow topped up.
	_, cmd := fm.Consume(50, model.ThrustCommand{Newtons: 1000}, 1)
	if cmd.Newtons != 0 {
		t.Fatalf("thrust after exhaustion = %v, want 0", cmd.Newtons)
	}

	fm.Reset()
	if fm.Exhausted() {
		t.Fatal("reset should clear the exhausted latch")
	}
	_, cmd = fm.Consume(50, model.ThrustCommand{Newtons: 1000}, 1)
	if cmd.Newtons != 1000 {
		t.Fatalf("thrust after reset = %v, want 1000", cmd.Newtons)
	}
}

func TestPartialTickScalesThrust(t *testing.T) {
	cfg := model.VehicleConfig{MaxThrustN: 1000, SpecificImpulseS: 300}
	fm := NewFuelModel(cfg)

	fullBurn := 1000.0 / (300 * G0) // kg over a 1 s tick
	half := fullBurn / 2

	fuel, cmd := fm.Consume(half, model.ThrustCommand{Newtons: 1000}, 1)
	if fuel != 0 {
		t.Fatalf("fuel = %v, want 0", fuel)
	}
	if math.Abs(cmd.Newtons-500) > 1e-9 {
		t.Fatalf("applied thrust = %v, want ~500 for a half-fuel tick", cmd.Newtons)
	}
}

func TestZeroCommandConsumesNothing(t *testing.T) {
	fm := NewFuelModel(model.VehicleConfig{MaxThrustN: 1000, SpecificImpulseS: 300})
	fuel, _ := fm.Consume(42, model.ThrustCommand{}, 1)
	if fuel != 42 {
		t.Fatalf("fuel = %v, want unchanged 42", fuel)
	}
}
