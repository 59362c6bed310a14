package core

import (
	"math"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

// FuelModel tracks propellant depletion coupled to thrust commands.
//
// Burn per tick follows the rocket-equation form ṁ = F/(Isp·g0) when a
// specific impulse is configured, or the flat FuelFlowKgS rate otherwise.
// Once fuel reaches zero, thrust is forced to zero for every subsequent tick
// until the run is reset.
type FuelModel struct {
	cfg       model.VehicleConfig
	exhausted bool
}

// NewFuelModel builds a fuel model for a vehicle config.
func NewFuelModel(cfg model.VehicleConfig) *FuelModel {
	return &FuelModel{cfg: cfg}
}

// Exhausted reports whether fuel has run out at some point this run.
func (fm *FuelModel) Exhausted() bool { return fm.exhausted }

// Reset clears the exhausted latch for a fresh run.
func (fm *FuelModel) Reset() { fm.exhausted = false }

// Consume applies one tick of burn for the commanded thrust against the
// available fuel. It returns the remaining fuel (clamped at zero) and the
// thrust command actually applied, which may be reduced or zeroed when
// propellant is insufficient or exhausted.
func (fm *FuelModel) Consume(fuel float64, cmd model.ThrustCommand, dt float64) (float64, model.ThrustCommand) {
	if fm.exhausted || fuel <= 0 {
		fm.exhausted = true
		cmd.Newtons = 0
		return math.Max(fuel, 0), cmd
	}
	if cmd.Newtons <= 0 {
		return fuel, cmd
	}

	newtons := math.Min(cmd.Newtons, fm.cfg.MaxThrustN)
	burn := fm.burnRate(newtons) * dt
	if burn <= 0 {
		cmd.Newtons = newtons
		return fuel, cmd
	}

	if burn >= fuel {
		// Partial tick of thrust: scale the applied thrust by the fraction
		// of the demanded burn that the remaining fuel covers.
		cmd.Newtons = newtons * (fuel / burn)
		fm.exhausted = true
		return 0, cmd
	}

	cmd.Newtons = newtons
	return fuel - burn, cmd
}

// burnRate returns propellant mass flow in kg/s for the given thrust.
func (fm *FuelModel) burnRate(newtons float64) float64 {
	if fm.cfg.SpecificImpulseS > 0 {
		return newtons / (fm.cfg.SpecificImpulseS * G0)
	}
	return fm.cfg.FuelFlowKgS
}
