package core

import (
	"github.com/signalsfoundry/spaceflight-sim/model"
)

// Integrator advances the 6-dimensional (position, velocity) state by one
// fixed time step using classical 4th-order Runge–Kutta. The force model is
// the derivative function for velocity; velocity itself is the derivative
// for position.
type Integrator struct {
	forces *ForceModel
}

// NewIntegrator builds an integrator over the given force model.
func NewIntegrator(forces *ForceModel) *Integrator {
	return &Integrator{forces: forces}
}

// derivative is the RK4 stage evaluation: (ṙ, v̇) at an intermediate state.
type derivative struct {
	dPos model.Vec3 // = velocity
	dVel model.Vec3 // = acceleration
}

// Step propagates position and velocity over dt seconds under the given mass
// and (already fuel-gated) thrust command. It returns the new position,
// velocity, and the acceleration at the start of the step, which callers
// retain for accelerometer sensors.
func (in *Integrator) Step(pos, vel model.Vec3, mass float64, thrust model.ThrustCommand, dt float64) (model.Vec3, model.Vec3, model.Vec3) {
	eval := func(p, v model.Vec3) derivative {
		return derivative{
			dPos: v,
			dVel: in.forces.Acceleration(p, v, mass, thrust),
		}
	}

	k1 := eval(pos, vel)
	k2 := eval(
		pos.Add(k1.dPos.Scale(dt/2)),
		vel.Add(k1.dVel.Scale(dt/2)),
	)
	k3 := eval(
		pos.Add(k2.dPos.Scale(dt/2)),
		vel.Add(k2.dVel.Scale(dt/2)),
	)
	k4 := eval(
		pos.Add(k3.dPos.Scale(dt)),
		vel.Add(k3.dVel.Scale(dt)),
	)

	// Weighted RK4 combination: (k1 + 2k2 + 2k3 + k4)/6.
	dPos := k1.dPos.Add(k2.dPos.Scale(2)).Add(k3.dPos.Scale(2)).Add(k4.dPos).Scale(dt / 6)
	dVel := k1.dVel.Add(k2.dVel.Scale(2)).Add(k3.dVel.Scale(2)).Add(k4.dVel).Scale(dt / 6)

	return pos.Add(dPos), vel.Add(dVel), k1.dVel
}
