package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

func TestGravityInverseSquare(t *testing.T) {
	fm := NewForceModel(dragFreeConfig())

	near := fm.Acceleration(model.Vec3{X: EarthRadiusM}, model.Vec3{}, 1000, model.ThrustCommand{})
	far := fm.Acceleration(model.Vec3{X: 2 * EarthRadiusM}, model.Vec3{}, 1000, model.ThrustCommand{})

	ratio := near.Norm() / far.Norm()
	if math.Abs(ratio-4) > 1e-9 {
		t.Fatalf("doubling radius should quarter gravity; ratio = %v, want 4", ratio)
	}
}

func TestDragZeroAboveCeiling(t *testing.T) {
	cfg := dragFreeConfig()
	cfg.DragCoefficient = 2.2
	cfg.ReferenceAreaM2 = 10
	fm := NewForceModel(cfg)

	pos := model.Vec3{X: EarthRadiusM + 700e3} // above the 600 km ceiling
	vel := model.Vec3{Y: 7500}
	acc := fm.Acceleration(pos, vel, 1000, model.ThrustCommand{})

	// Only gravity should remain: acceleration collinear with position.
	cross := acc.Cross(pos).Norm()
	if cross > 1e-6*acc.Norm()*pos.Norm() {
		t.Fatalf("expected pure radial gravity above drag ceiling, got %+v", acc)
	}
}

func TestDragOpposesVelocityBelowCeiling(t *testing.T) {
	cfg := dragFreeConfig()
	cfg.DragCoefficient = 2.2
	cfg.ReferenceAreaM2 = 10
	fm := NewForceModel(cfg)

	pos := model.Vec3{X: EarthRadiusM + 80e3}
	vel := model.Vec3{Y: 7800}

	withDrag := fm.Acceleration(pos, vel, 1000, model.ThrustCommand{})
	gravityOnly := NewForceModel(dragFreeConfig()).Acceleration(pos, vel, 1000, model.ThrustCommand{})

	dragAcc := withDrag.Sub(gravityOnly)
	if dragAcc.Norm() == 0 {
		t.Fatal("expected nonzero drag at 80 km")
	}
	if dragAcc.Dot(vel) >= 0 {
		t.Fatalf("drag must oppose velocity, got %+v against v=%+v", dragAcc, vel)
	}
}

func TestDragMagnitudeMatchesClosedForm(t *testing.T) {
	cfg := dragFreeConfig()
	cfg.DragCoefficient = 2.0
	cfg.ReferenceAreaM2 = 4
	fm := NewForceModel(cfg)

	altitude := 100e3
	pos := model.Vec3{X: EarthRadiusM + altitude}
	vel := model.Vec3{Y: 7000}
	mass := 500.0

	total := fm.Acceleration(pos, vel, mass, model.ThrustCommand{})
	gravity := pos.Scale(-EarthMu / math.Pow(pos.Norm(), 3))
	got := total.Sub(gravity).Norm()

	rho := fm.Atmosphere().DensityAt(altitude)
	want := 0.5 * rho * 7000 * 7000 * 2.0 * 4 / mass
	if math.Abs(got-want) > 1e-9*want {
		t.Fatalf("drag magnitude = %v, want %v", got, want)
	}
}

func TestThrustClampedToMax(t *testing.T) {
	cfg := dragFreeConfig()
	cfg.MaxThrustN = 1000
	fm := NewForceModel(cfg)

	pos := model.Vec3{X: EarthRadiusM + 400e3}
	cmd := model.ThrustCommand{Direction: model.Vec3{Y: 1}, Newtons: 5000}
	mass := 1000.0

	total := fm.Acceleration(pos, model.Vec3{}, mass, cmd)
	gravity := pos.Scale(-EarthMu / math.Pow(pos.Norm(), 3))
	thrustAcc := total.Sub(gravity)

	want := 1000.0 / mass
	if math.Abs(thrustAcc.Norm()-want) > 1e-9 {
		t.Fatalf("thrust acceleration = %v, want clamped %v", thrustAcc.Norm(), want)
	}
}

func TestJ2PerturbsPolarComponent(t *testing.T) {
	cfg := dragFreeConfig()
	cfg.EnableJ2 = true
	withJ2 := NewForceModel(cfg)
	without := NewForceModel(dragFreeConfig())

	// Inclined position: J2 must differ from the central term.
	pos := model.Vec3{X: EarthRadiusM + 500e3, Z: 2000e3}
	a1 := withJ2.Acceleration(pos, model.Vec3{}, 1000, model.ThrustCommand{})
	a2 := without.Acceleration(pos, model.Vec3{}, 1000, model.ThrustCommand{})

	diff := a1.Sub(a2).Norm()
	if diff == 0 {
		t.Fatal("J2 term should perturb the acceleration off the equator")
	}
	// The perturbation is a small correction, well under 1% of gravity here.
	if diff > 0.01*a2.Norm() {
		t.Fatalf("J2 perturbation suspiciously large: %v of %v", diff, a2.Norm())
	}
}

func TestAccelerationFiniteNearSurface(t *testing.T) {
	cfg := dragFreeConfig()
	cfg.DragCoefficient = 2.2
	cfg.ReferenceAreaM2 = 10
	fm := NewForceModel(cfg)

	acc := fm.Acceleration(model.Vec3{X: 1}, model.Vec3{Y: 100}, 1, model.ThrustCommand{})
	if !acc.IsFinite() {
		t.Fatalf("acceleration must stay finite for |r| >= 1, got %+v", acc)
	}
}

func TestDefaultAtmosphereDensityProfile(t *testing.T) {
	atm := DefaultAtmosphere()

	if got := atm.DensityAt(0); got != DefaultSeaLevelDensity {
		t.Fatalf("sea-level density = %v, want %v", got, DefaultSeaLevelDensity)
	}
	// One scale height up, density drops by 1/e.
	want := DefaultSeaLevelDensity / math.E
	if got := atm.DensityAt(DefaultScaleHeightM); math.Abs(got-want) > 1e-12 {
		t.Fatalf("density at H = %v, want %v", got, want)
	}
	if got := atm.DensityAt(DefaultDragCeilingM + 1); got != 0 {
		t.Fatalf("density above ceiling = %v, want 0", got)
	}
}
