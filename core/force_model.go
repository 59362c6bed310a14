package core

import (
	"math"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

// ForceModel computes the instantaneous acceleration on the vehicle from
// gravity, atmospheric drag, and commanded thrust.
//
// The caller guarantees |position| ≥ 1 m and mass > 0; violating either is a
// programming error, not a runtime condition this model recovers from.
type ForceModel struct {
	cfg        model.VehicleConfig
	atmosphere Atmosphere
}

// NewForceModel builds a force model for a vehicle, filling in the published
// atmosphere defaults wherever the config leaves them zero.
func NewForceModel(cfg model.VehicleConfig) *ForceModel {
	atm := DefaultAtmosphere()
	if cfg.SeaLevelDensity > 0 {
		atm.SeaLevelDensity = cfg.SeaLevelDensity
	}
	if cfg.ScaleHeightM > 0 {
		atm.ScaleHeightM = cfg.ScaleHeightM
	}
	if cfg.DragCeilingM > 0 {
		atm.CeilingM = cfg.DragCeilingM
	}
	return &ForceModel{cfg: cfg, atmosphere: atm}
}

// Atmosphere exposes the resolved atmosphere model (useful for diagnostics).
func (f *ForceModel) Atmosphere() Atmosphere { return f.atmosphere }

// Acceleration returns the net acceleration (m/s²) for the given position,
// velocity, mass, and thrust command. Thrust is clamped to the vehicle's
// maximum; the caller zeroes it when fuel is exhausted.
func (f *ForceModel) Acceleration(position, velocity model.Vec3, mass float64, thrust model.ThrustCommand) model.Vec3 {
	acc := f.gravity(position)
	acc = acc.Add(f.drag(position, velocity, mass))
	acc = acc.Add(f.thrust(thrust, mass))
	return acc
}

// gravity is the inverse-square acceleration toward the planet centre, with
// an optional J2 oblateness correction.
func (f *ForceModel) gravity(position model.Vec3) model.Vec3 {
	r := position.Norm()
	r2 := r * r
	// Central term: -μ/r² · r̂
	acc := position.Scale(-EarthMu / (r2 * r))

	if !f.cfg.EnableJ2 {
		return acc
	}

	// J2 perturbation in ECI; z is the polar axis.
	z2 := position.Z * position.Z
	k := -1.5 * EarthJ2 * EarthMu * EarthRadiusM * EarthRadiusM / (r2 * r2 * r)
	zr := 5 * z2 / r2
	return acc.Add(model.Vec3{
		X: k * position.X * (1 - zr),
		Y: k * position.Y * (1 - zr),
		Z: k * position.Z * (3 - zr),
	})
}

// drag is -½·ρ·v²·Cd·A/m, directed opposite the velocity. Zero above the
// drag ceiling or at zero speed.
func (f *ForceModel) drag(position, velocity model.Vec3, mass float64) model.Vec3 {
	altitude := position.Norm() - EarthRadiusM
	rho := f.atmosphere.DensityAt(altitude)
	if rho == 0 {
		return model.Vec3{}
	}
	speed := velocity.Norm()
	if speed == 0 {
		return model.Vec3{}
	}
	magnitude := 0.5 * rho * speed * speed * f.cfg.DragCoefficient * f.cfg.ReferenceAreaM2 / mass
	return velocity.Scale(-magnitude / speed)
}

// thrust converts the command into an acceleration, clamping the magnitude
// to the vehicle's MaxThrustN.
func (f *ForceModel) thrust(cmd model.ThrustCommand, mass float64) model.Vec3 {
	if cmd.Newtons <= 0 {
		return model.Vec3{}
	}
	dirNorm := cmd.Direction.Norm()
	if dirNorm == 0 {
		return model.Vec3{}
	}
	newtons := math.Min(cmd.Newtons, f.cfg.MaxThrustN)
	return cmd.Direction.Scale(newtons / (dirNorm * mass))
}
