package core

import (
	"math"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

// OrbitalElements summarises the instantaneous two-body orbit implied by a
// position/velocity pair. For unbound (escape) trajectories SemiMajorAxis
// and Period are +Inf.
type OrbitalElements struct {
	SemiMajorAxis float64 // m
	Eccentricity  float64
	Period        float64 // s
	ApoapsisM     float64 // radius at apoapsis, m
	PeriapsisM    float64 // radius at periapsis, m
	// SpecificEnergy is the total mechanical energy per unit mass,
	// v²/2 − μ/r (J/kg). Negative for bound orbits.
	SpecificEnergy float64
}

// ElementsFrom computes osculating elements from an ECI state.
func ElementsFrom(position, velocity model.Vec3) OrbitalElements {
	r := position.Norm()
	v := velocity.Norm()

	energy := 0.5*v*v - EarthMu/r

	var a, period float64
	if energy < 0 {
		a = -EarthMu / (2 * energy)
		period = 2 * math.Pi * math.Sqrt(a*a*a/EarthMu)
	} else {
		a = math.Inf(1)
		period = math.Inf(1)
	}

	// Eccentricity vector: e = ((v²−μ/r)·r − (r·v)·v)/μ
	rv := position.Dot(velocity)
	eVec := position.Scale(v*v - EarthMu/r).Sub(velocity.Scale(rv)).Scale(1 / EarthMu)
	ecc := eVec.Norm()

	apo, peri := math.Inf(1), a
	if !math.IsInf(a, 1) {
		apo = a * (1 + ecc)
		peri = a * (1 - ecc)
	}

	return OrbitalElements{
		SemiMajorAxis:  a,
		Eccentricity:   ecc,
		Period:         period,
		ApoapsisM:      apo,
		PeriapsisM:     peri,
		SpecificEnergy: energy,
	}
}

// CircularVelocity returns the speed of a circular orbit at radius r.
func CircularVelocity(r float64) float64 {
	return math.Sqrt(EarthMu / r)
}

// CircularPeriod returns T = 2π√(r³/μ) for a circular orbit at radius r.
func CircularPeriod(r float64) float64 {
	return 2 * math.Pi * math.Sqrt(r*r*r/EarthMu)
}

// Altitude returns height above the mean Earth surface for an ECI position.
func Altitude(position model.Vec3) float64 {
	return position.Norm() - EarthRadiusM
}
