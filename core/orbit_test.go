package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

func TestElementsFromCircularOrbit(t *testing.T) {
	r := EarthRadiusM + 400e3
	pos := model.Vec3{X: r}
	vel := model.Vec3{Y: CircularVelocity(r)}

	el := ElementsFrom(pos, vel)

	if math.Abs(el.SemiMajorAxis-r)/r > 1e-9 {
		t.Fatalf("semi-major axis = %v, want %v", el.SemiMajorAxis, r)
	}
	if el.Eccentricity > 1e-9 {
		t.Fatalf("eccentricity = %v, want ~0 for circular orbit", el.Eccentricity)
	}
	if want := CircularPeriod(r); math.Abs(el.Period-want)/want > 1e-9 {
		t.Fatalf("period = %v, want %v (Kepler third law)", el.Period, want)
	}
	if el.SpecificEnergy >= 0 {
		t.Fatalf("bound orbit must have negative energy, got %v", el.SpecificEnergy)
	}
}

func TestElementsFromEscapeTrajectory(t *testing.T) {
	r := EarthRadiusM + 400e3
	pos := model.Vec3{X: r}
	escape := math.Sqrt(2*EarthMu/r) * 1.1
	vel := model.Vec3{Y: escape}

	el := ElementsFrom(pos, vel)
	if !math.IsInf(el.SemiMajorAxis, 1) || !math.IsInf(el.Period, 1) {
		t.Fatalf("escape trajectory should report infinite a and T, got a=%v T=%v",
			el.SemiMajorAxis, el.Period)
	}
	if el.SpecificEnergy <= 0 {
		t.Fatalf("escape trajectory must have positive energy, got %v", el.SpecificEnergy)
	}
}

func TestElementsFromEccentricPerigee(t *testing.T) {
	r := EarthRadiusM + 400e3
	pos := model.Vec3{X: r}
	vel := model.Vec3{Y: CircularVelocity(r) * 1.1}

	el := ElementsFrom(pos, vel)

	// Launched at perigee: periapsis radius equals the start radius.
	if math.Abs(el.PeriapsisM-r)/r > 1e-6 {
		t.Fatalf("periapsis = %v, want %v", el.PeriapsisM, r)
	}
	if el.ApoapsisM <= el.PeriapsisM {
		t.Fatalf("apoapsis %v should exceed periapsis %v", el.ApoapsisM, el.PeriapsisM)
	}
	if el.Eccentricity <= 0 || el.Eccentricity >= 1 {
		t.Fatalf("eccentricity = %v, want in (0, 1)", el.Eccentricity)
	}
}

func TestAltitude(t *testing.T) {
	if got := Altitude(model.Vec3{X: EarthRadiusM + 1234}); math.Abs(got-1234) > 1e-6 {
		t.Fatalf("altitude = %v, want 1234", got)
	}
}
