package core

import "math"

// Atmosphere is a simple exponential density model,
// ρ(h) = ρ0 · exp(-h / H), cut off above a configurable ceiling.
type Atmosphere struct {
	SeaLevelDensity float64 // ρ0, kg/m³
	ScaleHeightM    float64 // H, m
	CeilingM        float64 // altitude above which density is zero
}

// DefaultAtmosphere returns the model with the published constants.
func DefaultAtmosphere() Atmosphere {
	return Atmosphere{
		SeaLevelDensity: DefaultSeaLevelDensity,
		ScaleHeightM:    DefaultScaleHeightM,
		CeilingM:        DefaultDragCeilingM,
	}
}

// DensityAt returns the atmospheric density at the given altitude in metres.
// Negative altitudes clamp to sea level.
func (a Atmosphere) DensityAt(altitudeM float64) float64 {
	if altitudeM >= a.CeilingM {
		return 0
	}
	if altitudeM < 0 {
		altitudeM = 0
	}
	return a.SeaLevelDensity * math.Exp(-altitudeM/a.ScaleHeightM)
}
