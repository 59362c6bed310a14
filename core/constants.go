package core

// Physical constants used throughout the propagation layer. Distances are
// metres, masses kilograms, times seconds.
const (
	// EarthMu is the standard gravitational parameter μ = G·M_earth (m³/s²).
	EarthMu = 3.986004418e14

	// EarthRadiusM is the mean Earth radius.
	EarthRadiusM = 6.371e6

	// EarthJ2 is the second zonal harmonic of Earth's gravity field,
	// used by the optional oblateness correction.
	EarthJ2 = 1.08262668e-3

	// G0 is standard gravity, used in the rocket equation and g-force
	// derivations.
	G0 = 9.80665

	// Published exponential-atmosphere defaults. A VehicleConfig can
	// override all three.
	DefaultSeaLevelDensity = 1.225  // kg/m³
	DefaultScaleHeightM    = 8000.0 // m
	DefaultDragCeilingM    = 600e3  // m; no drag above this altitude
)
