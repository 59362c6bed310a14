package model

// Phase is a named stage of the mission timeline, used to gate abort and
// success conditions.
type Phase int

const (
	PhasePreLaunch Phase = iota
	PhaseAscent
	PhaseOrbitInsertion
	PhaseOnOrbit
	PhaseDescent
	PhaseLanded
	PhaseAborted
)

// String returns the canonical lower-snake name used in exports and the API.
func (p Phase) String() string {
	switch p {
	case PhasePreLaunch:
		return "pre_launch"
	case PhaseAscent:
		return "ascent"
	case PhaseOrbitInsertion:
		return "orbit_insertion"
	case PhaseOnOrbit:
		return "on_orbit"
	case PhaseDescent:
		return "descent"
	case PhaseLanded:
		return "landed"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// VehicleState is the authoritative 6-DOF-lite state of the vehicle at a
// single simulation instant. It is exclusively owned by the simulation
// controller; everything external sees copies.
type VehicleState struct {
	// SimTime is seconds since the run epoch.
	SimTime float64

	Position Vec3 // ECI metres
	Velocity Vec3 // ECI m/s

	// Acceleration is the net acceleration applied over the last step,
	// retained for accelerometer-style sensors.
	Acceleration Vec3

	Mass float64 // kg, always DryMass + Fuel
	Fuel float64 // kg, never negative

	Phase Phase
}

// VehicleConfig describes the vehicle and mission. Immutable for a run.
type VehicleConfig struct {
	DryMassKg        float64 `yaml:"dry_mass_kg"`
	FuelMassKg       float64 `yaml:"fuel_mass_kg"`
	MaxThrustN       float64 `yaml:"max_thrust_n"`
	SpecificImpulseS float64 `yaml:"specific_impulse_s"`
	// FuelFlowKgS is an optional flat propellant flow rate used when
	// SpecificImpulseS is zero.
	FuelFlowKgS float64 `yaml:"fuel_flow_kg_s"`

	DragCoefficient float64 `yaml:"drag_coefficient"`
	ReferenceAreaM2 float64 `yaml:"reference_area_m2"`

	InitialAltitudeKm   float64 `yaml:"initial_altitude_km"`
	InitialEccentricity float64 `yaml:"initial_eccentricity"`

	MissionDurationS float64 `yaml:"mission_duration_s"`
	TimeStepS        float64 `yaml:"time_step_s"`

	// Atmosphere model constants. Zero values select the published
	// defaults (1.225 kg/m³ sea-level density, 8 km scale height,
	// 600 km drag ceiling).
	SeaLevelDensity float64 `yaml:"sea_level_density"`
	ScaleHeightM    float64 `yaml:"scale_height_m"`
	DragCeilingM    float64 `yaml:"drag_ceiling_m"`

	// EnableJ2 switches on the J2 oblateness correction term. Optional
	// refinement; off by default.
	EnableJ2 bool `yaml:"enable_j2"`
}

// ThrustCommand is the commanded thrust for a tick: a direction (need not be
// normalised) and a magnitude in newtons. Magnitude is clamped to the
// vehicle's MaxThrustN and forced to zero once fuel is exhausted.
type ThrustCommand struct {
	Direction Vec3
	Newtons   float64
}
