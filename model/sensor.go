package model

import "time"

// Health describes the operating condition a reading was produced under.
// Sensor failure is first-class data, not an error.
type Health int

const (
	HealthNominal Health = iota
	HealthDegraded
	HealthFailed
)

func (h Health) String() string {
	switch h {
	case HealthNominal:
		return "nominal"
	case HealthDegraded:
		return "degraded"
	case HealthFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailurePolicy selects what a Failed sensor emits. The choice is a required
// part of every SensorConfig; there is no hidden default.
type FailurePolicy string

const (
	// FailureStale re-emits the last good value, flagged Failed.
	FailureStale FailurePolicy = "stale"
	// FailureFlagged emits NaN, flagged Failed.
	FailureFlagged FailurePolicy = "flagged"
	// FailureOmit suppresses the reading entirely while Failed.
	FailureOmit FailurePolicy = "omit"
)

// SensorConfig describes one synthetic sensor. A suite of these is fixed at
// simulation start; entries are shared read-only across the run.
type SensorConfig struct {
	ID string `yaml:"id"`
	// Quantity names the physical quantity sampled from the vehicle state,
	// e.g. "altitude", "fuel_level", "accel_x". See sensors.Quantities.
	Quantity string `yaml:"quantity"`
	Unit     string `yaml:"unit"`

	NoiseStd  float64 `yaml:"noise_std"`
	DriftRate float64 `yaml:"drift_rate"`
	// CalibrationStd is the stddev of the multiplicative calibration error
	// drawn once per run (factor ~ N(1, CalibrationStd)).
	CalibrationStd float64 `yaml:"calibration_std"`

	FailureProbPerTick float64 `yaml:"failure_prob_per_tick"`
	RepairProbPerTick  float64 `yaml:"repair_prob_per_tick"`

	SampleEveryNTicks int `yaml:"sample_every_n_ticks"`

	FailurePolicy FailurePolicy `yaml:"failure_policy"`

	// Optional measurement range and precision. When MinValue == MaxValue
	// the range clamp is disabled; readings are rounded to Precision
	// decimal places only when Precision > 0.
	MinValue  float64 `yaml:"min_value"`
	MaxValue  float64 `yaml:"max_value"`
	Precision int     `yaml:"precision"`
}

// SensorReading is one timestamped sample. Immutable once emitted.
type SensorReading struct {
	SensorID  string
	Timestamp time.Time
	// SimTime is seconds since the run epoch at emission.
	SimTime float64
	Value   float64
	Health  Health
	// Seq is a stream-wide sequence number, strictly increasing across all
	// sensors of a run.
	Seq uint64
}
