// Package export writes recorded runs to flat files: CSV for quick
// inspection, XLSX for report hand-off, and SQLite for ad-hoc queries. All
// backends share one column contract so downstream tooling can switch
// between them.
package export

import (
	"strconv"
	"time"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

// TrajectoryRow is one propagated state flattened for export.
type TrajectoryRow struct {
	Timestamp time.Time
	SimTimeS  float64
	PosX      float64
	PosY      float64
	PosZ      float64
	VelX      float64
	VelY      float64
	VelZ      float64
	MassKg    float64
	FuelKg    float64
	Phase     string
}

// Column orders shared by every backend.
var (
	TrajectoryColumns = []string{
		"timestamp", "sim_time_s",
		"pos_x", "pos_y", "pos_z",
		"vel_x", "vel_y", "vel_z",
		"mass", "fuel", "phase",
	}
	TelemetryColumns = []string{"timestamp", "sensor_id", "value", "health"}
)

// TrajectoryRowFrom flattens a vehicle state stamped at wall time.
func TrajectoryRowFrom(wall time.Time, state model.VehicleState) TrajectoryRow {
	return TrajectoryRow{
		Timestamp: wall,
		SimTimeS:  state.SimTime,
		PosX:      state.Position.X,
		PosY:      state.Position.Y,
		PosZ:      state.Position.Z,
		VelX:      state.Velocity.X,
		VelY:      state.Velocity.Y,
		VelZ:      state.Velocity.Z,
		MassKg:    state.Mass,
		FuelKg:    state.Fuel,
		Phase:     state.Phase.String(),
	}
}

// Sink persists a recorded run.
type Sink interface {
	Write(trajectory []TrajectoryRow, readings []model.SensorReading) error
}

// Recorder accumulates a run in memory for export once it finishes. It is
// meant for the single producer goroutine; it does no locking of its own.
type Recorder struct {
	trajectory []TrajectoryRow
	readings   []model.SensorReading
}

// NewRecorder allocates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordState appends one propagated state.
func (r *Recorder) RecordState(wall time.Time, state model.VehicleState) {
	r.trajectory = append(r.trajectory, TrajectoryRowFrom(wall, state))
}

// RecordReadings appends emitted sensor readings.
func (r *Recorder) RecordReadings(readings []model.SensorReading) {
	r.readings = append(r.readings, readings...)
}

// RecordStep captures one tick: the post-step state and its readings. The
// signature matches the simulation's step observer.
func (r *Recorder) RecordStep(wall time.Time, state model.VehicleState, readings []model.SensorReading) {
	r.RecordState(wall, state)
	r.RecordReadings(readings)
}

// Len reports recorded trajectory rows and readings.
func (r *Recorder) Len() (states, readings int) {
	return len(r.trajectory), len(r.readings)
}

// WriteTo flushes the recording to the given sinks, stopping at the first
// failure.
func (r *Recorder) WriteTo(sinks ...Sink) error {
	for _, sink := range sinks {
		if err := sink.Write(r.trajectory, r.readings); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
