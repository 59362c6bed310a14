// Package sensors derives per-sensor synthetic readings from the true
// vehicle state, layering calibration error, drift, Gaussian noise, and a
// Markov failure model on top of the physical quantity each sensor samples.
package sensors

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

// degradedNoiseFactor scales the configured noise while a sensor is Degraded.
const degradedNoiseFactor = 3.0

// sensorState is the mutable per-sensor bookkeeping the synthesizer holds.
// It never touches the vehicle state.
type sensorState struct {
	cfg      model.SensorConfig
	truth    quantityFn
	calib    float64
	bias     float64
	health   model.Health
	lastGood float64
	hasGood  bool
}

// Synthesizer produces readings for a fixed sensor suite. All randomness
// comes from a single seeded generator, so two synthesizers built with the
// same suite and seed emit bit-identical reading sequences.
//
// Not safe for concurrent use; it is owned by the simulation controller and
// driven from the producer loop only.
type Synthesizer struct {
	rng     *rand.Rand
	sensors []*sensorState
	seq     uint64
}

// NewSynthesizer validates the suite and builds a synthesizer. Each sensor's
// calibration factor is drawn once here, so construction order is part of
// the deterministic stream.
func NewSynthesizer(suite []model.SensorConfig, seed int64) (*Synthesizer, error) {
	s := &Synthesizer{rng: rand.New(rand.NewSource(seed))}
	for _, cfg := range suite {
		truth, err := resolveQuantity(cfg.Quantity)
		if err != nil {
			return nil, fmt.Errorf("sensor %q: %w", cfg.ID, err)
		}
		calib := 1.0
		if cfg.CalibrationStd > 0 {
			calib = 1.0 + s.rng.NormFloat64()*cfg.CalibrationStd
		}
		s.sensors = append(s.sensors, &sensorState{
			cfg:    cfg,
			truth:  truth,
			calib:  calib,
			health: model.HealthNominal,
		})
	}
	return s, nil
}

// Sample emits readings for every sensor due this tick. tick counts from
// zero at run start; a sensor samples when tick % SampleEveryNTicks == 0.
// wall is the wall-clock timestamp stamped onto the readings.
func (s *Synthesizer) Sample(tick uint64, dt float64, in TruthInput, wall time.Time) []model.SensorReading {
	var out []model.SensorReading
	for _, sensor := range s.sensors {
		every := uint64(sensor.cfg.SampleEveryNTicks)
		if every == 0 {
			every = 1
		}
		if tick%every != 0 {
			continue
		}

		s.advanceHealth(sensor)

		reading, emit := s.measure(sensor, dt, in, wall)
		if emit {
			out = append(out, reading)
		}
	}
	return out
}

// advanceHealth runs one step of the failure chain. Each transition rolls
// independently, so failure_prob_per_tick = 1 drives a sensor all the way to
// Failed on its first eligible tick.
func (s *Synthesizer) advanceHealth(sensor *sensorState) {
	cfg := sensor.cfg
	if sensor.health == model.HealthNominal && cfg.FailureProbPerTick > 0 {
		if s.rng.Float64() < cfg.FailureProbPerTick {
			sensor.health = model.HealthDegraded
		}
	}
	if sensor.health == model.HealthDegraded && cfg.FailureProbPerTick > 0 {
		if s.rng.Float64() < cfg.FailureProbPerTick {
			sensor.health = model.HealthFailed
		}
	}
	if sensor.health == model.HealthFailed && cfg.RepairProbPerTick > 0 {
		if s.rng.Float64() < cfg.RepairProbPerTick {
			// Recovery also recalibrates: drift bias resets to zero.
			sensor.health = model.HealthNominal
			sensor.bias = 0
		}
	}
}

// measure produces one reading for a due sensor, or emit=false when the
// sensor's failure policy suppresses output.
func (s *Synthesizer) measure(sensor *sensorState, dt float64, in TruthInput, wall time.Time) (model.SensorReading, bool) {
	cfg := sensor.cfg

	if sensor.health == model.HealthFailed {
		switch cfg.FailurePolicy {
		case model.FailureOmit:
			return model.SensorReading{}, false
		case model.FailureStale:
			value := sensor.lastGood
			if !sensor.hasGood {
				value = math.NaN()
			}
			return s.emit(cfg.ID, in.State.SimTime, value, model.HealthFailed, wall), true
		default: // flagged
			return s.emit(cfg.ID, in.State.SimTime, math.NaN(), model.HealthFailed, wall), true
		}
	}

	value := sensor.truth(in) * sensor.calib

	// Drift: a slowly accumulating random-walk bias.
	if cfg.DriftRate > 0 {
		sensor.bias += s.rng.NormFloat64() * cfg.DriftRate * dt
	}
	value += sensor.bias

	// Noise, widened while degraded.
	noise := cfg.NoiseStd
	if sensor.health == model.HealthDegraded {
		noise *= degradedNoiseFactor
	}
	if noise > 0 {
		value += s.rng.NormFloat64() * noise
	}

	if cfg.MinValue != cfg.MaxValue {
		value = math.Min(math.Max(value, cfg.MinValue), cfg.MaxValue)
	}
	if cfg.Precision > 0 {
		scale := math.Pow(10, float64(cfg.Precision))
		value = math.Round(value*scale) / scale
	}

	sensor.lastGood = value
	sensor.hasGood = true
	return s.emit(cfg.ID, in.State.SimTime, value, sensor.health, wall), true
}

func (s *Synthesizer) emit(id string, simTime, value float64, health model.Health, wall time.Time) model.SensorReading {
	s.seq++
	return model.SensorReading{
		SensorID:  id,
		Timestamp: wall,
		SimTime:   simTime,
		Value:     value,
		Health:    health,
		Seq:       s.seq,
	}
}

// Health reports the current health of a sensor, or false if no sensor with
// that ID exists.
func (s *Synthesizer) Health(id string) (model.Health, bool) {
	for _, sensor := range s.sensors {
		if sensor.cfg.ID == id {
			return sensor.health, true
		}
	}
	return 0, false
}

// HealthCounts returns the number of sensors in each health state.
func (s *Synthesizer) HealthCounts() map[model.Health]int {
	counts := make(map[model.Health]int, 3)
	for _, sensor := range s.sensors {
		counts[sensor.health]++
	}
	return counts
}

// Fail forces a sensor into the Failed state, for fault-injection drills.
func (s *Synthesizer) Fail(id string) error {
	for _, sensor := range s.sensors {
		if sensor.cfg.ID == id {
			sensor.health = model.HealthFailed
			return nil
		}
	}
	return fmt.Errorf("no sensor %q", id)
}

// Repair returns a sensor to Nominal and clears its drift bias.
func (s *Synthesizer) Repair(id string) error {
	for _, sensor := range s.sensors {
		if sensor.cfg.ID == id {
			sensor.health = model.HealthNominal
			sensor.bias = 0
			return nil
		}
	}
	return fmt.Errorf("no sensor %q", id)
}
