// Package config loads simulation scenarios from YAML files: the vehicle,
// the sensor suite, pacing mode, and optionally a TLE that anchors the
// initial orbit to a real object.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/spaceflight-sim/core"
	"github.com/signalsfoundry/spaceflight-sim/model"
	"github.com/signalsfoundry/spaceflight-sim/timectrl"
)

// DefaultStreamCapacity bounds the telemetry buffer when a scenario does not
// set one.
const DefaultStreamCapacity = 65536

// Scenario is one complete simulation setup.
type Scenario struct {
	Name           string               `yaml:"name"`
	Seed           int64                `yaml:"seed"`
	Mode           string               `yaml:"mode"` // real_time or fast_forward
	StreamCapacity int                  `yaml:"stream_capacity"`
	Vehicle        model.VehicleConfig  `yaml:"vehicle"`
	Sensors        []model.SensorConfig `yaml:"sensors"`
	TLE            *TLEConfig           `yaml:"tle"`
}

// TLEConfig derives the initial orbit from a two-line element set propagated
// to the given epoch, overriding the scenario's initial_altitude_km and
// initial_eccentricity.
type TLEConfig struct {
	Line1 string    `yaml:"line1"`
	Line2 string    `yaml:"line2"`
	Epoch time.Time `yaml:"epoch"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open scenario: %w", err)
	}
	defer f.Close()
	sc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("config: scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scenario from r. Unknown fields are errors so typos in
// scenario files fail loudly instead of silently falling back to defaults.
func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if sc.StreamCapacity <= 0 {
		sc.StreamCapacity = DefaultStreamCapacity
	}
	if sc.TLE != nil {
		if err := sc.TLE.apply(&sc.Vehicle); err != nil {
			return nil, err
		}
	}
	return &sc, nil
}

// ClockMode maps the scenario's mode string onto a pacing mode. An empty
// mode means real time.
func (s *Scenario) ClockMode() (timectrl.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s.Mode)) {
	case "", "real_time", "realtime":
		return timectrl.RealTime, nil
	case "fast_forward", "fastforward":
		return timectrl.FastForward, nil
	default:
		return 0, fmt.Errorf("config: unknown mode %q (want real_time or fast_forward)", s.Mode)
	}
}

// apply propagates the TLE to its epoch with SGP4 and rewrites the vehicle's
// initial orbit to match: initial_altitude_km becomes the periapsis altitude
// and initial_eccentricity the osculating eccentricity. The run then starts
// at the perigee of the same orbit.
func (t *TLEConfig) apply(cfg *model.VehicleConfig) error {
	if t.Line1 == "" || t.Line2 == "" {
		return errors.New("config: tle requires both line1 and line2")
	}
	if t.Epoch.IsZero() {
		return errors.New("config: tle requires an epoch to propagate to")
	}

	sat := satellite.TLEToSat(t.Line1, t.Line2, satellite.GravityWGS72)
	year, month, day := t.Epoch.UTC().Date()
	hour, min, sec := t.Epoch.UTC().Clock()
	posECI, velECI := satellite.Propagate(sat, year, int(month), day, hour, min, sec)

	// go-satellite works in kilometres and km/s.
	const kmToM = 1000.0
	pos := model.Vec3{X: posECI.X * kmToM, Y: posECI.Y * kmToM, Z: posECI.Z * kmToM}
	vel := model.Vec3{X: velECI.X * kmToM, Y: velECI.Y * kmToM, Z: velECI.Z * kmToM}
	if !pos.IsFinite() || !vel.IsFinite() || pos.Norm() == 0 {
		return errors.New("config: tle propagation produced an unusable state")
	}

	el := core.ElementsFrom(pos, vel)
	if el.Eccentricity >= 1 {
		return fmt.Errorf("config: tle describes a non-elliptical trajectory (e=%.3f)", el.Eccentricity)
	}
	periapsisAltM := el.PeriapsisM - core.EarthRadiusM
	if periapsisAltM <= 0 {
		return fmt.Errorf("config: tle periapsis is below the surface (%.0f m)", periapsisAltM)
	}

	cfg.InitialAltitudeKm = periapsisAltM / kmToM
	cfg.InitialEccentricity = el.Eccentricity
	return nil
}
