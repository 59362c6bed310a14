package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineCollector bundles Prometheus metrics for the simulation engine and
// provides a ready-to-use /metrics handler.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	TicksTotal    prometheus.Counter
	StepDuration  prometheus.Histogram
	Evictions     prometheus.Counter
	SensorHealth  *prometheus.GaugeVec
	CurrentPhase  prometheus.Gauge
	ReadingsTotal prometheus.Counter
	AbortsTotal   *prometheus.CounterVec
}

// NewEngineCollector registers engine Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when
// nil. Registration is idempotent: an already-registered collector of the
// same shape is reused.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Total simulation ticks stepped across all runs.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	stepDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_step_duration_seconds",
		Help:    "Wall-clock cost of one simulation step.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
	})
	stepDur, err = registerHistogram(reg, stepDur, "sim_step_duration_seconds")
	if err != nil {
		return nil, err
	}

	evictions, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_telemetry_evictions_total",
		Help: "Telemetry readings evicted from the stream under pressure.",
	}), "sim_telemetry_evictions_total")
	if err != nil {
		return nil, err
	}

	health := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sim_sensors",
		Help: "Current number of sensors per health state.",
	}, []string{"health"})
	health, err = registerGaugeVec(reg, health, "sim_sensors")
	if err != nil {
		return nil, err
	}

	phase, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_phase",
		Help: "Current mission phase as its enum value.",
	}), "sim_phase")
	if err != nil {
		return nil, err
	}

	readings, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_readings_total",
		Help: "Total sensor readings emitted into the telemetry stream.",
	}), "sim_readings_total")
	if err != nil {
		return nil, err
	}

	aborts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_aborts_total",
		Help: "Simulation aborts, labeled by reason category.",
	}, []string{"reason"})
	aborts, err = registerCounterVec(reg, aborts, "sim_aborts_total")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:      gatherer,
		TicksTotal:    ticks,
		StepDuration:  stepDur,
		Evictions:     evictions,
		SensorHealth:  health,
		CurrentPhase:  phase,
		ReadingsTotal: readings,
		AbortsTotal:   aborts,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveStep records one stepped tick: its wall-clock cost, the number of
// readings it emitted, and the post-step phase.
func (c *EngineCollector) ObserveStep(seconds float64, readings int, phase int) {
	if c == nil {
		return
	}
	c.TicksTotal.Inc()
	c.StepDuration.Observe(seconds)
	c.ReadingsTotal.Add(float64(readings))
	c.CurrentPhase.Set(float64(phase))
}

// SetSensorCounts drives the per-health sensor gauges.
func (c *EngineCollector) SetSensorCounts(nominal, degraded, failed int) {
	if c == nil {
		return
	}
	c.SensorHealth.WithLabelValues("nominal").Set(float64(nominal))
	c.SensorHealth.WithLabelValues("degraded").Set(float64(degraded))
	c.SensorHealth.WithLabelValues("failed").Set(float64(failed))
}

// AddEvictions bumps the telemetry eviction counter.
func (c *EngineCollector) AddEvictions(n int) {
	if c == nil {
		return
	}
	c.Evictions.Add(float64(n))
}

// RecordAbort counts an abort under its reason category.
func (c *EngineCollector) RecordAbort(reason string) {
	if c == nil {
		return
	}
	c.AbortsTotal.WithLabelValues(reason).Inc()
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
