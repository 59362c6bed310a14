// Package api exposes the simulation over HTTP: run control, snapshots,
// cursor-based telemetry queries, and a WebSocket live feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/signalsfoundry/spaceflight-sim/internal/config"
	"github.com/signalsfoundry/spaceflight-sim/internal/logging"
	"github.com/signalsfoundry/spaceflight-sim/internal/observability"
	"github.com/signalsfoundry/spaceflight-sim/internal/sim"
	"github.com/signalsfoundry/spaceflight-sim/model"
	"github.com/signalsfoundry/spaceflight-sim/telemetry"
)

// Server wires the simulation controller to HTTP handlers.
type Server struct {
	ctrl    *sim.Controller
	log     logging.Logger
	metrics *observability.EngineCollector
	router  *mux.Router
	hub     *Hub

	// mu guards the background run goroutine lifecycle.
	mu        sync.Mutex
	runCancel context.CancelFunc
	runDone   chan struct{}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the structured logger.
func WithLogger(log logging.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// WithMetrics mounts /metrics from the given collector.
func WithMetrics(m *observability.EngineCollector) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer builds the HTTP layer around an existing controller.
func NewServer(ctrl *sim.Controller, opts ...ServerOption) *Server {
	s := &Server{
		ctrl:   ctrl,
		log:    logging.Noop(),
		router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.log)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/run", s.handleStartRun).Methods("POST")
	v1.HandleFunc("/run/step", s.handleStep).Methods("POST")
	v1.HandleFunc("/run/pause", s.handlePause).Methods("POST")
	v1.HandleFunc("/run/resume", s.handleResume).Methods("POST")
	v1.HandleFunc("/run/abort", s.handleAbort).Methods("POST")
	v1.HandleFunc("/run/reset", s.handleReset).Methods("POST")
	v1.HandleFunc("/run/thrust", s.handleThrust).Methods("POST")
	v1.HandleFunc("/sensors/{id}/fail", s.handleSensorFail).Methods("POST")
	v1.HandleFunc("/sensors/{id}/repair", s.handleSensorRepair).Methods("POST")
	v1.HandleFunc("/snapshot", s.handleSnapshot).Methods("GET")
	v1.HandleFunc("/telemetry", s.handleTelemetry).Methods("GET")
	v1.Use(jsonMiddleware)

	s.router.HandleFunc("/ws/telemetry", s.handleWS).Methods("GET")
	s.router.Use(s.loggingMiddleware)
}

// Router returns the configured router for mounting into an http.Server.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close stops any background run loop and disconnects feed clients.
func (s *Server) Close() {
	s.stopRunLoop()
	s.hub.Close()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug(r.Context(), "http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Any("duration", time.Since(start)),
		)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: status < 400, Data: data})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: err.Error()})
}

// writeSimError maps controller sentinels onto HTTP statuses.
func writeSimError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sim.ErrInvalidConfig):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, sim.ErrNotIdle), errors.Is(err, sim.ErrNotRunning):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, sim.ErrNumericDivergence):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  s.ctrl.State().String(),
	})
}

// handleStartRun accepts a scenario document (the same YAML shape as
// scenario files), starts the run, and launches the paced loop in the
// background.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	sc, err := config.Parse(r.Body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	mode, err := sc.ClockMode()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	err = s.ctrl.Start(sc.Vehicle, sc.Sensors, mode,
		sim.WithSeed(sc.Seed),
		sim.WithStreamCapacity(sc.StreamCapacity),
	)
	if err != nil {
		writeSimError(w, err)
		return
	}

	s.startRunLoop()
	writeJSON(w, http.StatusCreated, map[string]any{
		"name":  sc.Name,
		"state": s.ctrl.State().String(),
		"mode":  mode.String(),
	})
}

func (s *Server) startRunLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.runCancel = cancel
	s.runDone = done

	go s.pumpTelemetry(ctx)
	go func() {
		defer close(done)
		if err := s.ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error(ctx, "run loop failed", logging.Any("error", err))
		}
	}()
}

func (s *Server) stopRunLoop() {
	s.mu.Lock()
	cancel, done := s.runCancel, s.runDone
	s.runCancel, s.runDone = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	state, readings, err := s.ctrl.Step()
	if err != nil {
		writeSimError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vehicle":  vehicleDTO(state),
		"readings": readingDTOs(readings),
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Pause(); err != nil {
		writeSimError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": s.ctrl.State().String()})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Resume(); err != nil {
		writeSimError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": s.ctrl.State().String()})
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if err := s.ctrl.Abort(body.Reason); err != nil {
		writeSimError(w, err)
		return
	}
	s.stopRunLoop()
	writeJSON(w, http.StatusOK, map[string]string{"state": s.ctrl.State().String()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.stopRunLoop()
	s.ctrl.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"state": s.ctrl.State().String()})
}

func (s *Server) handleThrust(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Direction struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		} `json:"direction"`
		Newtons float64 `json:"newtons"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cmd := model.ThrustCommand{
		Direction: model.Vec3{X: body.Direction.X, Y: body.Direction.Y, Z: body.Direction.Z},
		Newtons:   body.Newtons,
	}
	if err := s.ctrl.SetThrust(cmd); err != nil {
		writeSimError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"newtons": cmd.Newtons})
}

// handleSensorFail and handleSensorRepair inject sensor faults into the
// active run, for failure drills against a live feed.
func (s *Server) handleSensorFail(w http.ResponseWriter, r *http.Request) {
	s.sensorFault(w, r, s.ctrl.FailSensor, "failed")
}

func (s *Server) handleSensorRepair(w http.ResponseWriter, r *http.Request) {
	s.sensorFault(w, r, s.ctrl.RepairSensor, "nominal")
}

func (s *Server) sensorFault(w http.ResponseWriter, r *http.Request, apply func(string) error, health string) {
	id := mux.Vars(r)["id"]
	if err := apply(id); err != nil {
		if errors.Is(err, sim.ErrNotRunning) {
			writeSimError(w, err)
			return
		}
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sensor_id": id, "health": health})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.ctrl.Snapshot()
	stats := s.ctrl.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":            snap.State.String(),
		"tick":             snap.Tick,
		"abort_reason":     snap.AbortReason,
		"applied_thrust_n": snap.AppliedThrustN,
		"vehicle":          vehicleDTO(snap.Vehicle),
		"stats": map[string]any{
			"max_altitude_m": stats.MaxAltitudeM,
			"min_altitude_m": stats.MinAltitudeM,
			"max_speed_ms":   stats.MaxSpeedMS,
			"fuel_consumed":  stats.FuelConsumed,
		},
	})
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	stream := s.ctrl.Telemetry()
	if stream == nil {
		writeError(w, http.StatusConflict, errors.New("no active run"))
		return
	}

	cursor := uint64(0)
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("cursor must be a non-negative integer"))
			return
		}
		cursor = v
	}
	limit := 256
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = v
	}

	readings, next, err := stream.ReadFrom(cursor, limit)
	if err != nil {
		if errors.Is(err, telemetry.ErrCursorEvicted) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusGone)
			_ = json.NewEncoder(w).Encode(apiResponse{
				Success: false,
				Error:   err.Error(),
				Data:    map[string]uint64{"oldest_cursor": stream.OldestCursor()},
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"readings":    readingDTOs(readings),
		"next_cursor": next,
	})
}

type vehicleJSON struct {
	SimTimeS float64    `json:"sim_time_s"`
	Position vecJSON    `json:"position"`
	Velocity vecJSON    `json:"velocity"`
	Accel    vecJSON    `json:"acceleration"`
	Mass     float64    `json:"mass"`
	Fuel     float64    `json:"fuel"`
	Phase    string     `json:"phase"`
}

type vecJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func vehicleDTO(state model.VehicleState) vehicleJSON {
	return vehicleJSON{
		SimTimeS: state.SimTime,
		Position: vecJSON{state.Position.X, state.Position.Y, state.Position.Z},
		Velocity: vecJSON{state.Velocity.X, state.Velocity.Y, state.Velocity.Z},
		Accel:    vecJSON{state.Acceleration.X, state.Acceleration.Y, state.Acceleration.Z},
		Mass:     state.Mass,
		Fuel:     state.Fuel,
		Phase:    state.Phase.String(),
	}
}

type readingJSON struct {
	SensorID  string    `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
	SimTimeS  float64   `json:"sim_time_s"`
	// Value is null for flagged failures (NaN has no JSON encoding).
	Value  *float64 `json:"value"`
	Health string   `json:"health"`
	Seq    uint64   `json:"seq"`
}

func readingDTOs(readings []model.SensorReading) []readingJSON {
	out := make([]readingJSON, 0, len(readings))
	for _, r := range readings {
		var value *float64
		if !math.IsNaN(r.Value) {
			v := r.Value
			value = &v
		}
		out = append(out, readingJSON{
			SensorID:  r.SensorID,
			Timestamp: r.Timestamp,
			SimTimeS:  r.SimTime,
			Value:     value,
			Health:    r.Health.String(),
			Seq:       r.Seq,
		})
	}
	return out
}
