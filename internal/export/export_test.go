package export

import (
	"database/sql"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

func sampleRun() (*Recorder, int, int) {
	rec := NewRecorder()
	wall := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := model.VehicleState{
		Position: model.Vec3{X: 6.771e6},
		Velocity: model.Vec3{Y: 7672.5},
		Mass:     1200,
		Fuel:     200,
		Phase:    model.PhaseOnOrbit,
	}
	for i := 0; i < 5; i++ {
		state.SimTime = float64(i)
		rec.RecordState(wall.Add(time.Duration(i)*time.Second), state)
	}
	rec.RecordReadings([]model.SensorReading{
		{SensorID: "nav_altitude", Timestamp: wall, Value: 400012.5, Health: model.HealthNominal, Seq: 0},
		{SensorID: "nav_speed", Timestamp: wall, Value: 7671.9, Health: model.HealthDegraded, Seq: 1},
	})
	return rec, 5, 2
}

func TestCSVSinkWritesBothTables(t *testing.T) {
	dir := t.TempDir()
	sink := CSVSink{
		TrajectoryPath: filepath.Join(dir, "trajectory.csv"),
		TelemetryPath:  filepath.Join(dir, "telemetry.csv"),
	}
	rec, wantStates, wantReadings := sampleRun()
	if err := rec.WriteTo(sink); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	records := readCSV(t, sink.TrajectoryPath)
	if len(records) != wantStates+1 {
		t.Fatalf("trajectory rows = %d, want %d + header", len(records)-1, wantStates)
	}
	if got := strings.Join(records[0], ","); got != strings.Join(TrajectoryColumns, ",") {
		t.Errorf("trajectory header = %q", got)
	}
	if records[1][10] != "on_orbit" {
		t.Errorf("phase column = %q, want on_orbit", records[1][10])
	}

	records = readCSV(t, sink.TelemetryPath)
	if len(records) != wantReadings+1 {
		t.Fatalf("telemetry rows = %d, want %d + header", len(records)-1, wantReadings)
	}
	if records[2][3] != "degraded" {
		t.Errorf("health column = %q, want degraded", records[2][3])
	}
}

func TestXLSXSinkWritesSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")
	rec, wantStates, wantReadings := sampleRun()
	if err := rec.WriteTo(XLSXSink{Path: path}); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(trajectorySheet)
	if err != nil {
		t.Fatalf("GetRows(%s): %v", trajectorySheet, err)
	}
	if len(rows) != wantStates+1 {
		t.Errorf("trajectory rows = %d, want %d + header", len(rows)-1, wantStates)
	}

	rows, err = f.GetRows(telemetrySheet)
	if err != nil {
		t.Fatalf("GetRows(%s): %v", telemetrySheet, err)
	}
	if len(rows) != wantReadings+1 {
		t.Errorf("telemetry rows = %d, want %d + header", len(rows)-1, wantReadings)
	}
	if rows[1][1] != "nav_altitude" {
		t.Errorf("sensor_id cell = %q", rows[1][1])
	}
}

func TestSQLiteSinkWritesTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	rec, wantStates, wantReadings := sampleRun()
	if err := rec.WriteTo(SQLiteSink{Path: path}); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM trajectory`).Scan(&n); err != nil {
		t.Fatalf("count trajectory: %v", err)
	}
	if n != wantStates {
		t.Errorf("trajectory count = %d, want %d", n, wantStates)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM telemetry`).Scan(&n); err != nil {
		t.Fatalf("count telemetry: %v", err)
	}
	if n != wantReadings {
		t.Errorf("telemetry count = %d, want %d", n, wantReadings)
	}

	var health string
	err = db.QueryRow(`SELECT health FROM telemetry WHERE sensor_id = ?`, "nav_speed").Scan(&health)
	if err != nil {
		t.Fatalf("select health: %v", err)
	}
	if health != "degraded" {
		t.Errorf("health = %q, want degraded", health)
	}
}

func TestSQLiteSinkStoresNaNAsNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	rec := NewRecorder()
	rec.RecordReadings([]model.SensorReading{{
		SensorID:  "nav_altitude",
		Timestamp: time.Now(),
		Value:     math.NaN(),
		Health:    model.HealthFailed,
	}})
	if err := rec.WriteTo(SQLiteSink{Path: path}); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var value sql.NullFloat64
	if err := db.QueryRow(`SELECT value FROM telemetry`).Scan(&value); err != nil {
		t.Fatalf("select value: %v", err)
	}
	if value.Valid {
		t.Errorf("value = %v, want NULL", value.Float64)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}
