package export

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

// SQLiteSink writes the run into a SQLite database with one table per
// stream. The file is created if missing; repeated exports append.
type SQLiteSink struct {
	Path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trajectory (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	sim_time_s REAL NOT NULL,
	pos_x REAL NOT NULL,
	pos_y REAL NOT NULL,
	pos_z REAL NOT NULL,
	vel_x REAL NOT NULL,
	vel_y REAL NOT NULL,
	vel_z REAL NOT NULL,
	mass REAL NOT NULL,
	fuel REAL NOT NULL,
	phase TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS telemetry (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	sensor_id TEXT NOT NULL,
	value REAL,
	health TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trajectory_sim_time ON trajectory(sim_time_s);
CREATE INDEX IF NOT EXISTS idx_telemetry_sensor ON telemetry(sensor_id);
CREATE INDEX IF NOT EXISTS idx_telemetry_timestamp ON telemetry(timestamp);
`

func (s SQLiteSink) Write(trajectory []TrajectoryRow, readings []model.SensorReading) error {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL", s.Path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return fmt.Errorf("export: open %s: %w", s.Path, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("export: create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("export: begin: %w", err)
	}
	defer tx.Rollback()

	trajStmt, err := tx.Prepare(`
		INSERT INTO trajectory (timestamp, sim_time_s, pos_x, pos_y, pos_z, vel_x, vel_y, vel_z, mass, fuel, phase)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare trajectory insert: %w", err)
	}
	defer trajStmt.Close()
	for _, row := range trajectory {
		_, err := trajStmt.Exec(
			formatTime(row.Timestamp), row.SimTimeS,
			row.PosX, row.PosY, row.PosZ,
			row.VelX, row.VelY, row.VelZ,
			row.MassKg, row.FuelKg, row.Phase,
		)
		if err != nil {
			return fmt.Errorf("export: insert trajectory row: %w", err)
		}
	}

	teleStmt, err := tx.Prepare(`
		INSERT INTO telemetry (timestamp, sensor_id, value, health)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("export: prepare telemetry insert: %w", err)
	}
	defer teleStmt.Close()
	for _, r := range readings {
		// NaN values (flagged failures) are stored as NULL.
		var value any = r.Value
		if r.Value != r.Value {
			value = nil
		}
		if _, err := teleStmt.Exec(formatTime(r.Timestamp), r.SensorID, value, r.Health.String()); err != nil {
			return fmt.Errorf("export: insert telemetry row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: commit: %w", err)
	}
	return nil
}
