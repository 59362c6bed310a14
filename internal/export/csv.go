package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

// CSVSink writes the trajectory and the telemetry to two CSV files.
type CSVSink struct {
	TrajectoryPath string
	TelemetryPath  string
}

func (s CSVSink) Write(trajectory []TrajectoryRow, readings []model.SensorReading) error {
	if err := s.writeTrajectory(trajectory); err != nil {
		return err
	}
	return s.writeTelemetry(readings)
}

func (s CSVSink) writeTrajectory(trajectory []TrajectoryRow) error {
	f, err := os.Create(s.TrajectoryPath)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", s.TrajectoryPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(TrajectoryColumns); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, row := range trajectory {
		record := []string{
			formatTime(row.Timestamp),
			formatFloat(row.SimTimeS),
			formatFloat(row.PosX), formatFloat(row.PosY), formatFloat(row.PosZ),
			formatFloat(row.VelX), formatFloat(row.VelY), formatFloat(row.VelZ),
			formatFloat(row.MassKg), formatFloat(row.FuelKg),
			row.Phase,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flush %s: %w", s.TrajectoryPath, err)
	}
	return f.Close()
}

func (s CSVSink) writeTelemetry(readings []model.SensorReading) error {
	f, err := os.Create(s.TelemetryPath)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", s.TelemetryPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(TelemetryColumns); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, r := range readings {
		record := []string{
			formatTime(r.Timestamp),
			r.SensorID,
			formatFloat(r.Value),
			r.Health.String(),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flush %s: %w", s.TelemetryPath, err)
	}
	return f.Close()
}
