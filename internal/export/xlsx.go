package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/signalsfoundry/spaceflight-sim/model"
)

const (
	trajectorySheet = "Trajectory"
	telemetrySheet  = "Telemetry"
)

// XLSXSink writes the run to one workbook with a sheet per table.
type XLSXSink struct {
	Path string
}

func (s XLSXSink) Write(trajectory []TrajectoryRow, readings []model.SensorReading) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(trajectorySheet); err != nil {
		return fmt.Errorf("export: new sheet: %w", err)
	}
	if _, err := f.NewSheet(telemetrySheet); err != nil {
		return fmt.Errorf("export: new sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: delete default sheet: %w", err)
	}

	header := make([]any, len(TrajectoryColumns))
	for i, c := range TrajectoryColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(trajectorySheet, "A1", &header); err != nil {
		return fmt.Errorf("export: trajectory header: %w", err)
	}
	for i, row := range trajectory {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{
			formatTime(row.Timestamp), row.SimTimeS,
			row.PosX, row.PosY, row.PosZ,
			row.VelX, row.VelY, row.VelZ,
			row.MassKg, row.FuelKg, row.Phase,
		}
		if err := f.SetSheetRow(trajectorySheet, cell, &values); err != nil {
			return fmt.Errorf("export: trajectory row %d: %w", i, err)
		}
	}

	header = make([]any, len(TelemetryColumns))
	for i, c := range TelemetryColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(telemetrySheet, "A1", &header); err != nil {
		return fmt.Errorf("export: telemetry header: %w", err)
	}
	for i, r := range readings {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		// NaN values (flagged failures) are written as text.
		var value any = r.Value
		if r.Value != r.Value {
			value = "NaN"
		}
		values := []any{formatTime(r.Timestamp), r.SensorID, value, r.Health.String()}
		if err := f.SetSheetRow(telemetrySheet, cell, &values); err != nil {
			return fmt.Errorf("export: telemetry row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(s.Path); err != nil {
		return fmt.Errorf("export: save %s: %w", s.Path, err)
	}
	return nil
}
