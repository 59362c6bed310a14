package sensors

import "github.com/signalsfoundry/spaceflight-sim/model"

// DefaultSuite returns the standard mission sensor suite: IMU axes,
// navigation, propulsion, and housekeeping channels. Scenario files can use
// it as-is or override individual entries.
//
// Every entry names its failure policy explicitly; a Failed IMU axis holds
// its last value (stale), navigation flags invalid samples, and housekeeping
// channels simply go quiet (omit).
func DefaultSuite() []model.SensorConfig {
	imu := func(id, quantity string) model.SensorConfig {
		return model.SensorConfig{
			ID:                 id,
			Quantity:           quantity,
			Unit:               "m/s²",
			NoiseStd:           0.005,
			DriftRate:          0.0005,
			CalibrationStd:     0.01,
			FailureProbPerTick: 0.0001,
			RepairProbPerTick:  0.001,
			SampleEveryNTicks:  1,
			FailurePolicy:      model.FailureStale,
			Precision:          6,
		}
	}

	return []model.SensorConfig{
		imu("imu_accel_x", "accel_x"),
		imu("imu_accel_y", "accel_y"),
		imu("imu_accel_z", "accel_z"),
		{
			ID: "nav_altitude", Quantity: "altitude", Unit: "m",
			NoiseStd: 25, DriftRate: 0.01, CalibrationStd: 0.001,
			FailureProbPerTick: 0.0001, RepairProbPerTick: 0.001,
			SampleEveryNTicks: 1, FailurePolicy: model.FailureFlagged,
			Precision: 2,
		},
		{
			ID: "nav_speed", Quantity: "speed", Unit: "m/s",
			NoiseStd: 2, DriftRate: 0.005,
			FailureProbPerTick: 0.0001, RepairProbPerTick: 0.001,
			SampleEveryNTicks: 1, FailurePolicy: model.FailureFlagged,
			Precision: 3,
		},
		{
			ID: "nav_latitude", Quantity: "latitude", Unit: "deg",
			NoiseStd: 1e-5,
			FailureProbPerTick: 0.00005, RepairProbPerTick: 0.001,
			SampleEveryNTicks: 5, FailurePolicy: model.FailureFlagged,
			MinValue: -90, MaxValue: 90, Precision: 6,
		},
		{
			ID: "nav_longitude", Quantity: "longitude", Unit: "deg",
			NoiseStd: 1e-5,
			FailureProbPerTick: 0.00005, RepairProbPerTick: 0.001,
			SampleEveryNTicks: 5, FailurePolicy: model.FailureFlagged,
			MinValue: -180, MaxValue: 180, Precision: 6,
		},
		{
			ID: "prop_fuel_level", Quantity: "fuel_level", Unit: "kg",
			NoiseStd: 0.1, DriftRate: 0.001, CalibrationStd: 0.005,
			FailureProbPerTick: 0.0001, RepairProbPerTick: 0.002,
			SampleEveryNTicks: 2, FailurePolicy: model.FailureStale,
			Precision: 3,
		},
		{
			ID: "prop_thrust", Quantity: "thrust_magnitude", Unit: "N",
			NoiseStd: 5, CalibrationStd: 0.02,
			FailureProbPerTick: 0.0001, RepairProbPerTick: 0.002,
			SampleEveryNTicks: 1, FailurePolicy: model.FailureStale,
			Precision: 1,
		},
		{
			ID: "gnc_g_force", Quantity: "g_force", Unit: "g",
			NoiseStd: 0.001,
			FailureProbPerTick: 0.0001, RepairProbPerTick: 0.001,
			SampleEveryNTicks: 1, FailurePolicy: model.FailureFlagged,
			Precision: 4,
		},
		{
			ID: "eps_battery_voltage", Quantity: "battery_voltage", Unit: "V",
			NoiseStd: 0.05, DriftRate: 0.0001,
			FailureProbPerTick: 0.00005, RepairProbPerTick: 0.005,
			SampleEveryNTicks: 10, FailurePolicy: model.FailureOmit,
			MinValue: 20, MaxValue: 30, Precision: 2,
		},
		{
			ID: "env_radiation", Quantity: "radiation_level", Unit: "mSv/h",
			NoiseStd: 0.01,
			FailureProbPerTick: 0.00005, RepairProbPerTick: 0.005,
			SampleEveryNTicks: 10, FailurePolicy: model.FailureOmit,
			MinValue: 0, MaxValue: 10, Precision: 3,
		},
	}
}
