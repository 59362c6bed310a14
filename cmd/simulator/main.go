// Command simulator runs spaceflight scenarios: headless batch runs with
// file export, or a long-lived HTTP control server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/spaceflight-sim/internal/api"
	"github.com/signalsfoundry/spaceflight-sim/internal/config"
	"github.com/signalsfoundry/spaceflight-sim/internal/export"
	"github.com/signalsfoundry/spaceflight-sim/internal/logging"
	"github.com/signalsfoundry/spaceflight-sim/internal/observability"
	"github.com/signalsfoundry/spaceflight-sim/internal/sim"
	"github.com/signalsfoundry/spaceflight-sim/timectrl"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "simulator",
		Short: "Spaceflight physics and telemetry simulator",
		Long: `Propagates a vehicle through orbital and atmospheric flight with a
fixed-step integrator, synthesizes realistic sensor telemetry, and exposes
the run over files or HTTP.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runCmd executes one scenario to completion and optionally exports it.
func runCmd() *cobra.Command {
	var (
		fastForward bool
		seed        int64
		csvDir      string
		xlsxPath    string
		sqlitePath  string
	)

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.NewFromEnv()
			ctx := cmd.Context()

			sc, err := config.Load(args[0])
			if err != nil {
				return err
			}
			mode, err := sc.ClockMode()
			if err != nil {
				return err
			}
			if fastForward {
				mode = timectrl.FastForward
			}
			if cmd.Flags().Changed("seed") {
				sc.Seed = seed
			}

			collector, err := observability.NewEngineCollector(nil)
			if err != nil {
				return fmt.Errorf("metrics: %w", err)
			}

			recorder := export.NewRecorder()
			ctrl := sim.NewController(
				sim.WithLogger(log),
				sim.WithMetrics(collector),
				sim.WithStepObserver(recorder.RecordStep),
			)

			err = ctrl.Start(sc.Vehicle, sc.Sensors, mode,
				sim.WithSeed(sc.Seed),
				sim.WithStreamCapacity(sc.StreamCapacity),
			)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			if err := ctrl.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			snap := ctrl.Snapshot()
			stats := ctrl.Stats()
			log.Info(ctx, "run finished",
				logging.String("state", snap.State.String()),
				logging.String("phase", snap.Vehicle.Phase.String()),
				logging.Float64("sim_time_s", snap.Vehicle.SimTime),
				logging.Float64("max_altitude_km", stats.MaxAltitudeM/1000),
				logging.Float64("fuel_consumed_kg", stats.FuelConsumed),
			)
			if snap.AbortReason != "" {
				log.Warn(ctx, "run aborted", logging.String("reason", snap.AbortReason))
			}

			var sinks []export.Sink
			if csvDir != "" {
				sinks = append(sinks, export.CSVSink{
					TrajectoryPath: csvDir + "/trajectory.csv",
					TelemetryPath:  csvDir + "/telemetry.csv",
				})
			}
			if xlsxPath != "" {
				sinks = append(sinks, export.XLSXSink{Path: xlsxPath})
			}
			if sqlitePath != "" {
				sinks = append(sinks, export.SQLiteSink{Path: sqlitePath})
			}
			if len(sinks) > 0 {
				if err := recorder.WriteTo(sinks...); err != nil {
					return err
				}
				states, readings := recorder.Len()
				log.Info(ctx, "run exported",
					logging.Int("states", states),
					logging.Int("readings", readings),
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fastForward, "fast-forward", false, "ignore the scenario's pacing and run as fast as possible")
	cmd.Flags().Int64Var(&seed, "seed", 0, "override the scenario's sensor seed")
	cmd.Flags().StringVar(&csvDir, "export-csv", "", "directory to write trajectory.csv and telemetry.csv into")
	cmd.Flags().StringVar(&xlsxPath, "export-xlsx", "", "path to write an XLSX workbook to")
	cmd.Flags().StringVar(&sqlitePath, "export-sqlite", "", "path to write a SQLite database to")
	return cmd
}

// serveCmd runs the HTTP control plane until interrupted.
func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.NewFromEnv()
			ctx := cmd.Context()

			shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
			if err != nil {
				return fmt.Errorf("tracing: %w", err)
			}
			defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

			collector, err := observability.NewEngineCollector(nil)
			if err != nil {
				return fmt.Errorf("metrics: %w", err)
			}

			ctrl := sim.NewController(
				sim.WithLogger(log),
				sim.WithMetrics(collector),
			)
			server := api.NewServer(ctrl,
				api.WithLogger(log),
				api.WithMetrics(collector),
			)
			defer server.Close()

			srv := &http.Server{
				Addr:    addr,
				Handler: server.Router(),
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error(context.Background(), "http server exited", logging.String("error", err.Error()))
				}
			}()
			log.Info(ctx, "serving simulation API", logging.String("addr", addr))

			stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			<-stopCtx.Done()

			log.Info(ctx, "shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	return cmd
}
