package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	fleettracking "github.com/theoremus-urban-solutions/fleet-tracking"
	"github.com/theoremus-urban-solutions/fleet-tracking/config"
	"github.com/theoremus-urban-solutions/fleet-tracking/export"
	"github.com/theoremus-urban-solutions/fleet-tracking/history"
	"github.com/theoremus-urban-solutions/fleet-tracking/playback"
	"github.com/theoremus-urban-solutions/fleet-tracking/priority"
	"github.com/theoremus-urban-solutions/fleet-tracking/registry"
	"github.com/theoremus-urban-solutions/fleet-tracking/telemetry"
	"github.com/theoremus-urban-solutions/fleet-tracking/timeutil"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fleet-tracking",
		Short: "Vehicle tracking, playback and export",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serveCmd runs the HTTP service until interrupted.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the tracking HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			fleettracking.InitLogging()
			if err := config.LoadAppConfig(); err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			reg := registry.New(registry.Options{
				Classifier: telemetry.Classifier{
					TemporaryLoss: time.Duration(config.Config.Tracking.TemporaryLossSeconds) * time.Second,
					Disconnected:  time.Duration(config.Config.Tracking.DisconnectedSeconds) * time.Second,
				},
				PriorityThresholds: priorityThresholds(),
				Retention:          time.Duration(config.Config.Tracking.RetentionSeconds) * time.Second,
				SweepInterval:      time.Duration(config.Config.Tracking.SweepIntervalSeconds) * time.Second,
				MaxPanels:          config.Config.Panels.Max,
			})
			reg.SetLayout(registry.GridLayout(config.Config.Panels.DefaultLayout))

			var hist history.Source
			if path := config.Config.History.SQLitePath; path != "" {
				src, err := history.OpenSQLiteSource(path)
				if err != nil {
					return fmt.Errorf("open history store: %w", err)
				}
				defer func() { _ = src.Close() }()
				hist = src
			}

			server := fleettracking.NewServer(reg, hist, nil)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx)
		},
	}
}

// replayCmd plays a recorded route file to stdout, one frame per line.
func replayCmd() *cobra.Command {
	var (
		file      string
		vehicleID string
		speed     int
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded route file to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			src := history.FileSource{Path: file}
			points, err := src.Route(cmd.Context(), vehicleID, time.Time{}, time.Time{})
			if err != nil {
				return err
			}
			if len(points) == 0 {
				return fmt.Errorf("no route points in %s", file)
			}

			ctrl := playback.NewController(timeutil.RealScheduler{}, playback.DefaultBaseTick)
			done := make(chan struct{})
			enc := json.NewEncoder(os.Stdout)
			ctrl.OnFrame(func(f playback.Frame) {
				_ = enc.Encode(f.Point)
				if f.Index == len(points)-1 {
					close(done)
				}
			})

			ctrl.Load(points)
			ctrl.Play()
			if speed != 1 {
				ctrl.SetSpeed(speed)
			}
			_ = enc.Encode(points[0])
			if len(points) == 1 {
				return nil
			}

			select {
			case <-done:
			case <-cmd.Context().Done():
				ctrl.Stop()
				return cmd.Context().Err()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "route file (.csv or .json)")
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "only replay samples for this vehicle ID")
	cmd.Flags().IntVar(&speed, "speed", 1, "speed multiplier (1, 2, 5 or 10)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// exportCmd converts a recorded route file to CSV, JSON or GPX.
func exportCmd() *cobra.Command {
	var (
		file      string
		vehicleID string
		format    string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a recorded route file as csv, json or gpx",
		RunE: func(cmd *cobra.Command, args []string) error {
			src := history.FileSource{Path: file}
			points, err := src.Route(cmd.Context(), vehicleID, time.Time{}, time.Time{})
			if err != nil {
				return err
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			switch format {
			case "csv":
				return export.WriteRouteCSV(w, points)
			case "json":
				return export.WriteRouteJSON(w, points)
			case "gpx":
				return export.WriteRouteGPX(w, vehicleID, points)
			default:
				return fmt.Errorf("unknown format %q (want csv, json or gpx)", format)
			}
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "route file (.csv or .json)")
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "only export samples for this vehicle ID")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv, json or gpx")
	cmd.Flags().StringVar(&out, "out", "", "output path (stdout when empty)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func priorityThresholds() priority.Thresholds {
	return priority.Thresholds{
		Medium:   time.Duration(config.Config.Priority.MediumAfterSeconds) * time.Second,
		High:     time.Duration(config.Config.Priority.HighAfterSeconds) * time.Second,
		Critical: time.Duration(config.Config.Priority.CriticalAfterSeconds) * time.Second,
	}
}
