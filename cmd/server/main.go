package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-ingest-go/internal/api"
	"github.com/fleetwatch/fleet-ingest-go/internal/classifier"
	"github.com/fleetwatch/fleet-ingest-go/internal/config"
	"github.com/fleetwatch/fleet-ingest-go/internal/database"
	"github.com/fleetwatch/fleet-ingest-go/internal/geofence"
	"github.com/fleetwatch/fleet-ingest-go/internal/handler"
	"github.com/fleetwatch/fleet-ingest-go/internal/logging"
	"github.com/fleetwatch/fleet-ingest-go/internal/models"
	"github.com/fleetwatch/fleet-ingest-go/internal/pipeline"
	"github.com/fleetwatch/fleet-ingest-go/internal/repository"
	"github.com/fleetwatch/fleet-ingest-go/internal/scanner"
	"github.com/fleetwatch/fleet-ingest-go/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fleet-ingest",
		Short: "Vehicle telemetry ingestion and state segmentation pipeline",
		Long: `Ingests per-vehicle telemetry dumps (stability, CAN, GPS, rotary beacon),
materializes one session per vehicle per day, loads the measurement streams
and derives the operational-state timeline.`,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serveCmd starts the watch loop and the operator API
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the watch loop and operator API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			app.orchestrator.Start()
			defer app.orchestrator.Stop()

			router := api.SetupRouter(handler.NewPipelineHandler(app.orchestrator))

			errCh := make(chan error, 1)
			go func() {
				errCh <- router.Run(app.cfg.ListenAddr)
			}()

			app.logger.Info("server listening", zap.String("addr", app.cfg.ListenAddr))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				app.logger.Info("shutting down", zap.String("signal", sig.String()))
				return nil
			}
		},
	}
}

// runCmd performs a single scan cycle and exits
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process pending files once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			stats, err := app.orchestrator.RunCycle(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("groups: %d processed, %d skipped, %d errored; files: %d processed, %d errored; sessions: %d created, %d reused; records: %d\n",
				stats.GroupsProcessed, stats.GroupsSkipped, stats.GroupsErrored,
				stats.FilesProcessed, stats.FilesErrored,
				stats.SessionsCreated, stats.SessionsReused, stats.RecordsWritten)
			return nil
		},
	}
}

type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	orchestrator *pipeline.Orchestrator
	close        func()
}

// buildApp wires configuration, storage, the geofence oracles and the
// orchestrator
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		logger.Sync()
		return nil, err
	}
	if err := database.InitSchema(db); err != nil {
		db.Close()
		logger.Sync()
		return nil, err
	}

	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)
	measurementRepo := repository.NewMeasurementRepository(db)
	segmentRepo := repository.NewSegmentRepository(db)

	client := geofence.NewClient(cfg.Geofence.BaseURL, cfg.Geofence.Credential, cfg.Geofence.CacheTTL, nil)
	oracle := geofence.NewFallbackOracle(
		geofence.NewRemoteOracle(client),
		geofence.NewLocalOracle(fallbackZones(cfg), cfg.Geofence.FallbackRadius),
	)

	sessions := service.NewSessionService(sessionRepo, userRepo, cfg.Session.StartHour)
	ingest := service.NewIngestService(sessions, measurementRepo, segmentRepo, classifier.New(oracle), logger)

	orchestrator := pipeline.New(
		scanner.New(cfg.ScanRoot, logger),
		ingest,
		cfg.Session.OrganizationID,
		cfg.ScanInterval,
		logger,
	)

	return &app{
		cfg:          cfg,
		logger:       logger,
		orchestrator: orchestrator,
		close: func() {
			db.Close()
			logger.Sync()
		},
	}, nil
}

// fallbackZones converts the configured local zone centers into zone values
// for the local-distance oracle
func fallbackZones(cfg *config.Config) []models.Zone {
	zones := make([]models.Zone, 0, len(cfg.Geofence.FallbackZones))
	for _, z := range cfg.Geofence.FallbackZones {
		zones = append(zones, models.Zone{
			ID:    z.ID,
			Name:  z.ID,
			Tag:   z.Tag,
			Shape: models.ZoneShapePoint,
			Center: models.ZonePoint{
				Lat: z.Lat,
				Lon: z.Lon,
			},
		})
	}
	return zones
}
