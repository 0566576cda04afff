// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/api"
	"github.com/tomtom215/ledgerkeep/internal/backup"
	"github.com/tomtom215/ledgerkeep/internal/catalog"
	"github.com/tomtom215/ledgerkeep/internal/cloud"
	"github.com/tomtom215/ledgerkeep/internal/config"
	"github.com/tomtom215/ledgerkeep/internal/ledger"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/models"
	"github.com/tomtom215/ledgerkeep/internal/monitoring"
	"github.com/tomtom215/ledgerkeep/internal/scheduler"
	"github.com/tomtom215/ledgerkeep/internal/supervisor"
	"github.com/tomtom215/ledgerkeep/internal/supervisor/services"
)

//nolint:gocyclo // sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		File: logging.FileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.FileMaxSizeMB,
			MaxBackups: cfg.Logging.FileMaxBackups,
			MaxAgeDays: cfg.Logging.FileMaxAgeDays,
			Compress:   cfg.Logging.FileCompress,
		},
	})

	logging.Info().
		Str("ledger_path", cfg.Ledger.Path).
		Str("catalog_path", cfg.Catalog.Path).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Ledgerkeep")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := catalog.Open(catalog.Config{
		Path:       cfg.Catalog.Path,
		SyncWrites: cfg.Catalog.SyncWrites,
	}, cfg.Backup.Defaults())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open backup catalog")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing backup catalog")
		}
	}()

	ledgerStore, err := ledger.Open(ctx, ledger.Config{
		Path:          cfg.Ledger.Path,
		BusyTimeoutMS: cfg.Ledger.BusyTimeoutMS,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open ledger")
	}
	defer func() {
		if err := ledgerStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing ledger")
		}
	}()

	coord := backup.New(store, ledgerStore)
	sched := scheduler.New(coord)
	sched.SetStopTimeout(cfg.Supervisor.ShutdownTimeout)

	replicator := cloud.NewReplicator()
	defer func() {
		if err := replicator.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cloud providers")
		}
	}()

	settings, err := coord.Settings(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load backup settings")
	}
	configureCloud(ctx, replicator, settings, cfg.Cloud)

	coord.SetOnSettingsChanged(func(s models.BackupSettings) {
		if err := sched.UpdateSchedule(s); err != nil {
			logging.Error().Err(err).Msg("Failed to reschedule auto backup")
		}
		configureCloud(ctx, replicator, s, cfg.Cloud)
	})

	monitor := monitoring.New(store, monitoring.ThresholdsFromConfig(cfg.Monitoring))

	handler := api.NewHandler(coord, sched, replicator, monitor)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, api.ChiMiddlewareConfigFromServer(cfg.Server)),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFromConfig(cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddStorageService(services.NewMaintenanceService(store, cfg.Catalog.GCInterval, logging.Logger()))
	tree.AddJobService(services.NewSchedulerService(sched))
	if cfg.Monitoring.Enabled {
		tree.AddJobService(services.NewMonitorService(monitor, cfg.Monitoring.Interval, logging.Logger()))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Ledgerkeep stopped")
}
