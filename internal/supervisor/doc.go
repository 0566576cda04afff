// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

/*
Package supervisor runs Ledgerkeep's long-lived components under a
thejerf/suture v4 supervision tree.

	ledgerkeep (root)
	├── storage-layer
	│   └── catalog-maintenance
	├── jobs-layer
	│   ├── backup-scheduler
	│   └── backup-monitor
	└── api-layer
	    └── http-server

Supervisor events (restarts, backoff, timeouts) are logged through
sutureslog into the zerolog-backed slog handler from internal/logging.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(),
	    supervisor.TreeConfigFromConfig(cfg.Supervisor))
	tree.AddStorageService(services.NewMaintenanceService(store, cfg.Catalog.GCInterval, logger))
	tree.AddJobService(services.NewSchedulerService(sched))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)

The service wrappers live in the services subpackage.
*/
package supervisor
