// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

/*
Package services provides suture.Service wrappers for Ledgerkeep components.

Each wrapper translates a component's lifecycle into Serve(ctx) error:

  - HTTPServerService: ListenAndServe plus graceful Shutdown
  - SchedulerService: the scheduler's Start/Stop
  - MonitorService: a ticker driving the backup health checks
  - MaintenanceService: a ticker driving catalog value log GC

Wrappers depend on small interfaces (HTTPServer, BackupScheduler,
HealthChecker, GarbageCollector) instead of concrete types, so tests use
hand-written doubles. Every wrapper returns ctx.Err() on cancellation and
implements fmt.Stringer so suture's event log names it.
*/
package services
