// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

/*
Package main is the entry point for the Ledgerkeep server.

Ledgerkeep keeps point-in-time copies of a personal finance ledger (a single
SQLite file), optionally gzip-compressed and AES-256-GCM encrypted, and can
restore any of them over the live ledger. Backups run on demand through the
REST API, on a recurring auto-backup schedule, or from one-time and custom
cron schedules, and can be replicated to S3, Google Cloud Storage or
Aliyun OSS.

# Application Architecture

	ledgerkeep (root supervisor)
	├── storage-layer
	│   └── catalog-maintenance   Badger value log GC
	├── jobs-layer
	│   ├── backup-scheduler      robfig/cron auto, one-time and custom jobs
	│   └── backup-monitor        periodic health checks (optional)
	└── api-layer
	    └── http-server           chi router, /api/v1, /metrics, /healthz

Initialization order:

 1. Configuration: koanf defaults, YAML file, environment
 2. Logging: zerolog, optional lumberjack file rotation
 3. Catalog: BadgerDB with backup records and the settings singleton
 4. Ledger: GORM handle on the SQLite ledger file
 5. Coordinator, scheduler, cloud replicator, monitor
 6. Supervisor tree

Settings updates made through PUT /api/v1/settings reschedule the
auto-backup job and rebuild the cloud providers without a restart.

# Configuration

Common environment variables:

	LEDGER_PATH=data/ledger.sqlite3
	CATALOG_PATH=data/catalog
	BACKUP_LOCATION=backups/
	BACKUP_FREQUENCY_HOURS=24
	BACKUP_ENCRYPTION_KEY=<passphrase>
	HTTP_PORT=8420
	LOG_LEVEL=info
	LOG_FORMAT=json

A YAML file is read from CONFIG_PATH or the default locations. See
internal/config for the full list.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
server.shutdown_timeout, the scheduler waits for a running backup, and the
catalog and ledger are closed last.
*/
package main
