// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

/*
Package api provides the HTTP REST API layer for Ledgerkeep.

Every response uses the models.APIResponse envelope:

	{"success": true, "data": {...}, "metadata": {"timestamp": "...", "request_id": "..."}}
	{"success": false, "error": {"code": "BACKUP_NOT_FOUND", "message": "..."}, "metadata": {...}}

Error codes are the models.Kind values. The HTTP status is derived from the
kind (see classify): not found kinds map to 404, validation to 400, an
unconfigured provider to 409, integrity and missing data source to 422, and
unavailable storage to 503.

Routes (all under /api/v1 unless noted):

	GET    /healthz                          liveness
	GET    /metrics                          Prometheus exposition
	GET    /health                           backup health checks
	GET    /dashboard                        health, recent backups, stats, settings
	GET    /backups                          paginated list (page, limit, type, status)
	POST   /backups                          manual backup
	GET    /backups/stats                    aggregate statistics
	POST   /backups/cleanup                  apply retention policies
	GET    /backups/{id}                     one record
	DELETE /backups/{id}                     delete record and artifact
	GET    /backups/{id}/verify              re-hash against stored checksum
	GET    /backups/{id}/download            stream the artifact
	POST   /backups/{id}/restore             replace the ledger
	GET    /schedules                        registered jobs
	POST   /schedules                        one-time or recurring backup
	DELETE /schedules/{name}                 cancel a job
	GET    /cloud/providers                  configured providers
	POST   /cloud/upload                     replicate a backup
	POST   /cloud/download                   fetch into the backup location
	GET    /cloud/{provider}/backups         remote listing
	DELETE /cloud/{provider}/backups/{name}  remote delete
	GET    /settings                         settings without the key
	PUT    /settings                         partial update

Mutating routes are rate limited per client IP with go-chi/httprate.
*/
package api
