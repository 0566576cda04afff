// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

/*
Package models defines the data structures shared by the Ledgerkeep packages.

Key Components:

  - BackupRecord: one row per snapshot attempt (completed or failed)
  - BackupSettings: the singleton backup configuration, with SettingsPatch for
    partial updates and SettingsView for API output without secrets
  - Error: classified error carrying a Kind from the backup error taxonomy

Error Kinds:

	DATA_SOURCE_MISSING      primary ledger file does not exist
	STORAGE_UNAVAILABLE      backup directory cannot be created
	BACKUP_CREATION_FAILED   any failure while producing an artifact
	INTEGRITY_CHECK_FAILED   artifact checksum mismatch
	BACKUP_NOT_FOUND         unknown backup id
	BACKUP_FILE_MISSING      record exists but the artifact is gone
	RESTORE_FAILED           decode or swap failure during restore
	PROVIDER_NOT_CONFIGURED  cloud provider known but not initialized
	UNSUPPORTED_PROVIDER     unknown cloud provider id
	SCHEDULE_IN_PAST         one-time schedule not in the future
	VALIDATION_FAILED        malformed settings or request input

Use errors.Is with the Err* sentinels; they match on Kind through any amount
of wrapping:

	if errors.Is(err, models.ErrBackupNotFound) {
	    // 404
	}
*/
package models
