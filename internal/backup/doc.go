// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Package backup coordinates snapshots of the primary ledger store.
//
// # Overview
//
// The Coordinator is the only writer of backup records. It creates artifacts
// through the archive pipeline, verifies them with SHA-256 checksums, restores
// them over the live ledger file, and enforces retention.
//
// # Single-Flight Slot
//
// Backup creation, restore, deletion and on-demand cleanup share one slot.
// At most one of them runs at a time. Callers that arrive while the slot is
// taken wait in FIFO order and are handed the slot directly when the current
// holder finishes, whether it succeeded or not:
//
//	create A ─────┐
//	create B  (waits) └─ create B ─────┐
//	restore C (waits)                 └─ restore C ───
//
// # Artifact Names
//
// Artifacts are named ledger_backup_<UTC timestamp>_<8-char id> followed by
// a suffix describing the stages applied:
//
//	.db          raw copy
//	.db.gz       gzip
//	.db.enc      AES-256-GCM
//	.db.gz.enc   gzip then AES-256-GCM
//
// Artifacts are written to a .partial sibling and renamed into place, so a
// crash never leaves a half-written file under a final name.
//
// # Retention
//
// CleanupOldBackups applies three independent policies, newest first:
//
//	count  keep at most MaxBackups completed records
//	age    remove records older than RetentionDays (0 disables)
//	size   remove the oldest until the total is within MaxBackupSize (0 disables)
//
// A failure on one record is logged and the batch continues.
//
// # Usage
//
//	coord := backup.New(catalogStore, ledgerStore)
//	coord.SetOnSettingsChanged(sched.UpdateSchedule)
//
//	result, err := coord.CreateBackup(ctx, backup.CreateRequest{
//		Type:     models.BackupTypeManual,
//		Compress: true,
//	})
//
// # Thread Safety
//
// All Coordinator methods are safe for concurrent use.
package backup
