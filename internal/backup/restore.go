// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

/*
restore.go - Backup Verification and Restore

Restore Process:
 1. Look up the record and check the artifact exists
 2. Verify the recorded checksum
 3. Decrypt and decompress into temp_restore_<nanos>.db in the backup directory
 4. Stage a copy next to the ledger file so the final rename stays on one filesystem
 5. Take the ledger offline, rename the staged copy over it, bring it online
 6. Remove the temp file

Failures before step 5 leave the live store untouched. Once the store is
offline, any failure still brings it back online and keeps the temp file so
an operator can finish the swap by hand.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/archive"
	"github.com/tomtom215/ledgerkeep/internal/integrity"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/metrics"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// VerifyBackupIntegrity reports whether the file at path hashes to checksum.
func (c *Coordinator) VerifyBackupIntegrity(path, checksum string) bool {
	valid := integrity.Verify(path, checksum)
	metrics.RecordVerification(valid)
	return valid
}

// VerifyBackup re-hashes a record's artifact and compares it to the
// recorded checksum. A record without a checksum is never valid.
func (c *Coordinator) VerifyBackup(ctx context.Context, id string) (*VerifyResult, error) {
	rec, err := c.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := artifactExists(rec); err != nil {
		return nil, err
	}

	actual, err := integrity.FileChecksum(rec.FilePath)
	if err != nil {
		return nil, models.NewError(models.KindStorageUnavailable, "failed to read backup artifact", err)
	}

	valid := rec.Checksum != "" && integrity.Equal(actual, rec.Checksum)
	metrics.RecordVerification(valid)
	if !valid {
		logging.Warn().Str("backup_id", rec.ID).Str("expected", rec.Checksum).Str("actual", actual).Msg("Backup integrity check failed")
	}
	return &VerifyResult{Valid: valid, Checksum: actual, Expected: rec.Checksum}, nil
}

// RestoreBackup replaces the live ledger file with the contents of a backup.
// key is required for encrypted artifacts and ignored otherwise.
func (c *Coordinator) RestoreBackup(ctx context.Context, id, key string) (*RestoreResult, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	start := time.Now()
	result, err := c.restoreLocked(ctx, id, key)
	duration := time.Since(start)
	metrics.RecordRestore(duration, err)

	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("backup_id", id).Msg("Restore failed")
		return nil, err
	}
	result.Duration = duration
	result.DurationMS = duration.Milliseconds()

	logging.Ctx(ctx).Info().
		Str("backup_id", id).
		Int64("bytes", result.BytesRestored).
		Dur("duration", duration).
		Msg("Backup restored")
	return result, nil
}

func (c *Coordinator) restoreLocked(ctx context.Context, id, key string) (*RestoreResult, error) {
	rec, err := c.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := artifactExists(rec); err != nil {
		return nil, err
	}

	if rec.Checksum != "" && !c.VerifyBackupIntegrity(rec.FilePath, rec.Checksum) {
		return nil, models.NewError(models.KindIntegrityCheckFailed, "backup checksum does not match: "+rec.FileName, nil)
	}
	if rec.IsEncrypted && key == "" {
		return nil, models.NewError(models.KindValidationFailed, "encryption key is required to restore an encrypted backup", nil)
	}

	opts := archive.Options{
		Compress:   rec.IsCompressed,
		Encrypt:    rec.IsEncrypted,
		Passphrase: key,
	}

	tempPath := filepath.Join(filepath.Dir(rec.FilePath), fmt.Sprintf("temp_restore_%d.db", time.Now().UnixNano()))
	n, err := decodeArtifact(rec.FilePath, tempPath, opts)
	if err != nil {
		removeQuietly(tempPath)
		return nil, models.NewError(models.KindRestoreFailed, "failed to decode backup artifact", err)
	}

	ledgerPath := c.ledger.Path()
	staged := ledgerPath + ".restore"
	if err := copyFile(tempPath, staged); err != nil {
		removeQuietly(tempPath)
		removeQuietly(staged)
		return nil, models.NewError(models.KindRestoreFailed, "failed to stage restored ledger", err)
	}

	if err := c.swapLedger(ctx, staged, ledgerPath); err != nil {
		removeQuietly(staged)
		return nil, models.NewError(models.KindRestoreFailed,
			fmt.Sprintf("ledger swap failed, decoded backup kept at %s", tempPath), err)
	}

	removeQuietly(tempPath)
	return &RestoreResult{
		BackupID:      rec.ID,
		RestoredFrom:  rec.FilePath,
		BytesRestored: n,
		Message:       "Backup restored successfully",
	}, nil
}

// swapTimeout bounds the offline, rename and online sequence.
const swapTimeout = 30 * time.Second

// swapLedger renames staged over ledgerPath while the store is offline. The
// store is brought back online even when the rename fails. The sequence runs
// detached from ctx so a disconnected caller cannot leave the store offline.
func (c *Coordinator) swapLedger(ctx context.Context, staged, ledgerPath string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), swapTimeout)
	defer cancel()

	if err := c.ledger.Offline(ctx); err != nil {
		if onErr := c.ledger.Online(ctx); onErr != nil {
			logging.Error().Err(onErr).Msg("Failed to bring ledger back online")
		}
		return fmt.Errorf("take ledger offline: %w", err)
	}

	// Stale WAL pages would be replayed over the restored file.
	for _, sidecar := range []string{ledgerPath + "-wal", ledgerPath + "-shm"} {
		removeQuietly(sidecar)
	}

	renameErr := os.Rename(staged, ledgerPath)
	onlineErr := c.ledger.Online(ctx)
	if renameErr != nil {
		if onlineErr != nil {
			logging.Error().Err(onlineErr).Msg("Failed to bring ledger back online")
		}
		return fmt.Errorf("replace ledger file: %w", renameErr)
	}
	if onlineErr != nil {
		return fmt.Errorf("bring ledger online: %w", onlineErr)
	}
	return nil
}

// artifactExists returns BackupFileMissing when rec has no readable artifact.
func artifactExists(rec *models.BackupRecord) error {
	if rec.FilePath == "" {
		return models.NewError(models.KindBackupFileMissing, "backup has no artifact: "+rec.ID, nil)
	}
	if _, err := os.Stat(rec.FilePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.NewError(models.KindBackupFileMissing, "backup file not found: "+rec.FilePath, err)
		}
		return models.NewError(models.KindStorageUnavailable, "failed to stat backup file", err)
	}
	return nil
}

// decodeArtifact unpacks src into dst and returns the bytes written.
//
//nolint:gosec // G304: paths come from catalog records
func decodeArtifact(src, dst string, opts archive.Options) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open artifact: %w", err)
	}
	defer in.Close() //nolint:errcheck // read-only

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	n, err := archive.Unpack(out, in, opts)
	if err != nil {
		_ = out.Close() //nolint:errcheck // unpack error takes precedence
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	return n, nil
}

//nolint:gosec // G304: paths are derived from the ledger and backup locations
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // read-only

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close() //nolint:errcheck // copy error takes precedence
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close() //nolint:errcheck // sync error takes precedence
		return err
	}
	return out.Close()
}
