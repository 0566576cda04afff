// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/ledgerkeep/internal/archive"
	"github.com/tomtom215/ledgerkeep/internal/integrity"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/metrics"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

const partialSuffix = ".partial"

// CreateBackup snapshots the ledger store. Calls are serialized through the
// single-flight slot and run in arrival order.
func (c *Coordinator) CreateBackup(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.Type == "" {
		req.Type = models.BackupTypeManual
	}
	if !req.Type.Valid() {
		return nil, models.NewError(models.KindValidationFailed, fmt.Sprintf("unknown backup type %q", req.Type), nil)
	}
	if req.Encrypt && req.EncryptionKey == "" {
		return nil, models.NewError(models.KindValidationFailed, "encryption requested without an encryption key", nil)
	}
	if !req.Encrypt && req.EncryptionKey != "" {
		return nil, models.NewError(models.KindValidationFailed, "encryption key supplied but encryption is disabled", nil)
	}

	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	start := time.Now()
	rec, err := c.createLocked(ctx, req, c.now())
	duration := time.Since(start)

	var size int64
	if rec != nil {
		size = rec.FileSize
	}
	metrics.RecordBackup(string(req.Type), duration, size, err)

	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("type", string(req.Type)).
			Dur("duration", duration).
			Msg("Backup creation failed")
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("backup_id", rec.ID).
		Str("file", rec.FileName).
		Str("type", string(rec.BackupType)).
		Int64("size_bytes", rec.FileSize).
		Dur("duration", duration).
		Msg("Backup created")

	return &CreateResult{Record: rec, Duration: duration, DurationMS: duration.Milliseconds()}, nil
}

func (c *Coordinator) createLocked(ctx context.Context, req CreateRequest, startedAt time.Time) (*models.BackupRecord, error) {
	settings, err := c.Settings(ctx)
	if err != nil {
		return nil, err
	}

	dir := settings.BackupLocation
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, models.NewError(models.KindStorageUnavailable, "backup location is not writable: "+dir, err)
	}

	src := c.ledger.Path()
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, creationFailed(models.NewError(models.KindDataSourceMissing, "ledger store not found: "+src, err))
		}
		return nil, creationFailed(err)
	}

	if err := c.ledger.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Ledger checkpoint failed, backing up file as-is")
	}

	opts := archive.Options{
		Compress:   req.Compress,
		Encrypt:    req.Encrypt,
		Passphrase: req.EncryptionKey,
	}
	id := uuid.New().String()
	name := ArtifactName(startedAt, id, opts)
	path := filepath.Join(dir, name)

	if err := writeArtifact(src, path, opts); err != nil {
		return nil, creationFailed(err)
	}

	checksum, err := integrity.FileChecksum(path)
	if err != nil {
		removeQuietly(path)
		return nil, creationFailed(fmt.Errorf("checksum artifact: %w", err))
	}
	info, err := os.Stat(path)
	if err != nil {
		removeQuietly(path)
		return nil, creationFailed(fmt.Errorf("stat artifact: %w", err))
	}

	rec := &models.BackupRecord{
		ID:           id,
		FileName:     name,
		FilePath:     path,
		BackupType:   req.Type,
		FileSize:     info.Size(),
		IsCompressed: opts.Compress,
		IsEncrypted:  opts.Encrypt,
		Checksum:     checksum,
		Status:       models.StatusCompleted,
		Notes:        req.Notes,
		CreatedAt:    startedAt.UTC(),
	}
	if err := c.catalog.SaveRecord(ctx, rec); err != nil {
		removeQuietly(path)
		return nil, creationFailed(fmt.Errorf("save backup record: %w", err))
	}

	c.touchLastBackup(ctx, startedAt)

	current, err := c.catalog.Settings(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Skipping retention, settings unavailable")
		return rec, nil
	}
	report := c.cleanupLocked(ctx, current)
	if n := report.TotalDeleted(); n > 0 {
		logging.Info().Int("deleted", n).Int("failures", len(report.Failures)).Msg("Retention applied after backup")
	}

	return rec, nil
}

// ArtifactName builds ledger_backup_<UTC timestamp>_<8-char id><suffix>.
// The id prefix keeps names unique within the same millisecond.
func ArtifactName(at time.Time, id string, opts archive.Options) string {
	ts := strings.ReplaceAll(at.UTC().Format("2006-01-02T15:04:05.000Z"), ":", "-")
	ts = strings.ReplaceAll(ts, ".", "-")
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return "ledger_backup_" + ts + "_" + short + archive.Suffix(opts)
}

// writeArtifact packs src into a .partial sibling of dst and renames it
// into place. The partial file is removed on any failure.
//
//nolint:gosec // G304: paths come from settings and the ledger handle
func writeArtifact(src, dst string, opts archive.Options) (err error) {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.NewError(models.KindDataSourceMissing, "ledger store not found: "+src, err)
		}
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer in.Close() //nolint:errcheck // read-only

	partial := dst + partialSuffix
	out, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer func() {
		if err != nil {
			removeQuietly(partial)
		}
	}()

	if _, err = archive.Pack(out, in, opts); err != nil {
		_ = out.Close() //nolint:errcheck // pack error takes precedence
		return fmt.Errorf("pack artifact: %w", err)
	}
	if err = out.Sync(); err != nil {
		_ = out.Close() //nolint:errcheck // sync error takes precedence
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err = os.Rename(partial, dst); err != nil {
		return fmt.Errorf("finalize artifact: %w", err)
	}
	return nil
}

// creationFailed wraps err as BackupCreationFailed, keeping the cause chain.
func creationFailed(err error) error {
	return models.NewError(models.KindBackupCreationFailed, "Backup creation failed", err)
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Err(err).Str("path", path).Msg("Failed to remove file")
	}
}

// RecordFailure persists a failed record. Used by the scheduler so the
// Coordinator stays the only writer of records.
func (c *Coordinator) RecordFailure(ctx context.Context, backupType models.BackupType, notes string) (*models.BackupRecord, error) {
	rec := &models.BackupRecord{
		ID:         uuid.New().String(),
		BackupType: backupType,
		Status:     models.StatusFailed,
		Notes:      notes,
		CreatedAt:  c.now().UTC(),
	}
	if err := c.catalog.SaveRecord(ctx, rec); err != nil {
		return nil, models.NewError(models.KindStorageUnavailable, "failed to record backup failure", err)
	}
	logging.Warn().Str("backup_id", rec.ID).Str("type", string(backupType)).Str("notes", notes).Msg("Recorded failed backup")
	return rec, nil
}
