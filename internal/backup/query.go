// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package backup

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/tomtom215/ledgerkeep/internal/catalog"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// ListBackups returns one page of records, newest first.
func (c *Coordinator) ListBackups(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultPageLimit
	}
	if opts.Limit > MaxPageLimit {
		opts.Limit = MaxPageLimit
	}

	records, err := c.catalog.ListRecords(ctx, catalog.Filter{Type: opts.Type, Status: opts.Status})
	if err != nil {
		return nil, models.NewError(models.KindStorageUnavailable, "failed to list backups", err)
	}

	total := len(records)
	offset := (opts.Page - 1) * opts.Limit
	page := []models.BackupRecord{}
	if offset < total {
		end := offset + opts.Limit
		if end > total {
			end = total
		}
		page = records[offset:end]
	}

	return &ListResult{
		Records: page,
		Pagination: Pagination{
			Page:       opts.Page,
			Limit:      opts.Limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(opts.Limit))),
		},
	}, nil
}

// RecentBackups returns up to n records, newest first.
func (c *Coordinator) RecentBackups(ctx context.Context, n int) ([]models.BackupRecord, error) {
	records, err := c.catalog.ListRecords(ctx, catalog.Filter{Limit: n})
	if err != nil {
		return nil, models.NewError(models.KindStorageUnavailable, "failed to list backups", err)
	}
	return records, nil
}

// GetBackup returns one record.
func (c *Coordinator) GetBackup(ctx context.Context, id string) (*models.BackupRecord, error) {
	return c.getRecord(ctx, id)
}

// DeleteBackup removes a record and its artifact. It waits for the
// single-flight slot so an artifact is never removed mid-restore.
func (c *Coordinator) DeleteBackup(ctx context.Context, id string) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	rec, err := c.getRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := c.deleteRecord(ctx, rec); err != nil {
		return models.NewError(models.KindStorageUnavailable, "failed to delete backup", err)
	}
	logging.Ctx(ctx).Info().Str("backup_id", id).Str("file", rec.FileName).Msg("Backup deleted")
	return nil
}

// OpenBackup opens a record's artifact for streaming. The caller closes it.
//
//nolint:gosec // G304: path comes from the catalog record
func (c *Coordinator) OpenBackup(ctx context.Context, id string) (io.ReadCloser, *models.BackupRecord, error) {
	rec, err := c.getRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if rec.FilePath == "" {
		return nil, nil, models.NewError(models.KindBackupFileMissing, "backup has no artifact: "+id, nil)
	}
	f, err := os.Open(rec.FilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, models.NewError(models.KindBackupFileMissing, "backup file not found: "+rec.FilePath, err)
		}
		return nil, nil, models.NewError(models.KindStorageUnavailable, "failed to open backup file", err)
	}
	return f, rec, nil
}

// GetBackupStats aggregates every record in the catalog.
func (c *Coordinator) GetBackupStats(ctx context.Context) (*Stats, error) {
	records, err := c.catalog.ListRecords(ctx, catalog.Filter{})
	if err != nil {
		return nil, models.NewError(models.KindStorageUnavailable, "failed to list backups", err)
	}
	return ComputeStats(records), nil
}

// ComputeStats aggregates records, which must be newest first.
func ComputeStats(records []models.BackupRecord) *Stats {
	stats := &Stats{ByType: []TypeStats{}}
	byType := make(map[models.BackupType]*TypeStats)
	var order []models.BackupType

	for i := range records {
		r := &records[i]
		stats.TotalBackups++
		stats.TotalSize += r.FileSize
		switch r.Status {
		case models.StatusCompleted:
			stats.SuccessfulBackups++
		case models.StatusFailed:
			stats.FailedBackups++
		}

		ts, ok := byType[r.BackupType]
		if !ok {
			ts = &TypeStats{Type: r.BackupType}
			byType[r.BackupType] = ts
			order = append(order, r.BackupType)
		}
		ts.Count++
		ts.TotalSize += r.FileSize
	}

	for _, t := range order {
		ts := byType[t]
		ts.TotalSizeMB = models.BytesToMB(ts.TotalSize)
		stats.ByType = append(stats.ByType, *ts)
	}

	stats.TotalSizeMB = models.BytesToMB(stats.TotalSize)
	if stats.TotalBackups > 0 {
		stats.AverageSize = stats.TotalSize / int64(stats.TotalBackups)
		stats.AverageSizeMB = models.BytesToMB(stats.AverageSize)
		stats.SuccessRate = math.Round(float64(stats.SuccessfulBackups)/float64(stats.TotalBackups)*10000) / 100

		last := &records[0]
		stats.LastBackup = &LastBackupInfo{
			ID:         last.ID,
			FileName:   last.FileName,
			BackupType: last.BackupType,
			Status:     last.Status,
			FileSize:   last.FileSize,
			FileSizeMB: last.FileSizeMB(),
			CreatedAt:  last.CreatedAt,
		}
	}
	return stats
}
