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
	"time"

	"github.com/tomtom215/ledgerkeep/internal/catalog"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/metrics"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// CleanupOldBackups applies the count, age and size retention policies from
// settings. It waits for the single-flight slot.
func (c *Coordinator) CleanupOldBackups(ctx context.Context, settings models.BackupSettings) (*CleanupReport, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()
	return c.cleanupLocked(ctx, settings), nil
}

// RunCleanup applies retention using the stored settings.
func (c *Coordinator) RunCleanup(ctx context.Context) (*CleanupReport, error) {
	settings, err := c.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return c.CleanupOldBackups(ctx, settings)
}

// retentionPass tracks which records have been handled across policies.
type retentionPass struct {
	c       *Coordinator
	report  *CleanupReport
	handled map[string]bool
}

func (c *Coordinator) cleanupLocked(ctx context.Context, settings models.BackupSettings) *CleanupReport {
	report := &CleanupReport{
		DeletedByCount: []string{},
		DeletedByAge:   []string{},
		DeletedBySize:  []string{},
	}

	records, err := c.catalog.ListRecords(ctx, catalog.Filter{})
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to list backups for cleanup")
		return report
	}

	pass := &retentionPass{c: c, report: report, handled: make(map[string]bool)}
	pass.applyCount(ctx, records, settings.MaxBackups)
	pass.applyAge(ctx, records, settings.RetentionDays)
	pass.applySize(ctx, records, settings.MaxBackupSize)

	metrics.RecordCleanup(PolicyCount, len(report.DeletedByCount))
	metrics.RecordCleanup(PolicyAge, len(report.DeletedByAge))
	metrics.RecordCleanup(PolicySize, len(report.DeletedBySize))
	return report
}

// applyCount keeps the newest maxBackups completed records. records is newest first.
func (p *retentionPass) applyCount(ctx context.Context, records []models.BackupRecord, maxBackups int) {
	if maxBackups <= 0 {
		return
	}
	kept := 0
	for i := range records {
		rec := &records[i]
		if rec.Status != models.StatusCompleted {
			continue
		}
		kept++
		if kept > maxBackups {
			p.delete(ctx, rec, PolicyCount)
		}
	}
}

// applyAge removes every record created before now - retentionDays.
func (p *retentionPass) applyAge(ctx context.Context, records []models.BackupRecord, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	cutoff := p.c.now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	for i := range records {
		rec := &records[i]
		if p.handled[rec.ID] {
			continue
		}
		if rec.IsOlderThan(cutoff) {
			p.delete(ctx, rec, PolicyAge)
		}
	}
}

// applySize removes the oldest remaining records until their total size is
// within maxSize.
func (p *retentionPass) applySize(ctx context.Context, records []models.BackupRecord, maxSize int64) {
	if maxSize <= 0 {
		return
	}
	var total int64
	for i := range records {
		if !p.handled[records[i].ID] {
			total += records[i].FileSize
		}
	}
	for i := len(records) - 1; i >= 0 && total > maxSize; i-- {
		rec := &records[i]
		if p.handled[rec.ID] {
			continue
		}
		if p.delete(ctx, rec, PolicySize) {
			total -= rec.FileSize
		}
	}
}

// delete removes one record and reports whether it succeeded. Failures are
// logged and recorded, never returned.
func (p *retentionPass) delete(ctx context.Context, rec *models.BackupRecord, policy string) bool {
	p.handled[rec.ID] = true
	if err := p.c.deleteRecord(ctx, rec); err != nil {
		logging.Warn().Err(err).Str("backup_id", rec.ID).Str("policy", policy).Msg("Failed to delete backup during cleanup")
		metrics.CleanupFailures.Inc()
		p.report.Failures = append(p.report.Failures, CleanupFailure{ID: rec.ID, Policy: policy, Error: err.Error()})
		return false
	}

	logging.Info().Str("backup_id", rec.ID).Str("file", rec.FileName).Str("policy", policy).Msg("Deleted old backup")
	switch policy {
	case PolicyCount:
		p.report.DeletedByCount = append(p.report.DeletedByCount, rec.ID)
	case PolicyAge:
		p.report.DeletedByAge = append(p.report.DeletedByAge, rec.ID)
	case PolicySize:
		p.report.DeletedBySize = append(p.report.DeletedBySize, rec.ID)
	}
	return true
}

// deleteRecord removes the artifact, if any, and then the record.
func (c *Coordinator) deleteRecord(ctx context.Context, rec *models.BackupRecord) error {
	if rec.FilePath != "" {
		if err := os.Remove(rec.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove artifact: %w", err)
		}
	}
	if err := c.catalog.DeleteRecord(ctx, rec.ID); err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
