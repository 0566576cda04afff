// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package backup

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/catalog"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

func TestCountRetentionKeepsNewest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.patchSettings(t, models.SettingsPatch{MaxBackups: intPtr(2)})

	var created []*models.BackupRecord
	for i := 0; i < 5; i++ {
		res, err := env.coord.CreateBackup(ctx, CreateRequest{Compress: true})
		if err != nil {
			t.Fatalf("CreateBackup %d failed: %v", i, err)
		}
		created = append(created, res.Record)
	}

	records, err := env.catalog.ListRecords(ctx, catalog.Filter{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != created[4].ID || records[1].ID != created[3].ID {
		t.Errorf("expected the two newest backups to survive, got %s and %s", records[0].ID, records[1].ID)
	}

	for _, rec := range created[:3] {
		if _, err := os.Stat(rec.FilePath); !os.IsNotExist(err) {
			t.Errorf("expected artifact %s to be removed", rec.FileName)
		}
	}
}

func TestAgeRetentionUnderCountCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	old := env.seedRecord(t, "old", now.Add(-40*24*time.Hour), 10)
	recent := env.seedRecord(t, "recent", now.Add(-time.Hour), 10)

	settings := testDefaults(env.backupDir)
	settings.MaxBackups = 10
	settings.RetentionDays = 30

	report, err := env.coord.CleanupOldBackups(ctx, settings)
	if err != nil {
		t.Fatalf("CleanupOldBackups failed: %v", err)
	}
	if len(report.DeletedByAge) != 1 || report.DeletedByAge[0] != old.ID {
		t.Errorf("expected only %s deleted by age, got %v", old.ID, report.DeletedByAge)
	}
	if len(report.DeletedByCount) != 0 {
		t.Errorf("expected no count deletions, got %v", report.DeletedByCount)
	}

	if _, err := env.coord.GetBackup(ctx, old.ID); !errors.Is(err, models.ErrBackupNotFound) {
		t.Errorf("expected old record gone, got %v", err)
	}
	if _, err := env.coord.GetBackup(ctx, recent.ID); err != nil {
		t.Errorf("expected recent record kept, got %v", err)
	}
	if _, err := os.Stat(old.FilePath); !os.IsNotExist(err) {
		t.Error("expected old artifact removed")
	}
}

func TestSizeRetentionRemovesOldest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	a := env.seedRecord(t, "a", now.Add(-3*time.Hour), 100)
	b := env.seedRecord(t, "b", now.Add(-2*time.Hour), 100)
	c := env.seedRecord(t, "c", now.Add(-1*time.Hour), 100)

	settings := testDefaults(env.backupDir)
	settings.MaxBackupSize = 250

	report, err := env.coord.CleanupOldBackups(ctx, settings)
	if err != nil {
		t.Fatalf("CleanupOldBackups failed: %v", err)
	}
	if len(report.DeletedBySize) != 1 || report.DeletedBySize[0] != a.ID {
		t.Errorf("expected only %s deleted by size, got %v", a.ID, report.DeletedBySize)
	}
	for _, id := range []string{b.ID, c.ID} {
		if _, err := env.coord.GetBackup(ctx, id); err != nil {
			t.Errorf("expected %s kept, got %v", id, err)
		}
	}
}

func TestRetentionPoliciesCompose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	ancient := env.seedRecord(t, "ancient", now.Add(-90*24*time.Hour), 50)
	older := env.seedRecord(t, "older", now.Add(-5*time.Hour), 50)
	mid := env.seedRecord(t, "mid", now.Add(-4*time.Hour), 200)
	newer := env.seedRecord(t, "newer", now.Add(-3*time.Hour), 50)
	newest := env.seedRecord(t, "newest", now.Add(-2*time.Hour), 50)

	settings := testDefaults(env.backupDir)
	settings.MaxBackups = 4
	settings.RetentionDays = 30
	settings.MaxBackupSize = 150

	report, err := env.coord.CleanupOldBackups(ctx, settings)
	if err != nil {
		t.Fatalf("CleanupOldBackups failed: %v", err)
	}

	// count removes the fifth newest, age has nothing left to do, size
	// removes the oldest until 150 bytes remain.
	if len(report.DeletedByCount) != 1 || report.DeletedByCount[0] != ancient.ID {
		t.Errorf("unexpected count deletions %v", report.DeletedByCount)
	}
	if len(report.DeletedByAge) != 0 {
		t.Errorf("unexpected age deletions %v", report.DeletedByAge)
	}
	if len(report.DeletedBySize) != 2 || report.DeletedBySize[0] != older.ID || report.DeletedBySize[1] != mid.ID {
		t.Errorf("unexpected size deletions %v", report.DeletedBySize)
	}
	for _, rec := range []*models.BackupRecord{newer, newest} {
		if _, err := env.coord.GetBackup(ctx, rec.ID); err != nil {
			t.Errorf("expected %s kept, got %v", rec.ID, err)
		}
	}
	if report.TotalDeleted() != 3 {
		t.Errorf("expected 3 deletions, got %d", report.TotalDeleted())
	}
}

func TestRetentionIgnoresFailedRecordsForCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	env.seedRecord(t, "one", now.Add(-2*time.Hour), 10)
	env.seedRecord(t, "two", now.Add(-1*time.Hour), 10)
	if _, err := env.coord.RecordFailure(ctx, models.BackupTypeAuto, "failed"); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	settings := testDefaults(env.backupDir)
	settings.MaxBackups = 2

	report, err := env.coord.CleanupOldBackups(ctx, settings)
	if err != nil {
		t.Fatalf("CleanupOldBackups failed: %v", err)
	}
	if report.TotalDeleted() != 0 {
		t.Errorf("expected nothing deleted, got %+v", report)
	}
}
