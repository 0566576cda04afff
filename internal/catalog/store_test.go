// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/models"
)

func testDefaults() models.BackupSettings {
	return models.BackupSettings{
		MaxBackups:           5,
		AutoBackupEnabled:    true,
		BackupFrequencyHours: 24,
		BackupLocation:       "backups/",
		CompressionEnabled:   true,
		RetentionDays:        30,
		MaxBackupSize:        1 << 30,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true}, testDefaults())
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close catalog: %v", err)
		}
	})
	return s
}

func testRecord(id string, created time.Time, typ models.BackupType, status models.BackupStatus) *models.BackupRecord {
	return &models.BackupRecord{
		ID:           id,
		FileName:     "ledger_backup_" + id + ".db.gz",
		FilePath:     "/tmp/" + id,
		BackupType:   typ,
		FileSize:     100,
		IsCompressed: true,
		Checksum:     "abc",
		Status:       status,
		CreatedAt:    created,
	}
}

func TestSaveAndGetRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("r1", time.Now().UTC(), models.BackupTypeManual, models.StatusCompleted)
	if err := s.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	got, err := s.GetRecord(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if got.FileName != rec.FileName {
		t.Errorf("expected file name %q, got %q", rec.FileName, got.FileName)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", rec.CreatedAt, got.CreatedAt)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRecord(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveRecord(ctx, testRecord("r1", time.Now(), models.BackupTypeManual, models.StatusCompleted)); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	if err := s.DeleteRecord(ctx, "r1"); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if _, err := s.GetRecord(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected record to be gone, got %v", err)
	}
	if err := s.DeleteRecord(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	records, err := s.ListRecords(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty catalog, got %d records", len(records))
	}
}

func TestListRecordsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of order.
	for _, i := range []int{2, 0, 4, 1, 3} {
		rec := testRecord(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Hour), models.BackupTypeManual, models.StatusCompleted)
		if err := s.SaveRecord(ctx, rec); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	records, err := s.ListRecords(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	for i, want := range []string{"r4", "r3", "r2", "r1", "r0"} {
		if records[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, records[i].ID)
		}
	}
}

func TestListRecordsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	fixtures := []*models.BackupRecord{
		testRecord("m1", now.Add(-3*time.Hour), models.BackupTypeManual, models.StatusCompleted),
		testRecord("s1", now.Add(-2*time.Hour), models.BackupTypeScheduled, models.StatusCompleted),
		testRecord("s2", now.Add(-1*time.Hour), models.BackupTypeScheduled, models.StatusFailed),
	}
	for _, r := range fixtures {
		if err := s.SaveRecord(ctx, r); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"scheduled", Filter{Type: models.BackupTypeScheduled}, 2},
		{"failed", Filter{Status: models.StatusFailed}, 1},
		{"scheduled completed", Filter{Type: models.BackupTypeScheduled, Status: models.StatusCompleted}, 1},
		{"limit", Filter{Limit: 2}, 2},
		{"auto", Filter{Type: models.BackupTypeAuto}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.ListRecords(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListRecords failed: %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("expected %d records, got %d", tt.want, len(records))
			}
		})
	}
}

func TestSettingsLazyDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	settings, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if settings.MaxBackups != 5 || settings.BackupFrequencyHours != 24 || settings.BackupLocation != "backups/" {
		t.Errorf("unexpected defaults: %+v", settings)
	}

	settings.MaxBackups = 9
	now := time.Now().UTC()
	settings.LastBackup = &now
	if err := s.SaveSettings(ctx, &settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	reloaded, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if reloaded.MaxBackups != 9 {
		t.Errorf("expected max backups 9, got %d", reloaded.MaxBackups)
	}
	if reloaded.LastBackup == nil || !reloaded.LastBackup.Equal(now) {
		t.Errorf("expected last backup %v, got %v", now, reloaded.LastBackup)
	}
}

func TestOperationsAfterClose(t *testing.T) {
	s, err := Open(Config{InMemory: true}, testDefaults())
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}

	if _, err := s.Settings(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
