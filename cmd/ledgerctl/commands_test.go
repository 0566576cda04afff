// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerkeep/internal/backup"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

type fakeService struct {
	settings   models.BackupSettings
	created    *backup.CreateRequest
	listOpts   *backup.ListOptions
	verify     *backup.VerifyResult
	restoreKey string
	cleanup    *backup.CleanupReport
	err        error
}

func (f *fakeService) Settings(context.Context) (models.BackupSettings, error) {
	return f.settings, nil
}

func (f *fakeService) CreateBackup(_ context.Context, req backup.CreateRequest) (*backup.CreateResult, error) {
	f.created = &req
	if f.err != nil {
		return nil, f.err
	}
	return &backup.CreateResult{Record: &models.BackupRecord{ID: "b-1", BackupType: req.Type}}, nil
}

func (f *fakeService) ListBackups(_ context.Context, opts backup.ListOptions) (*backup.ListResult, error) {
	f.listOpts = &opts
	return &backup.ListResult{}, nil
}

func (f *fakeService) VerifyBackup(context.Context, string) (*backup.VerifyResult, error) {
	return f.verify, f.err
}

func (f *fakeService) RestoreBackup(_ context.Context, id, key string) (*backup.RestoreResult, error) {
	f.restoreKey = key
	if f.err != nil {
		return nil, f.err
	}
	return &backup.RestoreResult{BackupID: id}, nil
}

func (f *fakeService) RunCleanup(context.Context) (*backup.CleanupReport, error) {
	return f.cleanup, f.err
}

func (f *fakeService) GetBackupStats(context.Context) (*backup.Stats, error) {
	return &backup.Stats{TotalBackups: 3}, nil
}

// run executes the CLI against svc and returns stdout and the opens count.
func run(t *testing.T, svc *fakeService, args ...string) (string, int, error) {
	t.Helper()
	var out bytes.Buffer
	rt := newRuntime(&out)
	opens := 0
	rt.open = func(context.Context) (backupService, func(), error) {
		opens++
		return svc, func() {}, nil
	}
	root := newRootCommand(rt)
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return out.String(), opens, err
}

func TestSchedulePreview(t *testing.T) {
	tests := []struct {
		hours    string
		expr     string
		wantWarn bool
		wantErr  bool
	}{
		{"1", "0 * * * *", false, false},
		{"6", "0 */6 * * *", false, false},
		{"24", "0 0 * * *", false, false},
		{"36", "0 0 */1 * *", true, false},
		{"0", "", false, true},
		{"daily", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.hours, func(t *testing.T) {
			out, opens, err := run(t, &fakeService{}, "schedule-preview", tt.hours)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opens != 0 {
				t.Errorf("expected no store access, got %d opens", opens)
			}

			var got schedulePreview
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid JSON output %q: %v", out, err)
			}
			if got.Expression != tt.expr {
				t.Errorf("expected %q, got %q", tt.expr, got.Expression)
			}
			if (got.Warning != "") != tt.wantWarn {
				t.Errorf("expected warning=%v, got %q", tt.wantWarn, got.Warning)
			}
		})
	}
}

func TestCreateUsesSettingsUnlessOverridden(t *testing.T) {
	settings := models.BackupSettings{CompressionEnabled: true, EncryptionEnabled: true, EncryptionKey: "stored"}

	tests := []struct {
		name         string
		args         []string
		wantCompress bool
		wantEncrypt  bool
		wantKey      string
	}{
		{"defaults", nil, true, true, "stored"},
		{"disable encryption", []string{"--encrypt=false"}, true, false, ""},
		{"explicit key", []string{"--key", "override", "--compress=false"}, false, true, "override"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{settings: settings}
			args := append([]string{"create", "--notes", "before import"}, tt.args...)
			out, _, err := run(t, svc, args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			req := svc.created
			if req == nil {
				t.Fatal("expected CreateBackup call")
			}
			if req.Type != models.BackupTypeManual {
				t.Errorf("expected manual type, got %s", req.Type)
			}
			if req.Notes != "before import" {
				t.Errorf("expected notes to pass through, got %q", req.Notes)
			}
			if req.Compress != tt.wantCompress || req.Encrypt != tt.wantEncrypt || req.EncryptionKey != tt.wantKey {
				t.Errorf("expected compress=%v encrypt=%v key=%q, got %+v", tt.wantCompress, tt.wantEncrypt, tt.wantKey, *req)
			}
			if !strings.Contains(out, `"b-1"`) {
				t.Errorf("expected record in output, got %s", out)
			}
		})
	}
}

func TestListValidatesFilters(t *testing.T) {
	_, opens, err := run(t, &fakeService{}, "list", "--type", "weekly")
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if opens != 0 {
		t.Errorf("expected stores to stay closed, got %d opens", opens)
	}

	svc := &fakeService{}
	if _, _, err := run(t, svc, "list", "--type", "auto", "--status", "failed", "--page", "2", "--limit", "5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := backup.ListOptions{Page: 2, Limit: 5, Type: models.BackupTypeAuto, Status: models.StatusFailed}
	if *svc.listOpts != want {
		t.Errorf("expected %+v, got %+v", want, *svc.listOpts)
	}
}

func TestVerifyFailsOnMismatch(t *testing.T) {
	svc := &fakeService{verify: &backup.VerifyResult{Valid: false, Checksum: "aa", Expected: "bb"}}
	out, _, err := run(t, svc, "verify", "b-1")
	if err == nil {
		t.Fatal("expected error for invalid backup")
	}
	if !strings.Contains(out, `"expected": "bb"`) {
		t.Errorf("expected result printed before failing, got %s", out)
	}
}

func TestRestorePassesKeyAndKind(t *testing.T) {
	svc := &fakeService{}
	if _, _, err := run(t, svc, "restore", "b-1", "--key", "secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.restoreKey != "secret" {
		t.Errorf("expected key secret, got %q", svc.restoreKey)
	}

	svc = &fakeService{err: models.NewError(models.KindBackupNotFound, "backup b-9 not found", nil)}
	_, _, err := run(t, svc, "restore", "b-9")
	if !errors.Is(err, models.ErrBackupNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "BACKUP_NOT_FOUND: ") {
		t.Errorf("expected kind prefix, got %q", err.Error())
	}
}

func TestCleanupReportsTotal(t *testing.T) {
	svc := &fakeService{cleanup: &backup.CleanupReport{
		DeletedByCount: []string{"a", "b"},
		DeletedByAge:   []string{"c"},
	}}
	out, _, err := run(t, svc, "cleanup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"total_deleted": 3`) {
		t.Errorf("expected total_deleted 3, got %s", out)
	}
}

func TestStats(t *testing.T) {
	out, opens, err := run(t, &fakeService{}, "stats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opens != 1 {
		t.Errorf("expected one open, got %d", opens)
	}
	if !strings.Contains(out, `"total_backups": 3`) {
		t.Errorf("expected stats output, got %s", out)
	}
}
