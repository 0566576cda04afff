// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package backup

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/catalog"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// fakeLedger is a Ledger backed by a plain file. Checkpoint doubles as a
// probe counting how many backup bodies run at once.
type fakeLedger struct {
	path  string
	delay time.Duration

	offlineErr error
	onlineErr  error

	mu           sync.Mutex
	active       int
	maxActive    int
	offlineCalls int
	onlineCalls  int
}

func (l *fakeLedger) Path() string { return l.path }

func (l *fakeLedger) Checkpoint(_ context.Context) error {
	l.mu.Lock()
	l.active++
	if l.active > l.maxActive {
		l.maxActive = l.active
	}
	l.mu.Unlock()

	time.Sleep(l.delay)

	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	return nil
}

func (l *fakeLedger) Offline(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offlineCalls++
	return l.offlineErr
}

func (l *fakeLedger) Online(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onlineCalls++
	return l.onlineErr
}

func (l *fakeLedger) calls() (offline, online int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.offlineCalls, l.onlineCalls
}

// testEnv holds a coordinator over an in-memory catalog and a temp ledger file.
type testEnv struct {
	dir       string
	backupDir string
	ledger    *fakeLedger
	catalog   *catalog.Store
	coord     *Coordinator
}

func testDefaults(backupDir string) models.BackupSettings {
	return models.BackupSettings{
		MaxBackups:           50,
		AutoBackupEnabled:    true,
		BackupFrequencyHours: 24,
		BackupLocation:       backupDir,
		CompressionEnabled:   true,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	ledgerPath := filepath.Join(dir, "ledger.sqlite3")
	writeLedger(t, ledgerPath, bytes.Repeat([]byte("L"), 100))

	store, err := catalog.Open(catalog.Config{InMemory: true}, testDefaults(backupDir))
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ledger := &fakeLedger{path: ledgerPath}
	return &testEnv{
		dir:       dir,
		backupDir: backupDir,
		ledger:    ledger,
		catalog:   store,
		coord:     New(store, ledger),
	}
}

func writeLedger(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write ledger: %v", err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}

// patchSettings applies a settings patch and fails the test on error.
func (e *testEnv) patchSettings(t *testing.T, patch models.SettingsPatch) {
	t.Helper()
	if _, err := e.coord.UpdateSettings(context.Background(), patch); err != nil {
		t.Fatalf("failed to update settings: %v", err)
	}
}

// seedRecord stores a completed record with an artifact of size bytes.
func (e *testEnv) seedRecord(t *testing.T, id string, createdAt time.Time, size int) *models.BackupRecord {
	t.Helper()
	if err := os.MkdirAll(e.backupDir, 0o750); err != nil {
		t.Fatalf("failed to create backup dir: %v", err)
	}
	path := filepath.Join(e.backupDir, id+".db")
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0o600); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}
	rec := &models.BackupRecord{
		ID:         id,
		FileName:   id + ".db",
		FilePath:   path,
		BackupType: models.BackupTypeAuto,
		FileSize:   int64(size),
		Status:     models.StatusCompleted,
		CreatedAt:  createdAt,
	}
	if err := e.catalog.SaveRecord(context.Background(), rec); err != nil {
		t.Fatalf("failed to save record: %v", err)
	}
	return rec
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }
