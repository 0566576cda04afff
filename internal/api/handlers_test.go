// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerkeep/internal/backup"
	"github.com/tomtom215/ledgerkeep/internal/cloud"
	"github.com/tomtom215/ledgerkeep/internal/models"
	"github.com/tomtom215/ledgerkeep/internal/monitoring"
	"github.com/tomtom215/ledgerkeep/internal/scheduler"
)

// mockBackups implements BackupService. Unset funcs return zero values.
type mockBackups struct {
	createFn   func(ctx context.Context, req backup.CreateRequest) (*backup.CreateResult, error)
	listFn     func(ctx context.Context, opts backup.ListOptions) (*backup.ListResult, error)
	getFn      func(ctx context.Context, id string) (*models.BackupRecord, error)
	deleteFn   func(ctx context.Context, id string) error
	verifyFn   func(ctx context.Context, id string) (*backup.VerifyResult, error)
	restoreFn  func(ctx context.Context, id, key string) (*backup.RestoreResult, error)
	openFn     func(ctx context.Context, id string) (io.ReadCloser, *models.BackupRecord, error)
	statsFn    func(ctx context.Context) (*backup.Stats, error)
	cleanupFn  func(ctx context.Context) (*backup.CleanupReport, error)
	settings   models.BackupSettings
	updateFn   func(ctx context.Context, patch models.SettingsPatch) (models.BackupSettings, error)
	settingErr error
}

func (m *mockBackups) CreateBackup(ctx context.Context, req backup.CreateRequest) (*backup.CreateResult, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return &backup.CreateResult{Record: &models.BackupRecord{ID: "b1"}}, nil
}

func (m *mockBackups) ListBackups(ctx context.Context, opts backup.ListOptions) (*backup.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, opts)
	}
	return &backup.ListResult{}, nil
}

func (m *mockBackups) GetBackup(ctx context.Context, id string) (*models.BackupRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &models.BackupRecord{ID: id}, nil
}

func (m *mockBackups) DeleteBackup(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockBackups) VerifyBackup(ctx context.Context, id string) (*backup.VerifyResult, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, id)
	}
	return &backup.VerifyResult{Valid: true}, nil
}

func (m *mockBackups) RestoreBackup(ctx context.Context, id, key string) (*backup.RestoreResult, error) {
	if m.restoreFn != nil {
		return m.restoreFn(ctx, id, key)
	}
	return &backup.RestoreResult{BackupID: id}, nil
}

func (m *mockBackups) OpenBackup(ctx context.Context, id string) (io.ReadCloser, *models.BackupRecord, error) {
	if m.openFn != nil {
		return m.openFn(ctx, id)
	}
	return nil, nil, models.NewError(models.KindBackupNotFound, "Backup "+id+" not found", nil)
}

func (m *mockBackups) GetBackupStats(ctx context.Context) (*backup.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &backup.Stats{}, nil
}

func (m *mockBackups) RunCleanup(ctx context.Context) (*backup.CleanupReport, error) {
	if m.cleanupFn != nil {
		return m.cleanupFn(ctx)
	}
	return &backup.CleanupReport{}, nil
}

func (m *mockBackups) Settings(_ context.Context) (models.BackupSettings, error) {
	return m.settings, m.settingErr
}

func (m *mockBackups) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.BackupSettings, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, patch)
	}
	s := m.settings
	patch.Apply(&s)
	return s, nil
}

type mockSchedules struct {
	oneTimeAt time.Time
	customExp string
	jobs      map[string]bool
}

func (m *mockSchedules) ScheduleOneTimeBackup(at time.Time, _ backup.RequestOptions) (string, error) {
	if at.Before(time.Now()) {
		return "", models.NewError(models.KindScheduleInPast, "Cannot schedule backup in the past", nil)
	}
	m.oneTimeAt = at
	return "one_time_backup_1", nil
}

func (m *mockSchedules) ScheduleCustomBackup(expr string, _ backup.RequestOptions) (string, error) {
	m.customExp = expr
	return "custom_backup_1", nil
}

func (m *mockSchedules) CancelJob(name string) bool {
	return m.jobs[name]
}

func (m *mockSchedules) Status() scheduler.Status {
	return scheduler.Status{Running: true, Jobs: []scheduler.JobInfo{{Name: "auto_backup", Kind: "auto", Spec: "@every 24h"}}, JobCount: 1}
}

type mockCloud struct {
	downloadPath string
	uploaded     string
	listPrefix   string
	listMax      int
}

func (m *mockCloud) UploadBackup(_ context.Context, rec *models.BackupRecord, provider string) (*cloud.UploadResult, error) {
	if provider != cloud.ProviderS3 {
		return nil, models.NewError(models.KindProviderNotConfigured, "Provider "+provider+" not configured", nil)
	}
	m.uploaded = rec.ID
	return &cloud.UploadResult{Provider: provider}, nil
}

func (m *mockCloud) Download(_ context.Context, _, _, localPath string) error {
	m.downloadPath = localPath
	return nil
}

func (m *mockCloud) Delete(context.Context, string, string) error { return nil }

func (m *mockCloud) List(_ context.Context, _, prefix string, maxResults int) ([]cloud.Object, error) {
	m.listPrefix = prefix
	m.listMax = maxResults
	return []cloud.Object{{Name: "ledger_backup_a.db"}}, nil
}

func (m *mockCloud) Providers() []string { return []string{cloud.ProviderS3} }

type mockMonitor struct {
	status monitoring.Status
}

func (m *mockMonitor) PerformHealthCheck(context.Context) *monitoring.HealthCheck {
	return &monitoring.HealthCheck{Timestamp: time.Now(), Status: m.status, Checks: map[string]monitoring.CheckResult{}}
}

func (m *mockMonitor) GetDashboardData(ctx context.Context) (*monitoring.Dashboard, error) {
	return &monitoring.Dashboard{HealthCheck: m.PerformHealthCheck(ctx), Timestamp: time.Now()}, nil
}

type testEnv struct {
	backups   *mockBackups
	schedules *mockSchedules
	cloud     *mockCloud
	monitor   *mockMonitor
	router    http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		backups: &mockBackups{settings: models.BackupSettings{
			MaxBackups:           10,
			BackupFrequencyHours: 24,
			BackupLocation:       t.TempDir(),
		}},
		schedules: &mockSchedules{jobs: map[string]bool{"auto_backup": true}},
		cloud:     &mockCloud{},
		monitor:   &mockMonitor{status: monitoring.StatusHealthy},
	}
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	env.router = NewRouter(NewHandler(env.backups, env.schedules, env.cloud, env.monitor), cfg)
	return env
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Error   *models.APIError       `json:"error"`
	Meta    map[string]interface{} `json:"metadata"`
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestCreateBackupResolvesSettings(t *testing.T) {
	env := newTestEnv(t)
	env.backups.settings.CompressionEnabled = true

	var got backup.CreateRequest
	env.backups.createFn = func(_ context.Context, req backup.CreateRequest) (*backup.CreateResult, error) {
		got = req
		return &backup.CreateResult{Record: &models.BackupRecord{ID: "b1"}}, nil
	}

	rec, body := env.do(t, http.MethodPost, "/api/v1/backups", `{"notes":"before import"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !body.Success {
		t.Error("expected success envelope")
	}
	if got.Type != models.BackupTypeManual {
		t.Errorf("expected manual backup, got %s", got.Type)
	}
	if !got.Compress {
		t.Error("expected compression to default from settings")
	}
	if got.Notes != "before import" {
		t.Errorf("expected notes to pass through, got %q", got.Notes)
	}
}

func TestCreateBackupEmptyBody(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodPost, "/api/v1/backups", "")
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201 for empty body, got %d", rec.Code)
	}
}

func TestCreateBackupErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"notes":`, nil, http.StatusBadRequest, CodeInvalidRequest},
		{"notes too long", `{"notes":"` + strings.Repeat("n", 1001) + `"}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{
			"data source missing",
			`{}`,
			models.NewError(models.KindBackupCreationFailed, "Backup creation failed",
				models.NewError(models.KindDataSourceMissing, "ledger database not found", nil)),
			http.StatusUnprocessableEntity, "DATA_SOURCE_MISSING",
		},
		{"storage", `{}`, models.NewError(models.KindStorageUnavailable, "disk full", nil), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.err != nil {
				env.backups.createFn = func(context.Context, backup.CreateRequest) (*backup.CreateResult, error) {
					return nil, tt.err
				}
			}
			rec, body := env.do(t, http.MethodPost, "/api/v1/backups", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if body.Error == nil || body.Error.Code != tt.wantCode {
				t.Errorf("expected code %s, got %+v", tt.wantCode, body.Error)
			}
		})
	}
}

func TestListBackupsParsesQuery(t *testing.T) {
	env := newTestEnv(t)
	var got backup.ListOptions
	env.backups.listFn = func(_ context.Context, opts backup.ListOptions) (*backup.ListResult, error) {
		got = opts
		return &backup.ListResult{}, nil
	}

	rec, _ := env.do(t, http.MethodGet, "/api/v1/backups?page=2&limit=5&type=auto&status=completed", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Page != 2 || got.Limit != 5 {
		t.Errorf("expected page 2 limit 5, got page %d limit %d", got.Page, got.Limit)
	}
	if got.Type != models.BackupTypeAuto || got.Status != models.StatusCompleted {
		t.Errorf("expected auto/completed filter, got %s/%s", got.Type, got.Status)
	}
}

func TestListBackupsRejectsUnknownFilters(t *testing.T) {
	env := newTestEnv(t)
	for _, q := range []string{"type=weekly", "status=pending"} {
		rec, body := env.do(t, http.MethodGet, "/api/v1/backups?"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
		if body.Error == nil || body.Error.Code != "VALIDATION_FAILED" {
			t.Errorf("%s: expected VALIDATION_FAILED, got %+v", q, body.Error)
		}
	}
}

func TestStaticBackupRoutesWinOverID(t *testing.T) {
	env := newTestEnv(t)
	statsCalled := false
	env.backups.statsFn = func(context.Context) (*backup.Stats, error) {
		statsCalled = true
		return &backup.Stats{TotalBackups: 3}, nil
	}
	env.backups.getFn = func(context.Context, string) (*models.BackupRecord, error) {
		t.Error("stats route must not resolve to GetBackup")
		return nil, nil
	}

	rec, _ := env.do(t, http.MethodGet, "/api/v1/backups/stats", "")
	if rec.Code != http.StatusOK || !statsCalled {
		t.Errorf("expected stats handler, got %d called=%v", rec.Code, statsCalled)
	}
}

func TestGetBackupNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.backups.getFn = func(_ context.Context, id string) (*models.BackupRecord, error) {
		return nil, models.NewError(models.KindBackupNotFound, "Backup "+id+" not found", nil)
	}

	rec, body := env.do(t, http.MethodGet, "/api/v1/backups/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if body.Error == nil || body.Error.Code != "BACKUP_NOT_FOUND" {
		t.Errorf("expected BACKUP_NOT_FOUND, got %+v", body.Error)
	}
	if body.Error != nil && !strings.Contains(body.Error.Message, "missing") {
		t.Errorf("expected message to name the id, got %q", body.Error.Message)
	}
}

func TestDeleteAndVerifyBackup(t *testing.T) {
	env := newTestEnv(t)
	var deleted string
	env.backups.deleteFn = func(_ context.Context, id string) error {
		deleted = id
		return nil
	}
	env.backups.verifyFn = func(context.Context, string) (*backup.VerifyResult, error) {
		return &backup.VerifyResult{Valid: false, Checksum: "aa", Expected: "bb"}, nil
	}

	rec, _ := env.do(t, http.MethodDelete, "/api/v1/backups/b7", "")
	if rec.Code != http.StatusOK || deleted != "b7" {
		t.Errorf("expected delete of b7, got %d %q", rec.Code, deleted)
	}

	rec, body := env.do(t, http.MethodGet, "/api/v1/backups/b7/verify", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res backup.VerifyResult
	if err := json.Unmarshal(body.Data, &res); err != nil {
		t.Fatalf("decode verify result: %v", err)
	}
	if res.Valid || res.Expected != "bb" {
		t.Errorf("expected invalid result with expected checksum, got %+v", res)
	}
}

func TestDownloadBackupStreamsArtifact(t *testing.T) {
	env := newTestEnv(t)
	payload := []byte("SQLite format 3\x00ledger")
	env.backups.openFn = func(_ context.Context, id string) (io.ReadCloser, *models.BackupRecord, error) {
		return io.NopCloser(bytes.NewReader(payload)), &models.BackupRecord{
			ID:       id,
			FileName: "ledger_backup_manual_20260101_000000.db",
			FileSize: int64(len(payload)),
			Checksum: "abc123",
		}, nil
	}

	rec, _ := env.do(t, http.MethodGet, "/api/v1/backups/b1/download", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), payload) {
		t.Error("expected artifact bytes in body")
	}
	if rec.Header().Get("X-Backup-Checksum") != "abc123" {
		t.Errorf("expected checksum header, got %q", rec.Header().Get("X-Backup-Checksum"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "ledger_backup_manual_20260101_000000.db") {
		t.Errorf("expected file name in disposition, got %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestRestoreBackupPassesKey(t *testing.T) {
	env := newTestEnv(t)
	var gotKey string
	env.backups.restoreFn = func(_ context.Context, id, key string) (*backup.RestoreResult, error) {
		gotKey = key
		return nil, models.NewError(models.KindRestoreFailed, "Backup restoration failed", errors.New("bad key"))
	}

	rec, body := env.do(t, http.MethodPost, "/api/v1/backups/b1/restore", `{"encryption_key":"k1"}`)
	if gotKey != "k1" {
		t.Errorf("expected key k1, got %q", gotKey)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body.Error == nil || body.Error.Code != "RESTORE_FAILED" {
		t.Errorf("expected RESTORE_FAILED, got %+v", body.Error)
	}
}

func TestCleanupReportsTotal(t *testing.T) {
	env := newTestEnv(t)
	env.backups.cleanupFn = func(context.Context) (*backup.CleanupReport, error) {
		return &backup.CleanupReport{DeletedByCount: []string{"a", "b"}, DeletedByAge: []string{"c"}}, nil
	}

	rec, body := env.do(t, http.MethodPost, "/api/v1/backups/cleanup", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var data struct {
		TotalDeleted int `json:"total_deleted"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		t.Fatalf("decode cleanup: %v", err)
	}
	if data.TotalDeleted != 3 {
		t.Errorf("expected 3 deleted, got %d", data.TotalDeleted)
	}
}

func TestScheduleBackup(t *testing.T) {
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"one-time", `{"kind":"one-time","time":"` + future + `"}`, http.StatusCreated, ""},
		{"recurring", `{"kind":"recurring","cron_expression":"0 2 * * *"}`, http.StatusCreated, ""},
		{"one-time in past", `{"kind":"one-time","time":"` + past + `"}`, http.StatusBadRequest, "SCHEDULE_IN_PAST"},
		{"one-time missing time", `{"kind":"one-time"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"recurring bad cron", `{"kind":"recurring","cron_expression":"every day"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown kind", `{"kind":"weekly"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec, body := env.do(t, http.MethodPost, "/api/v1/schedules", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantCode == "" {
				var resp ScheduleBackupResponse
				if err := json.Unmarshal(body.Data, &resp); err != nil {
					t.Fatalf("decode schedule response: %v", err)
				}
				if resp.JobName == "" {
					t.Error("expected a job name")
				}
				return
			}
			if body.Error == nil || body.Error.Code != tt.wantCode {
				t.Errorf("expected %s, got %+v", tt.wantCode, body.Error)
			}
		})
	}
}

func TestCancelSchedule(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodDelete, "/api/v1/schedules/auto_backup", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec, body := env.do(t, http.MethodDelete, "/api/v1/schedules/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if body.Error == nil || body.Error.Code != CodeJobNotFound {
		t.Errorf("expected %s, got %+v", CodeJobNotFound, body.Error)
	}
}

func TestCloudUpload(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/v1/cloud/upload", `{"backup_id":"b9","provider":"aws_s3"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.cloud.uploaded != "b9" {
		t.Errorf("expected b9 uploaded, got %q", env.cloud.uploaded)
	}

	rec, body := env.do(t, http.MethodPost, "/api/v1/cloud/upload", `{"backup_id":"b9","provider":"google_cloud"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if body.Error == nil || body.Error.Code != "PROVIDER_NOT_CONFIGURED" {
		t.Errorf("expected PROVIDER_NOT_CONFIGURED, got %+v", body.Error)
	}
}

func TestCloudDownloadConfinedToBackupLocation(t *testing.T) {
	env := newTestEnv(t)
	base := env.backups.settings.BackupLocation

	rec, _ := env.do(t, http.MethodPost, "/api/v1/cloud/download",
		`{"provider":"aws_s3","remote_name":"ledger_backups/ledger_backup_a.db"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want, _ := filepath.Abs(filepath.Join(base, "ledger_backup_a.db"))
	if env.cloud.downloadPath != want {
		t.Errorf("expected download to %s, got %s", want, env.cloud.downloadPath)
	}

	rec, _ = env.do(t, http.MethodPost, "/api/v1/cloud/download",
		`{"provider":"aws_s3","remote_name":"x.db","local_path":"../../etc/x.db"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for escaping path, got %d", rec.Code)
	}
}

func TestConfinePath(t *testing.T) {
	base := t.TempDir()
	tests := []struct {
		rel     string
		wantErr bool
	}{
		{"a.db", false},
		{"restored/a.db", false},
		{"sub/../a.db", false},
		{"../a.db", true},
		{"/etc/passwd", true},
		{".", true},
		{"", true},
	}
	for _, tt := range tests {
		_, err := confinePath(base, tt.rel)
		if (err != nil) != tt.wantErr {
			t.Errorf("confinePath(%q): expected error=%v, got %v", tt.rel, tt.wantErr, err)
		}
	}
}

func TestCloudListDefaults(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodGet, "/api/v1/cloud/aws_s3/backups?prefix=ledger_&maxResults=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.cloud.listPrefix != "ledger_" || env.cloud.listMax != 5 {
		t.Errorf("expected prefix ledger_ and max 5, got %q %d", env.cloud.listPrefix, env.cloud.listMax)
	}

	env.do(t, http.MethodGet, "/api/v1/cloud/aws_s3/backups", "")
	if env.cloud.listMax != cloud.DefaultMaxResults {
		t.Errorf("expected default max %d, got %d", cloud.DefaultMaxResults, env.cloud.listMax)
	}
}

func TestHealthStatusCodes(t *testing.T) {
	tests := []struct {
		status monitoring.Status
		want   int
	}{
		{monitoring.StatusHealthy, http.StatusOK},
		{monitoring.StatusWarning, http.StatusOK},
		{monitoring.StatusUnhealthy, http.StatusServiceUnavailable},
		{monitoring.StatusError, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		env := newTestEnv(t)
		env.monitor.status = tt.status
		rec, _ := env.do(t, http.MethodGet, "/api/v1/health", "")
		if rec.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.status, tt.want, rec.Code)
		}
	}
}

func TestSettingsNeverEchoKey(t *testing.T) {
	env := newTestEnv(t)
	env.backups.settings.EncryptionEnabled = true
	env.backups.settings.EncryptionKey = "super-secret-key"

	rec, body := env.do(t, http.MethodGet, "/api/v1/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "super-secret-key") {
		t.Error("expected encryption key to be redacted")
	}
	var view models.SettingsView
	if err := json.Unmarshal(body.Data, &view); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if !view.HasEncryptionKey {
		t.Error("expected has_encryption_key true")
	}

	rec, body = env.do(t, http.MethodPut, "/api/v1/settings", `{"max_backups":3,"encryption_key":"other-key"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "other-key") {
		t.Error("expected updated key to be redacted")
	}
	view = models.SettingsView{}
	if err := json.Unmarshal(body.Data, &view); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if view.MaxBackups != 3 {
		t.Errorf("expected max_backups 3, got %d", view.MaxBackups)
	}
	if view.BackupFrequencyHours != 24 {
		t.Errorf("expected untouched frequency 24, got %v", view.BackupFrequencyHours)
	}
}

func TestUpdateSettingsValidationError(t *testing.T) {
	env := newTestEnv(t)
	env.backups.updateFn = func(context.Context, models.SettingsPatch) (models.BackupSettings, error) {
		return models.BackupSettings{}, models.NewError(models.KindValidationFailed, "invalid settings", nil)
	}
	rec, _ := env.do(t, http.MethodPut, "/api/v1/settings", `{"max_backups":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
