// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package api

import (
	"context"
	"io"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/backup"
	"github.com/tomtom215/ledgerkeep/internal/cloud"
	"github.com/tomtom215/ledgerkeep/internal/models"
	"github.com/tomtom215/ledgerkeep/internal/monitoring"
	"github.com/tomtom215/ledgerkeep/internal/scheduler"
)

// BackupService is the coordinator surface used by the handlers.
type BackupService interface {
	CreateBackup(ctx context.Context, req backup.CreateRequest) (*backup.CreateResult, error)
	ListBackups(ctx context.Context, opts backup.ListOptions) (*backup.ListResult, error)
	GetBackup(ctx context.Context, id string) (*models.BackupRecord, error)
	DeleteBackup(ctx context.Context, id string) error
	VerifyBackup(ctx context.Context, id string) (*backup.VerifyResult, error)
	RestoreBackup(ctx context.Context, id, key string) (*backup.RestoreResult, error)
	OpenBackup(ctx context.Context, id string) (io.ReadCloser, *models.BackupRecord, error)
	GetBackupStats(ctx context.Context) (*backup.Stats, error)
	RunCleanup(ctx context.Context) (*backup.CleanupReport, error)
	Settings(ctx context.Context) (models.BackupSettings, error)
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.BackupSettings, error)
}

// ScheduleService manages one-time and recurring backup jobs.
type ScheduleService interface {
	ScheduleOneTimeBackup(at time.Time, opts backup.RequestOptions) (string, error)
	ScheduleCustomBackup(expr string, opts backup.RequestOptions) (string, error)
	CancelJob(name string) bool
	Status() scheduler.Status
}

// CloudService replicates artifacts to object storage.
type CloudService interface {
	UploadBackup(ctx context.Context, rec *models.BackupRecord, provider string) (*cloud.UploadResult, error)
	Download(ctx context.Context, provider, remoteName, localPath string) error
	Delete(ctx context.Context, provider, remoteName string) error
	List(ctx context.Context, provider, prefix string, maxResults int) ([]cloud.Object, error)
	Providers() []string
}

// MonitorService reports backup health.
type MonitorService interface {
	PerformHealthCheck(ctx context.Context) *monitoring.HealthCheck
	GetDashboardData(ctx context.Context) (*monitoring.Dashboard, error)
}

// Handler holds the dependencies of the HTTP handlers.
//
// Handler methods are split across files:
//   - handlers_backup.go: backup CRUD, verify, download, restore, cleanup
//   - handlers_schedule.go: one-time and recurring schedules
//   - handlers_cloud.go: cloud replication
//   - handlers_health.go: health, dashboard, liveness
//   - handlers_settings.go: settings read and partial update
type Handler struct {
	backups   BackupService
	schedules ScheduleService
	cloud     CloudService
	monitor   MonitorService
	startTime time.Time
}

// NewHandler creates a Handler.
//
// Example:
//
//	handler := api.NewHandler(coord, sched, replicator, monitor)
//	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromServer(cfg.Server))
//	http.ListenAndServe(cfg.Server.Addr(), router)
func NewHandler(backups BackupService, schedules ScheduleService, cloudSvc CloudService, monitor MonitorService) *Handler {
	return &Handler{
		backups:   backups,
		schedules: schedules,
		cloud:     cloudSvc,
		monitor:   monitor,
		startTime: time.Now(),
	}
}
