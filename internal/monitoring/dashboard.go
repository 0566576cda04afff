// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/backup"
	"github.com/tomtom215/ledgerkeep/internal/catalog"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// dashboardRecent is how many records the dashboard lists.
const dashboardRecent = 10

// Dashboard is the monitoring snapshot served to the UI.
type Dashboard struct {
	HealthCheck   *HealthCheck          `json:"health_check"`
	RecentBackups []models.BackupRecord `json:"recent_backups"`
	BackupStats   *backup.Stats         `json:"backup_stats"`
	Settings      models.SettingsView   `json:"settings"`
	Timestamp     time.Time             `json:"timestamp"`
}

// GetDashboardData runs a fresh health check and gathers recent records,
// aggregate statistics and a redacted settings snapshot.
func (m *Monitor) GetDashboardData(ctx context.Context) (*Dashboard, error) {
	hc := m.PerformHealthCheck(ctx)

	records, err := m.source.ListRecords(ctx, catalog.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	settings, err := m.source.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	recent := records
	if len(recent) > dashboardRecent {
		recent = recent[:dashboardRecent]
	}
	if recent == nil {
		recent = []models.BackupRecord{}
	}

	return &Dashboard{
		HealthCheck:   hc,
		RecentBackups: recent,
		BackupStats:   backup.ComputeStats(records),
		Settings:      settings.View(),
		Timestamp:     m.now().UTC(),
	}, nil
}
