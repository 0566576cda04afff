// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Package monitoring runs read-only health checks over the backup catalog
// and assembles the dashboard snapshot.
//
// Checks never take the backup coordinator's slot; they read records and
// settings through the catalog only. Each check is independent, so one
// failing check reports "error" without hiding the others.
//
// Usage:
//
//	mon := monitoring.New(store, monitoring.ThresholdsFromConfig(cfg.Monitoring))
//	hc := mon.PerformHealthCheck(ctx)
//	if hc.Status != monitoring.StatusHealthy {
//	    log.Println(hc.Alerts)
//	}
package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/catalog"
	"github.com/tomtom215/ledgerkeep/internal/config"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// DefaultInterval is the health check period when none is configured.
const DefaultInterval = time.Hour

// Source is the read-only view of the catalog the monitor needs.
type Source interface {
	ListRecords(ctx context.Context, f catalog.Filter) ([]models.BackupRecord, error)
	Settings(ctx context.Context) (models.BackupSettings, error)
}

// Thresholds tune when checks raise alerts.
type Thresholds struct {
	// MaxBackupAge is the expected backup interval when the settings carry
	// no usable frequency.
	MaxBackupAge time.Duration `json:"max_backup_age"`

	// MaxBackupSize is the total catalog size, in bytes, above which
	// storageSpace warns.
	MaxBackupSize int64 `json:"max_backup_size"`

	// MaxFailureRate is the failed/total fraction above which
	// backupSuccessRate is unhealthy.
	MaxFailureRate float64 `json:"max_failure_rate"`

	// SizeTrendPercent is how far, in percent, the latest backup may exceed
	// the recent average before backupSizeTrends warns.
	SizeTrendPercent float64 `json:"size_trend_percent"`
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxBackupAge:     24 * time.Hour,
		MaxBackupSize:    1 << 30,
		MaxFailureRate:   0.2,
		SizeTrendPercent: 50,
	}
}

// ThresholdsFromConfig overlays the configured values on the defaults.
func ThresholdsFromConfig(cfg config.MonitoringConfig) Thresholds {
	t := DefaultThresholds()
	t.merge(Thresholds{
		MaxBackupAge:     cfg.MaxBackupAge,
		MaxBackupSize:    cfg.MaxBackupSize,
		MaxFailureRate:   cfg.MaxFailureRate,
		SizeTrendPercent: cfg.SizeTrendPercent,
	})
	return t
}

// merge copies every non-zero field of o into t.
func (t *Thresholds) merge(o Thresholds) {
	if o.MaxBackupAge > 0 {
		t.MaxBackupAge = o.MaxBackupAge
	}
	if o.MaxBackupSize > 0 {
		t.MaxBackupSize = o.MaxBackupSize
	}
	if o.MaxFailureRate > 0 {
		t.MaxFailureRate = o.MaxFailureRate
	}
	if o.SizeTrendPercent > 0 {
		t.SizeTrendPercent = o.SizeTrendPercent
	}
}

// Monitor evaluates backup health.
type Monitor struct {
	source Source
	now    func() time.Time

	mu         sync.RWMutex
	thresholds Thresholds
	last       *HealthCheck
}

// New creates a Monitor reading from source.
func New(source Source, thresholds Thresholds) *Monitor {
	return &Monitor{
		source:     source,
		now:        time.Now,
		thresholds: thresholds,
	}
}

// Thresholds returns the active thresholds.
func (m *Monitor) Thresholds() Thresholds {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.thresholds
}

// SetThresholds merges the non-zero fields of t into the active thresholds
// and returns the result.
func (m *Monitor) SetThresholds(t Thresholds) Thresholds {
	m.mu.Lock()
	m.thresholds.merge(t)
	updated := m.thresholds
	m.mu.Unlock()

	logging.Info().
		Dur("max_backup_age", updated.MaxBackupAge).
		Int64("max_backup_size", updated.MaxBackupSize).
		Float64("max_failure_rate", updated.MaxFailureRate).
		Float64("size_trend_percent", updated.SizeTrendPercent).
		Msg("Alert thresholds updated")
	return updated
}

// LastHealthCheck returns the result of the most recent check, or nil.
func (m *Monitor) LastHealthCheck() *HealthCheck {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}
