// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package monitoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/catalog"
	"github.com/tomtom215/ledgerkeep/internal/integrity"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/metrics"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// Status is a health level. Higher severity wins when aggregating.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusWarning   Status = "warning"
	StatusUnhealthy Status = "unhealthy"
	StatusError     Status = "error"
)

// Severity orders statuses: healthy < warning < unhealthy < error.
func (s Status) Severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusWarning:
		return 1
	case StatusUnhealthy:
		return 2
	case StatusError:
		return 3
	default:
		return 0
	}
}

// Check names.
const (
	CheckBackupFrequency   = "backupFrequency"
	CheckBackupIntegrity   = "backupIntegrity"
	CheckStorageSpace      = "storageSpace"
	CheckBackupSuccessRate = "backupSuccessRate"
	CheckFailedBackups     = "failedBackups"
	CheckBackupSizeTrends  = "backupSizeTrends"
)

// Window sizes for checks that look at recent records.
const (
	integrityWindow    = 5
	failureWindow      = 10
	sizeTrendWindow    = 10
	sizeTrendMinimum   = 3
	frequencyTolerance = 1.5
)

// CheckResult is the outcome of one sub-check.
type CheckResult struct {
	Status  Status         `json:"status"`
	Message string         `json:"message"`
	Alert   string         `json:"alert,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthCheck aggregates every sub-check.
type HealthCheck struct {
	Timestamp time.Time              `json:"timestamp"`
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Alerts    []string               `json:"alerts"`
}

type checkFunc func(ctx context.Context) (CheckResult, error)

// PerformHealthCheck runs every sub-check, aggregates the most severe status
// and collects all alerts. Results are exported as gauges.
func (m *Monitor) PerformHealthCheck(ctx context.Context) *HealthCheck {
	checks := []struct {
		name string
		fn   checkFunc
	}{
		{CheckBackupFrequency, m.checkBackupFrequency},
		{CheckBackupIntegrity, m.checkBackupIntegrity},
		{CheckStorageSpace, m.checkStorageSpace},
		{CheckBackupSuccessRate, m.checkBackupSuccessRate},
		{CheckFailedBackups, m.checkFailedBackups},
		{CheckBackupSizeTrends, m.checkBackupSizeTrends},
	}

	hc := &HealthCheck{
		Timestamp: m.now().UTC(),
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(checks)),
		Alerts:    []string{},
	}
	logger := logging.Ctx(ctx)

	for _, c := range checks {
		res, err := c.fn(ctx)
		if err != nil {
			logger.Error().Err(err).Str("check", c.name).Msg("Health check failed")
			res = CheckResult{
				Status:  StatusError,
				Message: "Failed to run " + c.name + " check",
				Details: map[string]any{"error": err.Error()},
			}
		}
		hc.Checks[c.name] = res
		if res.Status.Severity() > hc.Status.Severity() {
			hc.Status = res.Status
		}
		if res.Alert != "" {
			hc.Alerts = append(hc.Alerts, res.Alert)
		}
		metrics.HealthStatus.WithLabelValues(c.name).Set(float64(res.Status.Severity()))
	}
	metrics.HealthStatus.WithLabelValues("overall").Set(float64(hc.Status.Severity()))
	metrics.HealthChecksTotal.Inc()

	if hc.Status == StatusHealthy {
		logger.Info().Msg("Backup health check passed")
	} else {
		logger.Warn().Str("status", string(hc.Status)).Strs("alerts", hc.Alerts).Msg("Backup health check reported problems")
	}

	m.mu.Lock()
	m.last = hc
	m.mu.Unlock()
	return hc
}

func (m *Monitor) completed(ctx context.Context, limit int) ([]models.BackupRecord, error) {
	return m.source.ListRecords(ctx, catalog.Filter{Status: models.StatusCompleted, Limit: limit})
}

func hoursAgo(d time.Duration) int64 {
	return int64(math.Round(d.Hours()))
}

func (m *Monitor) checkBackupFrequency(ctx context.Context) (CheckResult, error) {
	settings, err := m.source.Settings(ctx)
	if err != nil {
		return CheckResult{}, err
	}
	if !settings.AutoBackupEnabled {
		return CheckResult{
			Status:  StatusWarning,
			Message: "Auto backup is disabled",
			Alert:   "Auto backup is disabled - consider enabling for data protection",
		}, nil
	}

	latest, err := m.completed(ctx, 1)
	if err != nil {
		return CheckResult{}, err
	}
	if len(latest) == 0 {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "No backups found",
			Alert:   "No backups have been created - immediate action required",
		}, nil
	}

	expected := settings.Frequency()
	if expected <= 0 {
		expected = m.Thresholds().MaxBackupAge
	}
	since := m.now().Sub(latest[0].CreatedAt)
	details := map[string]any{
		"last_backup":    latest[0].CreatedAt,
		"expected_hours": expected.Hours(),
	}

	if float64(since) > float64(expected)*frequencyTolerance {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("Last backup was %d hours ago", hoursAgo(since)),
			Alert:   fmt.Sprintf("Backup is overdue - last backup was %d hours ago", hoursAgo(since)),
			Details: details,
		}, nil
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("Last backup was %d hours ago", hoursAgo(since)),
		Details: details,
	}, nil
}

// IntegrityIssue describes a recent backup that failed verification.
type IntegrityIssue struct {
	BackupID string `json:"backup_id"`
	FileName string `json:"file_name"`
	Issue    string `json:"issue"`
}

func (m *Monitor) checkBackupIntegrity(ctx context.Context) (CheckResult, error) {
	recent, err := m.completed(ctx, integrityWindow)
	if err != nil {
		return CheckResult{}, err
	}

	var missing, corrupt []IntegrityIssue
	for i := range recent {
		rec := &recent[i]
		if rec.Checksum == "" {
			missing = append(missing, IntegrityIssue{BackupID: rec.ID, FileName: rec.FileName, Issue: "No checksum available"})
			continue
		}
		if !integrity.Verify(rec.FilePath, rec.Checksum) {
			corrupt = append(corrupt, IntegrityIssue{BackupID: rec.ID, FileName: rec.FileName, Issue: "Checksum mismatch or artifact unreadable"})
		}
	}

	if len(corrupt) > 0 {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("%d backups failed integrity verification", len(corrupt)),
			Alert:   fmt.Sprintf("%d recent backups are corrupt or missing - verify before relying on them", len(corrupt)),
			Details: map[string]any{"issues": append(corrupt, missing...)},
		}, nil
	}
	if len(missing) > 0 {
		return CheckResult{
			Status:  StatusWarning,
			Message: fmt.Sprintf("%d backups without integrity verification", len(missing)),
			Alert:   "Some backups lack integrity verification - consider enabling checksum validation",
			Details: map[string]any{"issues": missing},
		}, nil
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "All recent backups have integrity verification",
		Details: map[string]any{"checked_backups": len(recent)},
	}, nil
}

func (m *Monitor) checkStorageSpace(ctx context.Context) (CheckResult, error) {
	settings, err := m.source.Settings(ctx)
	if err != nil {
		return CheckResult{}, err
	}

	dir, err := filepath.Abs(settings.BackupLocation)
	if err != nil {
		return CheckResult{}, fmt.Errorf("resolve backup location: %w", err)
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return CheckResult{
				Status:  StatusWarning,
				Message: "Backup directory does not exist",
				Alert:   "Backup directory does not exist - backups may fail",
				Details: map[string]any{"location": dir},
			}, nil
		}
		return CheckResult{}, fmt.Errorf("stat backup location: %w", statErr)
	}

	records, err := m.source.ListRecords(ctx, catalog.Filter{})
	if err != nil {
		return CheckResult{}, err
	}
	var total int64
	for i := range records {
		total += records[i].FileSize
	}
	totalMB := models.BytesToMB(total)
	details := map[string]any{"total_size": total, "total_size_mb": totalMB, "location": dir}

	if total > m.Thresholds().MaxBackupSize {
		return CheckResult{
			Status:  StatusWarning,
			Message: fmt.Sprintf("Total backup size is %.2fMB", totalMB),
			Alert:   fmt.Sprintf("Backup storage is large (%.2fMB) - consider cleanup or compression", totalMB),
			Details: details,
		}, nil
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("Total backup size is %.2fMB", totalMB),
		Details: details,
	}, nil
}

func (m *Monitor) checkBackupSuccessRate(ctx context.Context) (CheckResult, error) {
	records, err := m.source.ListRecords(ctx, catalog.Filter{})
	if err != nil {
		return CheckResult{}, err
	}

	var succeeded, failed int
	for i := range records {
		switch records[i].Status {
		case models.StatusCompleted:
			succeeded++
		case models.StatusFailed:
			failed++
		}
	}
	total := len(records)
	successRate, failureRate := 1.0, 0.0
	if total > 0 {
		successRate = float64(succeeded) / float64(total)
		failureRate = float64(failed) / float64(total)
	}
	details := map[string]any{
		"success_rate":       successRate,
		"failure_rate":       failureRate,
		"total_backups":      total,
		"successful_backups": succeeded,
		"failed_backups":     failed,
	}

	if failureRate > m.Thresholds().MaxFailureRate {
		pct := math.Round(failureRate * 100)
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("Backup failure rate is %.0f%%", pct),
			Alert:   fmt.Sprintf("High backup failure rate (%.0f%%) - investigate backup process", pct),
			Details: details,
		}, nil
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("Backup success rate is %.0f%%", math.Round(successRate*100)),
		Details: details,
	}, nil
}

// FailedBackup summarizes a failed record for the failedBackups check.
type FailedBackup struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
	Notes     string    `json:"notes,omitempty"`
}

func (m *Monitor) checkFailedBackups(ctx context.Context) (CheckResult, error) {
	recent, err := m.source.ListRecords(ctx, catalog.Filter{Limit: failureWindow})
	if err != nil {
		return CheckResult{}, err
	}

	failed := []FailedBackup{}
	for i := range recent {
		if recent[i].Status != models.StatusFailed {
			continue
		}
		failed = append(failed, FailedBackup{
			ID:        recent[i].ID,
			FileName:  recent[i].FileName,
			CreatedAt: recent[i].CreatedAt,
			Notes:     recent[i].Notes,
		})
	}

	if len(failed) > 0 {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("%d recent failed backups", len(failed)),
			Alert:   fmt.Sprintf("%d recent backup failures - immediate attention required", len(failed)),
			Details: map[string]any{"failed_backups": failed},
		}, nil
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "No recent failed backups",
		Details: map[string]any{"failed_backups": failed},
	}, nil
}

func (m *Monitor) checkBackupSizeTrends(ctx context.Context) (CheckResult, error) {
	recent, err := m.completed(ctx, sizeTrendWindow)
	if err != nil {
		return CheckResult{}, err
	}
	if len(recent) < sizeTrendMinimum {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "Insufficient data for trend analysis",
			Details: map[string]any{"recent_backups": len(recent)},
		}, nil
	}

	var sum int64
	for i := range recent {
		sum += recent[i].FileSize
	}
	avg := float64(sum) / float64(len(recent))
	latest := recent[0].FileSize
	increase := 0.0
	if avg > 0 {
		increase = (float64(latest) - avg) / avg * 100
	}
	details := map[string]any{
		"avg_size_mb":    math.Round(avg/(1024*1024)*100) / 100,
		"latest_size_mb": models.BytesToMB(latest),
		"size_increase":  math.Round(increase),
	}

	if increase > m.Thresholds().SizeTrendPercent {
		return CheckResult{
			Status:  StatusWarning,
			Message: fmt.Sprintf("Backup size increased by %.0f%%", math.Round(increase)),
			Alert:   fmt.Sprintf("Significant backup size increase (%.0f%%) - monitor storage usage", math.Round(increase)),
			Details: details,
		}, nil
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("Backup size trend is stable (%.0f%% change)", math.Round(increase)),
		Details: details,
	}, nil
}
