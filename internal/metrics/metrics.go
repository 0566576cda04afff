// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Package metrics holds the Prometheus collectors for Ledgerkeep.
//
// Collectors are registered on the default registry through promauto and
// exposed by the HTTP server at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

var (
	// Backup Metrics
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkeep_backups_total",
			Help: "Total number of backup attempts by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	BackupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledgerkeep_backup_duration_seconds",
			Help:    "Duration of backup creation in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"type"},
	)

	BackupArtifactBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledgerkeep_backup_artifact_bytes",
			Help:    "Size of created backup artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 12), // 1KiB .. 4GiB
		},
	)

	BackupQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledgerkeep_backup_queue_depth",
			Help: "Number of backup or restore calls waiting for the single-flight slot",
		},
	)

	BackupLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledgerkeep_backup_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful backup",
		},
	)

	RestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkeep_restores_total",
			Help: "Total number of restore attempts by outcome",
		},
		[]string{"outcome"},
	)

	RestoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledgerkeep_restore_duration_seconds",
			Help:    "Duration of restores in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkeep_verifications_total",
			Help: "Total number of integrity verifications by result",
		},
		[]string{"result"}, // "valid", "invalid"
	)

	CleanupDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkeep_cleanup_deletions_total",
			Help: "Total number of backups removed by retention policy",
		},
		[]string{"policy"}, // "count", "age", "size"
	)

	CleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerkeep_cleanup_failures_total",
			Help: "Total number of per-item retention failures",
		},
	)

	// Scheduler Metrics
	SchedulerJobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkeep_scheduler_job_runs_total",
			Help: "Total number of scheduled job executions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	SchedulerJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledgerkeep_scheduler_jobs",
			Help: "Current number of registered scheduled jobs",
		},
	)

	// Cloud Metrics
	CloudOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkeep_cloud_operations_total",
			Help: "Total number of cloud provider operations",
		},
		[]string{"provider", "operation", "outcome"},
	)

	CloudOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledgerkeep_cloud_operation_duration_seconds",
			Help:    "Duration of cloud provider operations in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"provider", "operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Health Metrics
	HealthStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledgerkeep_health_status",
			Help: "Health status per check (0=healthy, 1=warning, 2=unhealthy, 3=error)",
		},
		[]string{"check"},
	)

	HealthChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerkeep_health_checks_total",
			Help: "Total number of health check runs",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordBackup records a backup attempt. size is ignored on failure.
func RecordBackup(backupType string, duration time.Duration, size int64, err error) {
	BackupDuration.WithLabelValues(backupType).Observe(duration.Seconds())
	if err != nil {
		BackupsTotal.WithLabelValues(backupType, OutcomeFailure).Inc()
		return
	}
	BackupsTotal.WithLabelValues(backupType, OutcomeSuccess).Inc()
	BackupArtifactBytes.Observe(float64(size))
	BackupLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordRestore records a restore attempt.
func RecordRestore(duration time.Duration, err error) {
	RestoreDuration.Observe(duration.Seconds())
	RestoresTotal.WithLabelValues(outcome(err)).Inc()
}

// RecordVerification records an integrity check result.
func RecordVerification(valid bool) {
	if valid {
		VerificationsTotal.WithLabelValues("valid").Inc()
		return
	}
	VerificationsTotal.WithLabelValues("invalid").Inc()
}

// RecordCleanup records retention deletions for one policy.
func RecordCleanup(policy string, deleted int) {
	if deleted > 0 {
		CleanupDeletions.WithLabelValues(policy).Add(float64(deleted))
	}
}

// RecordSchedulerRun records one scheduled job execution.
func RecordSchedulerRun(kind string, err error) {
	SchedulerJobRuns.WithLabelValues(kind, outcome(err)).Inc()
}

// RecordCloudOperation records a cloud provider call.
func RecordCloudOperation(provider, operation string, duration time.Duration, err error) {
	CloudOperations.WithLabelValues(provider, operation, outcome(err)).Inc()
	CloudOperationDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
