// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ledgerkeep/internal/monitoring"
)

// HealthChecker runs the backup health checks.
type HealthChecker interface {
	PerformHealthCheck(ctx context.Context) *monitoring.HealthCheck
}

// MonitorService runs the health checks on startup and then every interval,
// logging alerts whenever the aggregate status is not healthy.
type MonitorService struct {
	checker  HealthChecker
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewMonitorService creates the periodic health check service. A
// non-positive interval uses monitoring.DefaultInterval.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMonitorService(checker HealthChecker, interval time.Duration, logger zerolog.Logger) *MonitorService {
	if interval <= 0 {
		interval = monitoring.DefaultInterval
	}
	return &MonitorService{
		checker:  checker,
		interval: interval,
		logger:   logger.With().Str("service", "monitor").Logger(),
		name:     "backup-monitor",
	}
}

// Serve implements suture.Service.
func (s *MonitorService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("backup monitor starting")

	s.check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("backup monitor shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *MonitorService) check(ctx context.Context) {
	hc := s.checker.PerformHealthCheck(ctx)
	if hc == nil {
		return
	}
	if hc.Status == monitoring.StatusHealthy {
		s.logger.Debug().Msg("backup health check passed")
		return
	}

	event := s.logger.Warn()
	if hc.Status.Severity() >= monitoring.StatusUnhealthy.Severity() {
		event = s.logger.Error()
	}
	event.Str("status", string(hc.Status)).
		Strs("alerts", hc.Alerts).
		Msg("backup health check reported problems")
}

// String implements fmt.Stringer for suture's logs.
func (s *MonitorService) String() string {
	return s.name
}
