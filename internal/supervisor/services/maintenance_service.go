// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultGCInterval is the catalog value log GC period.
const DefaultGCInterval = 10 * time.Minute

// GarbageCollector reclaims space in the backup catalog.
type GarbageCollector interface {
	RunGC() error
}

// MaintenanceService periodically runs catalog garbage collection.
// GC failures are logged and retried on the next tick.
type MaintenanceService struct {
	gc       GarbageCollector
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewMaintenanceService creates the catalog maintenance service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMaintenanceService(gc GarbageCollector, interval time.Duration, logger zerolog.Logger) *MaintenanceService {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	return &MaintenanceService{
		gc:       gc,
		interval: interval,
		logger:   logger.With().Str("service", "catalog-maintenance").Logger(),
		name:     "catalog-maintenance",
	}
}

// Serve implements suture.Service.
func (s *MaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.gc.RunGC(); err != nil {
				s.logger.Warn().Err(err).Msg("catalog GC failed")
				continue
			}
			s.logger.Debug().Dur("duration", time.Since(start)).Msg("catalog GC complete")
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *MaintenanceService) String() string {
	return s.name
}
