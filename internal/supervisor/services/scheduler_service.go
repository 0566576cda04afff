// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package services

import (
	"context"
	"fmt"
)

// BackupScheduler is the Start/Stop lifecycle of *scheduler.Scheduler.
type BackupScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService adapts the backup scheduler to suture's Serve pattern:
// Start, wait for cancellation, Stop. Stop waits for running jobs within
// the scheduler's stop timeout.
type SchedulerService struct {
	scheduler BackupScheduler
	name      string
}

// NewSchedulerService wraps sched.
func NewSchedulerService(sched BackupScheduler) *SchedulerService {
	return &SchedulerService{
		scheduler: sched,
		name:      "backup-scheduler",
	}
}

// Serve implements suture.Service. A Start failure is returned immediately
// so suture restarts the service with backoff.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("backup scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("backup scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (s *SchedulerService) String() string {
	return s.name
}
