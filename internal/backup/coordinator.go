// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

/*
coordinator.go - Backup Coordinator

This file contains the Coordinator struct, the interfaces it depends on, the
single-flight slot, and settings access.

Slot Handoff:
The slot is a busy flag plus a FIFO queue of waiter channels guarded by one
mutex. release() closes the channel of the first waiter instead of clearing
the flag, so the slot passes directly to the next caller and a newcomer can
never jump the queue.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/catalog"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/metrics"
	"github.com/tomtom215/ledgerkeep/internal/models"
	"github.com/tomtom215/ledgerkeep/internal/validation"
)

// Catalog persists backup records and the settings singleton.
type Catalog interface {
	SaveRecord(ctx context.Context, r *models.BackupRecord) error
	GetRecord(ctx context.Context, id string) (*models.BackupRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	ListRecords(ctx context.Context, f catalog.Filter) ([]models.BackupRecord, error)
	Settings(ctx context.Context) (models.BackupSettings, error)
	SaveSettings(ctx context.Context, s *models.BackupSettings) error
}

// Ledger is the primary store being backed up.
type Ledger interface {
	// Path returns the store file.
	Path() string
	// Checkpoint flushes pending writes into the store file.
	Checkpoint(ctx context.Context) error
	// Offline closes every handle on the store file.
	Offline(ctx context.Context) error
	// Online reopens the store file.
	Online(ctx context.Context) error
}

// Coordinator creates, verifies, restores and prunes backups.
type Coordinator struct {
	catalog Catalog
	ledger  Ledger
	now     func() time.Time

	// single-flight slot
	slotMu  sync.Mutex
	busy    bool
	waiters []chan struct{}

	// serializes settings read-modify-write
	settingsMu sync.Mutex

	hookMu            sync.RWMutex
	onSettingsChanged func(models.BackupSettings)
}

// New creates a Coordinator.
func New(cat Catalog, ledger Ledger) *Coordinator {
	return &Coordinator{
		catalog: cat,
		ledger:  ledger,
		now:     time.Now,
	}
}

// SetOnSettingsChanged registers a callback fired after every successful
// UpdateSettings. The callback receives a copy of the new settings.
func (c *Coordinator) SetOnSettingsChanged(fn func(models.BackupSettings)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onSettingsChanged = fn
}

// acquire blocks until the caller holds the slot or ctx is done.
func (c *Coordinator) acquire(ctx context.Context) error {
	c.slotMu.Lock()
	if !c.busy {
		c.busy = true
		c.slotMu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	c.waiters = append(c.waiters, ch)
	metrics.BackupQueueDepth.Inc()
	c.slotMu.Unlock()

	select {
	case <-ch:
		metrics.BackupQueueDepth.Dec()
		return nil
	case <-ctx.Done():
	}

	c.slotMu.Lock()
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			c.slotMu.Unlock()
			metrics.BackupQueueDepth.Dec()
			return ctx.Err()
		}
	}
	c.slotMu.Unlock()

	// The slot was handed over while ctx was being cancelled. Pass it on.
	metrics.BackupQueueDepth.Dec()
	c.release()
	return ctx.Err()
}

// release hands the slot to the oldest waiter, or frees it.
func (c *Coordinator) release() {
	c.slotMu.Lock()
	defer c.slotMu.Unlock()
	if len(c.waiters) == 0 {
		c.busy = false
		return
	}
	next := c.waiters[0]
	c.waiters[0] = nil
	c.waiters = c.waiters[1:]
	close(next)
}

// QueueLength returns the number of callers waiting for the slot.
func (c *Coordinator) QueueLength() int {
	c.slotMu.Lock()
	defer c.slotMu.Unlock()
	return len(c.waiters)
}

// InProgress reports whether a backup, restore or cleanup is running.
func (c *Coordinator) InProgress() bool {
	c.slotMu.Lock()
	defer c.slotMu.Unlock()
	return c.busy
}

// Settings returns the current settings singleton.
func (c *Coordinator) Settings(ctx context.Context) (models.BackupSettings, error) {
	s, err := c.catalog.Settings(ctx)
	if err != nil {
		return models.BackupSettings{}, models.NewError(models.KindStorageUnavailable, "failed to read backup settings", err)
	}
	return s, nil
}

// UpdateSettings merges patch into the stored settings, validates the
// result, and persists it. The settings hook fires after a successful save.
func (c *Coordinator) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.BackupSettings, error) {
	c.settingsMu.Lock()
	current, err := c.Settings(ctx)
	if err != nil {
		c.settingsMu.Unlock()
		return models.BackupSettings{}, err
	}

	updated := current.Clone()
	patch.Apply(&updated)

	if ve := validation.ValidateStruct(&updated); ve != nil {
		c.settingsMu.Unlock()
		return models.BackupSettings{}, models.NewError(models.KindValidationFailed, "invalid backup settings", ve)
	}

	if err := c.catalog.SaveSettings(ctx, &updated); err != nil {
		c.settingsMu.Unlock()
		return models.BackupSettings{}, models.NewError(models.KindStorageUnavailable, "failed to save backup settings", err)
	}
	c.settingsMu.Unlock()

	logging.Info().
		Int("max_backups", updated.MaxBackups).
		Bool("auto_backup_enabled", updated.AutoBackupEnabled).
		Float64("backup_frequency_hours", updated.BackupFrequencyHours).
		Msg("Backup settings updated")

	c.hookMu.RLock()
	hook := c.onSettingsChanged
	c.hookMu.RUnlock()
	if hook != nil {
		hook(updated.Clone())
	}
	return updated, nil
}

// touchLastBackup stamps settings.lastBackup without clobbering a concurrent update.
func (c *Coordinator) touchLastBackup(ctx context.Context, at time.Time) {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()

	s, err := c.catalog.Settings(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to read settings to record last backup time")
		return
	}
	t := at.UTC()
	s.LastBackup = &t
	if err := c.catalog.SaveSettings(ctx, &s); err != nil {
		logging.Warn().Err(err).Msg("Failed to record last backup time")
	}
}

// getRecord maps catalog misses to BackupNotFound.
func (c *Coordinator) getRecord(ctx context.Context, id string) (*models.BackupRecord, error) {
	rec, err := c.catalog.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, models.NewError(models.KindBackupNotFound, "backup not found: "+id, nil)
		}
		return nil, models.NewError(models.KindStorageUnavailable, "failed to read backup record", err)
	}
	return rec, nil
}
