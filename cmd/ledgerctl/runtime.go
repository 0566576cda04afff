// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerkeep/internal/backup"
	"github.com/tomtom215/ledgerkeep/internal/catalog"
	"github.com/tomtom215/ledgerkeep/internal/config"
	"github.com/tomtom215/ledgerkeep/internal/ledger"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// backupService is the part of *backup.Coordinator the commands use.
type backupService interface {
	Settings(ctx context.Context) (models.BackupSettings, error)
	CreateBackup(ctx context.Context, req backup.CreateRequest) (*backup.CreateResult, error)
	ListBackups(ctx context.Context, opts backup.ListOptions) (*backup.ListResult, error)
	VerifyBackup(ctx context.Context, id string) (*backup.VerifyResult, error)
	RestoreBackup(ctx context.Context, id, key string) (*backup.RestoreResult, error)
	RunCleanup(ctx context.Context) (*backup.CleanupReport, error)
	GetBackupStats(ctx context.Context) (*backup.Stats, error)
}

// openFunc opens the backup service and returns a function releasing it.
type openFunc func(ctx context.Context) (backupService, func(), error)

type runtime struct {
	out        io.Writer
	configPath string
	verbose    bool
	open       openFunc
}

func newRuntime(out io.Writer) *runtime {
	rt := &runtime{out: out}
	rt.open = rt.openStores
	return rt
}

// setupLogging routes logs to stderr so stdout stays machine-readable.
func (rt *runtime) setupLogging(cfg *config.Config) {
	level := "warn"
	if rt.verbose {
		level = "debug"
	}
	logging.Init(logging.Config{
		Level:  level,
		Format: "console",
		Caller: cfg != nil && cfg.Logging.Caller,
		Output: os.Stderr,
	})
}

func (rt *runtime) openStores(ctx context.Context) (backupService, func(), error) {
	if rt.configPath != "" {
		if err := os.Setenv("CONFIG_PATH", rt.configPath); err != nil {
			return nil, nil, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	rt.setupLogging(cfg)

	store, err := catalog.Open(catalog.Config{
		Path:       cfg.Catalog.Path,
		SyncWrites: true,
	}, cfg.Backup.Defaults())
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog %s: %w", cfg.Catalog.Path, err)
	}

	ledgerStore, err := ledger.Open(ctx, ledger.Config{
		Path:          cfg.Ledger.Path,
		BusyTimeoutMS: cfg.Ledger.BusyTimeoutMS,
	})
	if err != nil {
		_ = store.Close() //nolint:errcheck // already failing
		return nil, nil, fmt.Errorf("open ledger %s: %w", cfg.Ledger.Path, err)
	}

	closeAll := func() {
		if err := ledgerStore.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing ledger")
		}
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing catalog")
		}
	}
	return backup.New(store, ledgerStore), closeAll, nil
}

// withService opens the stores, runs fn and closes them again.
func (rt *runtime) withService(ctx context.Context, fn func(backupService) error) error {
	svc, closeFn, err := rt.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return describe(fn(svc))
}

// printJSON writes v as indented JSON.
func (rt *runtime) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(rt.out, string(data))
	return err
}

// describe prefixes typed errors with their kind so the exit message names
// the failure class.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var me *models.Error
	if errors.As(err, &me) && me.Message != "" {
		return fmt.Errorf("%s: %w", me.Kind, err)
	}
	return err
}
