// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Package ledger owns the live handle on the primary ledger store, an SQLite
// file opened through GORM with the pure-Go glebarez driver.
//
// Backups treat the file as opaque bytes. Restore needs the handle closed
// while the file is swapped:
//
//	store.Offline(ctx)   // close every connection
//	os.Rename(tmp, path) // swap
//	store.Online(ctx)    // reopen and ping
//
// PRECONDITION: nothing else may hold the file open between Offline and
// Online. The backup coordinator guarantees this for its own callers; the
// surrounding application must route ledger access through DB() and stop
// using it while a restore is running.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tomtom215/ledgerkeep/internal/logging"
)

// ErrOffline is returned by DB and Checkpoint while the store is offline.
var ErrOffline = errors.New("ledger store is offline")

// Config describes the primary store.
type Config struct {
	// Path is the SQLite database file.
	Path string

	// BusyTimeoutMS is passed to SQLite as busy_timeout. Default: 5000
	BusyTimeoutMS int
}

// Store is the live ledger handle.
type Store struct {
	cfg Config

	mu     sync.RWMutex
	db     *gorm.DB
	online bool
}

// Open opens an existing ledger file. A missing file is an error wrapping
// fs.ErrNotExist; SQLite would otherwise create an empty database there.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("ledger path is required")
	}
	if cfg.BusyTimeoutMS <= 0 {
		cfg.BusyTimeoutMS = 5000
	}

	s := &Store{cfg: cfg}
	if err := s.Online(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) dsn() string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)", s.cfg.Path, s.cfg.BusyTimeoutMS)
}

// Path returns the ledger file path.
func (s *Store) Path() string {
	return s.cfg.Path
}

// DB returns the live GORM handle.
func (s *Store) DB() (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.online {
		return nil, ErrOffline
	}
	return s.db, nil
}

// IsOnline reports whether the handle is open.
func (s *Store) IsOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// Checkpoint flushes the SQLite write-ahead log into the main file so a
// byte-level copy of Path is a complete snapshot.
func (s *Store) Checkpoint(ctx context.Context) error {
	db, err := s.DB()
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		return fmt.Errorf("checkpoint ledger: %w", err)
	}
	return nil
}

// Offline closes every connection to the ledger file.
func (s *Store) Offline(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	s.online = false
	s.db = nil
	logging.Info().Str("path", s.cfg.Path).Msg("Ledger store offline")
	return nil
}

// Online (re)opens the ledger file and verifies it with a ping. The file
// must exist.
func (s *Store) Online(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.online {
		return nil
	}
	if _, err := os.Stat(s.cfg.Path); err != nil {
		return fmt.Errorf("ledger file %s: %w", s.cfg.Path, err)
	}

	db, err := gorm.Open(sqlite.Open(s.dsn()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close() //nolint:errcheck // ping error takes precedence
		return fmt.Errorf("ping ledger: %w", err)
	}

	s.db = db
	s.online = true
	logging.Info().Str("path", s.cfg.Path).Msg("Ledger store online")
	return nil
}

// Close takes the store offline permanently.
func (s *Store) Close() error {
	return s.Offline(context.Background())
}
