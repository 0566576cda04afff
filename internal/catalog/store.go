// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Package catalog persists backup records and the singleton backup settings
// in BadgerDB.
//
// Key layout:
//
//	record:<created unix nanos, 20 digits>:<id>   → BackupRecord JSON
//	recid:<id>                                    → record key
//	settings                                      → BackupSettings JSON
//
// Record keys sort chronologically, so newest-first listings are a reverse
// prefix scan.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

const (
	prefixRecord = "record:"
	prefixRecID  = "recid:"
	keySettings  = "settings"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("catalog is closed")

// Config controls where and how the catalog is opened.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in memory. Used by tests and dry runs.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// CloseTimeout bounds Close. Default: 30s
	CloseTimeout time.Duration
}

// Filter narrows ListRecords. Zero values match everything.
type Filter struct {
	Type   models.BackupType
	Status models.BackupStatus
	Limit  int
}

// Store is the Badger-backed catalog.
type Store struct {
	db       *badger.DB
	defaults models.BackupSettings
	cfg      Config

	// settingsMu serializes the lazy create of the settings singleton.
	settingsMu sync.Mutex

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the catalog. defaults seed the settings singleton
// the first time it is read.
func Open(cfg Config, defaults models.BackupSettings) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("catalog path is required")
		}
		opts = badger.DefaultOptions(cfg.Path)
		opts.SyncWrites = cfg.SyncWrites
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Backup catalog opened")

	return &Store{db: db, defaults: defaults, cfg: cfg}, nil
}

func recordKey(r *models.BackupRecord) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixRecord, r.CreatedAt.UnixNano(), r.ID))
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// SaveRecord inserts a record. Saving an existing id replaces it.
func (s *Store) SaveRecord(ctx context.Context, r *models.BackupRecord) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return errors.New("record id is required")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	key := recordKey(r)
	return s.db.Update(func(txn *badger.Txn) error {
		// Drop a previous primary key for the same id if CreatedAt changed.
		if old, err := txn.Get([]byte(prefixRecID + r.ID)); err == nil {
			oldKey, err := old.ValueCopy(nil)
			if err != nil {
				return err
			}
			if string(oldKey) != string(key) {
				if err := txn.Delete(oldKey); err != nil {
					return err
				}
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(prefixRecID+r.ID), key)
	})
}

// GetRecord loads a record by id.
func (s *Store) GetRecord(ctx context.Context, id string) (*models.BackupRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec models.BackupRecord
	err := s.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(prefixRecID + id))
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

// DeleteRecord removes a record by id.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(prefixRecID + id))
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete([]byte(prefixRecID + id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

// ListRecords returns records newest first, filtered by f.
func (s *Store) ListRecords(ctx context.Context, f Filter) ([]models.BackupRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var records []models.BackupRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixRecord)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the largest key <= seek, so start past
		// the end of the prefix range.
		seek := append([]byte(prefixRecord), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			var rec models.BackupRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Skipping unreadable backup record")
				continue
			}

			if f.Type != "" && rec.BackupType != f.Type {
				continue
			}
			if f.Status != "" && rec.Status != f.Status {
				continue
			}
			records = append(records, rec)
			if f.Limit > 0 && len(records) >= f.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Settings returns the settings singleton, creating it from the defaults
// on first read.
func (s *Store) Settings(ctx context.Context) (models.BackupSettings, error) {
	if err := s.checkOpen(); err != nil {
		return models.BackupSettings{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.BackupSettings{}, err
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	var settings models.BackupSettings
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keySettings))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return models.BackupSettings{}, fmt.Errorf("read settings: %w", err)
	}

	settings = s.defaults.Clone()
	if err := s.writeSettings(&settings); err != nil {
		return models.BackupSettings{}, err
	}
	logging.Info().Msg("Created default backup settings")
	return settings, nil
}

// SaveSettings replaces the settings singleton.
func (s *Store) SaveSettings(ctx context.Context, settings *models.BackupSettings) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.writeSettings(settings)
}

func (s *Store) writeSettings(settings *models.BackupSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keySettings), data)
	}); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Close flushes and closes the database, bounded by CloseTimeout.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timeout := s.cfg.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("Backup catalog closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}

// RunGC reclaims value log space. Safe to call periodically.
func (s *Store) RunGC() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.cfg.InMemory {
		return nil
	}
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}
