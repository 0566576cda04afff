// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package models

import (
	"math"
	"time"

	"github.com/goccy/go-json"
)

// BackupType identifies what initiated a backup.
type BackupType string

const (
	// BackupTypeManual is a backup requested by an operator or API caller.
	BackupTypeManual BackupType = "manual"

	// BackupTypeAuto is a backup created by the recurring auto-backup job.
	BackupTypeAuto BackupType = "auto"

	// BackupTypeScheduled is a backup created by a one-time or custom schedule.
	BackupTypeScheduled BackupType = "scheduled"
)

// Valid reports whether t is one of the known backup types.
func (t BackupType) Valid() bool {
	switch t {
	case BackupTypeManual, BackupTypeAuto, BackupTypeScheduled:
		return true
	}
	return false
}

// BackupStatus is the outcome of a backup attempt.
type BackupStatus string

const (
	// StatusCompleted means the artifact was written and its checksum recorded.
	StatusCompleted BackupStatus = "completed"

	// StatusFailed means the attempt failed. FilePath may be empty.
	StatusFailed BackupStatus = "failed"
)

// Valid reports whether s is a known status.
func (s BackupStatus) Valid() bool {
	return s == StatusCompleted || s == StatusFailed
}

// BackupRecord describes one snapshot attempt of the primary ledger store.
// Records are written once and are only ever deleted afterwards.
type BackupRecord struct {
	ID           string       `json:"id"`
	FileName     string       `json:"file_name"`
	FilePath     string       `json:"file_path"`
	BackupType   BackupType   `json:"backup_type"`
	FileSize     int64        `json:"file_size"`
	IsCompressed bool         `json:"is_compressed"`
	IsEncrypted  bool         `json:"is_encrypted"`
	Checksum     string       `json:"checksum,omitempty"`
	Status       BackupStatus `json:"status"`
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// FileSizeMB returns the artifact size in megabytes rounded to two decimals.
func (r *BackupRecord) FileSizeMB() float64 {
	return BytesToMB(r.FileSize)
}

// MarshalJSON adds the derived file_size_mb field.
func (r BackupRecord) MarshalJSON() ([]byte, error) {
	type plain BackupRecord
	return json.Marshal(struct {
		plain
		FileSizeMB float64 `json:"file_size_mb"`
	}{plain(r), r.FileSizeMB()})
}

// BytesToMB converts a byte count to megabytes rounded to two decimals.
func BytesToMB(n int64) float64 {
	return math.Round(float64(n)/(1024*1024)*100) / 100
}

// IsOlderThan reports whether the record was created before cutoff.
func (r *BackupRecord) IsOlderThan(cutoff time.Time) bool {
	return r.CreatedAt.Before(cutoff)
}
