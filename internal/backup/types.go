// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package backup

import (
	"time"

	"github.com/tomtom215/ledgerkeep/internal/models"
)

// Retention policy names used in reports and metrics.
const (
	PolicyCount = "count"
	PolicyAge   = "age"
	PolicySize  = "size"
)

// List pagination bounds.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// CreateRequest describes one backup to create.
type CreateRequest struct {
	Type          models.BackupType
	Notes         string
	Compress      bool
	Encrypt       bool
	EncryptionKey string
}

// RequestOptions are caller overrides for a backup. Nil fields fall back to
// the settings in effect when the backup runs.
type RequestOptions struct {
	Notes         string `json:"notes,omitempty" validate:"max=1000"`
	Compress      *bool  `json:"compress,omitempty"`
	Encrypt       *bool  `json:"encrypt,omitempty"`
	EncryptionKey string `json:"encryption_key,omitempty"`
}

// Resolve builds a CreateRequest from o and a settings snapshot. The settings
// key is used only when encryption ends up enabled and no key was given.
func (o RequestOptions) Resolve(t models.BackupType, s models.BackupSettings) CreateRequest {
	req := CreateRequest{
		Type:     t,
		Notes:    o.Notes,
		Compress: s.CompressionEnabled,
		Encrypt:  s.EncryptionEnabled,
	}
	if o.Compress != nil {
		req.Compress = *o.Compress
	}
	if o.Encrypt != nil {
		req.Encrypt = *o.Encrypt
	}
	req.EncryptionKey = o.EncryptionKey
	if req.Encrypt && req.EncryptionKey == "" {
		req.EncryptionKey = s.EncryptionKey
	}
	return req
}

// CreateResult is returned by a successful CreateBackup.
type CreateResult struct {
	Record   *models.BackupRecord `json:"backup"`
	Duration time.Duration        `json:"-"`

	// DurationMS mirrors Duration for JSON clients.
	DurationMS int64 `json:"duration_ms"`
}

// VerifyResult reports the outcome of re-hashing an artifact.
type VerifyResult struct {
	Valid    bool   `json:"valid"`
	Checksum string `json:"checksum"`
	Expected string `json:"expected,omitempty"`
}

// RestoreResult reports a completed restore.
type RestoreResult struct {
	BackupID      string        `json:"backup_id"`
	RestoredFrom  string        `json:"restored_from"`
	BytesRestored int64         `json:"bytes_restored"`
	Duration      time.Duration `json:"-"`
	DurationMS    int64         `json:"duration_ms"`
	Message       string        `json:"message"`
}

// CleanupFailure is one record the retention pass could not delete.
type CleanupFailure struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
	Error  string `json:"error"`
}

// CleanupReport lists what a retention pass removed.
type CleanupReport struct {
	DeletedByCount []string         `json:"deleted_by_count"`
	DeletedByAge   []string         `json:"deleted_by_age"`
	DeletedBySize  []string         `json:"deleted_by_size"`
	Failures       []CleanupFailure `json:"failures,omitempty"`
}

// TotalDeleted returns the number of records removed across all policies.
func (r *CleanupReport) TotalDeleted() int {
	return len(r.DeletedByCount) + len(r.DeletedByAge) + len(r.DeletedBySize)
}

// ListOptions selects a page of records. Zero Type or Status match all.
type ListOptions struct {
	Page   int
	Limit  int
	Type   models.BackupType
	Status models.BackupStatus
}

// Pagination describes the page returned by ListBackups.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ListResult is a page of records, newest first.
type ListResult struct {
	Records    []models.BackupRecord `json:"backups"`
	Pagination Pagination            `json:"pagination"`
}

// TypeStats aggregates records of one backup type.
type TypeStats struct {
	Type        models.BackupType `json:"type"`
	Count       int               `json:"count"`
	TotalSize   int64             `json:"total_size"`
	TotalSizeMB float64           `json:"total_size_mb"`
}

// LastBackupInfo summarizes the most recent record.
type LastBackupInfo struct {
	ID         string              `json:"id"`
	FileName   string              `json:"file_name"`
	BackupType models.BackupType   `json:"backup_type"`
	Status     models.BackupStatus `json:"status"`
	FileSize   int64               `json:"file_size"`
	FileSizeMB float64             `json:"file_size_mb"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Stats aggregates the whole catalog.
type Stats struct {
	TotalBackups      int             `json:"total_backups"`
	SuccessfulBackups int             `json:"successful_backups"`
	FailedBackups     int             `json:"failed_backups"`
	TotalSize         int64           `json:"total_size"`
	TotalSizeMB       float64         `json:"total_size_mb"`
	ByType            []TypeStats     `json:"by_type"`
	LastBackup        *LastBackupInfo `json:"last_backup,omitempty"`
	AverageSize       int64           `json:"average_size"`
	AverageSizeMB     float64         `json:"average_size_mb"`
	SuccessRate       float64         `json:"success_rate"`
}
