// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// BackupSettings is the process-wide backup configuration. There is exactly
// one instance, created with defaults the first time it is read.
type BackupSettings struct {
	MaxBackups           int             `json:"max_backups" validate:"min=1,max=1000"`
	AutoBackupEnabled    bool            `json:"auto_backup_enabled"`
	BackupFrequencyHours float64         `json:"backup_frequency_hours" validate:"gt=0,lte=8760"`
	BackupLocation       string          `json:"backup_location" validate:"required"`
	CompressionEnabled   bool            `json:"compression_enabled"`
	EncryptionEnabled    bool            `json:"encryption_enabled"`
	EncryptionKey        string          `json:"encryption_key,omitempty" validate:"required_if=EncryptionEnabled true"`
	RetentionDays        int             `json:"retention_days" validate:"min=0"`
	MaxBackupSize        int64           `json:"max_backup_size" validate:"min=0"`
	CloudStorageEnabled  bool            `json:"cloud_storage_enabled"`
	CloudProvider        string          `json:"cloud_provider,omitempty" validate:"omitempty,cloudprovider"`
	CloudConfig          json.RawMessage `json:"cloud_config,omitempty"`
	LastBackup           *time.Time      `json:"last_backup,omitempty"`
}

// Frequency returns the configured auto-backup interval.
func (s *BackupSettings) Frequency() time.Duration {
	return time.Duration(s.BackupFrequencyHours * float64(time.Hour))
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *BackupSettings) Clone() BackupSettings {
	c := *s
	if s.CloudConfig != nil {
		c.CloudConfig = append(json.RawMessage(nil), s.CloudConfig...)
	}
	if s.LastBackup != nil {
		t := *s.LastBackup
		c.LastBackup = &t
	}
	return c
}

// Redacted returns a copy without the encryption key.
func (s *BackupSettings) Redacted() BackupSettings {
	c := s.Clone()
	c.EncryptionKey = ""
	return c
}

// SettingsPatch carries a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	MaxBackups           *int             `json:"max_backups,omitempty"`
	AutoBackupEnabled    *bool            `json:"auto_backup_enabled,omitempty"`
	BackupFrequencyHours *float64         `json:"backup_frequency_hours,omitempty"`
	BackupLocation       *string          `json:"backup_location,omitempty"`
	CompressionEnabled   *bool            `json:"compression_enabled,omitempty"`
	EncryptionEnabled    *bool            `json:"encryption_enabled,omitempty"`
	EncryptionKey        *string          `json:"encryption_key,omitempty"`
	RetentionDays        *int             `json:"retention_days,omitempty"`
	MaxBackupSize        *int64           `json:"max_backup_size,omitempty"`
	CloudStorageEnabled  *bool            `json:"cloud_storage_enabled,omitempty"`
	CloudProvider        *string          `json:"cloud_provider,omitempty"`
	CloudConfig          *json.RawMessage `json:"cloud_config,omitempty"`
}

// Apply merges the patch into s.
//
//nolint:gocyclo // one branch per field
func (p *SettingsPatch) Apply(s *BackupSettings) {
	if p.MaxBackups != nil {
		s.MaxBackups = *p.MaxBackups
	}
	if p.AutoBackupEnabled != nil {
		s.AutoBackupEnabled = *p.AutoBackupEnabled
	}
	if p.BackupFrequencyHours != nil {
		s.BackupFrequencyHours = *p.BackupFrequencyHours
	}
	if p.BackupLocation != nil {
		s.BackupLocation = *p.BackupLocation
	}
	if p.CompressionEnabled != nil {
		s.CompressionEnabled = *p.CompressionEnabled
	}
	if p.EncryptionEnabled != nil {
		s.EncryptionEnabled = *p.EncryptionEnabled
	}
	if p.EncryptionKey != nil {
		s.EncryptionKey = *p.EncryptionKey
	}
	if p.RetentionDays != nil {
		s.RetentionDays = *p.RetentionDays
	}
	if p.MaxBackupSize != nil {
		s.MaxBackupSize = *p.MaxBackupSize
	}
	if p.CloudStorageEnabled != nil {
		s.CloudStorageEnabled = *p.CloudStorageEnabled
	}
	if p.CloudProvider != nil {
		s.CloudProvider = *p.CloudProvider
	}
	if p.CloudConfig != nil {
		s.CloudConfig = append(json.RawMessage(nil), (*p.CloudConfig)...)
	}
}

// SettingsView is the API representation of BackupSettings. The encryption
// key is never echoed back, only whether one is set.
type SettingsView struct {
	BackupSettings
	HasEncryptionKey bool `json:"has_encryption_key"`
}

// View builds the API representation of s.
func (s *BackupSettings) View() SettingsView {
	return SettingsView{
		BackupSettings:   s.Redacted(),
		HasEncryptionKey: s.EncryptionKey != "",
	}
}
