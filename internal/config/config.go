// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Ledger     LedgerConfig     `koanf:"ledger"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Backup     BackupConfig     `koanf:"backup"`
	Cloud      CloudConfig      `koanf:"cloud"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LedgerConfig locates the primary ledger store.
type LedgerConfig struct {
	Path          string `koanf:"path"`
	BusyTimeoutMS int    `koanf:"busy_timeout_ms"`
}

// CatalogConfig locates the Badger catalog of backup records.
type CatalogConfig struct {
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`
	// GCInterval controls how often the value log is garbage collected.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// BackupConfig holds the defaults used to create the settings singleton
// the first time it is read. After that the stored settings win.
type BackupConfig struct {
	MaxBackups          int     `koanf:"max_backups"`
	AutoBackupEnabled   bool    `koanf:"auto_backup_enabled"`
	FrequencyHours      float64 `koanf:"frequency_hours"`
	Location            string  `koanf:"location"`
	CompressionEnabled  bool    `koanf:"compression_enabled"`
	EncryptionEnabled   bool    `koanf:"encryption_enabled"`
	EncryptionKey       string  `koanf:"encryption_key"`
	RetentionDays       int     `koanf:"retention_days"`
	MaxBackupSize       int64   `koanf:"max_backup_size"`
	CloudStorageEnabled bool    `koanf:"cloud_storage_enabled"`
	CloudProvider       string  `koanf:"cloud_provider"`
}

// Defaults converts the configured defaults into a settings value.
func (b BackupConfig) Defaults() models.BackupSettings {
	return models.BackupSettings{
		MaxBackups:           b.MaxBackups,
		AutoBackupEnabled:    b.AutoBackupEnabled,
		BackupFrequencyHours: b.FrequencyHours,
		BackupLocation:       b.Location,
		CompressionEnabled:   b.CompressionEnabled,
		EncryptionEnabled:    b.EncryptionEnabled,
		EncryptionKey:        b.EncryptionKey,
		RetentionDays:        b.RetentionDays,
		MaxBackupSize:        b.MaxBackupSize,
		CloudStorageEnabled:  b.CloudStorageEnabled,
		CloudProvider:        b.CloudProvider,
	}
}

// CloudConfig configures the cloud providers. The same shape is accepted as
// the JSON cloudConfig blob stored in the backup settings.
type CloudConfig struct {
	S3  S3Config  `koanf:"s3" json:"s3"`
	GCS GCSConfig `koanf:"gcs" json:"gcs"`
	OSS OSSConfig `koanf:"oss" json:"oss"`
}

// IsEmpty reports whether no provider is configured. A provider counts as
// configured once its bucket is set.
func (c CloudConfig) IsEmpty() bool {
	return c.S3.Bucket == "" && c.GCS.Bucket == "" && c.OSS.Bucket == ""
}

// S3Config configures the aws_s3 provider. Endpoint and UsePathStyle allow
// S3-compatible stores such as MinIO.
type S3Config struct {
	Bucket          string `koanf:"bucket" json:"bucket"`
	Region          string `koanf:"region" json:"region"`
	AccessKeyID     string `koanf:"access_key_id" json:"accessKeyId"`
	SecretAccessKey string `koanf:"secret_access_key" json:"secretAccessKey"`
	Endpoint        string `koanf:"endpoint" json:"endpoint,omitempty"`
	UsePathStyle    bool   `koanf:"use_path_style" json:"usePathStyle,omitempty"`
	StorageClass    string `koanf:"storage_class" json:"storageClass,omitempty"`
	Prefix          string `koanf:"prefix" json:"prefix,omitempty"`
}

// GCSConfig configures the google_cloud provider.
type GCSConfig struct {
	Bucket          string `koanf:"bucket" json:"bucket"`
	ProjectID       string `koanf:"project_id" json:"projectId,omitempty"`
	CredentialsFile string `koanf:"credentials_file" json:"keyFilename,omitempty"`
	StorageClass    string `koanf:"storage_class" json:"storageClass,omitempty"`
	Prefix          string `koanf:"prefix" json:"prefix,omitempty"`
}

// OSSConfig configures the aliyun_oss provider.
type OSSConfig struct {
	Bucket          string `koanf:"bucket" json:"bucket"`
	Region          string `koanf:"region" json:"region"`
	Endpoint        string `koanf:"endpoint" json:"endpoint,omitempty"`
	AccessKeyID     string `koanf:"access_key_id" json:"accessKeyId"`
	AccessKeySecret string `koanf:"access_key_secret" json:"accessKeySecret"`
	StorageClass    string `koanf:"storage_class" json:"storageClass,omitempty"`
	Prefix          string `koanf:"prefix" json:"prefix,omitempty"`
}

// MonitoringConfig holds health check thresholds and the check interval.
type MonitoringConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Interval         time.Duration `koanf:"interval"`
	MaxBackupAge     time.Duration `koanf:"max_backup_age"`
	MaxBackupSize    int64         `koanf:"max_backup_size"`
	MaxFailureRate   float64       `koanf:"max_failure_rate"`
	SizeTrendPercent float64       `koanf:"size_trend_percent"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`

	// File enables rotating file output when non-empty.
	File           string `koanf:"file"`
	FileMaxSizeMB  int    `koanf:"file_max_size_mb"`
	FileMaxBackups int    `koanf:"file_max_backups"`
	FileMaxAgeDays int    `koanf:"file_max_age_days"`
	FileCompress   bool   `koanf:"file_compress"`
}

// SupervisorConfig mirrors suture's failure handling knobs.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}
