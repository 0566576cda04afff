// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ledgerkeep/config.yaml",
	"/etc/ledgerkeep/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8420,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute, // downloads stream whole artifacts
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   30,
			RateLimitWindow: time.Minute,
		},
		Ledger: LedgerConfig{
			Path:          "data/ledger.sqlite3",
			BusyTimeoutMS: 5000,
		},
		Catalog: CatalogConfig{
			Path:       "data/catalog",
			SyncWrites: true,
			GCInterval: 30 * time.Minute,
		},
		Backup: BackupConfig{
			MaxBackups:         5,
			AutoBackupEnabled:  true,
			FrequencyHours:     24,
			Location:           "backups/",
			CompressionEnabled: true,
			EncryptionEnabled:  false,
			RetentionDays:      30,
			MaxBackupSize:      1 << 30, // 1GB
		},
		Monitoring: MonitoringConfig{
			Enabled:          true,
			Interval:         time.Hour,
			MaxBackupAge:     24 * time.Hour,
			MaxBackupSize:    1 << 30,
			MaxFailureRate:   0.2,
			SizeTrendPercent: 50,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "json",
			FileMaxSizeMB:  100,
			FileMaxBackups: 5,
			FileMaxAgeDays: 28,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration in three layers, each overriding the last:
//
//  1. struct defaults
//  2. YAML config file (CONFIG_PATH or DefaultConfigPaths)
//  3. environment variables (see envTransformFunc)
//
// The result is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are keys whose env values are comma-separated lists.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf keys.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	"ledger_path":         "ledger.path",
	"ledger_busy_timeout": "ledger.busy_timeout_ms",

	"catalog_path":        "catalog.path",
	"catalog_sync_writes": "catalog.sync_writes",
	"catalog_gc_interval": "catalog.gc_interval",

	"max_backups":             "backup.max_backups",
	"auto_backup_enabled":     "backup.auto_backup_enabled",
	"backup_frequency_hours":  "backup.frequency_hours",
	"backup_location":         "backup.location",
	"backup_compression":      "backup.compression_enabled",
	"backup_encryption":       "backup.encryption_enabled",
	"backup_encryption_key":   "backup.encryption_key",
	"backup_retention_days":   "backup.retention_days",
	"backup_max_size":         "backup.max_backup_size",
	"cloud_storage_enabled":   "backup.cloud_storage_enabled",
	"cloud_provider":          "backup.cloud_provider",

	"s3_bucket":            "cloud.s3.bucket",
	"s3_region":            "cloud.s3.region",
	"s3_access_key_id":     "cloud.s3.access_key_id",
	"s3_secret_access_key": "cloud.s3.secret_access_key",
	"s3_endpoint":          "cloud.s3.endpoint",
	"s3_use_path_style":    "cloud.s3.use_path_style",
	"s3_storage_class":     "cloud.s3.storage_class",
	"s3_prefix":            "cloud.s3.prefix",

	"gcs_bucket":           "cloud.gcs.bucket",
	"gcs_project_id":       "cloud.gcs.project_id",
	"gcs_credentials_file": "cloud.gcs.credentials_file",
	"gcs_storage_class":    "cloud.gcs.storage_class",
	"gcs_prefix":           "cloud.gcs.prefix",

	"oss_bucket":            "cloud.oss.bucket",
	"oss_region":            "cloud.oss.region",
	"oss_endpoint":          "cloud.oss.endpoint",
	"oss_access_key_id":     "cloud.oss.access_key_id",
	"oss_access_key_secret": "cloud.oss.access_key_secret",
	"oss_storage_class":     "cloud.oss.storage_class",
	"oss_prefix":            "cloud.oss.prefix",

	"monitoring_enabled":            "monitoring.enabled",
	"monitoring_interval":           "monitoring.interval",
	"monitoring_max_backup_age":     "monitoring.max_backup_age",
	"monitoring_max_backup_size":    "monitoring.max_backup_size",
	"monitoring_max_failure_rate":   "monitoring.max_failure_rate",
	"monitoring_size_trend_percent": "monitoring.size_trend_percent",

	"log_level":          "logging.level",
	"log_format":         "logging.format",
	"log_caller":         "logging.caller",
	"log_file":           "logging.file",
	"log_file_max_size":  "logging.file_max_size_mb",
	"log_file_max_files": "logging.file_max_backups",
	"log_file_max_age":   "logging.file_max_age_days",
	"log_file_compress":  "logging.file_compress",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps environment variable names to koanf keys.
// Returning "" tells koanf to skip the variable.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
