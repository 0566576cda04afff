// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	if err := c.validateCloud(); err != nil {
		return err
	}
	if err := c.validateMonitoring(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Server.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Ledger.Path) == "" {
		return fmt.Errorf("LEDGER_PATH is required")
	}
	if strings.TrimSpace(c.Catalog.Path) == "" {
		return fmt.Errorf("CATALOG_PATH is required")
	}
	return nil
}

func (c *Config) validateBackup() error {
	b := c.Backup
	if b.MaxBackups < 1 {
		return fmt.Errorf("MAX_BACKUPS must be at least 1, got %d", b.MaxBackups)
	}
	if b.FrequencyHours <= 0 {
		return fmt.Errorf("BACKUP_FREQUENCY_HOURS must be positive, got %v", b.FrequencyHours)
	}
	if strings.TrimSpace(b.Location) == "" {
		return fmt.Errorf("BACKUP_LOCATION is required")
	}
	if b.RetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative, got %d", b.RetentionDays)
	}
	if b.MaxBackupSize < 0 {
		return fmt.Errorf("BACKUP_MAX_SIZE must not be negative, got %d", b.MaxBackupSize)
	}
	if b.EncryptionEnabled && b.EncryptionKey == "" {
		return fmt.Errorf("BACKUP_ENCRYPTION_KEY is required when BACKUP_ENCRYPTION=true")
	}
	return nil
}

// validCloudProviders lists the provider ids the replicator understands.
var validCloudProviders = map[string]bool{
	"aws_s3":       true,
	"google_cloud": true,
	"aliyun_oss":   true,
}

func (c *Config) validateCloud() error {
	if c.Backup.CloudProvider != "" && !validCloudProviders[c.Backup.CloudProvider] {
		return fmt.Errorf("CLOUD_PROVIDER must be one of aws_s3, google_cloud, aliyun_oss, got %q", c.Backup.CloudProvider)
	}
	if oss := c.Cloud.OSS; oss.Bucket != "" && oss.Region == "" {
		return fmt.Errorf("OSS_REGION is required when OSS_BUCKET is set")
	}
	if s3 := c.Cloud.S3; s3.Bucket == "" && (s3.AccessKeyID != "" || s3.Endpoint != "") {
		return fmt.Errorf("S3_BUCKET is required when S3 credentials or endpoint are set")
	}
	return nil
}

func (c *Config) validateMonitoring() error {
	m := c.Monitoring
	if m.Enabled && m.Interval <= 0 {
		return fmt.Errorf("MONITORING_INTERVAL must be positive, got %v", m.Interval)
	}
	if m.MaxFailureRate < 0 || m.MaxFailureRate > 1 {
		return fmt.Errorf("MONITORING_MAX_FAILURE_RATE must be between 0 and 1, got %v", m.MaxFailureRate)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
