// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

/*
Package config loads Ledgerkeep configuration with koanf.

# Sources

Configuration is layered, later sources winning:

  - Struct defaults (defaultConfig)
  - YAML file: $CONFIG_PATH, ./config.yaml, /etc/ledgerkeep/config.yaml
  - Environment variables, mapped explicitly in envMappings

# Sections

  - server: HTTP listener, CORS origins, rate limiting
  - ledger: path of the SQLite ledger file
  - catalog: path of the Badger catalog of backup records
  - backup: defaults for the backup settings singleton
  - cloud: aws_s3, google_cloud and aliyun_oss credentials
  - monitoring: health check interval and thresholds
  - logging: level, format, optional rotating file
  - supervisor: suture failure handling

# Example

	server:
	  port: 8420
	ledger:
	  path: /data/ledger.sqlite3
	backup:
	  location: /data/backups
	  max_backups: 10
	  frequency_hours: 6
	cloud:
	  s3:
	    bucket: ledger-backups
	    region: eu-west-1

Environment examples: LEDGER_PATH, BACKUP_LOCATION, MAX_BACKUPS,
BACKUP_FREQUENCY_HOURS, S3_BUCKET, LOG_LEVEL, CORS_ORIGINS (comma-separated).
*/
package config
