// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Package cloud replicates backup artifacts to object storage.
//
// Three providers are supported, identified by the ids used in settings:
//
//	aws_s3        Amazon S3 and S3-compatible stores (MinIO)
//	google_cloud  Google Cloud Storage
//	aliyun_oss    Alibaba Cloud OSS
//
// Every provider is wrapped in a circuit breaker so a failing bucket is
// rejected fast instead of stalling API calls.
package cloud

import (
	"context"
	"path"
	"strconv"
	"strings"
	"time"
)

// Provider ids.
const (
	ProviderS3  = "aws_s3"
	ProviderGCS = "google_cloud"
	ProviderOSS = "aliyun_oss"
)

// KnownProviders lists every provider id this package can build.
var KnownProviders = []string{ProviderS3, ProviderGCS, ProviderOSS}

// List defaults.
const (
	DefaultListPrefix = "ledger_backup_"
	DefaultMaxResults = 1000
)

// Object metadata keys attached to every upload.
const (
	MetaBackupType   = "backup-type"
	MetaCreatedAt    = "created-at"
	MetaOriginalSize = "original-size"
)

// Metadata describes the artifact being uploaded.
type Metadata struct {
	BackupType   string
	CreatedAt    time.Time
	OriginalSize int64
}

// toMap renders m as object metadata.
func (m Metadata) toMap() map[string]string {
	meta := map[string]string{
		MetaBackupType:   m.BackupType,
		MetaOriginalSize: strconv.FormatInt(m.OriginalSize, 10),
	}
	if meta[MetaBackupType] == "" {
		meta[MetaBackupType] = "manual"
	}
	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	meta[MetaCreatedAt] = created.UTC().Format(time.RFC3339)
	return meta
}

// UploadResult describes a stored object.
type UploadResult struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	ETag     string `json:"etag,omitempty"`
}

// Object is one entry of a bucket listing.
type Object struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Provider is an object store that can hold backup artifacts.
type Provider interface {
	// Name returns the provider id.
	Name() string
	// Upload streams the file at localPath to remoteName.
	Upload(ctx context.Context, localPath, remoteName string, meta Metadata) (*UploadResult, error)
	// Download writes remoteName to localPath.
	Download(ctx context.Context, remoteName, localPath string) error
	// Delete removes remoteName.
	Delete(ctx context.Context, remoteName string) error
	// List returns up to maxResults objects whose names start with prefix.
	List(ctx context.Context, prefix string, maxResults int) ([]Object, error)
}

// contentType picks a MIME type from the artifact suffix.
func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return "application/gzip"
	default:
		return "application/octet-stream"
	}
}

// objectKey joins an optional key prefix and the remote name.
func objectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// stripKeyPrefix undoes objectKey for listings.
func stripKeyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, strings.TrimSuffix(prefix, "/")+"/")
}
