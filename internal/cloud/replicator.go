// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package cloud

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/config"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/metrics"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// factories build providers from their config sections.
type factories struct {
	s3  func(ctx context.Context, cfg config.S3Config) (Provider, error)
	gcs func(ctx context.Context, cfg config.GCSConfig) (Provider, error)
	oss func(cfg config.OSSConfig) (Provider, error)
}

func defaultFactories() factories {
	return factories{
		s3: func(ctx context.Context, cfg config.S3Config) (Provider, error) {
			return NewS3Provider(ctx, cfg)
		},
		gcs: func(ctx context.Context, cfg config.GCSConfig) (Provider, error) {
			return NewGCSProvider(ctx, cfg)
		},
		oss: func(cfg config.OSSConfig) (Provider, error) {
			return NewOSSProvider(cfg)
		},
	}
}

// Replicator dispatches artifact operations to the configured providers.
// It is safe for concurrent use; Initialize may be called again to apply a
// new configuration.
type Replicator struct {
	mu        sync.RWMutex
	providers map[string]*breakerProvider
	build     factories
}

// NewReplicator creates a Replicator with no providers registered.
func NewReplicator() *Replicator {
	return &Replicator{build: defaultFactories()}
}

// Initialize builds every provider whose bucket is set and replaces the
// current registry. A provider that fails to build aborts initialization
// and leaves the previous registry in place.
func (r *Replicator) Initialize(ctx context.Context, cfg config.CloudConfig) error {
	built := make(map[string]*breakerProvider)

	add := func(p Provider, err error, id string) error {
		if err != nil {
			closeAll(built)
			return fmt.Errorf("initialize %s: %w", id, err)
		}
		built[id] = withBreaker(p)
		return nil
	}

	if cfg.S3.Bucket != "" {
		p, err := r.build.s3(ctx, cfg.S3)
		if addErr := add(p, err, ProviderS3); addErr != nil {
			return addErr
		}
	}
	if cfg.GCS.Bucket != "" {
		p, err := r.build.gcs(ctx, cfg.GCS)
		if addErr := add(p, err, ProviderGCS); addErr != nil {
			return addErr
		}
	}
	if cfg.OSS.Bucket != "" {
		p, err := r.build.oss(cfg.OSS)
		if addErr := add(p, err, ProviderOSS); addErr != nil {
			return addErr
		}
	}

	r.mu.Lock()
	old := r.providers
	r.providers = built
	r.mu.Unlock()
	closeAll(old)

	ids := make([]string, 0, len(built))
	for id := range built {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	logging.Info().Strs("providers", ids).Msg("Cloud replicator initialized")
	return nil
}

// Providers lists the registered provider ids in sorted order.
func (r *Replicator) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BreakerStates reports each registered provider's breaker state.
func (r *Replicator) BreakerStates() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make(map[string]string, len(r.providers))
	for id, p := range r.providers {
		states[id] = p.State()
	}
	return states
}

// provider resolves id, distinguishing unknown ids from unconfigured ones.
func (r *Replicator) provider(id string) (Provider, error) {
	if !slices.Contains(KnownProviders, id) {
		return nil, models.NewError(models.KindUnsupportedProvider,
			fmt.Sprintf("Unsupported provider: %s", id), nil)
	}
	r.mu.RLock()
	p, ok := r.providers[id]
	r.mu.RUnlock()
	if !ok {
		return nil, models.NewError(models.KindProviderNotConfigured,
			fmt.Sprintf("Provider %s not configured", id), nil)
	}
	return p, nil
}

// Upload streams localPath to remoteName on the provider.
func (r *Replicator) Upload(ctx context.Context, id, localPath, remoteName string, meta Metadata) (*UploadResult, error) {
	p, err := r.provider(id)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := p.Upload(ctx, localPath, remoteName, meta)
	r.observe(ctx, id, "upload", remoteName, start, err)
	return res, err
}

// Download writes remoteName from the provider to localPath.
func (r *Replicator) Download(ctx context.Context, id, remoteName, localPath string) error {
	p, err := r.provider(id)
	if err != nil {
		return err
	}
	start := time.Now()
	err = p.Download(ctx, remoteName, localPath)
	r.observe(ctx, id, "download", remoteName, start, err)
	return err
}

// Delete removes remoteName from the provider.
func (r *Replicator) Delete(ctx context.Context, id, remoteName string) error {
	p, err := r.provider(id)
	if err != nil {
		return err
	}
	start := time.Now()
	err = p.Delete(ctx, remoteName)
	r.observe(ctx, id, "delete", remoteName, start, err)
	return err
}

// List returns objects on the provider. An empty prefix lists backup
// artifacts and a non-positive maxResults uses DefaultMaxResults.
func (r *Replicator) List(ctx context.Context, id, prefix string, maxResults int) ([]Object, error) {
	p, err := r.provider(id)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = DefaultListPrefix
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	start := time.Now()
	objects, err := p.List(ctx, prefix, maxResults)
	r.observe(ctx, id, "list", prefix, start, err)
	return objects, err
}

// UploadBackup replicates a catalog record's artifact under its file name.
func (r *Replicator) UploadBackup(ctx context.Context, rec *models.BackupRecord, id string) (*UploadResult, error) {
	if rec.Status != models.StatusCompleted || rec.FilePath == "" {
		return nil, models.NewError(models.KindBackupFileMissing,
			fmt.Sprintf("backup %s has no artifact to upload", rec.ID), nil)
	}
	return r.Upload(ctx, id, rec.FilePath, rec.FileName, Metadata{
		BackupType:   string(rec.BackupType),
		CreatedAt:    rec.CreatedAt,
		OriginalSize: rec.FileSize,
	})
}

// Close releases provider clients that hold resources.
func (r *Replicator) Close() error {
	r.mu.Lock()
	old := r.providers
	r.providers = nil
	r.mu.Unlock()
	closeAll(old)
	return nil
}

func (r *Replicator) observe(ctx context.Context, id, op, name string, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.RecordCloudOperation(id, op, elapsed, err)

	logger := logging.Ctx(ctx)
	if err != nil {
		logger.Error().Err(err).Str("provider", id).Str("operation", op).Str("object", name).Msg("Cloud operation failed")
		return
	}
	logger.Debug().Str("provider", id).Str("operation", op).Str("object", name).Dur("duration", elapsed).Msg("Cloud operation completed")
}

func closeAll(providers map[string]*breakerProvider) {
	for id, p := range providers {
		c, ok := p.inner.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			logging.Warn().Err(err).Str("provider", id).Msg("Failed to close cloud provider")
		}
	}
}
