// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/tomtom215/ledgerkeep/internal/config"
)

// GCSProvider stores artifacts in a Google Cloud Storage bucket.
type GCSProvider struct {
	client *storage.Client
	cfg    config.GCSConfig
}

// NewGCSProvider builds a GCS client. Without a credentials file the
// application default credentials are used.
func NewGCSProvider(ctx context.Context, cfg config.GCSConfig) (*GCSProvider, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSProvider{client: client, cfg: cfg}, nil
}

// Name implements Provider.
func (p *GCSProvider) Name() string { return ProviderGCS }

// Upload implements Provider.
//
//nolint:gosec // G304: localPath is a catalog artifact path
func (p *GCSProvider) Upload(ctx context.Context, localPath, remoteName string, meta Metadata) (*UploadResult, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	key := objectKey(p.cfg.Prefix, remoteName)
	w := p.client.Bucket(p.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType(remoteName)
	w.Metadata = meta.toMap()
	if p.cfg.StorageClass != "" {
		w.StorageClass = p.cfg.StorageClass
	}

	n, err := io.Copy(w, f)
	if err != nil {
		_ = w.Close() //nolint:errcheck // copy error takes precedence
		return nil, fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize object %s: %w", key, err)
	}

	result := &UploadResult{
		Provider: ProviderGCS,
		Name:     remoteName,
		URL:      fmt.Sprintf("gs://%s/%s", p.cfg.Bucket, key),
		Size:     n,
	}
	if attrs := w.Attrs(); attrs != nil {
		result.ETag = attrs.Etag
		result.Size = attrs.Size
	}
	return result, nil
}

// Download implements Provider.
func (p *GCSProvider) Download(ctx context.Context, remoteName, localPath string) error {
	key := objectKey(p.cfg.Prefix, remoteName)
	r, err := p.client.Bucket(p.cfg.Bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("read object %s: %w", key, err)
	}
	defer r.Close() //nolint:errcheck // read-only

	return writeLocal(localPath, r)
}

// Delete implements Provider.
func (p *GCSProvider) Delete(ctx context.Context, remoteName string) error {
	key := objectKey(p.cfg.Prefix, remoteName)
	if err := p.client.Bucket(p.cfg.Bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// List implements Provider.
func (p *GCSProvider) List(ctx context.Context, prefix string, maxResults int) ([]Object, error) {
	it := p.client.Bucket(p.cfg.Bucket).Objects(ctx, &storage.Query{Prefix: objectKey(p.cfg.Prefix, prefix)})

	objects := []Object{}
	for len(objects) < maxResults {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		objects = append(objects, Object{
			Name:         stripKeyPrefix(p.cfg.Prefix, attrs.Name),
			Size:         attrs.Size,
			LastModified: attrs.Updated,
		})
	}
	return objects, nil
}

// Close releases the GCS client.
func (p *GCSProvider) Close() error {
	return p.client.Close()
}
