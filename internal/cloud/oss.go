// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package cloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"

	"github.com/tomtom215/ledgerkeep/internal/config"
)

// OSSProvider stores artifacts in an Alibaba Cloud OSS bucket.
type OSSProvider struct {
	client *oss.Client
	cfg    config.OSSConfig
}

// NewOSSProvider builds an OSS client. Region is required, the endpoint is
// derived from it unless set.
func NewOSSProvider(cfg config.OSSConfig) (*OSSProvider, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("oss bucket is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("oss region is required")
	}

	ossCfg := oss.LoadDefaultConfig().WithRegion(cfg.Region)
	if cfg.AccessKeyID != "" && cfg.AccessKeySecret != "" {
		ossCfg = ossCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.AccessKeySecret, ""),
		)
	} else {
		ossCfg = ossCfg.WithCredentialsProvider(credentials.NewEnvironmentVariableCredentialsProvider())
	}
	if cfg.Endpoint != "" {
		ossCfg = ossCfg.WithEndpoint(cfg.Endpoint)
	}

	return &OSSProvider{client: oss.NewClient(ossCfg), cfg: cfg}, nil
}

// Name implements Provider.
func (p *OSSProvider) Name() string { return ProviderOSS }

// Upload implements Provider.
//
//nolint:gosec // G304: localPath is a catalog artifact path
func (p *OSSProvider) Upload(ctx context.Context, localPath, remoteName string, meta Metadata) (*UploadResult, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	key := objectKey(p.cfg.Prefix, remoteName)
	req := &oss.PutObjectRequest{
		Bucket:        oss.Ptr(p.cfg.Bucket),
		Key:           oss.Ptr(key),
		Body:          f,
		ContentLength: oss.Ptr(info.Size()),
		ContentType:   oss.Ptr(contentType(remoteName)),
		Acl:           oss.ObjectACLPrivate,
		Metadata:      meta.toMap(),
	}
	if p.cfg.StorageClass != "" {
		req.StorageClass = oss.StorageClassType(p.cfg.StorageClass)
	}

	out, err := p.client.PutObject(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	return &UploadResult{
		Provider: ProviderOSS,
		Name:     remoteName,
		URL:      p.objectURL(key),
		Size:     info.Size(),
		ETag:     strings.Trim(oss.ToString(out.ETag), `"`),
	}, nil
}

// Download implements Provider.
func (p *OSSProvider) Download(ctx context.Context, remoteName, localPath string) error {
	key := objectKey(p.cfg.Prefix, remoteName)
	out, err := p.client.GetObject(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(p.cfg.Bucket),
		Key:    oss.Ptr(key),
	})
	if err != nil {
		return fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close() //nolint:errcheck // read-only

	return writeLocal(localPath, out.Body)
}

// Delete implements Provider.
func (p *OSSProvider) Delete(ctx context.Context, remoteName string) error {
	key := objectKey(p.cfg.Prefix, remoteName)
	if _, err := p.client.DeleteObject(ctx, &oss.DeleteObjectRequest{
		Bucket: oss.Ptr(p.cfg.Bucket),
		Key:    oss.Ptr(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// List implements Provider.
func (p *OSSProvider) List(ctx context.Context, prefix string, maxResults int) ([]Object, error) {
	paginator := p.client.NewListObjectsV2Paginator(&oss.ListObjectsV2Request{
		Bucket: oss.Ptr(p.cfg.Bucket),
		Prefix: oss.Ptr(objectKey(p.cfg.Prefix, prefix)),
	})

	objects := []Object{}
	for paginator.HasNext() && len(objects) < maxResults {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Name:         stripKeyPrefix(p.cfg.Prefix, oss.ToString(obj.Key)),
				Size:         obj.Size,
				LastModified: oss.ToTime(obj.LastModified),
			})
			if len(objects) >= maxResults {
				break
			}
		}
	}
	return objects, nil
}

func (p *OSSProvider) objectURL(key string) string {
	endpoint := p.cfg.Endpoint
	if endpoint == "" {
		endpoint = "oss-" + p.cfg.Region + ".aliyuncs.com"
	}
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", p.cfg.Bucket, endpoint, key)
}
