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
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tomtom215/ledgerkeep/internal/config"
)

const defaultS3Region = "us-east-1"

// S3Provider stores artifacts in an S3 bucket.
type S3Provider struct {
	client *s3.Client
	cfg    config.S3Config
}

// NewS3Provider builds an S3 client. Static credentials are used when both
// keys are set, otherwise the default AWS credential chain applies.
func NewS3Provider(ctx context.Context, cfg config.S3Config) (*S3Provider, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = defaultS3Region
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Provider{client: client, cfg: cfg}, nil
}

// Name implements Provider.
func (p *S3Provider) Name() string { return ProviderS3 }

// Upload implements Provider.
//
//nolint:gosec // G304: localPath is a catalog artifact path
func (p *S3Provider) Upload(ctx context.Context, localPath, remoteName string, meta Metadata) (*UploadResult, error) {
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
	input := &s3.PutObjectInput{
		Bucket:               aws.String(p.cfg.Bucket),
		Key:                  aws.String(key),
		Body:                 f,
		ContentLength:        aws.Int64(info.Size()),
		ContentType:          aws.String(contentType(remoteName)),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
		Metadata:             meta.toMap(),
	}
	if p.cfg.StorageClass != "" {
		input.StorageClass = types.StorageClass(p.cfg.StorageClass)
	}

	out, err := p.client.PutObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	return &UploadResult{
		Provider: ProviderS3,
		Name:     remoteName,
		URL:      p.objectURL(key),
		Size:     info.Size(),
		ETag:     strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

// Download implements Provider.
func (p *S3Provider) Download(ctx context.Context, remoteName, localPath string) error {
	key := objectKey(p.cfg.Prefix, remoteName)
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close() //nolint:errcheck // read-only

	return writeLocal(localPath, out.Body)
}

// Delete implements Provider.
func (p *S3Provider) Delete(ctx context.Context, remoteName string) error {
	key := objectKey(p.cfg.Prefix, remoteName)
	if _, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// List implements Provider.
func (p *S3Provider) List(ctx context.Context, prefix string, maxResults int) ([]Object, error) {
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.cfg.Bucket),
		Prefix: aws.String(objectKey(p.cfg.Prefix, prefix)),
	})

	objects := []Object{}
	for paginator.HasMorePages() && len(objects) < maxResults {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Name:         stripKeyPrefix(p.cfg.Prefix, aws.ToString(obj.Key)),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
			if len(objects) >= maxResults {
				break
			}
		}
	}
	return objects, nil
}

func (p *S3Provider) objectURL(key string) string {
	if p.cfg.Endpoint != "" {
		return strings.TrimSuffix(p.cfg.Endpoint, "/") + "/" + p.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, key)
}

// writeLocal streams r to path through a temporary sibling.
//
//nolint:gosec // G304: localPath is chosen by the operator
func writeLocal(localPath string, r io.Reader) (err error) {
	tmp := localPath + ".download"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp) //nolint:errcheck // best effort
		}
	}()

	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close() //nolint:errcheck // copy error takes precedence
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, localPath); err != nil {
		return fmt.Errorf("finalize %s: %w", localPath, err)
	}
	return nil
}
