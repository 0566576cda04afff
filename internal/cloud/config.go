// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package cloud

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerkeep/internal/config"
)

// settingsBlob is the cloud_config settings field. Each provider section is
// accepted under its short key and its legacy long key.
type settingsBlob struct {
	S3     *config.S3Config  `json:"s3"`
	AWS    *config.S3Config  `json:"aws"`
	GCS    *config.GCSConfig `json:"gcs"`
	Google *config.GCSConfig `json:"google"`
	OSS    *config.OSSConfig `json:"oss"`
	Aliyun *config.OSSConfig `json:"aliyun"`
}

// DecodeConfig parses the cloud_config settings blob. Sections missing from
// raw keep the values from fallback; an empty blob returns fallback as is.
func DecodeConfig(raw []byte, fallback config.CloudConfig) (config.CloudConfig, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fallback, nil
	}

	var blob settingsBlob
	if err := json.Unmarshal(trimmed, &blob); err != nil {
		return fallback, fmt.Errorf("decode cloud config: %w", err)
	}

	out := fallback
	if s := firstNonNil(blob.S3, blob.AWS); s != nil {
		out.S3 = *s
	}
	if g := firstNonNil(blob.GCS, blob.Google); g != nil {
		out.GCS = *g
	}
	if o := firstNonNil(blob.OSS, blob.Aliyun); o != nil {
		out.OSS = *o
	}
	return out, nil
}

func firstNonNil[T any](values ...*T) *T {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
