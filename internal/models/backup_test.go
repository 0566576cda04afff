// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestBackupRecordJSONIncludesSizeMB(t *testing.T) {
	tests := []struct {
		name   string
		size   int64
		wantMB float64
	}{
		{"empty", 0, 0},
		{"one and a half", 1024 * 1024 * 3 / 2, 1.5},
		{"rounded", 1234567, 1.18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := BackupRecord{
				ID:         "b-1",
				BackupType: BackupTypeManual,
				FileSize:   tt.size,
				Status:     StatusCompleted,
				CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			}

			for _, v := range []any{rec, &rec} {
				data, err := json.Marshal(v)
				if err != nil {
					t.Fatalf("Marshal failed: %v", err)
				}
				var got map[string]any
				if err := json.Unmarshal(data, &got); err != nil {
					t.Fatalf("Unmarshal failed: %v", err)
				}
				if got["file_size_mb"] != tt.wantMB {
					t.Errorf("expected file_size_mb %v, got %v in %s", tt.wantMB, got["file_size_mb"], data)
				}
				if got["id"] != "b-1" || got["file_size"] != float64(tt.size) {
					t.Errorf("expected stored fields kept, got %s", data)
				}
			}

			data, _ := json.Marshal(rec)
			var back BackupRecord
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal into record failed: %v", err)
			}
			if back.ID != rec.ID || back.FileSize != rec.FileSize || !back.CreatedAt.Equal(rec.CreatedAt) {
				t.Errorf("expected %+v, got %+v", rec, back)
			}
		})
	}
}
