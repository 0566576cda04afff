// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tomtom215/ledgerkeep/internal/models"
	"github.com/tomtom215/ledgerkeep/internal/validation"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", models.NewError(models.KindBackupNotFound, "Backup x not found", nil), http.StatusNotFound, "BACKUP_NOT_FOUND"},
		{"file missing", models.NewError(models.KindBackupFileMissing, "gone", nil), http.StatusNotFound, "BACKUP_FILE_MISSING"},
		{"schedule in past", models.NewError(models.KindScheduleInPast, "past", nil), http.StatusBadRequest, "SCHEDULE_IN_PAST"},
		{"unsupported provider", models.NewError(models.KindUnsupportedProvider, "Unsupported provider: ftp", nil), http.StatusBadRequest, "UNSUPPORTED_PROVIDER"},
		{"provider not configured", models.NewError(models.KindProviderNotConfigured, "Provider aws_s3 not configured", nil), http.StatusConflict, "PROVIDER_NOT_CONFIGURED"},
		{"integrity", models.NewError(models.KindIntegrityCheckFailed, "mismatch", nil), http.StatusUnprocessableEntity, "INTEGRITY_CHECK_FAILED"},
		{"storage", models.NewError(models.KindStorageUnavailable, "disk", nil), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{"restore", models.NewError(models.KindRestoreFailed, "swap", nil), http.StatusInternalServerError, "RESTORE_FAILED"},
		{
			"wrapped data source missing",
			models.NewError(models.KindBackupCreationFailed, "Backup creation failed",
				models.NewError(models.KindDataSourceMissing, "ledger not found", nil)),
			http.StatusUnprocessableEntity, "DATA_SOURCE_MISSING",
		},
		{"job not found", fmt.Errorf("%w: nightly", errJobNotFound), http.StatusNotFound, CodeJobNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
		{"fmt wrapped kind", fmt.Errorf("op: %w", models.ErrBackupNotFound), http.StatusNotFound, "BACKUP_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, _ := classify(tt.err)
			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, status)
			}
			if code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, code)
			}
		})
	}
}

func TestClassifyValidationDetails(t *testing.T) {
	type req struct {
		Name string `validate:"required"`
	}
	verr := validation.ValidateStruct(&req{})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	err := models.NewError(models.KindValidationFailed, "invalid request", verr)

	status, code, details := classify(err)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
	if code != string(models.KindValidationFailed) {
		t.Errorf("expected VALIDATION_FAILED, got %s", code)
	}
	if details["field"] != "Name" {
		t.Errorf("expected field detail Name, got %v", details["field"])
	}
}
