// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/ledgerkeep/internal/models"
	"github.com/tomtom215/ledgerkeep/internal/validation"
)

// Codes for failures that carry no models.Kind.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeJobNotFound    = "JOB_NOT_FOUND"
	CodeInternal       = "INTERNAL_ERROR"
)

// errJobNotFound is returned when a schedule name is unknown.
var errJobNotFound = errors.New("scheduled job not found")

// statusForKind maps an error kind to its HTTP status.
var statusForKind = map[models.Kind]int{
	models.KindBackupNotFound:        http.StatusNotFound,
	models.KindBackupFileMissing:     http.StatusNotFound,
	models.KindValidationFailed:      http.StatusBadRequest,
	models.KindScheduleInPast:        http.StatusBadRequest,
	models.KindUnsupportedProvider:   http.StatusBadRequest,
	models.KindProviderNotConfigured: http.StatusConflict,
	models.KindIntegrityCheckFailed:  http.StatusUnprocessableEntity,
	models.KindDataSourceMissing:     http.StatusUnprocessableEntity,
	models.KindStorageUnavailable:    http.StatusServiceUnavailable,
	models.KindBackupCreationFailed:  http.StatusInternalServerError,
	models.KindRestoreFailed:         http.StatusInternalServerError,
}

// classify returns the HTTP status, error code and optional details for err.
//
// A missing data source is wrapped inside BackupCreationFailed, so it is
// matched through the chain before the outermost kind is consulted.
func classify(err error) (status int, code string, details map[string]interface{}) {
	if errors.Is(err, errJobNotFound) {
		return http.StatusNotFound, CodeJobNotFound, nil
	}
	if errors.Is(err, models.ErrDataSourceMissing) {
		return http.StatusUnprocessableEntity, string(models.KindDataSourceMissing), nil
	}

	var reqErr *validation.RequestValidationError
	if errors.As(err, &reqErr) {
		apiErr := reqErr.ToAPIError()
		details = apiErr.Details
	}

	kind := models.KindOf(err)
	if kind == "" {
		return http.StatusInternalServerError, CodeInternal, details
	}
	status, ok := statusForKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, string(kind), details
}
