// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/ledgerkeep/internal/backup"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// RestoreBackupRequest is the body of POST /backups/{id}/restore.
type RestoreBackupRequest struct {
	EncryptionKey string `json:"encryption_key,omitempty"`
}

// HandleCreateBackup creates a manual backup. Options left out of the body
// take their value from the settings.
// POST /api/v1/backups
func (h *Handler) HandleCreateBackup(w http.ResponseWriter, r *http.Request) {
	var opts backup.RequestOptions
	if !decodeJSON(w, r, &opts) || !validateRequest(w, r, &opts) {
		return
	}

	settings, err := h.backups.Settings(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	res, err := h.backups.CreateBackup(r.Context(), opts.Resolve(models.BackupTypeManual, settings))
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, res)
}

// HandleListBackups lists records, newest first.
// GET /api/v1/backups?page&limit&type&status
func (h *Handler) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := backup.ListOptions{
		Page:   getIntParam(r, "page", 1),
		Limit:  getIntParam(r, "limit", backup.DefaultPageLimit),
		Type:   models.BackupType(query.Get("type")),
		Status: models.BackupStatus(query.Get("status")),
	}
	if opts.Type != "" && !opts.Type.Valid() {
		respondError(w, r, http.StatusBadRequest, string(models.KindValidationFailed),
			fmt.Sprintf("invalid backup type %q", opts.Type), nil, nil)
		return
	}
	if opts.Status != "" && !opts.Status.Valid() {
		respondError(w, r, http.StatusBadRequest, string(models.KindValidationFailed),
			fmt.Sprintf("invalid backup status %q", opts.Status), nil, nil)
		return
	}

	res, err := h.backups.ListBackups(r.Context(), opts)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, res)
}

// HandleBackupStats returns aggregate statistics.
// GET /api/v1/backups/stats
func (h *Handler) HandleBackupStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backups.GetBackupStats(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, stats)
}

// HandleGetBackup returns one record.
// GET /api/v1/backups/{id}
func (h *Handler) HandleGetBackup(w http.ResponseWriter, r *http.Request) {
	rec, err := h.backups.GetBackup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, rec)
}

// HandleVerifyBackup re-hashes an artifact against its recorded checksum.
// GET /api/v1/backups/{id}/verify
func (h *Handler) HandleVerifyBackup(w http.ResponseWriter, r *http.Request) {
	res, err := h.backups.VerifyBackup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, res)
}

// HandleDeleteBackup removes a record and its artifact.
// DELETE /api/v1/backups/{id}
func (h *Handler) HandleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.backups.DeleteBackup(r.Context(), id); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{
		"id":      id,
		"message": "Backup deleted successfully",
	})
}

// HandleDownloadBackup streams the artifact bytes.
// GET /api/v1/backups/{id}/download
func (h *Handler) HandleDownloadBackup(w http.ResponseWriter, r *http.Request) {
	rc, rec, err := h.backups.OpenBackup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	defer rc.Close() //nolint:errcheck // read-only

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.FileName))
	w.Header().Set("X-Backup-ID", rec.ID)
	w.Header().Set("X-Backup-Checksum", rec.Checksum)
	if rec.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(rec.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("backup_id", rec.ID).Msg("Backup download interrupted")
	}
}

// HandleRestoreBackup replaces the ledger with a backup.
// POST /api/v1/backups/{id}/restore
func (h *Handler) HandleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req RestoreBackupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.backups.RestoreBackup(r.Context(), chi.URLParam(r, "id"), req.EncryptionKey)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, res)
}

// HandleCleanup applies the retention policies now.
// POST /api/v1/backups/cleanup
func (h *Handler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	report, err := h.backups.RunCleanup(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"report":        report,
		"total_deleted": report.TotalDeleted(),
	})
}
