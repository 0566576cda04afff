// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/ledgerkeep/internal/cloud"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// CloudUploadRequest is the body of POST /api/v1/cloud/upload.
type CloudUploadRequest struct {
	BackupID string `json:"backup_id" validate:"required"`
	Provider string `json:"provider" validate:"required"`
}

// CloudDownloadRequest is the body of POST /api/v1/cloud/download.
// LocalPath is relative to the backup location and defaults to RemoteName.
type CloudDownloadRequest struct {
	RemoteName string `json:"remote_name" validate:"required,max=1024"`
	Provider   string `json:"provider" validate:"required"`
	LocalPath  string `json:"local_path,omitempty" validate:"max=1024"`
}

// HandleCloudUpload replicates a completed backup.
// POST /api/v1/cloud/upload
func (h *Handler) HandleCloudUpload(w http.ResponseWriter, r *http.Request) {
	var req CloudUploadRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, r, &req) {
		return
	}

	rec, err := h.backups.GetBackup(r.Context(), req.BackupID)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	res, err := h.cloud.UploadBackup(r.Context(), rec, req.Provider)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, res)
}

// HandleCloudDownload fetches a remote artifact into the backup location.
// POST /api/v1/cloud/download
func (h *Handler) HandleCloudDownload(w http.ResponseWriter, r *http.Request) {
	var req CloudDownloadRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, r, &req) {
		return
	}

	settings, err := h.backups.Settings(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	target := req.LocalPath
	if target == "" {
		target = filepath.Base(req.RemoteName)
	}
	localPath, err := confinePath(settings.BackupLocation, target)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	if err := h.cloud.Download(r.Context(), req.Provider, req.RemoteName, localPath); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{
		"provider":    req.Provider,
		"remote_name": req.RemoteName,
		"local_path":  localPath,
	})
}

// HandleCloudList lists remote artifacts.
// GET /api/v1/cloud/{provider}/backups?prefix&maxResults
func (h *Handler) HandleCloudList(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	prefix := r.URL.Query().Get("prefix")
	maxResults := getIntParam(r, "maxResults", cloud.DefaultMaxResults)

	objects, err := h.cloud.List(r.Context(), provider, prefix, maxResults)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"provider": provider,
		"objects":  objects,
		"count":    len(objects),
	})
}

// HandleCloudDelete removes a remote artifact.
// DELETE /api/v1/cloud/{provider}/backups/{name}
func (h *Handler) HandleCloudDelete(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	name := chi.URLParam(r, "name")
	if err := h.cloud.Delete(r.Context(), provider, name); err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{
		"provider": provider,
		"name":     name,
		"message":  "Remote backup deleted",
	})
}

// HandleCloudProviders lists the configured providers.
// GET /api/v1/cloud/providers
func (h *Handler) HandleCloudProviders(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"configured": h.cloud.Providers(),
		"supported":  cloud.KnownProviders,
	})
}

// confinePath resolves rel inside base and rejects anything escaping it.
func confinePath(base, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", models.NewError(models.KindValidationFailed, "local_path must be relative to the backup location", nil)
	}
	root, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve backup location: %w", err)
	}
	full := filepath.Join(root, rel)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", models.NewError(models.KindValidationFailed, "local_path escapes the backup location", nil)
	}
	if full == root {
		return "", models.NewError(models.KindValidationFailed, "local_path must name a file", nil)
	}
	return full, nil
}
