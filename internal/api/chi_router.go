// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/ledgerkeep/internal/middleware"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// NewRouter wires every route. Mutating routes share a per-IP rate limit.
func NewRouter(h *Handler, cfg *ChiMiddlewareConfig) http.Handler {
	mw := NewChiMiddleware(cfg)
	limit := mw.RateLimit()

	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.Get("/healthz", h.HandleLiveness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health", h.HandleHealth)
		r.Get("/dashboard", h.HandleDashboard)

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", h.HandleListBackups)
			r.With(limit).Post("/", h.HandleCreateBackup)
			r.Get("/stats", h.HandleBackupStats)
			r.With(limit).Post("/cleanup", h.HandleCleanup)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.HandleGetBackup)
				r.With(limit).Delete("/", h.HandleDeleteBackup)
				r.Get("/verify", h.HandleVerifyBackup)
				r.Get("/download", h.HandleDownloadBackup)
				r.With(limit).Post("/restore", h.HandleRestoreBackup)
			})
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", h.HandleListSchedules)
			r.With(limit).Post("/", h.HandleScheduleBackup)
			r.With(limit).Delete("/{name}", h.HandleCancelSchedule)
		})

		r.Route("/cloud", func(r chi.Router) {
			r.Get("/providers", h.HandleCloudProviders)
			r.With(limit).Post("/upload", h.HandleCloudUpload)
			r.With(limit).Post("/download", h.HandleCloudDownload)
			r.Get("/{provider}/backups", h.HandleCloudList)
			r.With(limit).Delete("/{provider}/backups/{name}", h.HandleCloudDelete)
		})

		r.Get("/settings", h.HandleGetSettings)
		r.With(limit).Put("/settings", h.HandleUpdateSettings)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, "NOT_FOUND", "Route not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, &models.APIResponse{
			Success:  false,
			Metadata: newMetadata(req),
			Error:    &models.APIError{Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed"},
		})
	})

	return r
}
