// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/ledgerkeep/internal/models"
	"github.com/tomtom215/ledgerkeep/internal/monitoring"
)

// HandleHealth runs the backup health checks. Unhealthy and error results
// are served with 503.
// GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	hc := h.monitor.PerformHealthCheck(r.Context())
	status := http.StatusOK
	if hc.Status.Severity() >= monitoring.StatusUnhealthy.Severity() {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, &models.APIResponse{
		Success:  true,
		Data:     hc,
		Metadata: newMetadata(r),
	})
}

// HandleDashboard returns the monitoring snapshot.
// GET /api/v1/dashboard
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.monitor.GetDashboardData(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, d)
}

// HandleLiveness reports that the process is serving.
// GET /healthz
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}
