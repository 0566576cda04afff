// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/ledgerkeep/internal/backup"
)

// Schedule kinds accepted by POST /schedules.
const (
	ScheduleKindOneTime   = "one-time"
	ScheduleKindRecurring = "recurring"
)

// ScheduleBackupRequest is the body of POST /api/v1/schedules.
type ScheduleBackupRequest struct {
	Kind           string                `json:"kind" validate:"required,oneof=one-time recurring"`
	Time           *time.Time            `json:"time,omitempty" validate:"required_if=Kind one-time"`
	CronExpression string                `json:"cron_expression,omitempty" validate:"required_if=Kind recurring,omitempty,cronexpr"`
	Options        backup.RequestOptions `json:"options"`
}

// ScheduleBackupResponse names the registered job.
type ScheduleBackupResponse struct {
	JobName string `json:"job_name"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// HandleScheduleBackup registers a one-time or recurring backup.
// POST /api/v1/schedules
func (h *Handler) HandleScheduleBackup(w http.ResponseWriter, r *http.Request) {
	var req ScheduleBackupRequest
	if !decodeJSON(w, r, &req) || !validateRequest(w, r, &req) {
		return
	}

	var (
		name    string
		err     error
		message string
	)
	switch req.Kind {
	case ScheduleKindOneTime:
		name, err = h.schedules.ScheduleOneTimeBackup(*req.Time, req.Options)
		message = fmt.Sprintf("Backup scheduled for %s", req.Time.UTC().Format(time.RFC3339))
	default:
		name, err = h.schedules.ScheduleCustomBackup(req.CronExpression, req.Options)
		message = fmt.Sprintf("Recurring backup scheduled with %q", req.CronExpression)
	}
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusCreated, ScheduleBackupResponse{
		JobName: name,
		Kind:    req.Kind,
		Message: message,
	})
}

// HandleListSchedules reports the registered jobs.
// GET /api/v1/schedules
func (h *Handler) HandleListSchedules(w http.ResponseWriter, r *http.Request) {
	status := h.schedules.Status()
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"jobs":   status.Jobs,
		"status": status,
	})
}

// HandleCancelSchedule removes a job.
// DELETE /api/v1/schedules/{name}
func (h *Handler) HandleCancelSchedule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.schedules.CancelJob(name) {
		respondFailure(w, r, fmt.Errorf("%w: %s", errJobNotFound, name))
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{
		"job_name": name,
		"message":  "Scheduled job cancelled",
	})
}
