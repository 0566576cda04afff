// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Package scheduler runs automatic, one-time and custom cron backups.
//
// Recurring jobs run on a robfig/cron runner in UTC with the standard
// 5-field parser. One-time jobs are time.AfterFunc timers that remove
// themselves from the registry after firing. Every job is keyed by name:
//
//	auto-backup            recurring job derived from backupFrequencyHours
//	one-time-<unix ms>     single run at a fixed time
//	custom-<unix ms>       recurring job from a caller's cron expression
//
// Jobs call into a BackupRunner, normally the backup Coordinator, which
// serializes them with every other backup and restore.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/ledgerkeep/internal/backup"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/metrics"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// AutoBackupJob is the registry name of the recurring auto-backup job.
const AutoBackupJob = "auto-backup"

// Job kinds.
const (
	KindAuto    = "auto"
	KindOneTime = "one-time"
	KindCustom  = "custom"
)

// DefaultStopTimeout bounds Stop while running jobs finish.
const DefaultStopTimeout = 30 * time.Second

// autoBackupNotes is attached to every backup created by the auto job.
const autoBackupNotes = "Automated scheduled backup"

// BackupRunner is what scheduled jobs call into.
type BackupRunner interface {
	CreateBackup(ctx context.Context, req backup.CreateRequest) (*backup.CreateResult, error)
	RecordFailure(ctx context.Context, backupType models.BackupType, notes string) (*models.BackupRecord, error)
	Settings(ctx context.Context) (models.BackupSettings, error)
}

// JobInfo describes one registered job.
type JobInfo struct {
	Name string    `json:"name"`
	Kind string    `json:"kind"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next,omitempty"`
}

// Status is a snapshot of the scheduler.
type Status struct {
	Running  bool      `json:"running"`
	Jobs     []JobInfo `json:"jobs"`
	JobCount int       `json:"job_count"`
}

type job struct {
	name    string
	kind    string
	spec    string
	entryID cron.EntryID
	timer   *time.Timer
	at      time.Time
}

// Scheduler owns the job registry.
type Scheduler struct {
	runner BackupRunner
	cron   *cron.Cron
	parser cron.Parser
	now    func() time.Time

	stopTimeout time.Duration

	mu       sync.Mutex
	jobs     map[string]*job
	running  bool
	inflight sync.WaitGroup

	// jobCtx is handed to running jobs and cancelled when Stop gives up waiting.
	jobCtx    context.Context
	jobCancel context.CancelFunc
}

// New creates a Scheduler. It does nothing until Start.
func New(runner BackupRunner) *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	logger := newCronLogger()
	jobCtx, jobCancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner: runner,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithParser(parser),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		parser:      parser,
		now:         time.Now,
		stopTimeout: DefaultStopTimeout,
		jobs:        make(map[string]*job),
		jobCtx:      jobCtx,
		jobCancel:   jobCancel,
	}
}

// SetStopTimeout overrides DefaultStopTimeout.
func (s *Scheduler) SetStopTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimeout = d
}

// Start installs the auto-backup job when enabled and starts the cron
// runner. Calling Start on a running scheduler logs a warning.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		logging.Warn().Msg("Backup scheduler is already running")
		return nil
	}

	settings, err := s.runner.Settings(ctx)
	if err != nil {
		return fmt.Errorf("load backup settings: %w", err)
	}

	if s.jobCtx.Err() != nil {
		s.jobCtx, s.jobCancel = context.WithCancel(context.Background())
	}

	if settings.AutoBackupEnabled {
		if err := s.scheduleAutoLocked(settings); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.running = true
	logging.Info().Int("jobs", len(s.jobs)).Msg("Backup scheduler started")
	return nil
}

// Stop cancels every job and waits up to the stop timeout for running
// jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	timeout := s.stopTimeout
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.StopContext(ctx)
}

// StopContext is Stop bounded by ctx instead of the stop timeout.
func (s *Scheduler) StopContext(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		logging.Warn().Msg("Backup scheduler is not running")
		return nil
	}
	for name, j := range s.jobs {
		s.cancelLocked(j)
		delete(s.jobs, name)
	}
	s.running = false
	metrics.SchedulerJobs.Set(0)
	cronDone := s.cron.Stop()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info().Msg("Backup scheduler stopped")
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		s.jobCancel()
		s.mu.Unlock()
		logging.Warn().Msg("Backup scheduler stop timed out, cancelled running jobs")
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// IsRunning reports whether Start has been called without a matching Stop.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ScheduleAutoBackup installs or replaces the auto-backup job for settings.
func (s *Scheduler) ScheduleAutoBackup(settings models.BackupSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleAutoLocked(settings)
}

// UpdateSchedule re-derives the auto-backup job from settings. The job is
// removed when auto backup is disabled.
func (s *Scheduler) UpdateSchedule(settings models.BackupSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[AutoBackupJob]; ok {
		s.cancelLocked(j)
		delete(s.jobs, AutoBackupJob)
	}
	if settings.AutoBackupEnabled {
		if err := s.scheduleAutoLocked(settings); err != nil {
			return err
		}
	}
	metrics.SchedulerJobs.Set(float64(len(s.jobs)))
	logging.Info().Bool("auto_backup_enabled", settings.AutoBackupEnabled).Msg("Backup schedule updated")
	return nil
}

func (s *Scheduler) scheduleAutoLocked(settings models.BackupSettings) error {
	hours := settings.BackupFrequencyHours
	if hours <= 0 {
		hours = 24
	}
	expr := HoursToSchedule(hours)
	if warning := IntervalWarning(hours); warning != "" {
		logging.Warn().Float64("backup_frequency_hours", hours).Str("cron", expr).Msg(warning)
	}

	sched, err := s.parser.Parse(expr)
	if err != nil {
		return fmt.Errorf("parse auto-backup schedule %q: %w", expr, err)
	}

	if old, ok := s.jobs[AutoBackupJob]; ok {
		s.cancelLocked(old)
	}
	id := s.cron.Schedule(sched, cron.FuncJob(s.runAutoBackup))
	s.jobs[AutoBackupJob] = &job{name: AutoBackupJob, kind: KindAuto, spec: expr, entryID: id}
	metrics.SchedulerJobs.Set(float64(len(s.jobs)))

	logging.Info().Float64("backup_frequency_hours", hours).Str("cron", expr).Msg("Scheduled auto backup")
	return nil
}

// ScheduleOneTimeBackup arms a single backup at at. at must be in the future.
func (s *Scheduler) ScheduleOneTimeBackup(at time.Time, opts backup.RequestOptions) (string, error) {
	now := s.now()
	if !at.After(now) {
		return "", models.NewError(models.KindScheduleInPast, "schedule time must be in the future", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.uniqueNameLocked(fmt.Sprintf("%s-%d", KindOneTime, now.UnixMilli()))
	j := &job{name: name, kind: KindOneTime, spec: at.UTC().Format(time.RFC3339), at: at}
	j.timer = time.AfterFunc(at.Sub(now), func() { s.fireOneTime(name, opts) })
	s.jobs[name] = j
	metrics.SchedulerJobs.Set(float64(len(s.jobs)))

	logging.Info().Str("job", name).Time("at", at).Msg("Scheduled one-time backup")
	return name, nil
}

// ScheduleCustomBackup installs a recurring backup from a cron expression.
func (s *Scheduler) ScheduleCustomBackup(expr string, opts backup.RequestOptions) (string, error) {
	sched, err := s.parser.Parse(expr)
	if err != nil {
		return "", models.NewError(models.KindValidationFailed, fmt.Sprintf("invalid cron expression %q", expr), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.uniqueNameLocked(fmt.Sprintf("%s-%d", KindCustom, s.now().UnixMilli()))
	id := s.cron.Schedule(sched, cron.FuncJob(func() {
		s.runJob(KindCustom, name, opts)
	}))
	s.jobs[name] = &job{name: name, kind: KindCustom, spec: expr, entryID: id}
	metrics.SchedulerJobs.Set(float64(len(s.jobs)))

	logging.Info().Str("job", name).Str("cron", expr).Msg("Scheduled custom backup")
	return name, nil
}

// CancelJob removes a job. It reports false when no job has that name.
func (s *Scheduler) CancelJob(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return false
	}
	s.cancelLocked(j)
	delete(s.jobs, name)
	metrics.SchedulerJobs.Set(float64(len(s.jobs)))
	logging.Info().Str("job", name).Msg("Cancelled scheduled job")
	return true
}

// ScheduledJobs returns the registered job names, sorted.
func (s *Scheduler) ScheduledJobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status returns the running flag and every job with its next run time.
// Cron jobs report a zero Next until the runner is started.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := JobInfo{Name: j.name, Kind: j.kind, Spec: j.spec}
		if j.timer != nil {
			info.Next = j.at
		} else {
			info.Next = s.cron.Entry(j.entryID).Next
		}
		jobs = append(jobs, info)
	}
	sort.Slice(jobs, func(a, b int) bool { return jobs[a].Name < jobs[b].Name })

	return Status{Running: s.running, Jobs: jobs, JobCount: len(jobs)}
}

func (s *Scheduler) cancelLocked(j *job) {
	if j.timer != nil {
		j.timer.Stop()
		return
	}
	s.cron.Remove(j.entryID)
}

// uniqueNameLocked appends a counter when base is already registered.
func (s *Scheduler) uniqueNameLocked(base string) string {
	if _, taken := s.jobs[base]; !taken {
		return base
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s-%d", base, i)
		if _, taken := s.jobs[name]; !taken {
			return name
		}
	}
}

// fireOneTime runs a one-time job unless it was cancelled first.
func (s *Scheduler) fireOneTime(name string, opts backup.RequestOptions) {
	s.mu.Lock()
	if _, ok := s.jobs[name]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.jobs, name)
	metrics.SchedulerJobs.Set(float64(len(s.jobs)))
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	s.runJob(KindOneTime, name, opts)
}

func (s *Scheduler) runAutoBackup() {
	s.runJob(KindAuto, AutoBackupJob, backup.RequestOptions{Notes: autoBackupNotes})
}

// runJob creates one scheduled backup. Failures are logged and recorded as
// failed backups, never propagated.
func (s *Scheduler) runJob(kind, name string, opts backup.RequestOptions) {
	s.mu.Lock()
	ctx := s.jobCtx
	s.mu.Unlock()
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)

	log.Info().Str("job", name).Msg("Starting scheduled backup")

	err := s.createScheduled(ctx, opts)
	metrics.RecordSchedulerRun(kind, err)
	if err == nil {
		return
	}

	log.Error().Err(err).Str("job", name).Msg("Scheduled backup failed")
	if errors.Is(err, context.Canceled) {
		return
	}
	if _, recErr := s.runner.RecordFailure(ctx, models.BackupTypeScheduled, "Scheduled backup failed: "+err.Error()); recErr != nil {
		log.Error().Err(recErr).Str("job", name).Msg("Failed to record failed backup")
	}
}

func (s *Scheduler) createScheduled(ctx context.Context, opts backup.RequestOptions) error {
	settings, err := s.runner.Settings(ctx)
	if err != nil {
		return err
	}
	result, err := s.runner.CreateBackup(ctx, opts.Resolve(models.BackupTypeScheduled, settings))
	if err != nil {
		return err
	}
	logging.Ctx(ctx).Info().
		Str("backup_id", result.Record.ID).
		Str("file", result.Record.FileName).
		Int64("size_bytes", result.Record.FileSize).
		Msg("Scheduled backup completed")
	return nil
}
