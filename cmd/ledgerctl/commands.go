// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ledgerkeep/internal/backup"
	"github.com/tomtom215/ledgerkeep/internal/models"
	"github.com/tomtom215/ledgerkeep/internal/scheduler"
)

func newRootCommand(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Ledgerkeep operator CLI",
		Long:          "ledgerctl creates, lists, verifies and restores ledger backups directly against the catalog and ledger files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "Path to config file (overrides CONFIG_PATH)")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Verbose log output on stderr")

	root.AddCommand(newCreateCommand(rt))
	root.AddCommand(newListCommand(rt))
	root.AddCommand(newVerifyCommand(rt))
	root.AddCommand(newRestoreCommand(rt))
	root.AddCommand(newCleanupCommand(rt))
	root.AddCommand(newStatsCommand(rt))
	root.AddCommand(newSchedulePreviewCommand(rt))
	root.SetOut(rt.out)
	return root
}

func newCreateCommand(rt *runtime) *cobra.Command {
	var (
		notes    string
		compress bool
		encrypt  bool
		key      string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a manual backup of the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := backup.RequestOptions{Notes: notes, EncryptionKey: key}
			if cmd.Flags().Changed("compress") {
				opts.Compress = &compress
			}
			if cmd.Flags().Changed("encrypt") {
				opts.Encrypt = &encrypt
			}

			return rt.withService(cmd.Context(), func(svc backupService) error {
				settings, err := svc.Settings(cmd.Context())
				if err != nil {
					return err
				}
				res, err := svc.CreateBackup(cmd.Context(), opts.Resolve(models.BackupTypeManual, settings))
				if err != nil {
					return err
				}
				return rt.printJSON(res)
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes stored with the backup")
	cmd.Flags().BoolVar(&compress, "compress", true, "Gzip the artifact (defaults to the stored setting)")
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "Encrypt the artifact (defaults to the stored setting)")
	cmd.Flags().StringVar(&key, "key", "", "Encryption passphrase (defaults to the stored key)")
	return cmd
}

func newListCommand(rt *runtime) *cobra.Command {
	var (
		backupType string
		status     string
		page       int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := backup.ListOptions{
				Page:   page,
				Limit:  limit,
				Type:   models.BackupType(backupType),
				Status: models.BackupStatus(status),
			}
			if opts.Type != "" && !opts.Type.Valid() {
				return fmt.Errorf("invalid --type %q (manual, auto, scheduled)", backupType)
			}
			if opts.Status != "" && !opts.Status.Valid() {
				return fmt.Errorf("invalid --status %q (completed, failed)", status)
			}

			return rt.withService(cmd.Context(), func(svc backupService) error {
				res, err := svc.ListBackups(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return rt.printJSON(res)
			})
		},
	}

	cmd.Flags().StringVar(&backupType, "type", "", "Filter by backup type")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", backup.DefaultPageLimit, "Records per page")
	return cmd
}

func newVerifyCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Re-hash a backup artifact and compare it with the stored checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withService(cmd.Context(), func(svc backupService) error {
				res, err := svc.VerifyBackup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := rt.printJSON(res); err != nil {
					return err
				}
				if !res.Valid {
					return fmt.Errorf("backup %s failed verification", args[0])
				}
				return nil
			})
		},
	}
}

func newRestoreCommand(rt *runtime) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the live ledger with a backup",
		Long:  "Verify the backup, take the ledger offline, swap in the restored file and bring the ledger back online",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withService(cmd.Context(), func(svc backupService) error {
				res, err := svc.RestoreBackup(cmd.Context(), args[0], key)
				if err != nil {
					return err
				}
				return rt.printJSON(res)
			})
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Decryption passphrase (defaults to the stored key)")
	return cmd
}

func newCleanupCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Apply the retention policies now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withService(cmd.Context(), func(svc backupService) error {
				report, err := svc.RunCleanup(cmd.Context())
				if err != nil {
					return err
				}
				return rt.printJSON(struct {
					*backup.CleanupReport
					TotalDeleted int `json:"total_deleted"`
				}{report, report.TotalDeleted()})
			})
		},
	}
}

func newStatsCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate backup statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withService(cmd.Context(), func(svc backupService) error {
				stats, err := svc.GetBackupStats(cmd.Context())
				if err != nil {
					return err
				}
				return rt.printJSON(stats)
			})
		},
	}
}

// schedulePreview is the output of schedule-preview.
type schedulePreview struct {
	Hours      float64 `json:"hours"`
	Expression string  `json:"expression"`
	Warning    string  `json:"warning,omitempty"`
}

func newSchedulePreviewCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule-preview <hours>",
		Short: "Print the cron expression used for a backup frequency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := strconv.ParseFloat(args[0], 64)
			if err != nil || hours <= 0 {
				return fmt.Errorf("hours must be a positive number, got %q", args[0])
			}
			return rt.printJSON(schedulePreview{
				Hours:      hours,
				Expression: scheduler.HoursToSchedule(hours),
				Warning:    scheduler.IntervalWarning(hours),
			})
		},
	}
}
