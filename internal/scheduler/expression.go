// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package scheduler

import (
	"fmt"
	"math"
)

// HoursToSchedule converts a backup frequency in hours to a 5-field cron
// expression:
//
//	hours < 1        * * * * *          every minute
//	hours == 1       0 * * * *          hourly
//	1 < hours < 24   0 */h * * *        every h hours, h truncated
//	hours == 24      0 0 * * *          daily at midnight
//	hours > 24       0 0 */d * *        every d = floor(hours/24) days
func HoursToSchedule(hours float64) string {
	switch {
	case hours < 1:
		return "* * * * *"
	case hours == 1:
		return "0 * * * *"
	case hours < 24:
		return fmt.Sprintf("0 */%d * * *", int(hours))
	case hours == 24:
		return "0 0 * * *"
	default:
		return fmt.Sprintf("0 0 */%d * *", int(math.Floor(hours/24)))
	}
}

// IntervalWarning describes how the cron expression for hours deviates from
// the requested frequency, or returns "" when it matches.
func IntervalWarning(hours float64) string {
	switch {
	case hours > 24 && math.Mod(hours, 24) != 0:
		days := int(math.Floor(hours / 24))
		return fmt.Sprintf("backup frequency of %g hours is not a whole number of days, backups will run every %d day(s)", hours, days)
	case hours > 1 && hours < 24 && hours != math.Trunc(hours):
		return fmt.Sprintf("backup frequency of %g hours is fractional, backups will run every %d hour(s)", hours, int(hours))
	case hours < 1:
		return fmt.Sprintf("backup frequency of %g hours is below one hour, backups will run every minute", hours)
	}
	return ""
}
