// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ledgerkeep/internal/logging"
)

// cronLogger adapts zerolog to cron.Logger. Cron's info messages are
// noisy so they go to debug.
type cronLogger struct {
	logger zerolog.Logger
}

func newCronLogger() cronLogger {
	return cronLogger{logger: logging.WithComponent("cron")}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(pairs(keysAndValues)).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(pairs(keysAndValues)).Msg(msg)
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
