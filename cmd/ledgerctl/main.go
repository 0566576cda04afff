// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Command ledgerctl is the operator CLI for Ledgerkeep. It opens the backup
// catalog and the ledger file directly, so the server should be stopped
// before running restore or cleanup against the same data directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand(newRuntime(os.Stdout)).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
