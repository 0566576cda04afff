// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

package main

import (
	"context"

	"github.com/tomtom215/ledgerkeep/internal/cloud"
	"github.com/tomtom215/ledgerkeep/internal/config"
	"github.com/tomtom215/ledgerkeep/internal/logging"
	"github.com/tomtom215/ledgerkeep/internal/models"
)

// cloudInitializer is the part of *cloud.Replicator used at startup.
type cloudInitializer interface {
	Initialize(ctx context.Context, cfg config.CloudConfig) error
	Providers() []string
}

// configureCloud (re)builds the cloud providers from the settings blob,
// falling back to the cloud section of the config file. With cloud storage
// disabled every provider is removed. Failures are logged and leave the
// previous providers in place.
func configureCloud(ctx context.Context, r cloudInitializer, settings models.BackupSettings, fallback config.CloudConfig) {
	if !settings.CloudStorageEnabled {
		if err := r.Initialize(ctx, config.CloudConfig{}); err != nil {
			logging.Error().Err(err).Msg("Failed to clear cloud providers")
			return
		}
		logging.Debug().Msg("Cloud storage disabled")
		return
	}

	cloudCfg, err := cloud.DecodeConfig(settings.CloudConfig, fallback)
	if err != nil {
		logging.Error().Err(err).Msg("Invalid cloud configuration in settings, keeping current providers")
		return
	}
	if cloudCfg.IsEmpty() {
		logging.Debug().Msg("No cloud providers configured")
	}
	if err := r.Initialize(ctx, cloudCfg); err != nil {
		logging.Error().Err(err).Msg("Failed to initialize cloud providers")
		return
	}
	logging.Info().Strs("providers", r.Providers()).Msg("Cloud providers initialized")
}
