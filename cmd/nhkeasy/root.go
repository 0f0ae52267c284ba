package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nhkeasy/internal/config"
	"nhkeasy/internal/logger"
)

const defaultConfigPath = "configs/nhkeasy.yaml"

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "nhkeasy",
		Short: "NHK Easy News ingestion pipeline",
		Long: `nhkeasy backfills NHK News Web Easy articles into PostgreSQL and serves
them through a small read API.

Example usage:
  nhkeasy backfill --days 7                 # Last week, up to today in JST
  nhkeasy backfill --start-date 2025-12-01 --end-date 2025-12-03 --dry-run
  nhkeasy serve --addr :8000                # Read API with /news and /health`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to YAML configuration file (default "+defaultConfigPath+" if present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging level (debug, info, warn, error)")

	cmd.AddCommand(newBackfillCmd(opts), newServeCmd(opts), newMigrateCmd(opts))

	return cmd
}

// load resolves the configuration file and builds the logger.
func (o *rootOptions) load() (*config.Config, *logger.Logger, error) {
	path := o.configFile
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	if o.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(o.logLevel)
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}

		log.SetLevel(cfg.Logging.Level)
	}
	log.Debug("Configuration loaded", "path", path, "config", cfg.String())

	return cfg, log, nil
}
