package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nhkeasy/internal/config"
	"nhkeasy/internal/crawler"
	"nhkeasy/internal/logger"
	"nhkeasy/internal/pipeline"
	"nhkeasy/internal/store"
)

func newBackfillCmd(root *rootOptions) *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fetch catalog articles for a date range and store the new ones",
		Long: `backfill authenticates with NHK, lists the Easy News catalog and stores every
article in the requested range that is not already in the database. All
inserts are committed together at the end of the run.

Specify either --days or both --start-date and --end-date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBackfill(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start-date", "", "First catalog date to ingest (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.End, "end-date", "", "Last catalog date to ingest (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.DaysBack, "days", 0, "Number of days back from today (JST) to ingest")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Fetch and normalize without writing to the database")

	return cmd
}

func runBackfill(cmd *cobra.Command, root *rootOptions, opts pipeline.Options) error {
	cfg, log, err := root.load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🚀 NHK Easy News Backfill")
	fmt.Fprintln(out)

	var storage pipeline.Storage

	switch {
	case cfg.Database.DSN != "":
		st, err := openStore(ctx, cfg.Database, log)
		if err != nil {
			fmt.Fprint(out, failedSummary(opts).Report())

			return err
		}
		defer st.Close()

		storage = st
	case !opts.DryRun:
		fmt.Fprint(out, failedSummary(opts).Report())

		return fmt.Errorf("%w: set DATABASE_URL or database.dsn", pipeline.ErrStoreRequired)
	default:
		log.Warn("No database configured, every article counts as new")
	}

	runner := pipeline.NewRunner(crawler.NewClient(cfg, log), storage, log)

	sum, runErr := runner.Run(ctx, opts)
	fmt.Fprint(out, sum.Report())

	return runErr
}

// failedSummary reports a run that stopped before the runner started.
func failedSummary(opts pipeline.Options) *pipeline.Summary {
	start, end, _ := opts.Range()

	return &pipeline.Summary{Start: start, End: end, State: pipeline.StateFailed, DryRun: opts.DryRun}
}

func openStore(ctx context.Context, db config.DatabaseConfig, log *logger.Logger) (*store.Store, error) {
	log.Debug("Connecting to database", "max_conns", db.MaxConns)

	pool, err := store.Connect(ctx, db)
	if err != nil {
		return nil, err
	}

	log.Info("Connected to database")

	return store.New(pool, log), nil
}
