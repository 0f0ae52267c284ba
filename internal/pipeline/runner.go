// Package pipeline drives one ingestion run: authenticate, list, dedup,
// fetch, persist and commit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"nhkeasy/internal/crawler"
	"nhkeasy/internal/formatter"
	"nhkeasy/internal/logger"
	"nhkeasy/internal/metrics"
	"nhkeasy/internal/models"
	"nhkeasy/internal/store"
)

const titlePreviewWidth = 40

// Source is the upstream side of a run.
type Source interface {
	NewSession() (*crawler.Session, error)
	ListArticles(ctx context.Context, s *crawler.Session) (models.Catalog, error)
	FetchArticle(ctx context.Context, s *crawler.Session, meta models.ArticleMeta) (*models.ArticleRecord, error)
}

// Storage opens the transaction a run writes through.
type Storage interface {
	Begin(ctx context.Context) (store.Batch, error)
}

// Runner executes ingestion runs. Runs are sequential; a Runner must not
// execute two runs at once.
type Runner struct {
	source  Source
	storage Storage
	logger  *logger.Logger
}

// NewRunner creates a runner. storage may be nil for dry runs.
func NewRunner(source Source, storage Storage, log *logger.Logger) *Runner {
	return &Runner{source: source, storage: storage, logger: log}
}

// Run ingests every catalog article listed in the requested date range.
// The returned summary is never nil.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	started := time.Now()
	sum := &Summary{State: StateIdle, DryRun: opts.DryRun}

	defer func() {
		sum.Duration = time.Since(started)
		metrics.RunsTotal.WithLabelValues(sum.State.String(), strconv.FormatBool(sum.DryRun)).Inc()
	}()

	err := r.run(ctx, opts, sum)
	if err != nil {
		sum.State = StateFailed
		r.logger.Error("Run failed", "error", err, "total", sum.Total, "new", sum.New)

		return sum, err
	}

	sum.State = StateDone
	r.logger.Info("Run complete",
		"total", sum.Total, "new", sum.New, "skipped", sum.Skipped, "failed", sum.Failed, "dry_run", sum.DryRun)

	return sum, nil
}

func (r *Runner) run(ctx context.Context, opts Options, sum *Summary) error {
	start, end, err := opts.Range()
	if err != nil {
		return err
	}

	sum.Start, sum.End = start, end

	if r.storage == nil && !opts.DryRun {
		return ErrStoreRequired
	}

	log := r.logger.With("start", start, "end", end, "dry_run", opts.DryRun)
	log.Info("Starting run")

	session, err := r.source.NewSession()
	if err != nil {
		return err
	}

	sum.State = StateAuthenticating

	if err := session.Authenticate(ctx); err != nil {
		return err
	}

	sum.State = StateListing

	catalog, err := r.source.ListArticles(ctx, session)
	if err != nil {
		return err
	}

	dates := catalog.InRange(start, end)
	r.logger.Info("Catalog listed",
		"available_dates", len(catalog), "matching_dates", len(dates), "articles", catalog.ArticleCount(dates))

	if len(dates) == 0 {
		if all := catalog.Dates(); len(all) > 0 {
			r.logger.Warn("No dates found in the requested range", "first", all[0], "last", all[len(all)-1])
		}

		return fmt.Errorf("%w: %s to %s", ErrNoDatesInRange, start, end)
	}

	var batch store.Batch

	if r.storage != nil {
		batch, err = r.storage.Begin(ctx)
		if err != nil {
			return err
		}

		// Rollback is a no-op after a successful commit
		defer func() {
			if rbErr := batch.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				r.logger.Warn("Rollback failed", "error", rbErr)
			}
		}()
	}

	sum.State = StateFetching

	for _, date := range dates {
		articles := catalog[date]
		stats := DateStats{Date: date, Listed: len(articles)}

		r.logger.Info("Processing date", "date", date, "articles", len(articles))

		for _, meta := range articles {
			outcome, err := r.processArticle(ctx, session, batch, meta, opts.DryRun)
			if err != nil {
				sum.Dates = append(sum.Dates, stats)

				return err
			}

			sum.Total++
			sum.record(&stats, outcome)
			metrics.ArticlesProcessed.WithLabelValues(outcome.String()).Inc()
		}

		sum.Dates = append(sum.Dates, stats)
	}

	if opts.DryRun {
		return nil
	}

	sum.State = StateCommitting

	return batch.Commit(ctx)
}

func (r *Runner) processArticle(
	ctx context.Context,
	session *crawler.Session,
	batch store.Batch,
	meta models.ArticleMeta,
	dryRun bool,
) (Outcome, error) {
	title := formatter.Preview(meta.Title, titlePreviewWidth)

	if batch != nil {
		exists, err := batch.Exists(ctx, meta.NewsID)
		if err != nil {
			return 0, err
		}

		if exists {
			r.logger.Debug("Skipping existing article", "news_id", meta.NewsID, "title", title)

			return OutcomeSkippedDuplicate, nil
		}
	}

	r.logger.Debug("Fetching article", "news_id", meta.NewsID, "title", title)

	record, err := r.source.FetchArticle(ctx, session, meta)
	if err != nil {
		if errors.Is(err, crawler.ErrArticleSkipped) {
			r.logger.Warn("Failed to fetch article", "news_id", meta.NewsID, "error", err)

			return OutcomeSkippedFetchFailure, nil
		}

		return 0, err
	}

	if dryRun {
		r.logger.Info("Would insert", "news_id", record.NewsID, "title", title)

		return OutcomeInserted, nil
	}

	if err := batch.Insert(ctx, record); err != nil {
		return 0, err
	}

	r.logger.Info("Inserted", "news_id", record.NewsID, "title", title)

	return OutcomeInserted, nil
}
