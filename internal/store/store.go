// Package store persists ArticleRecords in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"nhkeasy/internal/config"
	"nhkeasy/internal/logger"
	"nhkeasy/internal/models"
	"nhkeasy/pkg/utils"
)

// ErrPersistence wraps every failed read or write against the news table.
var ErrPersistence = errors.New("persistence error")

// Column limits of the news table, in characters.
const (
	MaxTitleLen         = 50
	MaxTitleWithRubyLen = 500
	MaxOutlineLen       = 1000
	MaxURLLen           = 200
	MaxImageURLLen      = 200
	MaxAudioURLLen      = 200
)

const (
	existsSQL = `SELECT 1 FROM news WHERE news_id = $1 LIMIT 1`

	insertSQL = `INSERT INTO news (
	news_id, title, title_with_ruby, outline, outline_with_ruby,
	url, body, body_without_html, image_url, m3u8url, published_at_utc
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	listSQL = `SELECT news_id, title, title_with_ruby, outline, outline_with_ruby,
	url, body, body_without_html, image_url, m3u8url, published_at_utc
FROM news
WHERE ($1::timestamp IS NULL OR published_at_utc >= $1)
  AND ($2::timestamp IS NULL OR published_at_utc <= $2)
ORDER BY published_at_utc DESC NULLS LAST`
)

// PgxIface is the subset of *pgxpool.Pool the store needs. pgxmock pools satisfy it.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Batch is one all-or-nothing unit of dedup checks and inserts.
type Batch interface {
	Exists(ctx context.Context, newsID string) (bool, error)
	Insert(ctx context.Context, record *models.ArticleRecord) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store reads and writes the news table.
type Store struct {
	pool   PgxIface
	logger *logger.Logger
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid dsn: %w", ErrPersistence, err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: ping: %w", ErrPersistence, err)
	}

	return pool, nil
}

// New creates a store on top of an open pool.
func New(pool PgxIface, log *logger.Logger) *Store {
	return &Store{pool: pool, logger: log}
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return nil
}

// Begin opens a transaction for one ingestion run.
func (s *Store) Begin(ctx context.Context) (Batch, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ErrPersistence, err)
	}

	return &txBatch{tx: tx, logger: s.logger}, nil
}

// ListPublishedBetween returns records published inside [start, end], newest
// first. A nil bound is open.
func (s *Store) ListPublishedBetween(ctx context.Context, start, end *time.Time) ([]models.ArticleRecord, error) {
	rows, err := s.pool.Query(ctx, listSQL, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrPersistence, err)
	}
	defer rows.Close()

	records := []models.ArticleRecord{}

	for rows.Next() {
		var (
			rec         models.ArticleRecord
			publishedAt *time.Time
		)

		if err := rows.Scan(
			&rec.NewsID, &rec.Title, &rec.TitleWithRuby, &rec.Outline, &rec.OutlineWithRuby,
			&rec.URL, &rec.Body, &rec.BodyWithoutHTML, &rec.ImageURL, &rec.AudioStreamURL, &publishedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrPersistence, err)
		}

		if publishedAt != nil {
			utc := publishedAt.UTC()
			rec.PublishedAtUTC = &utc
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", ErrPersistence, err)
	}

	return records, nil
}

// Truncate returns a copy of record with bounded columns cut to their limits.
func Truncate(record *models.ArticleRecord) models.ArticleRecord {
	out := *record
	out.Title = utils.TruncateRunes(out.Title, MaxTitleLen)
	out.TitleWithRuby = utils.TruncateRunes(out.TitleWithRuby, MaxTitleWithRubyLen)
	out.Outline = utils.TruncateRunes(out.Outline, MaxOutlineLen)
	out.URL = utils.TruncateRunes(out.URL, MaxURLLen)
	out.ImageURL = utils.TruncateRunes(out.ImageURL, MaxImageURLLen)
	out.AudioStreamURL = utils.TruncateRunes(out.AudioStreamURL, MaxAudioURLLen)

	return out
}

type txBatch struct {
	tx     pgx.Tx
	logger *logger.Logger
	closed bool
}

func (b *txBatch) Exists(ctx context.Context, newsID string) (bool, error) {
	var one int

	err := b.tx.QueryRow(ctx, existsSQL, newsID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("%w: exists %s: %w", ErrPersistence, newsID, err)
	}

	return true, nil
}

func (b *txBatch) Insert(ctx context.Context, record *models.ArticleRecord) error {
	rec := Truncate(record)

	_, err := b.tx.Exec(ctx, insertSQL,
		rec.NewsID, rec.Title, rec.TitleWithRuby, rec.Outline, rec.OutlineWithRuby,
		rec.URL, rec.Body, rec.BodyWithoutHTML, rec.ImageURL, rec.AudioStreamURL, rec.PublishedAtUTC,
	)
	if err != nil {
		return fmt.Errorf("%w: insert %s: %w", ErrPersistence, rec.NewsID, err)
	}

	return nil
}

func (b *txBatch) Commit(ctx context.Context) error {
	if b.closed {
		return fmt.Errorf("%w: %w", ErrPersistence, pgx.ErrTxClosed)
	}

	b.closed = true

	if err := b.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}

	return nil
}

// Rollback is a no-op once the batch has been committed or rolled back.
func (b *txBatch) Rollback(ctx context.Context) error {
	if b.closed {
		return nil
	}

	b.closed = true

	if err := b.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		b.logger.Warn("Error rolling back transaction", "error", err)

		return fmt.Errorf("%w: rollback: %w", ErrPersistence, err)
	}

	return nil
}
