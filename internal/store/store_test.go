package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhkeasy/internal/logger"
	"nhkeasy/internal/models"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return New(mock, logger.Discard()), mock
}

func TestBatch_Exists(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM news").
		WithArgs("k10012345").
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM news").
		WithArgs("k10099999").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	batch, err := s.Begin(ctx)
	require.NoError(t, err)

	found, err := batch.Exists(ctx, "k10012345")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = batch.Exists(ctx, "k10099999")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, batch.Rollback(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatch_ExistsQueryError(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM news").
		WithArgs("k1").
		WillReturnError(errors.New("connection reset"))

	batch, err := s.Begin(ctx)
	require.NoError(t, err)

	_, err = batch.Exists(ctx, "k1")
	require.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestBatch_InsertTruncatesAndCommits(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	published := time.Date(2025, 12, 1, 7, 0, 0, 0, time.UTC)
	longTitle := strings.Repeat("雪", 60)

	rec := &models.ArticleRecord{
		NewsID:          "k10012345",
		Title:           longTitle,
		TitleWithRuby:   "<ruby>雪<rt>ゆき</rt></ruby>",
		Outline:         "雪が降りました",
		OutlineWithRuby: "<ruby>雪<rt>ゆき</rt></ruby>が降りました",
		URL:             "https://news.web.nhk/news/easy/k10012345/k10012345.html",
		Body:            "<div id=\"js-article-body\"></div>",
		BodyWithoutHTML: "雪が降りました。",
		ImageURL:        "",
		AudioStreamURL:  "https://vod-stream.nhk.jp/news/easy_audio/k10012345_abc/index.m3u8",
		PublishedAtUTC:  &published,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO news").
		WithArgs(
			"k10012345", strings.Repeat("雪", MaxTitleLen), rec.TitleWithRuby, rec.Outline, rec.OutlineWithRuby,
			rec.URL, rec.Body, rec.BodyWithoutHTML, "", rec.AudioStreamURL, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	batch, err := s.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, batch.Insert(ctx, rec))
	require.NoError(t, batch.Commit(ctx))

	// Deferred rollback after commit must not reach the database
	require.NoError(t, batch.Rollback(ctx))

	// The caller's record is left untouched
	assert.Equal(t, longTitle, rec.Title)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatch_InsertFailure(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO news").
		WithArgs(
			"k1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	batch, err := s.Begin(ctx)
	require.NoError(t, err)

	err = batch.Insert(ctx, &models.ArticleRecord{NewsID: "k1"})
	require.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "duplicate key")

	require.NoError(t, batch.Rollback(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatch_CommitFailure(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	batch, err := s.Begin(ctx)
	require.NoError(t, err)

	require.ErrorIs(t, batch.Commit(ctx), ErrPersistence)
	require.ErrorIs(t, batch.Commit(ctx), pgx.ErrTxClosed)
}

func TestStore_BeginFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := s.Begin(context.Background())
	require.ErrorIs(t, err, ErrPersistence)
}

func TestStore_ListPublishedBetween(t *testing.T) {
	s, mock := newMockStore(t)

	start := time.Date(2025, 11, 30, 15, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 12, 1, 7, 0, 0, 0, time.UTC)

	columns := []string{
		"news_id", "title", "title_with_ruby", "outline", "outline_with_ruby",
		"url", "body", "body_without_html", "image_url", "m3u8url", "published_at_utc",
	}

	mock.ExpectQuery("SELECT news_id").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("k2", "雪", "", "", "", "u2", "<div></div>", "雪", "", "", &newer).
			AddRow("k1", "雨", "", "", "", "u1", "<div></div>", "雨", "", "", (*time.Time)(nil)))

	records, err := s.ListPublishedBetween(context.Background(), &start, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "k2", records[0].NewsID)
	require.NotNil(t, records[0].PublishedAtUTC)
	assert.True(t, newer.Equal(*records[0].PublishedAtUTC))
	assert.Nil(t, records[1].PublishedAtUTC)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListPublishedBetweenError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT news_id").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("relation \"news\" does not exist"))

	records, err := s.ListPublishedBetween(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "does not exist")
	assert.Nil(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Ping(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectPing()
	require.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	require.ErrorIs(t, s.Ping(context.Background()), ErrPersistence)
}

func TestTruncate(t *testing.T) {
	rec := &models.ArticleRecord{
		Title:          strings.Repeat("a", 51),
		Outline:        strings.Repeat("お", 1001),
		URL:            strings.Repeat("u", 200),
		ImageURL:       strings.Repeat("i", 250),
		AudioStreamURL: "short",
		Body:           strings.Repeat("b", 5000),
	}

	got := Truncate(rec)

	assert.Len(t, []rune(got.Title), MaxTitleLen)
	assert.Len(t, []rune(got.Outline), MaxOutlineLen)
	assert.Len(t, got.URL, MaxURLLen)
	assert.Len(t, got.ImageURL, MaxImageURLLen)
	assert.Equal(t, "short", got.AudioStreamURL)
	assert.Len(t, got.Body, 5000, "body is unbounded")
}

func TestStore_Migrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS news").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_MigrateFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	require.ErrorIs(t, s.Migrate(context.Background()), ErrPersistence)
}
