// Package crawler talks to the upstream news site: session authentication,
// the date-indexed news list and individual article pages.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"nhkeasy/internal/config"
	"nhkeasy/internal/logger"
	"nhkeasy/internal/metrics"
	"nhkeasy/internal/models"
	"nhkeasy/internal/normalizer"
)

// ErrArticleSkipped marks a recoverable per-article failure.
var ErrArticleSkipped = errors.New("article skipped")

// Client lists and fetches articles through an explicit Session.
type Client struct {
	cfg       *config.Config
	processor *normalizer.Processor
	logger    *logger.Logger
}

// NewClient creates a new crawler client.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		cfg:       cfg,
		processor: normalizer.NewProcessor(cfg.Upstream, log),
		logger:    log,
	}
}

// NewSession creates a fresh, unauthenticated session for one run.
func (c *Client) NewSession() (*Session, error) {
	return NewSession(c.cfg, c.logger)
}

// ListArticles fetches the date-indexed news list.
func (c *Client) ListArticles(ctx context.Context, s *Session) (models.Catalog, error) {
	c.logger.Info("Fetching news list", "url", c.cfg.Upstream.NewsListURL)

	resp, err := s.Get(ctx, c.cfg.Upstream.NewsListURL)
	if err != nil {
		if errors.Is(err, ErrAuthentication) {
			return nil, err
		}

		metrics.UpstreamRequests.WithLabelValues("catalog", "error").Inc()

		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}

	metrics.UpstreamRequests.WithLabelValues("catalog", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w: %d", ErrCatalogFetch, ErrUnexpectedStatusCode, resp.StatusCode)
	}

	return ParseCatalog(resp.Body)
}

// FetchArticle fetches and normalizes one article. Per-article failures
// (bad status, missing body, invalid entry) are returned wrapped in
// ErrArticleSkipped with a nil record; authentication failures are not.
func (c *Client) FetchArticle(ctx context.Context, s *Session, meta models.ArticleMeta) (*models.ArticleRecord, error) {
	if err := c.processor.Validate(meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArticleSkipped, err)
	}

	articleURL := c.cfg.Upstream.ArticleURL(meta.NewsID)

	resp, err := s.Get(ctx, articleURL)
	if err != nil {
		if errors.Is(err, ErrAuthentication) || ctx.Err() != nil {
			return nil, err
		}

		metrics.UpstreamRequests.WithLabelValues("article", "error").Inc()

		return nil, fmt.Errorf("%w: %w", ErrArticleSkipped, err)
	}

	metrics.UpstreamRequests.WithLabelValues("article", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w: %d", ErrArticleSkipped, ErrUnexpectedStatusCode, resp.StatusCode)
	}

	record, err := c.processor.Process(meta, string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArticleSkipped, err)
	}

	return record, nil
}
