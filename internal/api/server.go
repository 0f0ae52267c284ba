// Package api serves stored articles over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nhkeasy/internal/config"
	"nhkeasy/internal/logger"
	"nhkeasy/internal/models"
)

const (
	serviceName     = "nhk-easy-api"
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

// NewsReader is the read side of the article store.
type NewsReader interface {
	ListPublishedBetween(ctx context.Context, start, end *time.Time) ([]models.ArticleRecord, error)
	Ping(ctx context.Context) error
}

// Server is the read API.
type Server struct {
	echo   *echo.Echo
	reader NewsReader
	cfg    config.APIConfig
	logger *logger.Logger
}

// NewServer wires routes and middleware. reader may be nil, in which case
// the database is reported DOWN and /news fails.
func NewServer(cfg config.APIConfig, reader NewsReader, log *logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, reader: reader, cfg: cfg, logger: log}

	e.HTTPErrorHandler = s.handleError
	e.Use(requestMetrics(), requestLogger(log))

	e.GET("/", s.handleRoot)
	e.GET("/health", s.handleHealth)
	e.GET("/news", s.handleNews, apiKeyAuth(cfg.APIKey))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)

		s.logger.Info("API listening", "addr", s.cfg.Addr, "auth", authState(s.cfg.APIKey))

		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}

func authState(apiKey string) string {
	if apiKey == "" {
		return "disabled"
	}

	return "enabled"
}
