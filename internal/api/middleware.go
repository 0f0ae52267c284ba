package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"nhkeasy/internal/logger"
	"nhkeasy/internal/metrics"
)

const apiKeyHeader = "X-API-Key"

// apiKeyAuth rejects requests without the configured key. An empty key
// leaves the route open.
func apiKeyAuth(apiKey string) echo.MiddlewareFunc {
	key := []byte(apiKey)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(key) == 0 {
				return next(c)
			}

			provided := []byte(c.Request().Header.Get(apiKeyHeader))
			if len(provided) == 0 || subtle.ConstantTimeCompare(provided, key) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or missing API key")
			}

			return next(c)
		}
	}
}

func requestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			method := c.Request().Method
			metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusOf(c, err))).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			log.Debug("HTTP request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", statusOf(c, err),
				"duration", time.Since(start),
			)

			return err
		}
	}
}

// statusOf returns the status the error handler will write for err.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}

	return http.StatusInternalServerError
}

// handleError renders every error as {"detail": message}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", c.Path(), "status", code, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"detail": detail})
	}

	if err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
