package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"nhkeasy/internal/metrics"
	"nhkeasy/internal/models"
)

const dateOnlyLayout = "2006-01-02"

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "NHK Easy API",
		"version": serviceVersion,
		"endpoints": map[string]string{
			"news":    "GET /news?startDate=...&endDate=...",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
		"auth": "Required - X-API-Key header",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	database := "DOWN"
	if s.reader != nil && s.reader.Ping(c.Request().Context()) == nil {
		database = "UP"
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "UP",
		"service":  serviceName,
		"auth":     authState(s.cfg.APIKey),
		"database": database,
	})
}

func (s *Server) handleNews(c echo.Context) error {
	start, err := parseBound(c.QueryParam("startDate"), false)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid startDate: expected RFC 3339 or YYYY-MM-DD")
	}

	end, err := parseBound(c.QueryParam("endDate"), true)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid endDate: expected RFC 3339 or YYYY-MM-DD")
	}

	if start != nil && end != nil && end.Before(*start) {
		return echo.NewHTTPError(http.StatusBadRequest, "endDate is before startDate")
	}

	if s.reader == nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Database not configured")
	}

	records, err := s.reader.ListPublishedBetween(c.Request().Context(), start, end)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Database error").SetInternal(err)
	}

	if records == nil {
		records = []models.ArticleRecord{}
	}

	metrics.ArticlesServed.Add(float64(len(records)))

	return c.JSON(http.StatusOK, records)
}

// parseBound reads a window bound as RFC 3339 or a bare UTC date. A bare
// end date covers the whole day.
func parseBound(value string, end bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		utc := t.UTC()
		return &utc, nil
	}

	t, err := time.Parse(dateOnlyLayout, value)
	if err != nil {
		return nil, err
	}

	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return &t, nil
}
