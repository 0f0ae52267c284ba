// Package metrics holds the Prometheus collectors shared by the pipeline and the read API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts upstream calls by kind (auth, catalog, article) and status.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhk_upstream_requests_total",
			Help: "Total number of requests sent to the upstream news site",
		},
		[]string{"kind", "status"},
	)

	// ArticlesProcessed counts per-article outcomes of ingestion runs.
	ArticlesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhk_articles_processed_total",
			Help: "Total number of catalog articles processed, by outcome",
		},
		[]string{"outcome"},
	)

	// RunsTotal counts ingestion runs by final state.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nhk_ingestion_runs_total",
			Help: "Total number of ingestion runs, by final state",
		},
		[]string{"state", "dry_run"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ArticlesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nhk_articles_served_total",
			Help: "Total number of articles returned by the news endpoint",
		},
	)
)
