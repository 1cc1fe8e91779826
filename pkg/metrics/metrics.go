package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestedRecords counts batch ingestion outcomes per result (saved|skipped).
	IngestedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comunicahub_ingested_records_total",
			Help: "Total number of processed ingestion records",
		},
		[]string{"result"},
	)

	// IngestionBatches counts completed ingestion batches.
	IngestionBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comunicahub_ingestion_batches_total",
			Help: "Total number of completed ingestion batches",
		},
	)

	// MatcherLookups counts registry matcher resolutions by tier
	// (cache|remote|miss) and target (process|client).
	MatcherLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comunicahub_matcher_lookups_total",
			Help: "Total number of registry matcher lookups",
		},
		[]string{"target", "tier"},
	)

	// FeedBuildDuration measures how long a full feed aggregation takes.
	FeedBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comunicahub_feed_build_seconds",
			Help:    "Notification feed aggregation duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "comunicahub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
