// Package metrics exposes Prometheus counters for the sync pipeline
// and the web surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snails_sync_runs_total",
			Help: "Total sync runs by outcome",
		},
		[]string{"outcome"}, // "ok" or "error"
	)

	ThreadsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snails_threads_processed_total",
			Help: "Threads fetched, summarized, and persisted",
		},
	)

	ThreadsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snails_threads_skipped_total",
			Help: "Threads skipped because no new messages were found",
		},
	)

	ThreadsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snails_threads_failed_total",
			Help: "Threads whose processing failed mid-cycle",
		},
	)

	SummaryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snails_summary_requests_total",
			Help: "Summarization calls by backend",
		},
		[]string{"backend"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snails_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"path", "status"},
	)
)
