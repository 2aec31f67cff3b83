// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Archive downloads by source and result (hit, miss, remote_hit, error).
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firds_fetch_total",
			Help: "Archive fetches by source and result.",
		},
		[]string{"source", "result"},
	)

	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firds_fetch_retries_total",
			Help: "Transient failures retried, by operation.",
		},
		[]string{"op"},
	)

	// Download time for cache misses.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firds_fetch_duration_seconds",
			Help:    "Duration of archive downloads in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms → ~7min
		},
		[]string{"source"},
	)

	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firds_records_total",
			Help: "Records processed, by outcome (ingested or rejected) and kind.",
		},
		[]string{"outcome", "kind"},
	)

	FilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firds_files_total",
			Help: "Files processed, by file type and final status.",
		},
		[]string{"file_type", "status"},
	)

	FileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firds_file_duration_seconds",
			Help:    "Wall time to process one file end to end.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		},
		[]string{"file_type"},
	)
)

// ObserveDuration records the time elapsed since start on a histogram.
func ObserveDuration(h *prometheus.HistogramVec, start time.Time, labels ...string) {
	h.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
}

func IncFetch(source, result string) {
	FetchTotal.WithLabelValues(source, result).Inc()
}

func IncRetry(op string) {
	FetchRetries.WithLabelValues(op).Inc()
}

func IncRecord(outcome, kind string) {
	RecordsTotal.WithLabelValues(outcome, kind).Inc()
}

func IncFile(fileType, status string) {
	FilesTotal.WithLabelValues(fileType, status).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
