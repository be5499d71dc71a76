// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollCycles          prometheus.Counter
	FetchErrors         prometheus.Counter
	EntriesExtracted    prometheus.Counter
	EntriesSkipped      prometheus.Counter
	EntriesStale        prometheus.Counter
	EntriesDuplicate    prometheus.Counter
	EntriesFiltered     prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	CoverLookupErrors   prometheus.Counter

	// Histograms (seconds)
	FetchDuration prometheus.Observer
	CycleDuration prometheus.Observer

	// Gauges
	WatchedUsersGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "playfeed_poll_cycles_total", Help: "Number of poll cycles run"})
		FetchErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "playfeed_fetch_errors_total", Help: "Number of activity feed fetches that failed"})
		EntriesExtracted = promauto.NewCounter(prometheus.CounterOpts{Name: "playfeed_entries_extracted_total", Help: "Number of activity rows extracted successfully"})
		EntriesSkipped = promauto.NewCounter(prometheus.CounterOpts{Name: "playfeed_entries_skipped_total", Help: "Number of activity rows dropped for missing required fields"})
		EntriesStale = promauto.NewCounter(prometheus.CounterOpts{Name: "playfeed_entries_stale_total", Help: "Number of entries outside the freshness window"})
		EntriesDuplicate = promauto.NewCounter(prometheus.CounterOpts{Name: "playfeed_entries_duplicate_total", Help: "Number of entries collapsed by in-batch dedup"})
		EntriesFiltered = promauto.NewCounter(prometheus.CounterOpts{Name: "playfeed_entries_filtered_total", Help: "Number of entries dropped by status policy"})
		NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "playfeed_notifications_sent_total", Help: "Number of notifications delivered"})
		NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "playfeed_notifications_failed_total", Help: "Number of notification deliveries that failed"})
		CoverLookupErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "playfeed_cover_lookup_errors_total", Help: "Number of cover art lookups that failed"})
		FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "playfeed_fetch_duration_seconds", Help: "Activity feed fetch duration seconds", Buckets: prometheus.DefBuckets})
		CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "playfeed_cycle_duration_seconds", Help: "Total poll cycle duration seconds", Buckets: prometheus.DefBuckets})
		WatchedUsersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "playfeed_watched_users", Help: "Number of usernames being polled"})
	})
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
