package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track admin API request patterns
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Business metrics track feed publishing
var (
	// FeedFetchTotal counts feed fetches by category and status
	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klist_feed_fetch_total",
			Help: "Total number of feed fetches",
		},
		[]string{"category", "status"}, // status: success, unavailable
	)

	// FeedFetchDuration measures time to fetch a feed including retries
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "klist_feed_fetch_duration_seconds",
			Help:    "Time taken to fetch a feed",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"category"},
	)

	// FeedRecords tracks the number of records parsed from the last fetch
	FeedRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "klist_feed_records",
			Help: "Number of records parsed from the latest feed snapshot",
		},
		[]string{"category"},
	)

	// DiscordRequestsTotal counts Discord REST calls by method and status code
	DiscordRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klist_discord_requests_total",
			Help: "Total number of Discord API requests",
		},
		[]string{"method", "status"},
	)

	// ReconcilePagesTotal counts page outcomes
	ReconcilePagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klist_reconcile_pages_total",
			Help: "Total number of reconciled pages by outcome",
		},
		[]string{"category", "outcome"},
	)

	// ReconcileRetriesTotal counts page retries by reason
	ReconcileRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "klist_reconcile_retries_total",
			Help: "Total number of page retries by reason",
		},
		[]string{"category", "reason"}, // reason: rate_limited, transient
	)

	// LedgerSize tracks the number of messages in each category ledger
	LedgerSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "klist_ledger_size",
			Help: "Number of message ids recorded per guild and category",
		},
		[]string{"guild", "category"},
	)

	// CycleDuration measures one full publish cycle
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "klist_cycle_duration_seconds",
			Help:    "Duration of a publish cycle",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
)
