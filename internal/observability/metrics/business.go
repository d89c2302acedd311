package metrics

import (
	"strconv"
	"time"
)

// Page outcomes recorded by the reconciler.
const (
	OutcomeEdited      = "edited"
	OutcomeCreated     = "created"
	OutcomeReplaced    = "replaced"
	OutcomePlaceholder = "placeholder"
	OutcomeAbandoned   = "abandoned"
)

// RecordFeedFetch records the result of fetching one feed.
func RecordFeedFetch(category, status string) {
	FeedFetchTotal.WithLabelValues(category, status).Inc()
}

// RecordFeedFetchDuration records how long one feed fetch took.
func RecordFeedFetchDuration(category string, duration time.Duration) {
	FeedFetchDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// SetFeedRecords records how many records the latest snapshot contained.
func SetFeedRecords(category string, count int) {
	FeedRecords.WithLabelValues(category).Set(float64(count))
}

// RecordDiscordRequest records one Discord API call. status is the HTTP
// status code, or 0 when the request never got a response.
func RecordDiscordRequest(method string, status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	DiscordRequestsTotal.WithLabelValues(method, label).Inc()
}

// RecordPageOutcome records the final outcome of one page.
func RecordPageOutcome(category, outcome string) {
	ReconcilePagesTotal.WithLabelValues(category, outcome).Inc()
}

// RecordRetry records one retried page attempt.
func RecordRetry(category, reason string) {
	ReconcileRetriesTotal.WithLabelValues(category, reason).Inc()
}

// SetLedgerSize records the current length of a ledger.
func SetLedgerSize(guild, category string, size int) {
	LedgerSize.WithLabelValues(guild, category).Set(float64(size))
}

// RecordCycleDuration records the duration of one publish cycle.
func RecordCycleDuration(duration time.Duration) {
	CycleDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records an admin API request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
