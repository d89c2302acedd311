// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the application metrics:
//   - Feed fetch metrics (attempts by status, records parsed)
//   - Discord API metrics (requests by method and status)
//   - Reconciliation metrics (page outcomes, retry reasons, ledger sizes)
//   - HTTP metrics for the admin API
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "klist/internal/observability/metrics"
//
//	metrics.RecordFeedFetch("games", "success")
//	metrics.RecordPageOutcome("servers", metrics.OutcomeEdited)
package metrics
