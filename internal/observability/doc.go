// Package observability groups the worker's logging, Prometheus metrics and
// OpenTelemetry tracing helpers.
//
// Subpackages:
//   - logging: slog loggers and context propagation
//   - metrics: Prometheus collectors for feeds, reconciliation and HTTP
//   - tracing: OpenTelemetry spans for cycles, ledgers and admin requests
package observability
