// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created through the global otel tracer provider; without an
// exporter configured they are no-ops. The worker opens a span per cycle
// (publish.cycle) and per ledger (reconcile.ledger); the admin server wraps
// its handlers with Middleware.
package tracing
