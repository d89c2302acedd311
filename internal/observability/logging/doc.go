// Package logging provides structured logging utilities with context propagation.
//
// Loggers travel in the context: the cycle runner attaches a cycle_id, the
// admin handlers attach a request_id, and everything below picks the logger
// up with FromContext.
//
// Example usage:
//
//	logger := logging.NewLogger()
//	ctx = logging.WithLogger(ctx, logger.With(slog.String("cycle_id", id)))
//	logging.FromContext(ctx).Info("cycle started")
package logging
