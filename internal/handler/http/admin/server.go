package admin

import (
	"log/slog"
	"net/http"

	httpmw "klist/internal/handler/http"
	"klist/internal/handler/http/requestid"
	"klist/internal/observability/tracing"
)

const maxBodyBytes = 4 << 10

// ServerConfig holds the settings of the admin HTTP stack.
type ServerConfig struct {
	// Token is the bearer token; empty disables authentication.
	Token string
	// RequestsPerMinute and Burst throttle each client IP.
	RequestsPerMinute float64
	Burst             int
}

// NewServer wraps h's routes in the admin middleware stack. Middleware
// below tracing must not replace the request, or the matched route pattern
// is lost to logging and spans.
func NewServer(h *Handler, cfg ServerConfig, logger *slog.Logger) http.Handler {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	limiter := httpmw.NewRateLimiter(cfg.RequestsPerMinute, cfg.Burst)

	return httpmw.Chain(h.Routes(),
		requestid.Middleware,
		tracing.Middleware,
		httpmw.Logging(logger),
		httpmw.Recover(logger),
		limiter.Limit,
		BearerAuth(cfg.Token),
		httpmw.LimitRequestBody(maxBodyBytes),
	)
}
