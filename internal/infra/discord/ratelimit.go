package discord

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket shared by every call made through a Client.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing requestsPerSecond sustained
// requests with the given burst.
//
// Example:
//
//	limiter := NewRateLimiter(10, 10)  // 10 req/s
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a token is available or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
