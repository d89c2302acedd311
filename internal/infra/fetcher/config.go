package fetcher

import (
	"fmt"
	"time"
)

// Config holds the configuration for feed fetching.
//
// Retry settings:
//   - MaxAttempts: total tries per Fetch, including the first
//   - RetryDelay: pause after a 503 or transport failure
//
// Safety settings:
//   - Timeout: per-request deadline
//   - MaxBodySize: responses larger than this are rejected
//   - BreakerTimeout: how long an open feed circuit rejects calls
type Config struct {
	// Timeout is the maximum duration for a single HTTP request.
	// Default: 15s
	Timeout time.Duration

	// MaxAttempts is the number of tries before the feed is reported unavailable.
	// Default: 5
	MaxAttempts int

	// RetryDelay is the constant pause between tries.
	// Default: 1s
	RetryDelay time.Duration

	// MaxBodySize is the maximum response body size in bytes.
	// Default: 4194304 (4MiB)
	MaxBodySize int64

	// UserAgent identifies the bot to the feed host.
	UserAgent string

	// BreakerTimeout is how long a tripped feed circuit stays open. Keep it
	// below the poll interval so every cycle reaches the feed again.
	// Default: 5s
	BreakerTimeout time.Duration
}

// DefaultConfig returns the default configuration for feed fetching.
func DefaultConfig() Config {
	return Config{
		Timeout:     15 * time.Second,
		MaxAttempts: 5,
		RetryDelay:  1 * time.Second,
		MaxBodySize: 4 * 1024 * 1024,
		UserAgent:   "klist/1.0",

		BreakerTimeout: 5 * time.Second,
	}
}

// Validate checks if the configuration values are usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxAttempts < 1 || c.MaxAttempts > 20 {
		return fmt.Errorf("max attempts must be between 1 and 20, got %d", c.MaxAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay must be non-negative, got %v", c.RetryDelay)
	}
	if c.BreakerTimeout <= 0 {
		return fmt.Errorf("breaker timeout must be positive, got %v", c.BreakerTimeout)
	}
	minBodySize := int64(1024)
	maxBodySize := int64(64 * 1024 * 1024)
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}
	return nil
}
