// Package fetcher retrieves the raw game and server listings over HTTP.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"klist/internal/domain/entity"
	"klist/internal/resilience/circuitbreaker"
	"klist/internal/resilience/retry"
)

// errBodyTooLarge is returned when a feed response exceeds Config.MaxBodySize.
var errBodyTooLarge = errors.New("response body too large")

// Client fetches feed documents. Each feed URL gets its own circuit breaker
// so a dead games endpoint does not block the servers endpoint.
//
// Thread safety: Client is safe for concurrent use.
type Client struct {
	http   *http.Client
	config Config

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker
}

// NewClient creates a feed client. Invalid configuration falls back to defaults.
func NewClient(cfg Config) *Client {
	if err := cfg.Validate(); err != nil {
		slog.Warn("invalid fetcher config, using defaults", slog.Any("error", err))
		cfg = DefaultConfig()
	}
	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		config:   cfg,
		breakers: make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

// Fetch returns the body of the feed at rawURL.
//
// HTTP 503 and transport failures are retried after Config.RetryDelay, up to
// Config.MaxAttempts tries. Any other non-200 status fails at once. Every
// failure wraps entity.ErrFeedUnavailable.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := entity.ValidateURL(rawURL); err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrFeedUnavailable, err)
	}

	cb := c.breaker(rawURL)
	result, err := cb.Execute(func() (interface{}, error) {
		var body string
		policy := retry.FeedFetchConfig()
		policy.MaxAttempts = c.config.MaxAttempts
		policy.InitialDelay = c.config.RetryDelay
		policy.MaxDelay = c.config.RetryDelay
		err := retry.WithBackoff(ctx, policy, func() error {
			b, err := c.get(ctx, rawURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
		return body, err
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			slog.Warn("feed circuit open, skipping fetch",
				slog.String("url", rawURL),
				slog.String("circuit", cb.Name()))
		}
		return "", fmt.Errorf("%w: %s: %w", entity.ErrFeedUnavailable, rawURL, err)
	}

	return result.(string), nil
}

func (c *Client) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if int64(len(data)) > c.config.MaxBodySize {
		return "", &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%v: limit %d bytes", errBodyTooLarge, c.config.MaxBodySize),
		}
	}

	return string(data), nil
}

func (c *Client) breaker(rawURL string) *circuitbreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[rawURL]; ok {
		return cb
	}
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Host + path.Clean("/"+u.Path)
	}
	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig(name, c.config.BreakerTimeout))
	c.breakers[rawURL] = cb
	return cb
}
