// Package discord is a small Discord REST client covering the message
// operations the publisher needs: fetch, send, edit and delete.
//
// Every request goes through one shared token bucket. Responses are mapped
// onto typed errors so callers can tell rate limits, missing messages and
// transient failures apart.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"klist/internal/domain/entity"
	"klist/internal/observability/metrics"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is the Discord REST API root.
	DefaultBaseURL = "https://discord.com/api/v10"

	userAgent = "DiscordBot (https://github.com/klist/klist, 1.0)"

	// defaultRetryAfter is used when a 429 carries no usable delay.
	defaultRetryAfter = time.Second

	maxErrorBody = 64 << 10
)

// Config contains configuration for the Discord REST client.
type Config struct {
	// Token is the bot token, sent as "Bot <token>".
	Token string

	// BaseURL overrides DefaultBaseURL, mainly for tests.
	BaseURL string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration

	// RequestsPerSecond caps the request rate across all callers.
	RequestsPerSecond float64

	// Burst is the token bucket size.
	Burst int
}

// Client calls the Discord REST API. It is safe for concurrent use and is
// meant to be shared process-wide so the rate limit is global.
type Client struct {
	config      Config
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewClient creates a Client. Zero values fall back to a 10s timeout and
// 10 requests per second.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 10
	}
	if config.Burst <= 0 {
		config.Burst = int(config.RequestsPerSecond)
	}

	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(config.RequestsPerSecond, config.Burst),
	}
}

// FetchMessage retrieves a message. It returns an error wrapping
// entity.ErrMessageNotFound when the message no longer exists.
func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*entity.Message, error) {
	var msg entity.Message
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	if err := c.do(ctx, http.MethodGet, path, true, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendMessage posts a new message with the given payload.
func (c *Client) SendMessage(ctx context.Context, channelID string, payload entity.Payload) (*entity.Message, error) {
	var msg entity.Message
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.do(ctx, http.MethodPost, path, false, buildMessageRequest(payload), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessage replaces the content of an existing message.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, payload entity.Payload) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.do(ctx, http.MethodPatch, path, true, buildMessageRequest(payload), nil)
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.do(ctx, http.MethodDelete, path, true, nil, nil)
}

// do performs one rate-limited request.
//
// Error types:
//   - 404 on a message path: wraps entity.ErrMessageNotFound
//   - 429: *RateLimitError with the server-provided delay
//   - other 4xx: *ClientError
//   - 5xx: *ServerError
//   - transport failure: wrapped net/http error
func (c *Client) do(ctx context.Context, method, path string, messagePath bool, body, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Authorization", "Bot "+c.config.Token)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordDiscordRequest(method, 0)
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordDiscordRequest(method, resp.StatusCode)

	slog.Debug("discord request",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return parseRateLimit(resp, data)
	case resp.StatusCode == http.StatusNotFound && messagePath:
		return fmt.Errorf("%s %s: %w", method, path, entity.ErrMessageNotFound)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, errorMessage(data))
}

// parseRateLimit extracts the retry delay from the JSON body first, then
// from the Retry-After header, falling back to one second.
func parseRateLimit(resp *http.Response, body []byte) *RateLimitError {
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.RetryAfter > 0 {
		return &RateLimitError{
			RetryAfter: time.Duration(apiErr.RetryAfter * float64(time.Second)),
			Global:     apiErr.Global,
		}
	}

	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.ParseFloat(header, 64); err == nil && seconds > 0 {
			return &RateLimitError{RetryAfter: time.Duration(seconds * float64(time.Second))}
		}
	}

	return &RateLimitError{RetryAfter: defaultRetryAfter}
}

func errorMessage(body []byte) string {
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return strings.TrimSpace(string(body))
}
