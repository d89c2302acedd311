// Package resilience provides fault tolerance patterns for calls to the
// remote feed and the Discord API.
//
// The package supports:
//   - Circuit breakers around the feed endpoints
//   - Retry logic with configurable backoff and a pluggable retry classifier
//   - Context-aware sleeps shared by the reconciler's page retries
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig("games", 30*time.Second))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return fetch()
//	})
//
//	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
//	    return performOperation()
//	})
package resilience
