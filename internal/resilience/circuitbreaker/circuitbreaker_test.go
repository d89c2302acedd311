package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klist/internal/resilience/retry"
)

var errBoom = errors.New("boom")

func failing() (interface{}, error) { return nil, errBoom }

func TestNew_StartsClosed(t *testing.T) {
	cb := New(DefaultConfig("test"))
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, "test", cb.Name())
	assert.False(t, cb.IsOpen())
}

func TestExecute_Success(t *testing.T) {
	cb := New(DefaultConfig("test"))
	got, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestExecute_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := Config{Name: "trip", MaxRequests: 1, Timeout: time.Minute, ConsecutiveFailures: 3}
	cb := New(cfg)

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(failing)
		assert.ErrorIs(t, err, errBoom)
		assert.False(t, cb.IsOpen())
	}
	_, err := cb.Execute(failing)
	assert.ErrorIs(t, err, errBoom)
	assert.True(t, cb.IsOpen())

	_, err = cb.Execute(func() (interface{}, error) { return "ok", nil })
	assert.True(t, IsRejected(err))
}

func TestExecute_SuccessResetsStreak(t *testing.T) {
	cb := New(Config{Name: "reset", MaxRequests: 1, Timeout: time.Minute, ConsecutiveFailures: 2})

	_, _ = cb.Execute(failing)
	_, _ = cb.Execute(func() (interface{}, error) { return nil, nil })
	_, _ = cb.Execute(failing)
	assert.False(t, cb.IsOpen())
}

func TestExecute_HalfOpenRecovers(t *testing.T) {
	cb := New(Config{Name: "recover", MaxRequests: 1, Timeout: 20 * time.Millisecond, ConsecutiveFailures: 1})

	_, _ = cb.Execute(failing)
	require.True(t, cb.IsOpen())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, cb.State())

	_, err := cb.Execute(func() (interface{}, error) { return nil, nil })
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestFeedFetchConfig(t *testing.T) {
	cfg := FeedFetchConfig("games", 30*time.Second)
	assert.Equal(t, "feed-games", cfg.Name)
	assert.Equal(t, uint32(3), cfg.ConsecutiveFailures)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestFeedFetchConfig_OnlyTransientFailuresCount(t *testing.T) {
	isSuccessful := FeedFetchConfig("games", time.Second).IsSuccessful
	require.NotNil(t, isSuccessful)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"not found", &retry.HTTPError{StatusCode: http.StatusNotFound}, true},
		{"internal error", &retry.HTTPError{StatusCode: http.StatusInternalServerError}, true},
		{"canceled", fmt.Errorf("retry aborted: %w", context.Canceled), true},
		{"deadline", context.DeadlineExceeded, true},
		{"service unavailable", &retry.HTTPError{StatusCode: http.StatusServiceUnavailable}, false},
		{"exhausted 503", fmt.Errorf("max retry attempts (5) exceeded: %w", &retry.HTTPError{StatusCode: http.StatusServiceUnavailable}), false},
		{"transport", errBoom, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSuccessful(tt.err))
		})
	}
}

func TestExecute_IgnoredErrorsDoNotTrip(t *testing.T) {
	cfg := FeedFetchConfig("servers", time.Minute)
	cfg.ConsecutiveFailures = 1
	cb := New(cfg)

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, &retry.HTTPError{StatusCode: http.StatusNotFound}
		})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	_, _ = cb.Execute(failing)
	assert.True(t, cb.IsOpen())
}

func TestIsRejected(t *testing.T) {
	assert.True(t, IsRejected(gobreaker.ErrOpenState))
	assert.True(t, IsRejected(gobreaker.ErrTooManyRequests))
	assert.False(t, IsRejected(errBoom))
	assert.False(t, IsRejected(nil))
}
