package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klist/internal/domain/entity"
	"klist/internal/infra/fetcher"
)

func testConfig() fetcher.Config {
	cfg := fetcher.DefaultConfig()
	cfg.RetryDelay = 5 * time.Millisecond
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "klist/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("Tetris|1.2.3.4|bob|MAME|1|Srv|FR|"))
	}))
	defer server.Close()

	body, err := fetcher.NewClient(testConfig()).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Tetris|1.2.3.4|bob|MAME|1|Srv|FR|", body)
}

func TestFetch_RetriesServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := fetcher.NewClient(testConfig()).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_ExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	start := time.Now()
	_, err := fetcher.NewClient(testConfig()).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrFeedUnavailable)
	assert.Equal(t, int32(5), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 4*5*time.Millisecond)
}

func TestFetch_OtherStatusFailsImmediately(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(status)
			}))
			defer server.Close()

			_, err := fetcher.NewClient(testConfig()).Fetch(context.Background(), server.URL)
			assert.ErrorIs(t, err, entity.ErrFeedUnavailable)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestFetch_TransportFailureRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	cfg := testConfig()
	cfg.MaxAttempts = 2
	_, err := fetcher.NewClient(cfg).Fetch(context.Background(), url)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrFeedUnavailable)
	assert.Contains(t, err.Error(), "max retry attempts (2) exceeded")
}

func TestFetch_BodyTooLarge(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 1024
	_, err := fetcher.NewClient(cfg).Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, entity.ErrFeedUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := fetcher.NewClient(testConfig()).Fetch(context.Background(), "ftp://example.com/list")
	assert.ErrorIs(t, err, entity.ErrFeedUnavailable)
	assert.ErrorIs(t, err, entity.ErrValidationFailed)
}

func TestFetch_ContextCanceledDuringWait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.RetryDelay = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := fetcher.NewClient(cfg).Fetch(ctx, server.URL)
	assert.ErrorIs(t, err, entity.ErrFeedUnavailable)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetch_NonTransientFailuresKeepCircuitClosed(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := fetcher.NewClient(testConfig())
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), server.URL)
		require.ErrorIs(t, err, entity.ErrFeedUnavailable)
	}

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, int32(4), calls.Load())
}

func TestFetch_CanceledCyclesKeepCircuitClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := fetcher.NewClient(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(ctx, server.URL)
		require.Error(t, err)
	}

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
}

func TestFetch_OpenCircuitRecoversOnNextCycle(t *testing.T) {
	var healthy atomic.Bool
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxAttempts = 1
	cfg.BreakerTimeout = 30 * time.Millisecond
	client := fetcher.NewClient(cfg)

	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), server.URL)
		require.ErrorIs(t, err, entity.ErrFeedUnavailable)
	}
	require.Equal(t, int32(3), calls.Load())

	_, err := client.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, entity.ErrFeedUnavailable)
	assert.Equal(t, int32(3), calls.Load(), "open circuit must not reach the server")

	healthy.Store(true)
	time.Sleep(60 * time.Millisecond)

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.Equal(t, int32(4), calls.Load())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fetcher.Config)
		wantErr bool
	}{
		{"default", func(*fetcher.Config) {}, false},
		{"zero timeout", func(c *fetcher.Config) { c.Timeout = 0 }, true},
		{"zero attempts", func(c *fetcher.Config) { c.MaxAttempts = 0 }, true},
		{"negative delay", func(c *fetcher.Config) { c.RetryDelay = -time.Second }, true},
		{"tiny body", func(c *fetcher.Config) { c.MaxBodySize = 10 }, true},
		{"zero breaker timeout", func(c *fetcher.Config) { c.BreakerTimeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fetcher.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
