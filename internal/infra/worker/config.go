package worker

import (
	"fmt"
	"log/slog"
	"time"

	"klist/internal/pkg/config"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
)

// WorkerConfig holds the operational settings of the publishing worker.
//
// Every field has a default, and LoadConfigFromEnv replaces invalid
// environment values with that default instead of failing, so a worker with
// a typo in its environment still publishes.
type WorkerConfig struct {
	// PollInterval is the time between two cycles. Range 10s-1h.
	PollInterval time.Duration

	// CycleTimeout bounds one whole cycle, including every retry sleep.
	CycleTimeout time.Duration

	// DestinationConcurrency is how many guilds are reconciled at once. Range 1-32.
	DestinationConcurrency int

	// HealthPort, MetricsPort and AdminPort are the listen ports of the
	// health, Prometheus and control servers.
	HealthPort  int
	MetricsPort int
	AdminPort   int

	GamesFeedURL   string
	ServersFeedURL string

	// StoreDriver selects the persistence backend: "file" or "postgres".
	StoreDriver string

	// StateDir is the directory of the file store.
	StateDir string

	// DiscordRateLimit is the process-wide request rate towards Discord, in
	// requests per second. Range 0.1-50.
	DiscordRateLimit float64

	// AutoStart starts the loop at boot even when the persisted run state
	// is inactive.
	AutoStart bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval:           60 * time.Second,
		CycleTimeout:           10 * time.Minute,
		DestinationConcurrency: 4,
		HealthPort:             9091,
		MetricsPort:            9090,
		AdminPort:              9092,
		GamesFeedURL:           "http://kaillerareborn.2manygames.fr/game_list.php",
		ServersFeedURL:         "http://kaillerareborn.2manygames.fr/server_list.php",
		StoreDriver:            StoreDriverFile,
		StateDir:               "data",
		DiscordRateLimit:       10,
		AutoStart:              false,
	}
}

// Schedule returns the cron spec the scheduler registers.
func (c *WorkerConfig) Schedule() string {
	return "@every " + c.PollInterval.String()
}

// Validate checks every field and reports all problems at once.
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateDuration(c.PollInterval, 10*time.Second, time.Hour); err != nil {
		errors = append(errors, fmt.Errorf("poll interval: %w", err))
	} else if err := config.ValidateSchedule(c.Schedule()); err != nil {
		errors = append(errors, fmt.Errorf("poll interval: %w", err))
	}

	if err := config.ValidatePositiveDuration(c.CycleTimeout); err != nil {
		errors = append(errors, fmt.Errorf("cycle timeout: %w", err))
	}

	if err := config.ValidateIntRange(c.DestinationConcurrency, 1, 32); err != nil {
		errors = append(errors, fmt.Errorf("destination concurrency: %w", err))
	}

	for name, port := range map[string]int{"health": c.HealthPort, "metrics": c.MetricsPort, "admin": c.AdminPort} {
		if err := config.ValidateIntRange(port, 1024, 65535); err != nil {
			errors = append(errors, fmt.Errorf("%s port: %w", name, err))
		}
	}

	if err := config.ValidateHTTPURL(c.GamesFeedURL); err != nil {
		errors = append(errors, fmt.Errorf("games feed url: %w", err))
	}
	if err := config.ValidateHTTPURL(c.ServersFeedURL); err != nil {
		errors = append(errors, fmt.Errorf("servers feed url: %w", err))
	}

	if err := config.ValidateOneOf(StoreDriverFile, StoreDriverPostgres)(c.StoreDriver); err != nil {
		errors = append(errors, fmt.Errorf("store driver: %w", err))
	}

	if c.StoreDriver == StoreDriverFile && c.StateDir == "" {
		errors = append(errors, fmt.Errorf("state dir: required for the file store"))
	}

	if err := config.ValidateFloatRange(c.DiscordRateLimit, 0.1, 50); err != nil {
		errors = append(errors, fmt.Errorf("discord rate limit: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// LoadConfigFromEnv builds a WorkerConfig from the environment.
//
// Environment variables:
//   - POLL_INTERVAL: duration, 10s-1h (default 60s)
//   - CYCLE_TIMEOUT: duration, 1m-1h (default 10m)
//   - DESTINATION_CONCURRENCY: 1-32 (default 4)
//   - WORKER_HEALTH_PORT, METRICS_PORT, ADMIN_PORT: 1024-65535
//   - GAMES_FEED_URL, SERVERS_FEED_URL: absolute http(s) URLs
//   - STORE_DRIVER: file or postgres (default file)
//   - STATE_DIR: directory of the file store (default "data")
//   - DISCORD_RATE_LIMIT: requests per second, 0.1-50 (default 10)
//   - AUTO_START: boolean (default false)
//
// Invalid values fall back to their default with a warning log and a
// validation error metric. The returned error is always nil.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	track := func(field, metricField string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(metricField)
		metrics.RecordFallback(metricField, "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvDuration("POLL_INTERVAL", cfg.PollInterval, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, time.Hour)
	})
	cfg.PollInterval = result.Value.(time.Duration)
	track("PollInterval", "poll_interval", result)

	result = config.LoadEnvDuration("CYCLE_TIMEOUT", cfg.CycleTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, time.Hour)
	})
	cfg.CycleTimeout = result.Value.(time.Duration)
	track("CycleTimeout", "cycle_timeout", result)

	result = config.LoadEnvInt("DESTINATION_CONCURRENCY", cfg.DestinationConcurrency, func(v int) error {
		return config.ValidateIntRange(v, 1, 32)
	})
	cfg.DestinationConcurrency = result.Value.(int)
	track("DestinationConcurrency", "destination_concurrency", result)

	validPort := func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, validPort)
	cfg.HealthPort = result.Value.(int)
	track("HealthPort", "health_port", result)

	result = config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, validPort)
	cfg.MetricsPort = result.Value.(int)
	track("MetricsPort", "metrics_port", result)

	result = config.LoadEnvInt("ADMIN_PORT", cfg.AdminPort, validPort)
	cfg.AdminPort = result.Value.(int)
	track("AdminPort", "admin_port", result)

	result = config.LoadEnvWithFallback("GAMES_FEED_URL", cfg.GamesFeedURL, config.ValidateHTTPURL)
	cfg.GamesFeedURL = result.Value.(string)
	track("GamesFeedURL", "games_feed_url", result)

	result = config.LoadEnvWithFallback("SERVERS_FEED_URL", cfg.ServersFeedURL, config.ValidateHTTPURL)
	cfg.ServersFeedURL = result.Value.(string)
	track("ServersFeedURL", "servers_feed_url", result)

	result = config.LoadEnvWithFallback("STORE_DRIVER", cfg.StoreDriver, config.ValidateOneOf(StoreDriverFile, StoreDriverPostgres))
	cfg.StoreDriver = result.Value.(string)
	track("StoreDriver", "store_driver", result)

	cfg.StateDir = config.LoadEnvString("STATE_DIR", cfg.StateDir)

	result = config.LoadEnvFloat("DISCORD_RATE_LIMIT", cfg.DiscordRateLimit, func(v float64) error {
		return config.ValidateFloatRange(v, 0.1, 50)
	})
	cfg.DiscordRateLimit = result.Value.(float64)
	track("DiscordRateLimit", "discord_rate_limit", result)

	result = config.LoadEnvBool("AUTO_START", cfg.AutoStart)
	cfg.AutoStart = result.Value.(bool)
	track("AutoStart", "auto_start", result)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
