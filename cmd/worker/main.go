// Command worker publishes the Kaillera game and server lists to Discord and
// serves the health, metrics and admin endpoints.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"klist/internal/config"
	"klist/internal/handler/http/admin"
	"klist/internal/handler/http/respond"
	"klist/internal/infra/adapter/persistence/file"
	pgRepo "klist/internal/infra/adapter/persistence/postgres"
	"klist/internal/infra/db"
	"klist/internal/infra/discord"
	"klist/internal/infra/fetcher"
	workerPkg "klist/internal/infra/worker"
	"klist/internal/observability/logging"
	"klist/internal/repository"
	"klist/internal/usecase/publish"
	"klist/internal/usecase/reconcile"
)

const shutdownTimeout = 30 * time.Second

// stores bundles the repositories of the selected driver.
type stores struct {
	ledgers  repository.LedgerRepository
	channels repository.ChannelRepository
	runState repository.RunStateRepository
	db       *sql.DB
}

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("worker failed", slog.String("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	cfg, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		return fmt.Errorf("load worker configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Info("worker configuration loaded",
		slog.Duration("poll_interval", cfg.PollInterval),
		slog.Duration("cycle_timeout", cfg.CycleTimeout),
		slog.Int("destination_concurrency", cfg.DestinationConcurrency),
		slog.String("store_driver", cfg.StoreDriver),
		slog.Float64("discord_rate_limit", cfg.DiscordRateLimit),
		slog.Bool("auto_start", cfg.AutoStart))

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return errors.New("DISCORD_TOKEN is required")
	}

	st, err := openStores(ctx, logger, cfg)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer func() {
			if err := st.db.Close(); err != nil {
				logger.Error("failed to close database", slog.Any("error", err))
			}
		}()
	}

	if err := seedDestinations(ctx, logger, st.channels); err != nil {
		return err
	}

	discordClient := discord.NewClient(discord.Config{
		Token:             token,
		RequestsPerSecond: cfg.DiscordRateLimit,
	})
	feedConfig := fetcher.DefaultConfig()
	feedConfig.BreakerTimeout = cfg.PollInterval / 2
	feedClient := fetcher.NewClient(feedConfig)
	reconciler := reconcile.New(discordClient, st.ledgers, reconcile.DefaultConfig(), reconcile.WithRunState(st.runState))
	publisher := publish.NewService(feedClient, reconciler, st.channels, st.runState, publish.Config{
		GamesFeedURL:           cfg.GamesFeedURL,
		ServersFeedURL:         cfg.ServersFeedURL,
		DestinationConcurrency: cfg.DestinationConcurrency,
	})
	scheduler := workerPkg.NewScheduler(publisher, st.runState, cfg, workerMetrics, logger)

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
	if st.db != nil {
		healthServer.AddCheck("database", st.db.PingContext)
	}

	adminHandler := &admin.Handler{
		Loop:     scheduler,
		Purger:   publisher,
		Channels: st.channels,
		Ledgers:  st.ledgers,
		RunState: st.runState,
		Logger:   logger,
	}
	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		logger.Warn("ADMIN_TOKEN not set; admin endpoints are unauthenticated")
	}
	adminServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AdminPort),
		Handler:           admin.NewServer(adminHandler, admin.ServerConfig{Token: adminToken}, logger),
		ReadHeaderTimeout: 10 * time.Second,
		// A purge deletes every published message under the Discord rate limit.
		WriteTimeout: cfg.CycleTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := healthServer.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return startMetricsServer(gctx, logger, cfg.MetricsPort)
	})
	g.Go(func() error {
		return serve(gctx, logger, "admin", adminServer)
	})

	if err := scheduler.Resume(ctx); err != nil {
		return fmt.Errorf("resume scheduler: %w", err)
	}
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.Bool("running", scheduler.Running()),
		slog.Int("admin_port", cfg.AdminPort))

	<-gctx.Done()
	logger.Info("shutting down worker...")
	healthServer.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown failed", slog.Any("error", err))
	}

	err = g.Wait()
	logger.Info("worker stopped")
	return err
}

// openStores opens the repositories of cfg.StoreDriver.
func openStores(ctx context.Context, logger *slog.Logger, cfg *workerPkg.WorkerConfig) (*stores, error) {
	if cfg.StoreDriver == workerPkg.StoreDriverPostgres {
		database, err := db.Open(ctx)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateUp(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("postgres store ready")
		return &stores{
			ledgers:  pgRepo.NewLedgerRepo(database),
			channels: pgRepo.NewChannelRepo(database),
			runState: pgRepo.NewRunStateRepo(database),
			db:       database,
		}, nil
	}

	ledgers, err := file.NewLedgerRepo(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	channels, err := file.NewChannelRepo(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	runState, err := file.NewRunStateRepo(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	logger.Info("file store ready", slog.String("state_dir", cfg.StateDir))
	return &stores{ledgers: ledgers, channels: channels, runState: runState}, nil
}

// seedDestinations merges DESTINATIONS_FILE and the legacy channel variables
// into the channel store.
func seedDestinations(ctx context.Context, logger *slog.Logger, channels repository.ChannelRepository) error {
	dests, err := config.LoadSeed(os.Getenv("DESTINATIONS_FILE"))
	if err != nil {
		return fmt.Errorf("load destinations: %w", err)
	}
	if len(dests) == 0 {
		return nil
	}
	written, err := config.SeedDestinations(ctx, channels, dests)
	if err != nil {
		return fmt.Errorf("seed destinations: %w", err)
	}
	logger.Info("destinations seeded",
		slog.Int("destinations", len(dests)),
		slog.Int("channels_written", written))
	return nil
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, logger *slog.Logger, name string, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(name+" server starting", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s server: %w", name, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(name+" server shutdown failed", slog.Any("error", err))
		return nil
	}
	logger.Info(name + " server stopped")
	return nil
}
