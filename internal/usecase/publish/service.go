// Package publish runs one polling cycle: fetch the feeds, render pages and
// reconcile every configured destination.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"klist/internal/domain/entity"
	"klist/internal/observability/logging"
	"klist/internal/observability/metrics"
	"klist/internal/observability/tracing"
	"klist/internal/repository"
	"klist/internal/usecase/parse"
	"klist/internal/usecase/reconcile"
	"klist/internal/usecase/render"
)

// FeedFetcher returns the raw body of a feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// LedgerReconciler publishes pages for one ledger and removes them again.
type LedgerReconciler interface {
	Reconcile(ctx context.Context, key entity.LedgerKey, channelID string, pages []entity.Page) (entity.Ledger, reconcile.Result, error)
	Purge(ctx context.Context, key entity.LedgerKey, channelID string) error
}

// Config holds the cycle settings.
type Config struct {
	GamesFeedURL           string
	ServersFeedURL         string
	DestinationConcurrency int
}

// feedURL returns the feed address for c.
func (c Config) feedURL(cat entity.Category) string {
	if cat == entity.CategoryServers {
		return c.ServersFeedURL
	}
	return c.GamesFeedURL
}

// CycleStats summarises one RunCycle call.
type CycleStats struct {
	CycleID string
	// Skipped is set when the messages were deleted before or during the
	// cycle.
	Skipped      bool
	Destinations int
	Records      map[entity.Category]int
	FeedErrors   map[entity.Category]error
	Ledgers      int
	LedgerErrors int
	Pages        reconcile.Result
	Duration     time.Duration
}

// Service wires feeds, rendering and reconciliation together.
type Service struct {
	feeds      FeedFetcher
	reconciler LedgerReconciler
	channels   repository.ChannelRepository
	runState   repository.RunStateRepository
	cfg        Config
	now        func() time.Time
}

// NewService creates a Service.
func NewService(feeds FeedFetcher, reconciler LedgerReconciler, channels repository.ChannelRepository, runState repository.RunStateRepository, cfg Config) *Service {
	if cfg.DestinationConcurrency <= 0 {
		cfg.DestinationConcurrency = 1
	}
	return &Service{
		feeds:      feeds,
		reconciler: reconciler,
		channels:   channels,
		runState:   runState,
		cfg:        cfg,
		now:        time.Now,
	}
}

// RunCycle performs one tick of work.
//
// Nothing is fetched when the run state is deleted or no destination has a
// channel. A feed that cannot be fetched skips its category for every
// destination; the other category still runs. Ledger failures are logged and
// counted but never fail the cycle. Only store errors are returned.
func (s *Service) RunCycle(ctx context.Context) (*CycleStats, error) {
	start := s.now()
	stats := &CycleStats{
		CycleID:    uuid.NewString(),
		Records:    map[entity.Category]int{},
		FeedErrors: map[entity.Category]error{},
	}

	ctx, span := tracing.StartSpan(ctx, "publish.cycle", attribute.String("cycle_id", stats.CycleID))
	defer span.End()
	logger := logging.FromContext(ctx).With(slog.String("cycle_id", stats.CycleID))
	ctx = logging.WithLogger(ctx, logger)

	defer func() {
		stats.Duration = s.now().Sub(start)
		metrics.RecordCycleDuration(stats.Duration)
	}()

	state, err := s.runState.Get(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return stats, fmt.Errorf("load run state: %w", err)
	}
	if state.Deleted {
		stats.Skipped = true
		logger.Info("cycle skipped: messages were deleted")
		return stats, nil
	}

	all, err := s.channels.List(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return stats, fmt.Errorf("list destinations: %w", err)
	}
	var dests []entity.Destination
	needed := map[entity.Category]bool{}
	for _, d := range all {
		enabled := d.Enabled()
		if len(enabled) == 0 {
			continue
		}
		dests = append(dests, d)
		for _, c := range enabled {
			needed[c] = true
		}
	}
	stats.Destinations = len(dests)
	span.SetAttributes(attribute.Int("destinations", len(dests)))
	if len(dests) == 0 {
		logger.Debug("cycle skipped: no destinations configured")
		return stats, nil
	}

	pages := s.buildPages(ctx, needed, stats)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.DestinationConcurrency)
	for _, dest := range dests {
		g.Go(func() error {
			s.publishDestination(ctx, dest, pages, stats, &mu)
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("ledgers", stats.Ledgers),
		attribute.Int("ledger_errors", stats.LedgerErrors))
	logger.Info("cycle completed",
		slog.Int("destinations", stats.Destinations),
		slog.Int("ledgers", stats.Ledgers),
		slog.Int("ledger_errors", stats.LedgerErrors),
		slog.Int("edited", stats.Pages.Edited),
		slog.Int("created", stats.Pages.Created),
		slog.Int("replaced", stats.Pages.Replaced),
		slog.Int("placeholders", stats.Pages.Placeholders),
		slog.Int("abandoned", stats.Pages.Abandoned))
	return stats, nil
}

// buildPages fetches the needed feeds concurrently and renders them. A
// category missing from the result was unavailable this cycle.
func (s *Service) buildPages(ctx context.Context, needed map[entity.Category]bool, stats *CycleStats) map[entity.Category][]entity.Page {
	logger := logging.FromContext(ctx)
	out := map[entity.Category][]entity.Page{}
	var mu sync.Mutex

	var g errgroup.Group
	for _, cat := range entity.Categories {
		if !needed[cat] {
			continue
		}
		g.Go(func() error {
			pages, records, err := s.buildCategory(ctx, cat)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.FeedErrors[cat] = err
				logger.Warn("feed unavailable, skipping category",
					slog.String("category", string(cat)),
					slog.Any("error", err))
				return nil
			}
			stats.Records[cat] = records
			out[cat] = pages
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) buildCategory(ctx context.Context, cat entity.Category) ([]entity.Page, int, error) {
	start := time.Now()
	body, err := s.feeds.Fetch(ctx, s.cfg.feedURL(cat))
	metrics.RecordFeedFetchDuration(string(cat), time.Since(start))
	if err != nil {
		metrics.RecordFeedFetch(string(cat), "error")
		return nil, 0, err
	}
	if strings.TrimSpace(body) == "" {
		metrics.RecordFeedFetch(string(cat), "empty")
		return nil, 0, fmt.Errorf("%w: empty response", entity.ErrFeedUnavailable)
	}
	metrics.RecordFeedFetch(string(cat), "success")

	var records any
	var count int
	switch cat {
	case entity.CategoryGames:
		games := parse.ParseGames(body)
		records, count = games, len(games)
	case entity.CategoryServers:
		servers := parse.ParseServers(body)
		records, count = servers, len(servers)
	default:
		return nil, 0, fmt.Errorf("%w: %q", entity.ErrInvalidCategory, cat)
	}
	metrics.SetFeedRecords(string(cat), count)

	pages, err := render.Pages(cat, records)
	if err != nil {
		return nil, 0, err
	}
	return pages, count, nil
}

// publishDestination reconciles every enabled category of dest concurrently.
func (s *Service) publishDestination(ctx context.Context, dest entity.Destination, pages map[entity.Category][]entity.Page, stats *CycleStats, mu *sync.Mutex) {
	logger := logging.FromContext(ctx).With(slog.String("guild_id", dest.GuildID))

	var g errgroup.Group
	for _, cat := range dest.Enabled() {
		catPages, ok := pages[cat]
		if !ok {
			continue
		}
		g.Go(func() error {
			key := entity.LedgerKey{GuildID: dest.GuildID, Category: cat}
			_, res, err := s.reconciler.Reconcile(ctx, key, dest.Channels[cat], catPages)

			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, entity.ErrPublishingDeleted) {
				stats.Skipped = true
				return nil
			}
			stats.Ledgers++
			stats.Pages.Edited += res.Edited
			stats.Pages.Created += res.Created
			stats.Pages.Replaced += res.Replaced
			stats.Pages.Placeholders += res.Placeholders
			stats.Pages.Abandoned += res.Abandoned
			if err != nil {
				stats.LedgerErrors++
				if !errors.Is(err, context.Canceled) {
					logger.Error("reconcile failed",
						slog.String("category", string(cat)),
						slog.Any("error", err))
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Purge marks the run state deleted, so later cycles do nothing, then
// deletes the published messages and ledgers of every destination.
func (s *Service) Purge(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	state, err := s.runState.Get(ctx)
	if err != nil {
		return fmt.Errorf("load run state: %w", err)
	}
	state.Deleted = true
	if err := s.runState.Save(ctx, state); err != nil {
		return fmt.Errorf("save run state: %w", err)
	}

	dests, err := s.channels.List(ctx)
	if err != nil {
		return fmt.Errorf("list destinations: %w", err)
	}

	var errs []error
	for _, dest := range dests {
		for _, cat := range dest.Enabled() {
			key := entity.LedgerKey{GuildID: dest.GuildID, Category: cat}
			if err := s.reconciler.Purge(ctx, key, dest.Channels[cat]); err != nil {
				errs = append(errs, fmt.Errorf("purge %s: %w", key, err))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("all published messages deleted", slog.Int("destinations", len(dests)))
	return nil
}
