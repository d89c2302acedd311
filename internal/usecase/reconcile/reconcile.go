// Package reconcile maps rendered pages onto the persisted message ledger of
// one (guild, category), editing messages in place and creating or replacing
// them as needed.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"klist/internal/domain/entity"
	"klist/internal/observability/logging"
	"klist/internal/observability/metrics"
	"klist/internal/observability/tracing"
	"klist/internal/repository"
	"klist/internal/resilience/retry"
	"klist/internal/usecase/render"
)

// MessageAPI is the part of the messaging client the reconciler drives.
// FetchMessage and EditMessage report a vanished message with
// entity.ErrMessageNotFound; rate limits wrap entity.ErrRateLimited.
type MessageAPI interface {
	FetchMessage(ctx context.Context, channelID, messageID string) (*entity.Message, error)
	SendMessage(ctx context.Context, channelID string, payload entity.Payload) (*entity.Message, error)
	EditMessage(ctx context.Context, channelID, messageID string, payload entity.Payload) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Config tunes the per-page retry behaviour.
type Config struct {
	// MaxAttempts bounds the tries per page. Default: 5
	MaxAttempts int

	// RetryDelay is the pause after a non rate-limit failure. Default: 1s
	RetryDelay time.Duration

	// DefaultRetryAfter is used when a rate limit carries no delay. Default: 1s
	DefaultRetryAfter time.Duration

	// AttemptTimeout bounds the API calls of a single attempt. Default: 30s
	AttemptTimeout time.Duration
}

// DefaultConfig returns the production retry settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       5,
		RetryDelay:        1 * time.Second,
		DefaultRetryAfter: 1 * time.Second,
		AttemptTimeout:    30 * time.Second,
	}
}

// Result counts what happened to each page of one reconciliation.
type Result struct {
	Edited       int
	Created      int
	Replaced     int
	Placeholders int
	Abandoned    int
}

// Reconciler owns every ledger mutation. Calls for the same LedgerKey are
// serialized; different keys proceed in parallel.
type Reconciler struct {
	api      MessageAPI
	ledgers  repository.LedgerRepository
	runState repository.RunStateRepository
	cfg      Config
	locks    *keyedMutex
	sleep    func(context.Context, time.Duration) error
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithRunState makes Reconcile read the run state once it holds the ledger
// lock and refuse to publish when it is deleted. A delete that lands while a
// cycle is already running then cannot be undone by that cycle.
func WithRunState(runState repository.RunStateRepository) Option {
	return func(r *Reconciler) {
		r.runState = runState
	}
}

// New creates a Reconciler. Zero Config fields take their defaults.
func New(api MessageAPI, ledgers repository.LedgerRepository, cfg Config, opts ...Option) *Reconciler {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.DefaultRetryAfter <= 0 {
		cfg.DefaultRetryAfter = def.DefaultRetryAfter
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	r := &Reconciler{
		api:     api,
		ledgers: ledgers,
		cfg:     cfg,
		locks:   newKeyedMutex(),
		sleep:   retry.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile publishes pages to channelID and returns the updated ledger.
//
// Page i edits ledger[i] when it exists, replaces it in place when the
// message is gone, and is appended otherwise. Ledger entries beyond the last
// page are overwritten with the category placeholder; the ledger never
// shrinks. The ledger is saved after every create or replace and once more
// at the end. A page that fails MaxAttempts times is abandoned and the next
// page proceeds.
//
// With WithRunState, a deleted run state returns entity.ErrPublishingDeleted
// before any message is touched.
func (r *Reconciler) Reconcile(ctx context.Context, key entity.LedgerKey, channelID string, pages []entity.Page) (entity.Ledger, Result, error) {
	var res Result
	if err := entity.ValidateSnowflake("channel_id", channelID); err != nil {
		return nil, res, err
	}

	unlock := r.locks.Lock(key)
	defer unlock()

	ctx, span := tracing.StartSpan(ctx, "reconcile.ledger",
		attribute.String("guild_id", key.GuildID),
		attribute.String("category", string(key.Category)),
		attribute.Int("pages", len(pages)))
	defer span.End()

	logger := logging.FromContext(ctx).With(
		slog.String("guild_id", key.GuildID),
		slog.String("category", string(key.Category)))
	ctx = logging.WithLogger(ctx, logger)

	if r.runState != nil {
		state, err := r.runState.Get(ctx)
		if err != nil {
			tracing.RecordError(span, err)
			return nil, res, fmt.Errorf("load run state: %w", err)
		}
		if state.Deleted {
			logger.Info("ledger skipped: messages were deleted")
			return nil, res, entity.ErrPublishingDeleted
		}
	}

	stored, err := r.ledgers.Get(ctx, key)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, res, fmt.Errorf("load ledger %s: %w", key, err)
	}
	job := &ledgerJob{r: r, key: key, channelID: channelID, ledger: stored.Clone()}

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return job.finish(ctx, res, err)
		}
		outcome, err := job.publish(ctx, i, page.Payload)
		if err != nil {
			if ctx.Err() != nil {
				return job.finish(ctx, res, ctx.Err())
			}
			res.Abandoned++
			metrics.RecordPageOutcome(string(key.Category), metrics.OutcomeAbandoned)
			logger.Error("page abandoned", slog.Int("page", i), slog.Any("error", err))
			continue
		}
		res.count(outcome)
		metrics.RecordPageOutcome(string(key.Category), outcome)
	}

	placeholder := render.Placeholder(key.Category)
	for i := len(pages); i < len(job.ledger); i++ {
		if err := ctx.Err(); err != nil {
			return job.finish(ctx, res, err)
		}
		if _, err := job.publish(ctx, i, placeholder); err != nil {
			if ctx.Err() != nil {
				return job.finish(ctx, res, ctx.Err())
			}
			res.Abandoned++
			metrics.RecordPageOutcome(string(key.Category), metrics.OutcomeAbandoned)
			logger.Error("placeholder abandoned", slog.Int("page", i), slog.Any("error", err))
			continue
		}
		res.Placeholders++
		metrics.RecordPageOutcome(string(key.Category), metrics.OutcomePlaceholder)
	}

	ledger, res, err := job.finish(ctx, res, nil)
	if err != nil {
		tracing.RecordError(span, err)
	}
	span.SetAttributes(
		attribute.Int("ledger_size", len(ledger)),
		attribute.Int("abandoned", res.Abandoned))
	logger.Debug("ledger reconciled",
		slog.Int("pages", len(pages)),
		slog.Int("ledger_size", len(ledger)),
		slog.Int("edited", res.Edited),
		slog.Int("created", res.Created),
		slog.Int("replaced", res.Replaced),
		slog.Int("placeholders", res.Placeholders),
		slog.Int("abandoned", res.Abandoned))
	return ledger, res, err
}

// Purge deletes every message in the ledger and then the ledger itself.
// Messages that are already gone are ignored. If any delete fails the
// ledger is kept, trimmed to the messages that still exist, so a later purge
// can finish the job.
func (r *Reconciler) Purge(ctx context.Context, key entity.LedgerKey, channelID string) error {
	unlock := r.locks.Lock(key)
	defer unlock()

	logger := logging.FromContext(ctx).With(
		slog.String("guild_id", key.GuildID),
		slog.String("category", string(key.Category)))

	ledger, err := r.ledgers.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load ledger %s: %w", key, err)
	}

	var remaining entity.Ledger
	var errs []error
	for _, id := range ledger {
		err := r.api.DeleteMessage(ctx, channelID, id)
		if err == nil || errors.Is(err, entity.ErrMessageNotFound) {
			continue
		}
		remaining = append(remaining, id)
		errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
	}

	if len(errs) > 0 {
		if err := r.ledgers.Save(ctx, key, remaining); err != nil {
			errs = append(errs, fmt.Errorf("save ledger %s: %w", key, err))
		}
		return errors.Join(errs...)
	}

	if err := r.ledgers.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete ledger %s: %w", key, err)
	}
	metrics.SetLedgerSize(key.GuildID, string(key.Category), 0)
	logger.Info("ledger purged", slog.Int("messages", len(ledger)))
	return nil
}

func (res *Result) count(outcome string) {
	switch outcome {
	case metrics.OutcomeEdited:
		res.Edited++
	case metrics.OutcomeCreated:
		res.Created++
	case metrics.OutcomeReplaced:
		res.Replaced++
	}
}
