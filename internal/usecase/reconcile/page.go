package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"klist/internal/domain/entity"
	"klist/internal/observability/logging"
	"klist/internal/observability/metrics"
)

// pageState is the position of one page in its publish state machine:
// pending -> succeeded | rateLimited -> pending | transientFailed -> pending | abandoned.
type pageState int

const (
	statePending pageState = iota
	stateSucceeded
	stateRateLimited
	stateTransientFailed
	stateAbandoned
)

func (s pageState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateSucceeded:
		return "succeeded"
	case stateRateLimited:
		return "rate_limited"
	case stateTransientFailed:
		return "transient_failed"
	case stateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// delayer is implemented by rate limit errors that carry a server hint.
type delayer interface {
	Delay() time.Duration
}

// ledgerJob is one Reconcile call's working copy of a ledger.
type ledgerJob struct {
	r         *Reconciler
	key       entity.LedgerKey
	channelID string
	ledger    entity.Ledger
}

// publish drives page index through the state machine and returns the
// metrics outcome on success.
func (j *ledgerJob) publish(ctx context.Context, index int, payload entity.Payload) (string, error) {
	logger := logging.FromContext(ctx)
	category := string(j.key.Category)

	state := statePending
	attempts := 0
	var outcome string
	var lastErr error

	for {
		switch state {
		case statePending:
			attempts++
			outcome, lastErr = j.attempt(ctx, index, payload)
			state = j.classify(lastErr, attempts)

		case stateRateLimited:
			delay := j.r.cfg.DefaultRetryAfter
			var d delayer
			if errors.As(lastErr, &d) && d.Delay() > 0 {
				delay = d.Delay()
			}
			metrics.RecordRetry(category, "rate_limited")
			logger.Warn("rate limited, retrying page",
				slog.Int("page", index),
				slog.Int("attempt", attempts),
				slog.Duration("retry_after", delay))
			if err := j.r.sleep(ctx, delay); err != nil {
				return "", err
			}
			state = statePending

		case stateTransientFailed:
			metrics.RecordRetry(category, "transient")
			logger.Warn("page publish failed, retrying",
				slog.Int("page", index),
				slog.Int("attempt", attempts),
				slog.Any("error", lastErr))
			if err := j.r.sleep(ctx, j.r.cfg.RetryDelay); err != nil {
				return "", err
			}
			state = statePending

		case stateSucceeded:
			return outcome, nil

		case stateAbandoned:
			return "", fmt.Errorf("%w: page %d after %d attempts: %w", entity.ErrPageAbandoned, index, attempts, lastErr)
		}
	}
}

func (j *ledgerJob) classify(err error, attempts int) pageState {
	switch {
	case err == nil:
		return stateSucceeded
	case attempts >= j.r.cfg.MaxAttempts:
		return stateAbandoned
	case errors.Is(err, entity.ErrRateLimited):
		return stateRateLimited
	default:
		return stateTransientFailed
	}
}

// attempt performs one fetch-and-edit, replace, or append for page index.
// API calls are detached from ctx cancellation so a send that reaches the
// server is always recorded in the ledger.
func (j *ledgerJob) attempt(ctx context.Context, index int, payload entity.Payload) (string, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.r.cfg.AttemptTimeout)
	defer cancel()

	if index < len(j.ledger) {
		id := j.ledger[index]
		_, err := j.r.api.FetchMessage(callCtx, j.channelID, id)
		if err == nil {
			err = j.r.api.EditMessage(callCtx, j.channelID, id, payload)
		}
		if err == nil {
			return metrics.OutcomeEdited, nil
		}
		if !errors.Is(err, entity.ErrMessageNotFound) {
			return "", err
		}

		msg, err := j.r.api.SendMessage(callCtx, j.channelID, payload)
		if err != nil {
			return "", fmt.Errorf("replace message %s: %w", id, err)
		}
		j.ledger = j.ledger.Put(index, msg.ID)
		j.persist(ctx)
		logging.FromContext(ctx).Info("message replaced",
			slog.Int("page", index),
			slog.String("old_id", id),
			slog.String("new_id", msg.ID))
		return metrics.OutcomeReplaced, nil
	}

	msg, err := j.r.api.SendMessage(callCtx, j.channelID, payload)
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}
	j.ledger = j.ledger.Put(index, msg.ID)
	j.persist(ctx)
	return metrics.OutcomeCreated, nil
}

// persist saves the working ledger. A failure is logged only: the message
// already exists, and finish saves again.
func (j *ledgerJob) persist(ctx context.Context) {
	if err := j.r.ledgers.Save(context.WithoutCancel(ctx), j.key, j.ledger); err != nil {
		logging.FromContext(ctx).Error("failed to persist ledger",
			slog.Int("ledger_size", len(j.ledger)),
			slog.Any("error", err))
	}
}

// finish saves the final ledger and publishes its size. cause is returned
// unchanged when set.
func (j *ledgerJob) finish(ctx context.Context, res Result, cause error) (entity.Ledger, Result, error) {
	metrics.SetLedgerSize(j.key.GuildID, string(j.key.Category), len(j.ledger))
	if err := j.r.ledgers.Save(context.WithoutCancel(ctx), j.key, j.ledger); err != nil {
		saveErr := fmt.Errorf("save ledger %s: %w", j.key, err)
		if cause != nil {
			return j.ledger, res, errors.Join(cause, saveErr)
		}
		return j.ledger, res, saveErr
	}
	return j.ledger, res, cause
}
