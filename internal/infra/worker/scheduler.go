package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"klist/internal/domain/entity"
	"klist/internal/observability/logging"
	"klist/internal/repository"
	"klist/internal/usecase/publish"
)

// CycleRunner runs one publishing cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*publish.CycleStats, error)
}

// Scheduler drives CycleRunner on a fixed interval.
//
// The loop is either idle or running. Start and Stop persist the posture in
// the run state so that Resume can restore it after a restart. A tick that
// is still running when the next one is due is skipped, and a panicking
// tick is logged without stopping the loop.
type Scheduler struct {
	runner   CycleRunner
	runState repository.RunStateRepository
	cfg      *WorkerConfig
	metrics  *WorkerMetrics
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	pending sync.WaitGroup
}

// NewScheduler creates an idle Scheduler.
func NewScheduler(runner CycleRunner, runState repository.RunStateRepository, cfg *WorkerConfig, metrics *WorkerMetrics, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		runState: runState,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start begins ticking and clears a previous delete, so publishing resumes
// on the first tick. If the loop is already active, a pending delete is
// cleared and the next tick publishes again; with nothing to clear it
// returns entity.ErrAlreadyRunning.
func (s *Scheduler) Start(ctx context.Context) error {
	return s.start(ctx, true)
}

// Resume restores the persisted posture at boot. The loop is started when
// the run state is active or AutoStart is set; a persisted delete is kept.
func (s *Scheduler) Resume(ctx context.Context) error {
	state, err := s.runState.Get(ctx)
	if err != nil {
		return fmt.Errorf("load run state: %w", err)
	}
	if !state.Active && !s.cfg.AutoStart {
		s.logger.Info("scheduler idle; waiting for start")
		return nil
	}
	return s.start(ctx, false)
}

func (s *Scheduler) start(ctx context.Context, clearDeleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		if !clearDeleted {
			return entity.ErrAlreadyRunning
		}
		return s.undelete(ctx)
	}

	state, err := s.runState.Get(ctx)
	if err != nil {
		return fmt.Errorf("load run state: %w", err)
	}
	state.Active = true
	if clearDeleted {
		state.Deleted = false
	}
	if err := s.runState.Save(ctx, state); err != nil {
		return fmt.Errorf("save run state: %w", err)
	}

	// The loop outlives the caller's request but keeps its values.
	loopCtx, cancel := context.WithCancel(logging.WithLogger(context.WithoutCancel(ctx), s.logger))

	cronLogger := slogCronLogger{logger: s.logger}
	job := cron.NewChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	).Then(cron.FuncJob(func() { s.tick(loopCtx) }))

	c := cron.New(cron.WithLogger(cronLogger))
	if _, err := c.AddJob(s.cfg.Schedule(), job); err != nil {
		cancel()
		return fmt.Errorf("schedule cycle: %w", err)
	}
	c.Start()

	s.cron = c
	s.cancel = cancel

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		job.Run()
	}()

	s.logger.Info("scheduler started",
		slog.String("schedule", s.cfg.Schedule()),
		slog.Duration("cycle_timeout", s.cfg.CycleTimeout))
	return nil
}

// undelete clears Deleted on a running loop. Callers hold s.mu.
func (s *Scheduler) undelete(ctx context.Context) error {
	state, err := s.runState.Get(ctx)
	if err != nil {
		return fmt.Errorf("load run state: %w", err)
	}
	if !state.Deleted {
		return entity.ErrAlreadyRunning
	}
	state.Deleted = false
	if err := s.runState.Save(ctx, state); err != nil {
		return fmt.Errorf("save run state: %w", err)
	}
	s.logger.Info("publishing resumed on running scheduler")
	return nil
}

// Stop cancels the running tick, waits for it to return and persists the
// idle posture. It returns entity.ErrNotRunning when the loop is idle, or
// ctx's error if the tick does not finish in time.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return entity.ErrNotRunning
	}

	if err := s.halt(ctx); err != nil {
		return err
	}

	state, err := s.runState.Get(ctx)
	if err != nil {
		return fmt.Errorf("load run state: %w", err)
	}
	state.Active = false
	if err := s.runState.Save(ctx, state); err != nil {
		return fmt.Errorf("save run state: %w", err)
	}

	s.logger.Info("scheduler stopped")
	return nil
}

// Shutdown stops the loop without persisting the idle posture, so the next
// boot resumes it.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	return s.halt(ctx)
}

// halt cancels the loop and waits for a running tick. s.mu must be held.
func (s *Scheduler) halt(ctx context.Context) error {
	s.cancel()
	cronDone := s.cron.Stop()
	s.cron = nil
	s.cancel = nil

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running cycle: %w", ctx.Err())
	}
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// tick runs one cycle under the cycle timeout and records job metrics.
func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CycleTimeout)
	defer cancel()

	stats, err := s.runner.RunCycle(ctx)
	s.metrics.RecordJobDuration(time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordJobRun("failure")
		s.logger.Error("cycle failed", slog.Any("error", err))
		return
	}
	if stats.Skipped {
		s.metrics.RecordJobRun("skipped")
		return
	}

	s.metrics.RecordJobRun("success")
	s.metrics.RecordPagesPublished(stats.Pages.Edited + stats.Pages.Created)
	s.metrics.RecordLastSuccess()
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, slog.Any("error", err))...)
}
