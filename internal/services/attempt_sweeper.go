package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = time.Minute

// AttemptSweeper periodically expires in-progress attempts whose time limit has
// passed. Submission already rejects late answers, so the sweeper only tidies
// the stored status.
type AttemptSweeper struct {
	cron     *cron.Cron
	attempts AttemptService
	schedule string
	logger   *slog.Logger
}

func NewAttemptSweeper(attempts AttemptService, schedule string, logger *slog.Logger) *AttemptSweeper {
	return &AttemptSweeper{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		attempts: attempts,
		schedule: schedule,
		logger:   logger,
	}
}

// Enabled reports whether a schedule is configured.
func (s *AttemptSweeper) Enabled() bool {
	return s != nil && s.schedule != ""
}

// Start registers the sweep job and starts the scheduler. It is a no-op without a schedule.
func (s *AttemptSweeper) Start() error {
	if !s.Enabled() {
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Attempt sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid attempt sweep schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("Attempt sweeper started", "schedule", s.schedule)
	return nil
}

// RunOnce performs a single sweep.
func (s *AttemptSweeper) RunOnce(ctx context.Context) (int, error) {
	count, err := s.attempts.ExpireOverdue(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("Attempt sweep finished", "expired", count)
	return count, nil
}

// Stop waits for a running sweep to finish or for ctx to be done.
func (s *AttemptSweeper) Stop(ctx context.Context) {
	if !s.Enabled() {
		return
	}

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Attempt sweeper stopped")
	case <-ctx.Done():
		s.logger.Warn("Attempt sweeper stop timed out")
	}
}
