package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/season-snow-board/internal/snow"
)

// Runner is the part of snow.Service the scheduler drives.
type Runner interface {
	TryRun(ctx context.Context) (snow.RunReport, error)
}

// Scheduler triggers board runs on a cron schedule.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	expr      string
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

// New creates a new Scheduler evaluating expr in loc. Each run is bounded by timeout.
func New(expr string, loc *time.Location, timeout time.Duration, runner Runner, logger *zap.SugaredLogger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := gocron.NewScheduler(loc)
	// a slow run must never overlap the next tick
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		expr:      expr,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Cron(s.expr).Do(s.runOnce); err != nil {
		return err
	}
	s.scheduler.StartAsync()

	s.logger.Infow("scheduler: started", "schedule", s.expr)
	return nil
}

func (s *Scheduler) runOnce() {
	s.logger.Info("scheduler: running board job")

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.runner.TryRun(ctx)
	switch {
	case errors.Is(err, snow.ErrRunInProgress):
		s.logger.Infow("scheduler: previous run still in progress, skipping")
	case err != nil:
		s.logger.Errorw("scheduler: board job failed", "run_id", report.RunID, "error", err)
	default:
		s.logger.Infow("scheduler: completed board job", "run_id", report.RunID, "published", report.Published)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
