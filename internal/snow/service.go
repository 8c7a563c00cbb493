package snow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/season-snow-board/internal/board"
)

// ErrRunInProgress is returned by TryRun while another run holds the service.
var ErrRunInProgress = errors.New("a run is already in progress")

// RunReport describes one completed (or partially completed) run.
type RunReport struct {
	RunID     string
	StartedAt time.Time
	Prior     Totals
	Totals    Totals
	Results   []FetchResult
	Board     board.Payload
	Published bool
}

// Options tweak a Service.
type Options struct {
	// DryRun renders and logs the board without saving totals or publishing.
	DryRun bool
	Policy SeasonStartPolicy
	Now    func() time.Time
}

// Service sequences one run: load, fetch and merge, save, render, publish.
type Service struct {
	resorts   []Resort
	store     Store
	merger    *Merger
	renderer  Renderer
	publisher Publisher
	logger    *zap.SugaredLogger
	dryRun    bool
	now       func() time.Time

	runMu sync.Mutex

	mu   sync.RWMutex
	last *RunReport
}

// NewService creates a new Service.
func NewService(
	resorts []Resort,
	store Store,
	provider Provider,
	renderer Renderer,
	publisher Publisher,
	logger *zap.SugaredLogger,
	opts Options,
) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		resorts:   resorts,
		store:     store,
		merger:    NewMerger(provider, opts.Policy, logger),
		renderer:  renderer,
		publisher: publisher,
		logger:    logger,
		dryRun:    opts.DryRun,
		now:       now,
	}
}

// Resorts returns the configured resorts in display order.
func (s *Service) Resorts() []Resort {
	return s.resorts
}

// Totals returns what is currently stored.
func (s *Service) Totals(ctx context.Context) (Totals, error) {
	return s.store.Load(ctx)
}

// LastReport returns the most recent run that got as far as rendering.
func (s *Service) LastReport() (RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return RunReport{}, false
	}
	return *s.last, true
}

// TryRun runs unless another run is in progress.
func (s *Service) TryRun(ctx context.Context) (RunReport, error) {
	if !s.runMu.TryLock() {
		return RunReport{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	return s.run(ctx)
}

// Run performs one full pass. Per-resort fetch failures never fail the run;
// load, save and publish failures do. Totals are saved before publishing,
// and never in a dry run.
func (s *Service) Run(ctx context.Context) (RunReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	return s.run(ctx)
}

func (s *Service) run(ctx context.Context) (RunReport, error) {
	report := RunReport{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}
	log := s.logger.With("run_id", report.RunID)
	log.Infow("service: run started", "resorts", len(s.resorts), "dry_run", s.dryRun)

	prior, err := s.store.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("load totals: %w", err)
	}
	report.Prior = prior

	report.Totals, report.Results = s.merger.MergeAll(ctx, s.resorts, prior, report.StartedAt)

	if s.dryRun {
		report.Board = s.renderer.Render(report.Totals, s.now())
		s.remember(report)
		for _, line := range report.Board {
			log.Infof("service: |%s|", line)
		}
		log.Info("service: dry run, totals not saved and board not published")
		return report, nil
	}

	if err := s.store.Save(ctx, report.Totals); err != nil {
		return report, fmt.Errorf("save totals: %w", err)
	}

	report.Board = s.renderer.Render(report.Totals, s.now())
	s.remember(report)

	if s.publisher == nil {
		return report, errors.New("publish board: no publisher configured")
	}
	if err := s.publisher.Publish(ctx, report.Board.Text()); err != nil {
		return report, fmt.Errorf("publish board: %w", err)
	}
	report.Published = true
	s.remember(report)

	failed := 0
	for _, r := range report.Results {
		if !r.OK() {
			failed++
		}
	}
	log.Infow("service: run completed", "failed_fetches", failed)
	return report, nil
}

func (s *Service) remember(report RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &report
}
