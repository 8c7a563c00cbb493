package snow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/season-snow-board/internal/board"
)

var testResorts = []Resort{
	{Name: "JHMR", Lat: 43.585, Lon: -110.826},
	{Name: "TARGHEE", Lat: 43.789, Lon: -110.958},
	{Name: "SNOWBIRD", Lat: 40.581, Lon: -111.654},
	{Name: "VAIL", Lat: 39.606, Lon: -106.355},
}

// stubProvider answers in inches so expectations read naturally.
type stubProvider struct {
	mu     sync.Mutex
	inches map[string]float64
	errs   map[string]error
	calls  []string
	ranges []DateRange
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) FetchSeason(_ context.Context, r Resort, rng DateRange) (SeasonReading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, r.Name)
	p.ranges = append(p.ranges, rng)
	if err := p.errs[r.Name]; err != nil {
		return SeasonReading{}, err
	}
	return SeasonReading{ProviderName: "stub", Range: rng, SnowfallCM: p.inches[r.Name] / inchesPerCM, Days: 1}, nil
}

type stubStore struct {
	totals  Totals
	loadErr error
	saveErr error
	saves   int
}

func (s *stubStore) Load(context.Context) (Totals, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.totals == nil {
		return ZeroTotals(testResorts), nil
	}
	return s.totals.Clone(), nil
}

func (s *stubStore) Save(_ context.Context, t Totals) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.totals = t.Clone()
	return nil
}

type stubPublisher struct {
	texts []string
	err   error
}

func (p *stubPublisher) Publish(_ context.Context, text string) error {
	p.texts = append(p.texts, text)
	return p.err
}

var fixedNow = time.Date(2025, time.November, 12, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store Store, provider Provider, pub Publisher, opts Options) *Service {
	t.Helper()
	labels := make([]string, 0, len(testResorts))
	for _, r := range testResorts {
		labels = append(labels, r.Name)
	}
	f, err := board.NewFormatter(labels, time.FixedZone("MST", -7*60*60))
	require.NoError(t, err)

	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return NewService(testResorts, store, provider, f, pub, zap.NewNop().Sugar(), opts)
}

func TestServiceRunMergesAndPublishes(t *testing.T) {
	store := &stubStore{totals: Totals{"JHMR": 40.2, "TARGHEE": 35.0, "SNOWBIRD": 50.1, "VAIL": 22.3}}
	provider := &stubProvider{
		inches: map[string]float64{"JHMR": 41.0, "TARGHEE": 34.5, "VAIL": 22.3},
		errs:   map[string]error{"SNOWBIRD": ErrTransport},
	}
	pub := &stubPublisher{}
	svc := newTestService(t, store, provider, pub, Options{})

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	want := Totals{"JHMR": 41.0, "TARGHEE": 35.0, "SNOWBIRD": 50.1, "VAIL": 22.3}
	require.Equal(t, want, report.Totals)
	require.Equal(t, want, store.totals)
	require.True(t, report.Published)
	require.NotEmpty(t, report.RunID)

	require.Equal(t, []string{"JHMR", "TARGHEE", "SNOWBIRD", "VAIL"}, provider.calls)
	for _, rng := range provider.ranges {
		require.Equal(t, "2025-10-01", rng.StartDate())
		require.Equal(t, "2025-11-12", rng.EndDate())
	}

	require.Len(t, report.Results, 4)
	require.False(t, report.Results[2].OK())
	require.Equal(t, KindTransport, report.Results[2].Kind)

	require.Len(t, pub.texts, 1)
	require.Equal(t, strings.Join([]string{
		"  SEASON SNOW TOTALS  ",
		`JHMR.............41.0"`,
		`TARGHEE..........35.0"`,
		`SNOWBIRD.........50.1"`,
		`VAIL.............22.3"`,
		" UPDATED NOV 12 05:00 ",
	}, "\n"), pub.texts[0])

	last, ok := svc.LastReport()
	require.True(t, ok)
	require.Equal(t, report.RunID, last.RunID)
}

func TestServiceRunFromEmptyState(t *testing.T) {
	store := &stubStore{}
	provider := &stubProvider{inches: map[string]float64{"JHMR": 3.1, "TARGHEE": 2.0, "SNOWBIRD": 0, "VAIL": 1.2}}
	svc := newTestService(t, store, provider, &stubPublisher{}, Options{})

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Totals{"JHMR": 3.1, "TARGHEE": 2.0, "SNOWBIRD": 0, "VAIL": 1.2}, report.Totals)
}

func TestServiceDropsUnconfiguredKeys(t *testing.T) {
	store := &stubStore{totals: Totals{"JHMR": 1, "TARGHEE": 1, "SNOWBIRD": 1, "VAIL": 1, "ALTA": 80}}
	provider := &stubProvider{errs: map[string]error{
		"JHMR": ErrTransport, "TARGHEE": ErrTransport, "SNOWBIRD": ErrTransport, "VAIL": ErrTransport,
	}}
	svc := newTestService(t, store, provider, &stubPublisher{}, Options{})

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Totals{"JHMR": 1, "TARGHEE": 1, "SNOWBIRD": 1, "VAIL": 1}, store.totals)
}

func TestServiceTotalsNeverDecrease(t *testing.T) {
	store := &stubStore{}
	provider := &stubProvider{}
	svc := newTestService(t, store, provider, &stubPublisher{}, Options{})

	steps := []struct {
		fetched float64
		err     error
		want    float64
	}{
		{fetched: 10.0, want: 10.0},
		{fetched: 8.0, want: 10.0},
		{err: ErrMalformedResponse, want: 10.0},
		{fetched: 12.5, want: 12.5},
		{fetched: 12.4, want: 12.5},
		{err: ErrUpstreamStatus, want: 12.5},
	}

	for i, step := range steps {
		provider.inches = map[string]float64{}
		provider.errs = map[string]error{}
		for _, r := range testResorts {
			provider.inches[r.Name] = step.fetched
			provider.errs[r.Name] = step.err
		}

		report, err := svc.Run(context.Background())
		require.NoError(t, err, "step %d", i)
		for _, r := range testResorts {
			require.Equal(t, step.want, report.Totals[r.Name], "step %d resort %s", i, r.Name)
			require.GreaterOrEqual(t, report.Totals[r.Name], report.Prior[r.Name])
		}
	}
}

func TestServicePublishFailureKeepsSavedTotals(t *testing.T) {
	store := &stubStore{}
	provider := &stubProvider{inches: map[string]float64{"JHMR": 5.0}}
	pub := &stubPublisher{err: errors.New("status=503")}
	svc := newTestService(t, store, provider, pub, Options{})

	report, err := svc.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "publish board")
	require.False(t, report.Published)
	require.Equal(t, 1, store.saves)
	require.Equal(t, 5.0, store.totals["JHMR"])

	last, ok := svc.LastReport()
	require.True(t, ok)
	require.False(t, last.Published)
}

func TestServiceSaveFailureSkipsPublish(t *testing.T) {
	store := &stubStore{saveErr: errors.New("disk full")}
	pub := &stubPublisher{}
	svc := newTestService(t, store, &stubProvider{}, pub, Options{})

	_, err := svc.Run(context.Background())
	require.ErrorContains(t, err, "save totals")
	require.Empty(t, pub.texts)

	_, ok := svc.LastReport()
	require.False(t, ok)
}

func TestServiceLoadFailureAbortsRun(t *testing.T) {
	store := &stubStore{loadErr: errors.New("invalid character")}
	provider := &stubProvider{}
	svc := newTestService(t, store, provider, &stubPublisher{}, Options{})

	_, err := svc.Run(context.Background())
	require.ErrorContains(t, err, "load totals")
	require.Empty(t, provider.calls)
}

func TestServiceDryRunDoesNotPublishOrSave(t *testing.T) {
	store := &stubStore{totals: Totals{"JHMR": 0, "TARGHEE": 0, "SNOWBIRD": 0, "VAIL": 1.2}}
	provider := &stubProvider{inches: map[string]float64{"VAIL": 4.4}}
	svc := newTestService(t, store, provider, nil, Options{DryRun: true})

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.False(t, report.Published)
	require.Equal(t, `VAIL..............4.4"`, report.Board[4])
	require.Equal(t, 4.4, report.Totals["VAIL"])

	require.Zero(t, store.saves)
	require.Equal(t, 1.2, store.totals["VAIL"])

	last, ok := svc.LastReport()
	require.True(t, ok)
	require.Equal(t, report.RunID, last.RunID)
}

func TestServiceWithoutPublisherFails(t *testing.T) {
	svc := newTestService(t, &stubStore{}, &stubProvider{}, nil, Options{})

	_, err := svc.Run(context.Background())
	require.ErrorContains(t, err, "no publisher configured")
}

func TestServiceTryRunRejectsOverlap(t *testing.T) {
	svc := newTestService(t, &stubStore{}, &stubProvider{}, &stubPublisher{}, Options{})

	svc.runMu.Lock()
	_, err := svc.TryRun(context.Background())
	svc.runMu.Unlock()
	require.ErrorIs(t, err, ErrRunInProgress)

	_, err = svc.TryRun(context.Background())
	require.NoError(t, err)
}

func TestServiceRollingPolicy(t *testing.T) {
	provider := &stubProvider{}
	jan := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, &stubStore{}, provider, &stubPublisher{}, Options{
		Policy: RollingSeasonStart,
		Now:    func() time.Time { return jan },
	})

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2025-10-01", provider.ranges[0].StartDate())
	require.Equal(t, "2026-01-15", provider.ranges[0].EndDate())
}
