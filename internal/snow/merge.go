package snow

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// MergeValue clamps a fetched value to the stored maximum. A failed fetch
// keeps the stored value unchanged.
func MergeValue(previous float64, res FetchResult) float64 {
	if !res.OK() {
		return previous
	}
	return math.Max(res.Inches, previous)
}

// Merger fetches each resort and folds the result into the prior totals.
type Merger struct {
	provider Provider
	policy   SeasonStartPolicy
	logger   *zap.SugaredLogger
}

// NewMerger creates a Merger. A nil policy means CalendarYearStart.
func NewMerger(provider Provider, policy SeasonStartPolicy, logger *zap.SugaredLogger) *Merger {
	if policy == nil {
		policy = CalendarYearStart
	}
	return &Merger{
		provider: provider,
		policy:   policy,
		logger:   logger,
	}
}

// Fetch queries the provider for one resort. It never returns an error;
// failures are carried in the result.
func (m *Merger) Fetch(ctx context.Context, resort Resort, rng DateRange) FetchResult {
	reading, err := m.provider.FetchSeason(ctx, resort, rng)
	if err != nil {
		return Failed(resort.Name, err)
	}
	reading.Resort = resort.Name
	return Succeeded(reading)
}

// MergeAll fetches every resort in order and returns the new totals together
// with each fetch result. Only configured resorts appear in the new totals.
func (m *Merger) MergeAll(ctx context.Context, resorts []Resort, prior Totals, now time.Time) (Totals, []FetchResult) {
	rng := SeasonRange(now, m.policy)
	next := make(Totals, len(resorts))
	results := make([]FetchResult, 0, len(resorts))

	for _, r := range resorts {
		previous := prior[r.Name]
		res := m.Fetch(ctx, r, rng)
		next[r.Name] = MergeValue(previous, res)
		results = append(results, res)

		if !res.OK() {
			m.logger.Warnw("merger: fetch failed, keeping stored total",
				"resort", r.Name,
				"kind", res.Kind,
				"stored", previous,
				"error", res.Err,
			)
			continue
		}
		if res.Inches < previous {
			m.logger.Infow("merger: fetched total below stored, clamping",
				"resort", r.Name,
				"fetched", res.Inches,
				"stored", previous,
			)
			continue
		}
		m.logger.Debugw("merger: fetched total",
			"resort", r.Name,
			"inches", res.Inches,
			"days", res.Reading.Days,
			"skipped", res.Reading.Skipped,
		)
	}

	return next, results
}
