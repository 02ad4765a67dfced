package topics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// Picker chooses one candidate from a ranked list, typically backed by a
// language model. Index must point into the given slice.
type Picker interface {
	Pick(ctx context.Context, candidates []Candidate) (int, error)
}

// Engine fans discovery out across all enabled sources, normalizes their
// scores onto a shared scale, and returns a ranked, deduplicated list.
type Engine struct {
	sources []Source
	history *History
	limit   int
	timeout time.Duration
	logger  *slog.Logger
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithHistory filters out topics that were already produced and records
// everything the sources surface.
func WithHistory(history *History) Option {
	return func(e *Engine) { e.history = history }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine builds an engine over the enabled sources in cfg.
func NewEngine(cfg config.Topics, opts ...Option) *Engine {
	var sources []Source
	if cfg.Manual.Enabled {
		sources = append(sources, NewManualSource(cfg.Manual))
	}
	if cfg.Reddit.Enabled {
		sources = append(sources, NewRedditSource(cfg.Reddit))
	}
	if cfg.Feeds.Enabled {
		sources = append(sources, NewFeedSource(cfg.Feeds))
	}
	if cfg.Trends.Enabled {
		sources = append(sources, NewTrendsSource(cfg.Trends))
	}
	if cfg.Twitter.Enabled {
		sources = append(sources, NewTwitterSource())
	}
	return newEngine(cfg, sources, opts...)
}

// NewEngineWithSources is the injection seam for tests and custom sources.
func NewEngineWithSources(cfg config.Topics, sources []Source, opts ...Option) *Engine {
	return newEngine(cfg, sources, opts...)
}

func newEngine(cfg config.Topics, sources []Source, opts ...Option) *Engine {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	timeout := time.Duration(cfg.SourceTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	engine := &Engine{
		sources: sources,
		limit:   limit,
		timeout: timeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

type fetchResult struct {
	source     string
	candidates []Candidate
	err        error
}

// Discover queries every source concurrently and merges the results. A
// failing source is logged and skipped, so a run where every source fails
// yields an empty list rather than an error. Callers decide how to surface
// "no candidates".
func (e *Engine) Discover(ctx context.Context) ([]Candidate, error) {
	if len(e.sources) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "discover", "no topic sources enabled", nil)
	}

	results := make(chan fetchResult, len(e.sources))
	var wg sync.WaitGroup
	for _, source := range e.sources {
		wg.Add(1)
		go func(source Source) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()
			candidates, err := source.Fetch(fetchCtx, e.limit)
			results <- fetchResult{source: source.Name(), candidates: candidates, err: err}
		}(source)
	}
	wg.Wait()
	close(results)

	var merged []Candidate
	for result := range results {
		if result.err != nil {
			e.logger.Warn("topic source failed",
				logging.String(logging.FieldSource, result.source),
				logging.Error(result.err),
			)
			continue
		}
		merged = append(merged, normalizeScores(result.candidates)...)
		e.logger.Debug("topic source fetched",
			logging.String(logging.FieldSource, result.source),
			logging.Int("candidates", len(result.candidates)),
		)
	}
	merged = dedupe(merged)

	if e.history != nil {
		if err := e.history.RecordSeen(ctx, merged); err != nil {
			e.logger.Warn("recording topic history failed", logging.Error(err))
		}
		filtered, err := e.history.FilterUsed(ctx, merged)
		if err != nil {
			e.logger.Warn("topic history filter failed", logging.Error(err))
		} else {
			merged = filtered
		}
	}

	rank(merged)
	if len(merged) > e.limit {
		merged = merged[:e.limit]
	}
	return merged, nil
}

// AutoPick discovers topics and selects one. When a picker is supplied its
// choice wins; otherwise, or when the picker fails, the top-ranked candidate
// is used.
func (e *Engine) AutoPick(ctx context.Context, picker Picker) (Candidate, error) {
	candidates, err := e.Discover(ctx)
	if err != nil {
		return Candidate{}, err
	}
	if len(candidates) == 0 {
		return Candidate{}, services.Wrap(services.ErrNotFound, "", "discover", "no usable topics found", nil)
	}

	choice := 0
	if picker != nil {
		idx, err := picker.Pick(ctx, candidates)
		switch {
		case err != nil:
			e.logger.Warn("topic picker failed, using top-ranked candidate", logging.Error(err))
		case idx < 0 || idx >= len(candidates):
			e.logger.Warn("topic picker returned out-of-range index", logging.Int("index", idx))
		default:
			choice = idx
		}
	}
	return candidates[choice], nil
}

// normalizeScores rescales one source's scores onto [0,1] with min-max so no
// source can dominate purely through its native score units.
func normalizeScores(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return candidates
	}
	min, max := candidates[0].Score, candidates[0].Score
	for _, cand := range candidates[1:] {
		if cand.Score < min {
			min = cand.Score
		}
		if cand.Score > max {
			max = cand.Score
		}
	}
	span := max - min
	out := make([]Candidate, len(candidates))
	for i, cand := range candidates {
		if span == 0 {
			cand.Score = 1.0
		} else {
			cand.Score = (cand.Score - min) / span
		}
		out[i] = cand
	}
	return out
}

// dedupe collapses candidates sharing a normalized key, keeping the highest
// scoring occurrence.
func dedupe(candidates []Candidate) []Candidate {
	best := make(map[string]int, len(candidates))
	var out []Candidate
	for _, cand := range candidates {
		key := cand.Key()
		if key == "" {
			continue
		}
		if i, ok := best[key]; ok {
			if cand.Score > out[i].Score {
				out[i] = cand
			}
			continue
		}
		best[key] = len(out)
		out = append(out, cand)
	}
	return out
}

// rank orders by score descending; ties break on fetch time then text so the
// ordering is stable across runs.
func rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if !candidates[i].FetchedAt.Equal(candidates[j].FetchedAt) {
			return candidates[i].FetchedAt.Before(candidates[j].FetchedAt)
		}
		return candidates[i].Text < candidates[j].Text
	})
}
