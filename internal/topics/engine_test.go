package topics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/services"
	"clipforge/internal/topics"
)

type staticSource struct {
	name       string
	candidates []topics.Candidate
	err        error
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Fetch(context.Context, int) ([]topics.Candidate, error) {
	return s.candidates, s.err
}

func topicsConfig(limit int) config.Topics {
	return config.Topics{Limit: limit, SourceTimeoutSeconds: 5}
}

func TestDiscoverMergesAndRanks(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := topics.NewEngineWithSources(topicsConfig(10), []topics.Source{
		&staticSource{name: "a", candidates: []topics.Candidate{
			{Text: "quantum breakthrough", Source: "a", Score: 100, FetchedAt: base},
			{Text: "minor local story", Source: "a", Score: 10, FetchedAt: base},
		}},
		&staticSource{name: "b", candidates: []topics.Candidate{
			{Text: "space launch today", Source: "b", Score: 0.2, FetchedAt: base},
			{Text: "celebrity gossip", Source: "b", Score: 0.9, FetchedAt: base},
		}},
	})

	got, err := engine.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(got))
	}
	// Each source's top item normalizes to 1.0 regardless of native units.
	if got[0].Score != 1.0 || got[1].Score != 1.0 {
		t.Fatalf("per-source winners must both score 1.0, got %v / %v", got[0].Score, got[1].Score)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("candidates out of order at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}
}

func TestDiscoverDeduplicatesKeepingHighest(t *testing.T) {
	base := time.Now().UTC()
	engine := topics.NewEngineWithSources(topicsConfig(10), []topics.Source{
		&staticSource{name: "a", candidates: []topics.Candidate{
			{Text: "India wins match", Source: "a", Score: 0.4, FetchedAt: base},
			{Text: "other story", Source: "a", Score: 1.0, FetchedAt: base},
		}},
		&staticSource{name: "b", candidates: []topics.Candidate{
			{Text: "india wins match ", Source: "b", Score: 1.0, FetchedAt: base},
		}},
	})

	got, err := engine.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	count := 0
	for _, cand := range got {
		if cand.Key() == "india wins match" {
			count++
			if cand.Source != "b" {
				t.Fatalf("expected the higher-scoring duplicate to win, got source %q", cand.Source)
			}
		}
	}
	if count != 1 {
		t.Fatalf("duplicate topic must collapse to one candidate, found %d", count)
	}
}

func TestDiscoverToleratesPartialFailure(t *testing.T) {
	engine := topics.NewEngineWithSources(topicsConfig(10), []topics.Source{
		&staticSource{name: "broken", err: errors.New("rate limited")},
		&staticSource{name: "ok", candidates: []topics.Candidate{
			{Text: "surviving topic", Source: "ok", Score: 0.5, FetchedAt: time.Now().UTC()},
		}},
	})

	got, err := engine.Discover(context.Background())
	if err != nil {
		t.Fatalf("one healthy source should be enough: %v", err)
	}
	if len(got) != 1 || got[0].Text != "surviving topic" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}

func TestDiscoverReturnsEmptyListWhenAllSourcesFail(t *testing.T) {
	engine := topics.NewEngineWithSources(topicsConfig(10), []topics.Source{
		&staticSource{name: "a", err: errors.New("down")},
		&staticSource{name: "b", err: errors.New("also down")},
	})

	got, err := engine.Discover(context.Background())
	if err != nil {
		t.Fatalf("source failures must not fail discovery: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
}

func TestAutoPickReportsWhenNothingDiscovered(t *testing.T) {
	engine := topics.NewEngineWithSources(topicsConfig(10), []topics.Source{
		&staticSource{name: "a", err: errors.New("down")},
	})

	_, err := engine.AutoPick(context.Background(), nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestDiscoverTruncatesToLimit(t *testing.T) {
	base := time.Now().UTC()
	many := make([]topics.Candidate, 0, 8)
	for _, text := range []string{"one", "two", "three", "four", "five", "six", "seven", "eight"} {
		many = append(many, topics.Candidate{Text: text, Source: "a", Score: float64(len(text)), FetchedAt: base})
	}
	engine := topics.NewEngineWithSources(topicsConfig(3), []topics.Source{
		&staticSource{name: "a", candidates: many},
	})

	got, err := engine.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected limit cutoff at 3, got %d", len(got))
	}
}

type fixedPicker struct {
	index int
	err   error
}

func (p fixedPicker) Pick(context.Context, []topics.Candidate) (int, error) {
	return p.index, p.err
}

func TestAutoPickUsesPickerChoice(t *testing.T) {
	base := time.Now().UTC()
	engine := topics.NewEngineWithSources(topicsConfig(10), []topics.Source{
		&staticSource{name: "a", candidates: []topics.Candidate{
			{Text: "top ranked", Source: "a", Score: 1.0, FetchedAt: base},
			{Text: "picker favorite", Source: "a", Score: 0.5, FetchedAt: base},
		}},
	})

	got, err := engine.AutoPick(context.Background(), fixedPicker{index: 1})
	if err != nil {
		t.Fatalf("AutoPick: %v", err)
	}
	if got.Text != "picker favorite" {
		t.Fatalf("picker choice ignored, got %q", got.Text)
	}
}

func TestAutoPickFallsBackWhenPickerFails(t *testing.T) {
	base := time.Now().UTC()
	engine := topics.NewEngineWithSources(topicsConfig(10), []topics.Source{
		&staticSource{name: "a", candidates: []topics.Candidate{
			{Text: "top ranked", Source: "a", Score: 1.0, FetchedAt: base},
			{Text: "runner up", Source: "a", Score: 0.5, FetchedAt: base},
		}},
	})

	got, err := engine.AutoPick(context.Background(), fixedPicker{err: errors.New("llm offline")})
	if err != nil {
		t.Fatalf("AutoPick: %v", err)
	}
	if got.Text != "top ranked" {
		t.Fatalf("expected fallback to top candidate, got %q", got.Text)
	}
}
