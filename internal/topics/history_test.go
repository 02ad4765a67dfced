package topics_test

import (
	"context"
	"testing"
	"time"

	"clipforge/internal/testsupport"
	"clipforge/internal/topics"
)

func TestHistoryFiltersUsedTopics(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	history := topics.NewHistory(store)
	ctx := context.Background()

	now := time.Now().UTC()
	candidates := []topics.Candidate{
		{Text: "Fresh topic", Source: "manual", Score: 1.0, FetchedAt: now},
		{Text: "Already produced", Source: "manual", Score: 0.9, FetchedAt: now},
	}
	if err := history.RecordSeen(ctx, candidates); err != nil {
		t.Fatalf("RecordSeen: %v", err)
	}
	if err := history.MarkUsed(ctx, "already produced"); err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}

	got, err := history.FilterUsed(ctx, candidates)
	if err != nil {
		t.Fatalf("FilterUsed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "Fresh topic" {
		t.Fatalf("expected only the unused topic, got %+v", got)
	}
}

func TestHistoryRecordSeenKeepsHighestScore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	history := topics.NewHistory(store)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := history.RecordSeen(ctx, []topics.Candidate{
		{Text: "Breaking story", Source: "reddit", Score: 0.3, FetchedAt: now},
	}); err != nil {
		t.Fatalf("RecordSeen: %v", err)
	}
	if err := history.RecordSeen(ctx, []topics.Candidate{
		{Text: "breaking story", Source: "trends", Score: 0.8, FetchedAt: now},
	}); err != nil {
		t.Fatalf("RecordSeen (second): %v", err)
	}

	var score float64
	row := store.DB().QueryRowContext(ctx, "SELECT score FROM topic_history WHERE normalized = ?", "breaking story")
	if err := row.Scan(&score); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if score != 0.8 {
		t.Fatalf("expected highest score to win, got %v", score)
	}
}

func TestHistoryMarkUsedIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	history := topics.NewHistory(store)
	ctx := context.Background()

	if err := history.MarkUsed(ctx, "Some topic"); err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}
	if err := history.MarkUsed(ctx, "some  topic"); err != nil {
		t.Fatalf("MarkUsed (repeat): %v", err)
	}

	got, err := history.FilterUsed(ctx, []topics.Candidate{{Text: "SOME TOPIC"}})
	if err != nil {
		t.Fatalf("FilterUsed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("used topic must be filtered regardless of casing, got %+v", got)
	}
}
