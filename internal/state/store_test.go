package state_test

import (
	"context"
	"errors"
	"testing"

	"clipforge/internal/services"
	"clipforge/internal/state"
	"clipforge/internal/testsupport"
)

func TestCreateAndGetUnit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	unit, err := store.CreateUnit(ctx, "India wins match")
	if err != nil {
		t.Fatalf("CreateUnit: %v", err)
	}
	if unit.ID == "" {
		t.Fatal("expected unit ID to be assigned")
	}

	fetched, err := store.GetUnit(ctx, unit.ID)
	if err != nil {
		t.Fatalf("GetUnit: %v", err)
	}
	if fetched.Topic != "India wins match" {
		t.Fatalf("unexpected topic: %q", fetched.Topic)
	}
}

func TestCreateUnitRequiresTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.CreateUnit(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestCreateUnitDisambiguatesSameSecond(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := store.CreateUnit(ctx, "topic one")
	if err != nil {
		t.Fatalf("CreateUnit: %v", err)
	}
	second, err := store.CreateUnit(ctx, "topic two")
	if err != nil {
		t.Fatalf("CreateUnit (second): %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct IDs, both are %q", first.ID)
	}
}

func TestGetUnitNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.GetUnit(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
}

func TestSnapshotDefaultsToPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	unit := testsupport.NewUnit(t, store, "fresh topic")

	snap, err := store.Snapshot(context.Background(), unit.ID, "en")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	records := snap.Records()
	if len(records) != len(state.Order()) {
		t.Fatalf("expected %d records, got %d", len(state.Order()), len(records))
	}
	for _, rec := range records {
		if rec.Status != state.StatusPending {
			t.Fatalf("stage %s should start pending, got %s", rec.Name, rec.Status)
		}
	}
}

func TestMarkDoneRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	unit := testsupport.NewUnit(t, store, "round trip")
	ctx := context.Background()

	if err := store.MarkDone(ctx, unit.ID, "en", state.StageResearch, "/tmp/research.txt"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	snap, err := store.Snapshot(ctx, unit.ID, "en")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	rec, ok := snap.Record(state.StageResearch)
	if !ok {
		t.Fatal("missing research record")
	}
	if rec.Status != state.StatusDone {
		t.Fatalf("unexpected status: %s", rec.Status)
	}
	if rec.OutputRef != "/tmp/research.txt" {
		t.Fatalf("unexpected output ref: %q", rec.OutputRef)
	}
	if rec.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}
}

func TestMarkDoneSurvivesReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	unit := testsupport.NewUnit(t, store, "crash safety")
	ctx := context.Background()

	if err := store.MarkDone(ctx, unit.ID, "", state.StageDraft, "/tmp/draft.json"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	// Simulate a crash: abandon the handle and reopen from disk.
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := state.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	snap, err := reopened.Snapshot(ctx, unit.ID, "en")
	if err != nil {
		t.Fatalf("Snapshot after reopen: %v", err)
	}
	if !snap.IsDone(state.StageDraft) {
		t.Fatal("draft must remain done after reopen")
	}
	if snap.Output(state.StageDraft) != "/tmp/draft.json" {
		t.Fatalf("unexpected output ref: %q", snap.Output(state.StageDraft))
	}
}

func TestMarkFailedPreservesPreviousOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	unit := testsupport.NewUnit(t, store, "failed rerun")
	ctx := context.Background()

	if err := store.MarkDone(ctx, unit.ID, "en", state.StageBroll, "/tmp/frames"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := store.MarkFailed(ctx, unit.ID, "en", state.StageBroll, "image api 429"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	snap, err := store.Snapshot(ctx, unit.ID, "en")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	rec, _ := snap.Record(state.StageBroll)
	if rec.Status != state.StatusFailed {
		t.Fatalf("unexpected status: %s", rec.Status)
	}
	if rec.Error != "image api 429" {
		t.Fatalf("unexpected error: %q", rec.Error)
	}
	if rec.OutputRef != "/tmp/frames" {
		t.Fatalf("previous output ref must survive a failed re-run, got %q", rec.OutputRef)
	}
	if snap.Output(state.StageBroll) != "" {
		t.Fatal("Output must not expose refs from non-done stages")
	}
}

func TestSharedStagesVisibleAcrossVariants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	unit := testsupport.NewUnit(t, store, "shared draft")
	ctx := context.Background()

	if err := store.MarkDone(ctx, unit.ID, "en", state.StageDraft, "/tmp/draft.json"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := store.MarkDone(ctx, unit.ID, "en", state.StageBroll, "/tmp/frames-en"); err != nil {
		t.Fatalf("MarkDone broll: %v", err)
	}

	hiSnap, err := store.Snapshot(ctx, unit.ID, "hi")
	if err != nil {
		t.Fatalf("Snapshot hi: %v", err)
	}
	if !hiSnap.IsDone(state.StageDraft) {
		t.Fatal("draft is shared and must be visible to every variant")
	}
	if hiSnap.IsDone(state.StageBroll) {
		t.Fatal("broll is per-variant and must not leak across variants")
	}
}

func TestResetFromCascadesDownstream(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	unit := testsupport.NewUnit(t, store, "cascade")
	ctx := context.Background()

	for _, st := range []state.StageName{state.StageResearch, state.StageDraft} {
		if err := store.MarkDone(ctx, unit.ID, "", st, "ref-"+string(st)); err != nil {
			t.Fatalf("MarkDone %s: %v", st, err)
		}
	}
	for _, st := range []state.StageName{state.StageBroll, state.StageVoiceover} {
		if err := store.MarkDone(ctx, unit.ID, "en", st, "ref-"+string(st)); err != nil {
			t.Fatalf("MarkDone %s: %v", st, err)
		}
	}

	if err := store.ResetFrom(ctx, unit.ID, "en", state.StageBroll); err != nil {
		t.Fatalf("ResetFrom: %v", err)
	}

	snap, err := store.Snapshot(ctx, unit.ID, "en")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snap.IsDone(state.StageDraft) {
		t.Fatal("upstream draft must stay done")
	}
	for _, st := range []state.StageName{state.StageBroll, state.StageVoiceover} {
		rec, _ := snap.Record(st)
		if rec.Status != state.StatusPending {
			t.Fatalf("stage %s must be reset, got %s", st, rec.Status)
		}
		if rec.OutputRef != "" {
			t.Fatalf("stage %s output must be cleared, got %q", st, rec.OutputRef)
		}
	}
}

func TestResetSharedStageInvalidatesAllVariants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	unit := testsupport.NewUnit(t, store, "cascade all variants")
	ctx := context.Background()

	if err := store.MarkDone(ctx, unit.ID, "", state.StageDraft, "draft"); err != nil {
		t.Fatalf("MarkDone draft: %v", err)
	}
	if err := store.MarkDone(ctx, unit.ID, "en", state.StageBroll, "frames-en"); err != nil {
		t.Fatalf("MarkDone en broll: %v", err)
	}
	if err := store.MarkDone(ctx, unit.ID, "hi", state.StageBroll, "frames-hi"); err != nil {
		t.Fatalf("MarkDone hi broll: %v", err)
	}

	if err := store.ResetFrom(ctx, unit.ID, "en", state.StageDraft); err != nil {
		t.Fatalf("ResetFrom: %v", err)
	}

	for _, variant := range []string{"en", "hi"} {
		snap, err := store.Snapshot(ctx, unit.ID, variant)
		if err != nil {
			t.Fatalf("Snapshot %s: %v", variant, err)
		}
		if snap.IsDone(state.StageDraft) || snap.IsDone(state.StageBroll) {
			t.Fatalf("variant %s must be fully invalidated after shared reset", variant)
		}
	}
}
