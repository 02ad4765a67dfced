package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"clipforge/internal/retry"
	"clipforge/internal/stage"
	"clipforge/internal/state"
	"clipforge/internal/testsupport"
	"clipforge/internal/topics"
)

type fakeHandler struct {
	name   state.StageName
	output string
	err    error
	calls  int
}

func (f *fakeHandler) Name() state.StageName { return f.name }

func (f *fakeHandler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.output != "" {
		return f.output, nil
	}
	return fmt.Sprintf("%s-output", f.name), nil
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) NotifyDraftReady(ctx context.Context, topic string) error {
	r.events = append(r.events, "draft:"+topic)
	return nil
}

func (r *recordingNotifier) NotifyVideoReady(ctx context.Context, topic, variant, outputPath string) error {
	r.events = append(r.events, fmt.Sprintf("video:%s:%s", variant, outputPath))
	return nil
}

func (r *recordingNotifier) NotifyUploadCompleted(ctx context.Context, topic, variant, watchURL string) error {
	r.events = append(r.events, fmt.Sprintf("upload:%s:%s", variant, watchURL))
	return nil
}

func (r *recordingNotifier) NotifyError(ctx context.Context, err error, contextLabel string) error {
	r.events = append(r.events, "error:"+contextLabel)
	return nil
}

func (r *recordingNotifier) TestNotification(ctx context.Context) error { return nil }

type fixture struct {
	orchestrator *Orchestrator
	notifier     *recordingNotifier
	draft        []*fakeHandler
	produce      []*fakeHandler
	upload       []*fakeHandler
}

func noSleep(context.Context, time.Duration) error { return nil }

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Languages = []string{"en"}
	store, err := state.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{notifier: &recordingNotifier{}}
	f.draft = []*fakeHandler{
		{name: state.StageResearch},
		{name: state.StageDraft},
	}
	f.produce = []*fakeHandler{
		{name: state.StageBroll},
		{name: state.StageVoiceover},
		{name: state.StageTranscribe},
		{name: state.StageCaptions},
		{name: state.StageMusic},
		{name: state.StageAssemble, output: "final.mp4"},
	}
	f.upload = []*fakeHandler{
		{name: state.StageThumbnail},
		{name: state.StageUpload, output: "https://youtu.be/abc123"},
	}

	base := []Option{
		WithNotifier(f.notifier),
		WithRetryOptions(retry.WithSleeper(noSleep)),
		WithPreflight(func() error { return nil }),
		WithPhaseHandlers(PhaseDraft, asHandlers(f.draft)...),
		WithPhaseHandlers(PhaseProduce, asHandlers(f.produce)...),
		WithPhaseHandlers(PhaseUpload, asHandlers(f.upload)...),
	}
	f.orchestrator = NewOrchestrator(cfg, store, append(base, opts...)...)
	return f
}

func asHandlers(fakes []*fakeHandler) []stage.Handler {
	handlers := make([]stage.Handler, len(fakes))
	for i, fake := range fakes {
		handlers[i] = fake
	}
	return handlers
}

func TestRunExecutesAllPhases(t *testing.T) {
	f := newFixture(t)
	unit, err := f.orchestrator.Run(context.Background(), "Ocean exploration", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if unit.Topic != "Ocean exploration" {
		t.Fatalf("unexpected unit topic: %q", unit.Topic)
	}
	for _, fake := range append(append(f.draft, f.produce...), f.upload...) {
		if fake.calls != 1 {
			t.Errorf("stage %s called %d times, want 1", fake.name, fake.calls)
		}
	}

	want := []string{
		"draft:Ocean exploration",
		"video:en:final.mp4",
		"upload:en:https://youtu.be/abc123",
	}
	if len(f.notifier.events) != len(want) {
		t.Fatalf("unexpected notifications: %v", f.notifier.events)
	}
	for i, event := range want {
		if f.notifier.events[i] != event {
			t.Errorf("notification %d = %q, want %q", i, f.notifier.events[i], event)
		}
	}
}

func TestRunDryRunStopsAfterDraft(t *testing.T) {
	f := newFixture(t)
	unit, err := f.orchestrator.Run(context.Background(), "Ocean exploration", true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if unit == nil {
		t.Fatal("expected a drafted unit")
	}
	for _, fake := range f.draft {
		if fake.calls != 1 {
			t.Errorf("draft stage %s called %d times, want 1", fake.name, fake.calls)
		}
	}
	for _, fake := range append(f.produce, f.upload...) {
		if fake.calls != 0 {
			t.Errorf("stage %s should not run in a dry run", fake.name)
		}
	}
}

func TestProduceForceRerunsPhase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unit, err := f.orchestrator.Draft(ctx, "Ocean exploration")
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if err := f.orchestrator.Produce(ctx, unit.ID, false); err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if err := f.orchestrator.Produce(ctx, unit.ID, false); err != nil {
		t.Fatalf("repeat Produce: %v", err)
	}
	for _, fake := range f.produce {
		if fake.calls != 1 {
			t.Errorf("stage %s should be skipped on repeat, got %d calls", fake.name, fake.calls)
		}
	}
	if err := f.orchestrator.Produce(ctx, unit.ID, true); err != nil {
		t.Fatalf("forced Produce: %v", err)
	}
	for _, fake := range f.produce {
		if fake.calls != 2 {
			t.Errorf("stage %s should rerun when forced, got %d calls", fake.name, fake.calls)
		}
	}
	// Forcing produce must not touch the shared draft stages.
	for _, fake := range f.draft {
		if fake.calls != 1 {
			t.Errorf("draft stage %s reran unexpectedly", fake.name)
		}
	}
}

func TestProduceFailureStopsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unit, err := f.orchestrator.Draft(ctx, "Ocean exploration")
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	f.produce[1].err = errors.New("voice service rejected the request")
	if err := f.orchestrator.Produce(ctx, unit.ID, false); err == nil {
		t.Fatal("expected produce failure")
	}
	if f.produce[2].calls != 0 {
		t.Error("downstream stage ran after a failure")
	}
	last := f.notifier.events[len(f.notifier.events)-1]
	if last != "error:produce en" {
		t.Errorf("expected error notification, got %q", last)
	}
}

func TestProduceStopsWhenToolsAreMissing(t *testing.T) {
	missing := errors.New("ffmpeg not installed")
	f := newFixture(t, WithPreflight(func() error { return missing }))
	ctx := context.Background()
	unit, err := f.orchestrator.Draft(ctx, "Ocean exploration")
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if err := f.orchestrator.Produce(ctx, unit.ID, false); !errors.Is(err, missing) {
		t.Fatalf("expected preflight error, got %v", err)
	}
	if f.produce[0].calls != 0 {
		t.Error("produce stage ran despite missing tools")
	}
}

func TestResolveTopicUsesDiscoveryWhenEmpty(t *testing.T) {
	source := &staticSource{name: "manual", items: []topics.Candidate{
		{Text: "Volcanoes under the sea", Source: "manual", Score: 1.0},
	}}
	engine := topics.NewEngineWithSources(testsupport.NewConfig(t).Topics, []topics.Source{source})
	f := newFixture(t, WithEngine(engine), WithPicker(fixedPicker{index: 0}))

	topic, err := f.orchestrator.ResolveTopic(context.Background(), "")
	if err != nil {
		t.Fatalf("ResolveTopic: %v", err)
	}
	if topic != "Volcanoes under the sea" {
		t.Fatalf("unexpected topic: %q", topic)
	}

	explicit, err := f.orchestrator.ResolveTopic(context.Background(), "Given topic")
	if err != nil {
		t.Fatalf("ResolveTopic explicit: %v", err)
	}
	if explicit != "Given topic" {
		t.Fatalf("explicit topic should win, got %q", explicit)
	}
}

func TestLockUnitRejectsConcurrentHolders(t *testing.T) {
	f := newFixture(t)
	unlock, err := f.orchestrator.lockUnit("u1")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := f.orchestrator.lockUnit("u1"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	unlock()
	unlock2, err := f.orchestrator.lockUnit("u1")
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	unlock2()
}

type staticSource struct {
	name  string
	items []topics.Candidate
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Fetch(ctx context.Context, limit int) ([]topics.Candidate, error) {
	return s.items, nil
}

type fixedPicker struct {
	index int
}

func (p fixedPicker) Pick(ctx context.Context, candidates []topics.Candidate) (int, error) {
	return p.index, nil
}
