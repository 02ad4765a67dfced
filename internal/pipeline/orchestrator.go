package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"clipforge/internal/assemble"
	"clipforge/internal/broll"
	"clipforge/internal/captions"
	"clipforge/internal/config"
	"clipforge/internal/deps"
	"clipforge/internal/logging"
	"clipforge/internal/music"
	"clipforge/internal/notifications"
	"clipforge/internal/research"
	"clipforge/internal/retry"
	"clipforge/internal/scriptgen"
	"clipforge/internal/services"
	"clipforge/internal/services/imagegen"
	"clipforge/internal/services/llm"
	"clipforge/internal/stage"
	"clipforge/internal/state"
	"clipforge/internal/thumbnail"
	"clipforge/internal/topics"
	"clipforge/internal/upload"
	"clipforge/internal/voiceover"
)

// ErrBusy reports that another clipforge process holds the unit's lock.
var ErrBusy = errors.New("work unit is locked by another process")

// Option adjusts orchestrator construction.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) { o.notifier = notifier }
}

// WithRetryOptions forwards retry options to the stage runner, mainly so
// tests can drop the backoff sleep.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(o *Orchestrator) { o.retryOpts = opts }
}

// WithEngine replaces the topic discovery engine.
func WithEngine(engine *topics.Engine) Option {
	return func(o *Orchestrator) { o.engine = engine }
}

// WithPicker replaces the model-backed topic picker.
func WithPicker(picker topics.Picker) Option {
	return func(o *Orchestrator) { o.picker = picker }
}

// WithPreflight replaces the external tool check run before produce.
func WithPreflight(preflight func() error) Option {
	return func(o *Orchestrator) { o.preflight = preflight }
}

// WithPhaseHandlers replaces the handlers one phase runs.
func WithPhaseHandlers(phase Phase, handlers ...stage.Handler) Option {
	return func(o *Orchestrator) {
		if o.handlers == nil {
			o.handlers = map[Phase][]stage.Handler{}
		}
		o.handlers[phase] = handlers
	}
}

// Orchestrator drives work units through the draft, produce, and upload
// phases, holding a per-unit file lock for the duration of each phase.
type Orchestrator struct {
	cfg       *config.Config
	store     *state.Store
	logger    *slog.Logger
	notifier  notifications.Service
	runner    *stage.Runner
	history   *topics.History
	engine    *topics.Engine
	picker    topics.Picker
	handlers  map[Phase][]stage.Handler
	retryOpts []retry.Option
	preflight func() error
}

func NewOrchestrator(cfg *config.Config, store *state.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{cfg: cfg, store: store}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.notifier == nil {
		o.notifier = notifications.NewService(cfg)
	}
	o.runner = stage.NewRunner(cfg, store, o.logger, o.retryOpts...)
	o.history = topics.NewHistory(store)
	if o.engine == nil {
		o.engine = topics.NewEngine(cfg.Topics,
			topics.WithHistory(o.history),
			topics.WithLogger(o.logger))
	}

	if o.preflight == nil {
		o.preflight = func() error {
			missing := deps.Missing(deps.CheckBinaries(deps.Requirements(cfg)))
			if len(missing) == 0 {
				return nil
			}
			names := make([]string, 0, len(missing))
			for _, status := range missing {
				names = append(names, status.Command)
			}
			return services.Wrap(services.ErrConfiguration, "", "preflight",
				"missing external tools: "+strings.Join(names, ", "), nil)
		}
	}

	llmClient := llm.NewClient(cfg.LLM)
	imageClient := imagegen.NewClient(cfg.ImageGen)
	if o.picker == nil {
		o.picker = scriptgen.NewTopicPicker(llmClient)
	}
	if o.handlers == nil {
		o.handlers = map[Phase][]stage.Handler{}
	}
	if o.handlers[PhaseDraft] == nil {
		o.handlers[PhaseDraft] = []stage.Handler{
			research.NewHandler(),
			scriptgen.NewHandler(llmClient, cfg.Languages),
		}
	}
	if o.handlers[PhaseProduce] == nil {
		o.handlers[PhaseProduce] = []stage.Handler{
			broll.NewHandler(imageClient),
			voiceover.NewHandler(cfg.Voiceover),
			captions.NewTranscribeHandler(cfg.WhisperBinary(), ""),
			captions.NewHandler(),
			music.NewHandler(),
			assemble.NewHandler(),
		}
	}
	if o.handlers[PhaseUpload] == nil {
		o.handlers[PhaseUpload] = []stage.Handler{
			thumbnail.NewHandler(imageClient),
			upload.NewHandler(cfg.Upload),
		}
	}
	return o
}

// ResolveTopic returns the explicit topic when given, otherwise discovers
// candidates and lets the picker choose one.
func (o *Orchestrator) ResolveTopic(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	candidate, err := o.engine.AutoPick(ctx, o.picker)
	if err != nil {
		return "", err
	}
	o.logger.Info("topic selected",
		logging.String("topic", candidate.Text),
		logging.String(logging.FieldSource, candidate.Source))
	return candidate.Text, nil
}

// Draft creates a new work unit for the topic and runs the shared draft
// phase. An empty topic triggers discovery.
func (o *Orchestrator) Draft(ctx context.Context, topicText string) (*state.Unit, error) {
	topic, err := o.ResolveTopic(ctx, topicText)
	if err != nil {
		return nil, err
	}
	unit, err := o.store.CreateUnit(ctx, topic)
	if err != nil {
		return nil, err
	}

	unlock, err := o.lockUnit(unit.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx = services.WithRequestID(ctx, uuid.NewString())
	if err := o.runner.Run(ctx, unit, "", o.handlers[PhaseDraft]); err != nil {
		o.notifyError(ctx, err, string(PhaseDraft))
		return nil, err
	}
	if err := o.history.MarkUsed(ctx, topic); err != nil {
		o.logger.Warn("failed to mark topic used", logging.Error(err))
	}
	if err := o.notifier.NotifyDraftReady(ctx, topic); err != nil {
		o.logger.Warn("draft notification failed", logging.Error(err))
	}
	return unit, nil
}

// Produce renders the finished video for every configured language. With
// force set, the produce stages are reset first and rerun from b-roll.
func (o *Orchestrator) Produce(ctx context.Context, unitID string, force bool) error {
	if err := o.preflight(); err != nil {
		return err
	}
	return o.runPhase(ctx, unitID, PhaseProduce, force, func(ctx context.Context, unit *state.Unit, variant string) {
		snapshot, err := o.store.Snapshot(ctx, unit.ID, variant)
		if err != nil {
			return
		}
		if notifyErr := o.notifier.NotifyVideoReady(ctx, unit.Topic, variant, snapshot.Output(state.StageAssemble)); notifyErr != nil {
			o.logger.Warn("produce notification failed", logging.Error(notifyErr))
		}
	})
}

// Upload publishes every configured language variant.
func (o *Orchestrator) Upload(ctx context.Context, unitID string, force bool) error {
	return o.runPhase(ctx, unitID, PhaseUpload, force, func(ctx context.Context, unit *state.Unit, variant string) {
		snapshot, err := o.store.Snapshot(ctx, unit.ID, variant)
		if err != nil {
			return
		}
		if notifyErr := o.notifier.NotifyUploadCompleted(ctx, unit.Topic, variant, snapshot.Output(state.StageUpload)); notifyErr != nil {
			o.logger.Warn("upload notification failed", logging.Error(notifyErr))
		}
	})
}

// Run drives one topic end to end. With dryRun set it stops after the draft
// phase so the script can be reviewed before any media is rendered.
func (o *Orchestrator) Run(ctx context.Context, topicText string, dryRun bool) (*state.Unit, error) {
	unit, err := o.Draft(ctx, topicText)
	if err != nil {
		return nil, err
	}
	if dryRun {
		o.logger.Info("dry run, stopping after draft",
			logging.String(logging.FieldUnitID, unit.ID))
		return unit, nil
	}
	if err := o.Produce(ctx, unit.ID, false); err != nil {
		return unit, err
	}
	if err := o.Upload(ctx, unit.ID, false); err != nil {
		return unit, err
	}
	return unit, nil
}

func (o *Orchestrator) runPhase(ctx context.Context, unitID string, phase Phase, force bool, completed func(context.Context, *state.Unit, string)) error {
	unit, err := o.store.GetUnit(ctx, unitID)
	if err != nil {
		return err
	}

	unlock, err := o.lockUnit(unit.ID)
	if err != nil {
		return err
	}
	defer unlock()

	ctx = services.WithRequestID(ctx, uuid.NewString())
	for _, variant := range o.languages() {
		if force {
			if err := o.store.ResetFrom(ctx, unit.ID, variant, phase.First()); err != nil {
				return err
			}
		}
		if err := o.runner.Run(ctx, unit, variant, o.handlers[phase]); err != nil {
			o.notifyError(ctx, err, fmt.Sprintf("%s %s", phase, variant))
			return err
		}
		if completed != nil {
			completed(ctx, unit, variant)
		}
	}
	return nil
}

func (o *Orchestrator) languages() []string {
	if len(o.cfg.Languages) == 0 {
		return []string{"en"}
	}
	return o.cfg.Languages
}

// lockUnit takes the per-unit file lock, failing fast when another process
// already works on the unit.
func (o *Orchestrator) lockUnit(unitID string) (func(), error) {
	if err := os.MkdirAll(o.cfg.LockDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	path := filepath.Join(o.cfg.LockDir(), "unit_"+unitID+".lock")
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire unit lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBusy, unitID)
	}
	return func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			o.logger.Warn("failed to release unit lock", logging.Error(unlockErr))
		}
	}, nil
}

func (o *Orchestrator) notifyError(ctx context.Context, err error, contextLabel string) {
	if notifyErr := o.notifier.NotifyError(ctx, err, contextLabel); notifyErr != nil {
		o.logger.Warn("error notification failed", logging.Error(notifyErr))
	}
}
