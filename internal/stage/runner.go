package stage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/retry"
	"clipforge/internal/services"
	"clipforge/internal/state"
)

// Runner drives handlers through the declared stage order for one work
// unit, persisting every outcome so an interrupted run resumes where it
// stopped.
type Runner struct {
	store     *state.Store
	cfg       *config.Config
	logger    *slog.Logger
	policy    retry.Policy
	retryOpts []retry.Option
}

// NewRunner builds a runner using the configured retry policy. Extra retry
// options are mainly a test seam for replacing the backoff sleeper.
func NewRunner(cfg *config.Config, store *state.Store, logger *slog.Logger, retryOpts ...retry.Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:  store,
		cfg:    cfg,
		logger: logger,
		policy: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Retry.BaseDelaySeconds) * time.Second,
			MaxDelay:    time.Duration(cfg.Retry.MaxDelaySeconds) * time.Second,
		},
		retryOpts: retryOpts,
	}
}

// Run executes the given handlers, in declared order, for one unit and
// variant. Stages already marked done are skipped. A stage may only run once
// every stage before it in the declared order is done; the first failing
// stage halts the run after its record is persisted.
func (r *Runner) Run(ctx context.Context, unit *state.Unit, variant string, handlers []Handler) error {
	if err := validateOrder(handlers); err != nil {
		return err
	}

	ctx = services.WithUnitID(ctx, unit.ID)
	ctx = services.WithVariant(ctx, variant)

	for _, handler := range handlers {
		if err := r.runStage(ctx, unit, variant, handler); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runStage(ctx context.Context, unit *state.Unit, variant string, handler Handler) error {
	name := handler.Name()
	stageCtx := services.WithStage(ctx, string(name))
	stageLogger := logging.WithContext(stageCtx, r.logger)

	// Re-read the ledger before every stage so resumed and concurrent runs
	// observe durable state, not an in-memory copy.
	snapshot, err := r.store.Snapshot(stageCtx, unit.ID, variant)
	if err != nil {
		return err
	}
	if snapshot.IsDone(name) {
		stageLogger.Info("stage already complete, skipping",
			logging.String(logging.FieldEventType, "stage_skip"),
			logging.String("output_ref", snapshot.Output(name)),
		)
		return nil
	}
	if prev, ok := previousStage(name); ok && !snapshot.CompleteThrough(prev) {
		return services.Wrap(services.ErrStageDependency, string(name), "run",
			fmt.Sprintf("stage %s requires every earlier stage to be done", name), nil)
	}

	workDir := r.cfg.WorkDir(unit.ID, state.VariantFor(name, variant))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}
	job := &Job{
		UnitID:  unit.ID,
		Variant: variant,
		Topic:   unit.Topic,
		WorkDir: workDir,
		Config:  r.cfg,
		Outputs: snapshot.Outputs(),
	}
	if aware, ok := handler.(LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("topic", unit.Topic),
	)
	started := time.Now()

	opts := append([]retry.Option{retry.WithLogger(stageLogger)}, r.retryOpts...)
	outputRef, err := retry.Run(stageCtx, r.policy, func(ctx context.Context) (string, error) {
		return handler.Execute(ctx, job)
	}, opts...)
	if err != nil {
		if markErr := r.store.MarkFailed(stageCtx, unit.ID, variant, name, err.Error()); markErr != nil {
			stageLogger.Error("failed to persist stage failure", logging.Error(markErr))
		}
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		return fmt.Errorf("stage %s: %w", name, err)
	}

	if err := r.store.MarkDone(stageCtx, unit.ID, variant, name, outputRef); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("output_ref", outputRef),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// validateOrder rejects handler lists that are out of declared order; gaps
// are fine here because the ledger check catches incomplete prerequisites.
func validateOrder(handlers []Handler) error {
	last := -1
	for _, handler := range handlers {
		ordinal, ok := state.OrdinalOf(handler.Name())
		if !ok {
			return services.Wrap(services.ErrValidation, string(handler.Name()), "run", "unknown stage", nil)
		}
		if ordinal <= last {
			return services.Wrap(services.ErrValidation, string(handler.Name()), "run", "handlers out of pipeline order", nil)
		}
		last = ordinal
	}
	return nil
}

func previousStage(name state.StageName) (state.StageName, bool) {
	ordinal, ok := state.OrdinalOf(name)
	if !ok || ordinal == 0 {
		return "", false
	}
	return state.Order()[ordinal-1], true
}
