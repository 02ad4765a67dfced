package stage

import (
	"context"
	"log/slog"

	"clipforge/internal/config"
	"clipforge/internal/state"
)

// Job carries everything a stage needs to run for one work unit and
// language variant. Outputs holds the output references of every stage that
// completed before this one.
type Job struct {
	UnitID  string
	Variant string
	Topic   string
	WorkDir string
	Config  *config.Config
	Outputs map[state.StageName]string
}

// Output returns a completed upstream stage's output reference.
func (j *Job) Output(name state.StageName) string {
	return j.Outputs[name]
}

// Handler implements one pipeline stage. Execute returns an output
// reference, typically a filesystem path, that downstream stages and
// re-runs resolve through the stage ledger.
type Handler interface {
	Name() state.StageName
	Execute(ctx context.Context, job *Job) (string, error)
}

// LoggerAware is implemented by handlers that want the per-stage logger with
// unit, variant, and stage fields attached.
type LoggerAware interface {
	SetLogger(logger *slog.Logger)
}
