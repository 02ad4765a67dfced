package pipeline

import "clipforge/internal/state"

// Phase groups consecutive stages that run as one CLI-visible step.
type Phase string

const (
	// PhaseDraft researches a topic and writes the shared script draft.
	PhaseDraft Phase = "draft"
	// PhaseProduce renders the finished video for one language variant.
	PhaseProduce Phase = "produce"
	// PhaseUpload publishes the finished video with thumbnail and captions.
	PhaseUpload Phase = "upload"
)

var phaseStages = map[Phase][]state.StageName{
	PhaseDraft: {state.StageResearch, state.StageDraft},
	PhaseProduce: {
		state.StageBroll,
		state.StageVoiceover,
		state.StageTranscribe,
		state.StageCaptions,
		state.StageMusic,
		state.StageAssemble,
	},
	PhaseUpload: {state.StageThumbnail, state.StageUpload},
}

// Stages returns the stage names a phase runs, in declared order.
func (p Phase) Stages() []state.StageName {
	return phaseStages[p]
}

// First returns the earliest stage of the phase, the reset point when a
// phase is forced to rerun.
func (p Phase) First() state.StageName {
	stages := phaseStages[p]
	if len(stages) == 0 {
		return ""
	}
	return stages[0]
}

// Valid reports whether the phase is one of the known phases.
func (p Phase) Valid() bool {
	_, ok := phaseStages[p]
	return ok
}
