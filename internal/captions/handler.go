package captions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"clipforge/internal/services"
	"clipforge/internal/stage"
	"clipforge/internal/state"
)

// Handler renders the transcribe stage's word timestamps into SRT and ASS
// subtitle files. The SRT document is the stage output; the ASS sibling sits
// at the same path stem for the assemble stage to burn in.
type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Name() state.StageName {
	return state.StageCaptions
}

func (h *Handler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	wordsPath := job.Output(state.StageTranscribe)
	if wordsPath == "" {
		return "", services.Wrap(services.ErrStageDependency, string(state.StageCaptions), "execute", "transcribe words missing", nil)
	}
	words, err := LoadWords(wordsPath)
	if err != nil {
		return "", err
	}
	if len(words) == 0 {
		return "", services.Wrap(services.ErrStageDependency, string(state.StageCaptions), "execute", "no words to caption", nil)
	}

	stem := filepath.Join(job.WorkDir, fmt.Sprintf("captions_%s", job.Variant))
	srtPath := stem + ".srt"
	if err := os.WriteFile(srtPath, []byte(RenderSRT(words)), 0o644); err != nil {
		return "", services.Wrap(services.ErrValidation, string(state.StageCaptions), "execute", "write srt", err)
	}
	assPath := stem + ".ass"
	ass := RenderASS(words, job.Config.Video.Width, job.Config.Video.Height)
	if err := os.WriteFile(assPath, []byte(ass), 0o644); err != nil {
		return "", services.Wrap(services.ErrValidation, string(state.StageCaptions), "execute", "write ass", err)
	}
	return srtPath, nil
}
