package captions

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"clipforge/internal/language"
	"clipforge/internal/services"
	"clipforge/internal/stage"
	"clipforge/internal/state"
)

var commandContext = exec.CommandContext

// TranscribeHandler runs the whisper CLI over the variant's voiceover audio
// and writes a flat word-timestamp artifact for downstream stages.
type TranscribeHandler struct {
	binary string
	model  string
}

// NewTranscribeHandler returns a transcribe handler using the given whisper
// binary. An empty model falls back to "base".
func NewTranscribeHandler(binary, model string) *TranscribeHandler {
	if model == "" {
		model = "base"
	}
	return &TranscribeHandler{binary: binary, model: model}
}

func (h *TranscribeHandler) Name() state.StageName {
	return state.StageTranscribe
}

func (h *TranscribeHandler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	audioPath := job.Output(state.StageVoiceover)
	if audioPath == "" {
		return "", services.Wrap(services.ErrStageDependency, string(state.StageTranscribe), "execute", "voiceover audio missing", nil)
	}

	args := []string{
		audioPath,
		"--model", h.model,
		"--language", languageCode(job.Variant),
		"--output_format", "json",
		"--output_dir", job.WorkDir,
		"--word_timestamps", "True",
	}
	cmd := commandContext(ctx, h.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", services.Wrap(services.ErrExternalTool, string(state.StageTranscribe), "execute",
			fmt.Sprintf("whisper failed: %s", strings.TrimSpace(string(output))), err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	rawPath := filepath.Join(job.WorkDir, stem+".json")
	raw, err := os.ReadFile(rawPath)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, string(state.StageTranscribe), "execute", "read whisper output", err)
	}
	words, err := parseWhisperJSON(raw)
	if err != nil {
		return "", err
	}
	if len(words) == 0 {
		return "", services.Wrap(services.ErrExternalTool, string(state.StageTranscribe), "execute", "whisper produced no word timestamps", nil)
	}

	wordsPath := filepath.Join(job.WorkDir, fmt.Sprintf("words_%s.json", job.Variant))
	if err := saveWords(wordsPath, words); err != nil {
		return "", err
	}
	return wordsPath, nil
}

// languageCode maps a variant such as "en" or "en-US" to the two letter code
// whisper expects.
func languageCode(variant string) string {
	if code := language.ToISO2(variant); code != "" {
		return code
	}
	return "en"
}
