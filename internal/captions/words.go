package captions

import (
	"encoding/json"
	"os"
	"strings"

	"clipforge/internal/services"
	"clipforge/internal/state"
)

// Word is one spoken word with its timing window in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// whisperPayload is the JSON structure the whisper CLI writes with word
// timestamps enabled.
type whisperPayload struct {
	Segments []struct {
		Words []Word `json:"words"`
	} `json:"segments"`
}

// parseWhisperJSON flattens whisper's segment/word structure into a single
// word list.
func parseWhisperJSON(data []byte) ([]Word, error) {
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, string(state.StageTranscribe), "parse", "decode whisper json", err)
	}
	var words []Word
	for _, segment := range payload.Segments {
		for _, w := range segment.Words {
			w.Word = strings.TrimSpace(w.Word)
			if w.Word == "" {
				continue
			}
			words = append(words, w)
		}
	}
	return words, nil
}

// LoadWords reads a word-timestamp artifact written by the transcribe stage.
func LoadWords(path string) ([]Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrStageDependency, string(state.StageTranscribe), "load", "read words artifact", err)
	}
	var words []Word
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, services.Wrap(services.ErrValidation, string(state.StageTranscribe), "load", "decode words artifact", err)
	}
	return words, nil
}

func saveWords(path string, words []Word) error {
	encoded, err := json.Marshal(words)
	if err != nil {
		return services.Wrap(services.ErrValidation, string(state.StageTranscribe), "save", "encode words", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return services.Wrap(services.ErrValidation, string(state.StageTranscribe), "save", "write words", err)
	}
	return nil
}
