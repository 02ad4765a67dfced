package voiceover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/language"
	"clipforge/internal/scriptgen"
	"clipforge/internal/services"
	"clipforge/internal/stage"
	"clipforge/internal/state"
)

const defaultHTTPTimeout = 60 * time.Second

// Handler synthesizes the voiceover track for one language variant through
// an ElevenLabs-compatible text-to-speech API.
type Handler struct {
	cfg        config.Voiceover
	httpClient *http.Client
}

// Option customizes the handler.
type Option func(*Handler)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(h *Handler) {
		if client != nil {
			h.httpClient = client
		}
	}
}

func NewHandler(cfg config.Voiceover, opts ...Option) *Handler {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	handler := &Handler{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(handler)
	}
	if handler.cfg.BaseURL == "" {
		handler.cfg.BaseURL = "https://api.elevenlabs.io/v1"
	}
	if handler.cfg.ModelID == "" {
		handler.cfg.ModelID = "eleven_multilingual_v2"
	}
	return handler
}

func (h *Handler) Name() state.StageName { return state.StageVoiceover }

func (h *Handler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	draft, err := scriptgen.Load(job.Output(state.StageDraft))
	if err != nil {
		return "", err
	}
	script := strings.TrimSpace(draft.ScriptFor(job.Variant))
	if script == "" {
		return "", services.Wrap(services.ErrStageDependency, string(state.StageVoiceover), "execute", "draft has no script for variant "+job.Variant, nil)
	}

	audio, err := h.Synthesize(ctx, script, job.Variant)
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(job.WorkDir, fmt.Sprintf("voiceover_%s.mp3", job.Variant))
	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return "", services.Wrap(services.ErrValidation, string(state.StageVoiceover), "execute", "write audio", err)
	}
	return outPath, nil
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Synthesize calls the TTS API for one script and returns the mp3 bytes.
func (h *Handler) Synthesize(ctx context.Context, script, lang string) ([]byte, error) {
	if strings.TrimSpace(h.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, string(state.StageVoiceover), "synthesize", "api key required", nil)
	}
	voiceID := h.cfg.Voices[lang]
	if voiceID == "" {
		voiceID = h.cfg.Voices[language.ToISO2(lang)]
	}
	if voiceID == "" {
		return nil, services.Wrap(services.ErrConfiguration, string(state.StageVoiceover), "synthesize", "no voice configured for language "+lang, nil)
	}

	payload := synthesizeRequest{
		Text:    script,
		ModelID: h.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       0.4,
			SimilarityBoost: 0.85,
			Style:           0.3,
			UseSpeakerBoost: true,
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, string(state.StageVoiceover), "synthesize", "encode body", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", strings.TrimRight(h.cfg.BaseURL, "/"), voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(state.StageVoiceover), "synthesize", "build request", err)
	}
	req.Header.Set("xi-api-key", h.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, string(state.StageVoiceover), "synthesize", "http request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, string(state.StageVoiceover), "synthesize", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &services.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if len(body) == 0 {
		return nil, services.Wrap(services.ErrTransient, string(state.StageVoiceover), "synthesize", "empty audio response", nil)
	}
	return body, nil
}
