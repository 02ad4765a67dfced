package scriptgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipforge/internal/language"
	"clipforge/internal/services"
	"clipforge/internal/services/llm"
	"clipforge/internal/stage"
	"clipforge/internal/state"
)

// Completer is the chat-completion surface the draft stage needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Handler turns a topic plus research notes into a draft artifact: script,
// b-roll prompts, upload metadata, and per-language script translations.
type Handler struct {
	client    Completer
	languages []string
}

// NewHandler builds the draft stage. languages lists every variant the
// pipeline will produce; translations are generated for all but English.
func NewHandler(client Completer, languages []string) *Handler {
	return &Handler{client: client, languages: languages}
}

func (h *Handler) Name() state.StageName { return state.StageDraft }

func (h *Handler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	researchRef := job.Output(state.StageResearch)
	notes, err := os.ReadFile(researchRef)
	if err != nil {
		return "", services.Wrap(services.ErrStageDependency, string(state.StageDraft), "execute", "read research notes", err)
	}

	draft, err := h.Generate(ctx, job.Topic, string(notes))
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(job.WorkDir, "draft.json")
	if err := draft.Save(outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// Generate requests a draft from the model and validates its shape, then
// fills in translations for every configured non-English language.
func (h *Handler) Generate(ctx context.Context, topic, research string) (*Draft, error) {
	raw, err := h.client.CompleteJSON(ctx, draftSystemPrompt, draftUserPrompt(topic, research))
	if err != nil {
		return nil, err
	}

	var draft Draft
	if err := llm.DecodeJSON(raw, &draft); err != nil {
		// Malformed JSON is worth one more model call.
		return nil, services.Wrap(services.ErrTransient, string(state.StageDraft), "generate", "parse draft payload", err)
	}
	draft.Topic = topic
	draft.Research = research
	if err := draft.sanitize(); err != nil {
		return nil, err
	}

	for _, lang := range h.languages {
		if lang == "en" {
			continue
		}
		translated, err := h.translate(ctx, draft.Script, lang)
		if err != nil {
			return nil, fmt.Errorf("translate to %s: %w", lang, err)
		}
		if draft.Translations == nil {
			draft.Translations = make(map[string]string)
		}
		draft.Translations[lang] = translated
	}
	return &draft, nil
}

func (h *Handler) translate(ctx context.Context, script, lang string) (string, error) {
	raw, err := h.client.CompleteJSON(ctx, translateSystemPrompt, translateUserPrompt(script, language.DisplayName(lang)))
	if err != nil {
		return "", err
	}
	var payload struct {
		Script string `json:"script"`
	}
	if err := llm.DecodeJSON(raw, &payload); err != nil {
		return "", services.Wrap(services.ErrTransient, string(state.StageDraft), "translate", "parse translation payload", err)
	}
	if strings.TrimSpace(payload.Script) == "" {
		return "", services.Wrap(services.ErrTransient, string(state.StageDraft), "translate", "empty translation", nil)
	}
	return payload.Script, nil
}
