package scriptgen

import (
	"encoding/json"
	"os"
	"strings"

	"clipforge/internal/services"
	"clipforge/internal/state"
)

const brollFrameCount = 3

// Draft is the persisted output of the draft stage: the spoken script, the
// prompts downstream media stages consume, and the upload metadata.
type Draft struct {
	Topic              string            `json:"topic"`
	Script             string            `json:"script"`
	BrollPrompts       []string          `json:"broll_prompts"`
	YouTubeTitle       string            `json:"youtube_title"`
	YouTubeDescription string            `json:"youtube_description"`
	YouTubeTags        string            `json:"youtube_tags"`
	InstagramCaption   string            `json:"instagram_caption"`
	ThumbnailPrompt    string            `json:"thumbnail_prompt"`
	Research           string            `json:"research"`
	// Translations maps a language code to a translated script. The base
	// script is English.
	Translations map[string]string `json:"translations,omitempty"`
}

// ScriptFor returns the script in the requested language, falling back to
// the base script when no translation exists.
func (d *Draft) ScriptFor(lang string) string {
	if script, ok := d.Translations[lang]; ok && strings.TrimSpace(script) != "" {
		return script
	}
	return d.Script
}

// Tags splits the comma-separated tag string.
func (d *Draft) Tags() []string {
	var tags []string
	for _, tag := range strings.Split(d.YouTubeTags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Title returns the upload title, capped at YouTube's 100-character limit.
func (d *Draft) Title() string {
	title := strings.TrimSpace(d.YouTubeTitle)
	if title == "" {
		title = d.Topic
	}
	runes := []rune(title)
	if len(runes) > 100 {
		title = string(runes[:100])
	}
	return title
}

// sanitize enforces the field shapes downstream stages rely on.
func (d *Draft) sanitize() error {
	if strings.TrimSpace(d.Script) == "" {
		return services.Wrap(services.ErrValidation, string(state.StageDraft), "sanitize", "draft has no script", nil)
	}
	if len(d.BrollPrompts) > brollFrameCount {
		d.BrollPrompts = d.BrollPrompts[:brollFrameCount]
	}
	for len(d.BrollPrompts) < brollFrameCount {
		d.BrollPrompts = append(d.BrollPrompts, "Cinematic landscape")
	}
	for i, prompt := range d.BrollPrompts {
		if strings.TrimSpace(prompt) == "" {
			d.BrollPrompts[i] = "Cinematic landscape"
		}
	}
	if strings.TrimSpace(d.ThumbnailPrompt) == "" {
		d.ThumbnailPrompt = "Cinematic YouTube thumbnail"
	}
	return nil
}

// Save writes the draft JSON artifact.
func (d *Draft) Save(path string) error {
	encoded, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, string(state.StageDraft), "save", "encode draft", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return services.Wrap(services.ErrValidation, string(state.StageDraft), "save", "write draft", err)
	}
	return nil
}

// Load reads a draft JSON artifact written by the draft stage.
func Load(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrStageDependency, string(state.StageDraft), "load", "read draft artifact", err)
	}
	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, services.Wrap(services.ErrValidation, string(state.StageDraft), "load", "decode draft artifact", err)
	}
	return &draft, nil
}
