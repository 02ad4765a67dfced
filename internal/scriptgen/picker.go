package scriptgen

import (
	"context"
	"fmt"
	"strings"

	"clipforge/internal/services/llm"
	"clipforge/internal/topics"
)

// TopicPicker asks the model to choose the most promising candidate from a
// ranked shortlist. It satisfies topics.Picker.
type TopicPicker struct {
	client Completer
}

func NewTopicPicker(client Completer) *TopicPicker {
	return &TopicPicker{client: client}
}

func (p *TopicPicker) Pick(ctx context.Context, candidates []topics.Candidate) (int, error) {
	var sb strings.Builder
	for i, cand := range candidates {
		fmt.Fprintf(&sb, "%d. %s (source: %s)\n", i, cand.Text, cand.Source)
	}

	raw, err := p.client.CompleteJSON(ctx, pickSystemPrompt, sb.String())
	if err != nil {
		return 0, err
	}
	var payload struct {
		Index int `json:"index"`
	}
	if err := llm.DecodeJSON(raw, &payload); err != nil {
		return 0, fmt.Errorf("parse pick payload: %w", err)
	}
	return payload.Index, nil
}
