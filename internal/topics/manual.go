package topics

import (
	"context"
	"strings"
	"time"

	"clipforge/internal/config"
)

// ManualSource surfaces hand-curated topics from the configuration file.
// Manual entries always score 1.0: if someone wrote a topic down, it wins.
type ManualSource struct {
	entries []string
}

func NewManualSource(cfg config.Manual) *ManualSource {
	return &ManualSource{entries: cfg.Entries}
}

func (s *ManualSource) Name() string { return "manual" }

func (s *ManualSource) Fetch(_ context.Context, limit int) ([]Candidate, error) {
	now := time.Now().UTC()
	var out []Candidate
	for _, entry := range s.entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		out = append(out, Candidate{
			Text:      entry,
			Source:    "manual",
			Score:     1.0,
			FetchedAt: now,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
