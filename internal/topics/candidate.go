package topics

import (
	"time"

	"clipforge/internal/textutil"
)

// Candidate is one topic suggestion produced by a source. Score is source
// local until the engine normalizes it into [0,1].
type Candidate struct {
	Text      string
	Source    string
	Score     float64
	Summary   string
	URL       string
	FetchedAt time.Time
}

// Key returns the case- and whitespace-insensitive identity used for
// deduplication and history lookups.
func (c Candidate) Key() string {
	return textutil.NormalizeKey(c.Text)
}
