package textutil

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeKey produces the dedup key for a topic headline: Unicode
// case-folded with runs of whitespace collapsed to single spaces and
// leading/trailing whitespace removed.
func NormalizeKey(text string) string {
	folded := foldCaser.String(text)
	return strings.Join(strings.Fields(folded), " ")
}
