package research

import "strings"

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "from": {},
	"by": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"has": {}, "have": {}, "had": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "that": {}, "this": {}, "these": {},
	"those": {}, "it": {}, "its": {}, "new": {}, "ahead": {}, "as": {},
	"into": {}, "up": {}, "out": {}, "over": {}, "after": {},
}

// ExtractKeywords reduces a topic line to at most four search terms, dropping
// stopwords and anything shorter than three characters.
func ExtractKeywords(text string) string {
	var keywords []string
	for _, word := range strings.Fields(text) {
		word = strings.ToLower(strings.Trim(word, ".,!?\"'()[]"))
		if word == "" || len(word) <= 2 {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == 4 {
			break
		}
	}
	return strings.Join(keywords, " ")
}
