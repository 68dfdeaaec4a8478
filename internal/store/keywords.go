package store

import "strings"

const minKeywordLen = 3

// Keywords splits a free-text search term into lowercase keywords.
// Short connective tokens (under three characters) are dropped so
// that terms like "name of my dog" do not match on "of".
func Keywords(term string) []string {
	fields := strings.Fields(strings.ToLower(term))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?"'`)
		if len(f) < minKeywordLen {
			continue
		}
		out = append(out, f)
	}
	return out
}

// MatchCount sums occurrences of each keyword in text. The score is
// query-scoped: the same fact scores differently against different
// terms.
func MatchCount(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		n += strings.Count(lower, kw)
	}
	return n
}
