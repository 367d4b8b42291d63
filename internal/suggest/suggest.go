// Package suggest provides fuzzy matching of link relation names, used
// for did-you-mean hints when a rel lookup fails.
package suggest

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

type lowerSource []string

func (s lowerSource) String(i int) string { return strings.ToLower(s[i]) }
func (s lowerSource) Len() int            { return len(s) }

// Rels returns up to limit known relation names ranked by similarity to
// input, best first. An exact case-insensitive match short-circuits to a
// single result.
func Rels(input string, known []string, limit int) []string {
	input = strings.TrimSpace(input)
	if input == "" || len(known) == 0 || limit <= 0 {
		return nil
	}

	for _, rel := range known {
		if strings.EqualFold(rel, input) {
			return []string{rel}
		}
	}

	results := fuzzy.FindFrom(strings.ToLower(input), lowerSource(known))
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = known[r.Index]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Hint formats a did-you-mean suffix for an error message, or an empty
// string when there is nothing to suggest.
func Hint(input string, known []string) string {
	matches := Rels(input, known, 3)
	if len(matches) == 0 {
		return ""
	}
	return " (did you mean " + strings.Join(matches, ", ") + "?)"
}
