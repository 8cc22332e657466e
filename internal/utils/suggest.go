package utils

import (
	"sort"

	"github.com/agext/levenshtein"
)

// maxSuggestionDistance is the largest edit distance still offered as a suggestion
const maxSuggestionDistance = 3

// ClosestMatch returns the candidate nearest to name by edit distance.
// Ties are broken by candidate order, so callers pass candidates sorted.
func ClosestMatch(name string, candidates []string) (string, bool) {
	best := ""
	bestDistance := maxSuggestionDistance + 1

	for _, candidate := range candidates {
		distance := levenshtein.Distance(name, candidate, nil)
		if distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}

	return best, best != ""
}

// SortedKeys returns the keys of a string-keyed map in ascending order
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
