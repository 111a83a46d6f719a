package cache

import (
	"strings"

	"vocabuddy/internal/models"
)

// KeyPrefix namespaces every selection cache key
const KeyPrefix = "word_selection"

// Kind separates the algorithmic and random pools
type Kind string

const (
	KindAlgorithmic Kind = "algorithmic"
	KindRandom      Kind = "random"
)

// Key builds word_selection:<kind>:<userId>[:<strategy>][:<filter>]. Equivalent
// filters produce the same key.
func Key(kind Kind, userID string, strategy models.SelectionStrategy, filter models.SelectionFilter) string {
	parts := []string{KeyPrefix, string(kind), userID}
	if strategy != "" {
		parts = append(parts, string(strategy))
	}
	if !filter.IsZero() {
		parts = append(parts, filter.Key())
	}
	return strings.Join(parts, ":")
}

func userPatterns(userID string) []string {
	var patterns []string
	for _, kind := range []Kind{KindAlgorithmic, KindRandom} {
		base := KeyPrefix + ":" + string(kind) + ":" + userID
		patterns = append(patterns, base, base+":*")
	}
	return patterns
}
