package models

import (
	"encoding/json"
	"sort"
	"time"
)

// SelectionStrategy is the ranking policy for the algorithmic pool
type SelectionStrategy string

const (
	StrategySpacedRepetition SelectionStrategy = "SPACED_REPETITION"
	StrategyWeakestWords     SelectionStrategy = "WEAKEST_WORDS"
	StrategyLeastPracticed   SelectionStrategy = "LEAST_PRACTICED"
	StrategyMostErrors       SelectionStrategy = "MOST_ERRORS"
	StrategyBalanced         SelectionStrategy = "BALANCED"
)

// Valid reports whether s is a known strategy
func (s SelectionStrategy) Valid() bool {
	switch s {
	case StrategySpacedRepetition, StrategyWeakestWords, StrategyLeastPracticed,
		StrategyMostErrors, StrategyBalanced:
		return true
	}
	return false
}

// SelectionFilter narrows the candidate pool before ranking.
// Nil strength bounds are open; empty sets match everything.
type SelectionFilter struct {
	Status      []LearningStatus `json:"status,omitempty"`
	MinStrength *float64         `json:"minStrength,omitempty"`
	MaxStrength *float64         `json:"maxStrength,omitempty"`
	Categories  []string         `json:"categories,omitempty"`
}

// Matches reports whether w passes the filter
func (f SelectionFilter) Matches(w Word) bool {
	if len(f.Status) > 0 {
		ok := false
		for _, s := range f.Status {
			if w.Learning.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.MinStrength != nil && w.Learning.Strength < *f.MinStrength {
		return false
	}
	if f.MaxStrength != nil && w.Learning.Strength > *f.MaxStrength {
		return false
	}
	if len(f.Categories) > 0 {
		for _, want := range f.Categories {
			for _, have := range w.Categories {
				if want == have {
					return true
				}
			}
		}
		return false
	}
	return true
}

// Canonical returns a copy with sets sorted and de-duplicated so that two
// equivalent filters serialize identically.
func (f SelectionFilter) Canonical() SelectionFilter {
	out := SelectionFilter{MinStrength: f.MinStrength, MaxStrength: f.MaxStrength}

	if len(f.Status) > 0 {
		seen := make(map[LearningStatus]bool, len(f.Status))
		for _, s := range f.Status {
			if !seen[s] {
				seen[s] = true
				out.Status = append(out.Status, s)
			}
		}
		sort.Slice(out.Status, func(i, j int) bool { return out.Status[i] < out.Status[j] })
	}

	if len(f.Categories) > 0 {
		seen := make(map[string]bool, len(f.Categories))
		for _, c := range f.Categories {
			if !seen[c] {
				seen[c] = true
				out.Categories = append(out.Categories, c)
			}
		}
		sort.Strings(out.Categories)
	}

	return out
}

// IsZero reports whether the filter restricts nothing
func (f SelectionFilter) IsZero() bool {
	return len(f.Status) == 0 && f.MinStrength == nil && f.MaxStrength == nil && len(f.Categories) == 0
}

// Key is the stable serialization of the canonical filter
func (f SelectionFilter) Key() string {
	b, _ := json.Marshal(f.Canonical())
	return string(b)
}

// DefaultRandomPercentage applies when a caller does not choose a split
const DefaultRandomPercentage = 40

// SelectionRequest asks the selector for a session-sized word list
type SelectionRequest struct {
	UserID           string            `json:"userId"`
	Count            int               `json:"count"`
	Strategy         SelectionStrategy `json:"strategy"`
	RandomPercentage int               `json:"randomPercentage"`
	Filter           SelectionFilter   `json:"filter"`
	UseCache         bool              `json:"useCache"`
}

// MaxSelectionCount caps the words one selection may ask for
const MaxSelectionCount = 1000

// Split returns how many words come from the algorithmic and random pools.
// The algorithmic share is floor(Count*(100-p)/100), computed per hundred so
// it cannot overflow.
func (r SelectionRequest) Split() (algorithmic, random int) {
	keep := 100 - r.RandomPercentage
	algorithmic = (r.Count/100)*keep + (r.Count%100)*keep/100
	return algorithmic, r.Count - algorithmic
}

// SelectionResult holds both pools; callers merge them
type SelectionResult struct {
	AlgorithmicWords []Word `json:"algorithmicWords"`
	RandomWords      []Word `json:"randomWords"`
}

// Len is the combined size of both pools
func (r SelectionResult) Len() int {
	return len(r.AlgorithmicWords) + len(r.RandomWords)
}

// Float returns a pointer to v, for filter bounds
func Float(v float64) *float64 {
	return &v
}

// WordOrder is a store-side ordering of candidate words
type WordOrder int

const (
	OrderNone WordOrder = iota
	OrderNextReview
	OrderStrength
	OrderLastStudied
	OrderRandom
)

// OrderSpec tells the word store how to order and pre-filter candidates.
// A non-zero DueBefore keeps only words with nextReview at or before it.
type OrderSpec struct {
	By        WordOrder
	DueBefore time.Time
}
