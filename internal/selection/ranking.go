package selection

import (
	"math"
	"sort"
	"time"

	"vocabuddy/internal/models"
)

// Balanced score weights. The recency term is in raw seconds and is not
// normalized against the other two.
// TODO: normalize recency once product signs off on the new ordering.
const (
	balancedStatusWeight   = 0.3
	balancedStrengthWeight = 0.3
	balancedRecencyWeight  = 0.4
)

// BalancedScore ranks a word for the BALANCED strategy. Never-studied
// words score +Inf.
func BalancedScore(w models.Word, now time.Time) float64 {
	if w.Learning.LastStudied.IsZero() {
		return math.Inf(1)
	}
	seconds := now.Sub(w.Learning.LastStudied).Seconds()
	return balancedStatusWeight*w.Learning.Status.Weight() +
		balancedStrengthWeight*w.Learning.Strength +
		balancedRecencyWeight*seconds
}

// RankBalanced orders words by descending BalancedScore, keeping input
// order among equal scores.
func RankBalanced(words []models.Word, now time.Time) []models.Word {
	scores := make(map[string]float64, len(words))
	for _, w := range words {
		scores[w.ID] = BalancedScore(w, now)
	}

	out := append([]models.Word(nil), words...)
	sort.SliceStable(out, func(i, j int) bool {
		return scores[out[i].ID] > scores[out[j].ID]
	})
	return out
}

// RankByErrors orders words by descending error count, keeping input order
// among ties. Words absent from counts have zero errors.
func RankByErrors(words []models.Word, counts map[string]int) []models.Word {
	out := append([]models.Word(nil), words...)
	sort.SliceStable(out, func(i, j int) bool {
		return counts[out[i].ID] > counts[out[j].ID]
	})
	return out
}
