package service

import "vocabuddy/internal/models"

// SessionPlan is how a session type draws its words
type SessionPlan struct {
	Strategy         models.SelectionStrategy
	RandomPercentage int
}

var sessionPlans = map[models.SessionType]SessionPlan{
	models.SessionFlashcard: {Strategy: models.StrategySpacedRepetition, RandomPercentage: 20},
	models.SessionQuiz:      {Strategy: models.StrategyBalanced, RandomPercentage: 40},
	models.SessionWriting:   {Strategy: models.StrategyWeakestWords, RandomPercentage: 30},
	models.SessionSpeaking:  {Strategy: models.StrategyWeakestWords, RandomPercentage: 30},
	models.SessionListening: {Strategy: models.StrategyMostErrors, RandomPercentage: 30},
}

// PlanFor returns the selection plan of a session type
func PlanFor(sessionType models.SessionType) (SessionPlan, bool) {
	plan, ok := sessionPlans[sessionType]
	return plan, ok
}

// FilterFor builds the candidate filter of a difficulty tier. Every status
// is eligible; easy sessions skip the weakest words and hard ones skip the
// strongest.
func FilterFor(difficulty models.Difficulty) models.SelectionFilter {
	minStrength, maxStrength := 0.0, 1.0
	switch difficulty {
	case models.DifficultyEasy:
		minStrength = 0.2
	case models.DifficultyHard:
		maxStrength = 0.8
	}

	return models.SelectionFilter{
		Status:      append([]models.LearningStatus(nil), models.AllStatuses...),
		MinStrength: models.Float(minStrength),
		MaxStrength: models.Float(maxStrength),
	}
}
