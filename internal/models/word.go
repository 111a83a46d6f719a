package models

import "time"

// LearningStatus is the coarse mastery stage of a word
type LearningStatus string

const (
	StatusNew      LearningStatus = "new"
	StatusLearning LearningStatus = "learning"
	StatusMastered LearningStatus = "mastered"
)

// AllStatuses lists every learning status in progression order
var AllStatuses = []LearningStatus{StatusNew, StatusLearning, StatusMastered}

// Valid reports whether s is a known status
func (s LearningStatus) Valid() bool {
	switch s {
	case StatusNew, StatusLearning, StatusMastered:
		return true
	}
	return false
}

// Weight is the numeric rank used by the balanced selection score
func (s LearningStatus) Weight() float64 {
	switch s {
	case StatusNew:
		return 1
	case StatusLearning:
		return 2
	default:
		return 3
	}
}

// Learning holds the per-word learning state
type Learning struct {
	Status      LearningStatus `json:"status"`
	Strength    float64        `json:"strength"`
	NextReview  time.Time      `json:"nextReview"`
	LastStudied time.Time      `json:"lastStudied"`
}

// Normalize clamps strength into [0,1] and defaults an empty status to new
func (l *Learning) Normalize() {
	if l.Strength < 0 {
		l.Strength = 0
	}
	if l.Strength > 1 {
		l.Strength = 1
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
}

// Word is a user's vocabulary entry. Content is produced upstream by the
// enrichment pipeline and is opaque to selection.
type Word struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	Text       string      `json:"word"`
	Content    WordContent `json:"content"`
	Categories []string    `json:"categories"`
	Learning   Learning    `json:"learning"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// WordContent is the enriched description of a word
type WordContent struct {
	Pronunciation string        `json:"pronunciation,omitempty"`
	WordTypes     []string      `json:"wordTypes,omitempty"`
	Translations  []Translation `json:"translations,omitempty"`
	Definitions   []Definition  `json:"definitions,omitempty"`
	Examples      []string      `json:"examples,omitempty"`
	Etymology     *Etymology    `json:"etymology,omitempty"`
	Synonyms      []string      `json:"synonyms,omitempty"`
	Antonyms      []string      `json:"antonyms,omitempty"`
	UsageNotes    string        `json:"usageNotes,omitempty"`
}

type Translation struct {
	Language    string `json:"language"`
	Translation string `json:"translation"`
}

type Definition struct {
	PartOfSpeech string   `json:"partOfSpeech"`
	Meaning      string   `json:"meaning"`
	Examples     []string `json:"examples,omitempty"`
}

type Etymology struct {
	Origin  string `json:"origin"`
	History string `json:"history"`
}

// WordIDs returns the ids of words in order
func WordIDs(words []Word) []string {
	ids := make([]string, len(words))
	for i, w := range words {
		ids[i] = w.ID
	}
	return ids
}
