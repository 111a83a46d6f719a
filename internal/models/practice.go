package models

import "time"

// SessionType is the kind of practice activity
type SessionType string

const (
	SessionFlashcard SessionType = "flashcard"
	SessionQuiz      SessionType = "quiz"
	SessionWriting   SessionType = "writing"
	SessionSpeaking  SessionType = "speaking"
	SessionListening SessionType = "listening"
)

// Difficulty tiers the strength window of a session
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ReviewType is a client hint stored with the session settings
type ReviewType string

const (
	ReviewSpaced    ReviewType = "spaced"
	ReviewRandom    ReviewType = "random"
	ReviewWeakWords ReviewType = "weak-words"
)

// Performance grades one word within a session
type Performance string

const (
	PerformancePerfect Performance = "perfect"
	PerformanceGood    Performance = "good"
	PerformanceFair    Performance = "fair"
	PerformancePoor    Performance = "poor"
)

// Valid reports whether p is a known grade
func (p Performance) Valid() bool {
	switch p {
	case PerformancePerfect, PerformanceGood, PerformanceFair, PerformancePoor:
		return true
	}
	return false
}

// Correct reports whether p counts toward correctWords
func (p Performance) Correct() bool {
	return p == PerformancePerfect || p == PerformanceGood
}

// SessionSettings is chosen by the client when starting a session
type SessionSettings struct {
	Difficulty Difficulty `json:"difficulty"`
	ReviewType ReviewType `json:"reviewType"`
	TimeLimit  int        `json:"timeLimit"`
	WordsLimit int        `json:"wordsLimit"`
}

// SessionWord is one word entry inside a practice session
type SessionWord struct {
	WordID      string         `json:"wordId"`
	Performance Performance    `json:"performance"`
	TimeSpent   int            `json:"timeSpent"`
	Attempts    int            `json:"attempts"`
	Metadata    map[string]any `json:"metadata"`
}

// SessionResults is the aggregate view of a session
type SessionResults struct {
	TotalWords         int     `json:"totalWords"`
	CorrectWords       int     `json:"correctWords"`
	IncorrectWords     int     `json:"incorrectWords"`
	Accuracy           float64 `json:"accuracy"`
	AverageTimePerWord float64 `json:"averageTimePerWord"`
	Streak             int     `json:"streak"`
	XPEarned           int     `json:"xpEarned"`
}

// PracticeSession is a bounded practice attempt owned by one user
type PracticeSession struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	SessionType SessionType     `json:"sessionType"`
	Settings    SessionSettings `json:"settings"`
	Words       []SessionWord   `json:"words"`
	Duration    int             `json:"duration"`
	Score       int             `json:"score"`
	Results     SessionResults  `json:"results"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// WordIndex returns the position of wordID in the session, or -1
func (s *PracticeSession) WordIndex(wordID string) int {
	for i, w := range s.Words {
		if w.WordID == wordID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without touching s
func (s *PracticeSession) Clone() *PracticeSession {
	c := *s
	c.Words = make([]SessionWord, len(s.Words))
	for i, w := range s.Words {
		c.Words[i] = w
		c.Words[i].Metadata = mergeMetadata(nil, w.Metadata)
	}
	return &c
}

// ComputeResults rebuilds the per-word aggregates from words. Streak and
// XPEarned are client-maintained and carried over from prev.
func ComputeResults(words []SessionWord, prev SessionResults) SessionResults {
	res := SessionResults{
		TotalWords: len(words),
		Streak:     prev.Streak,
		XPEarned:   prev.XPEarned,
	}
	if len(words) == 0 {
		return res
	}

	totalTime := 0
	for _, w := range words {
		if w.Performance.Correct() {
			res.CorrectWords++
		}
		totalTime += w.TimeSpent
	}

	res.IncorrectWords = res.TotalWords - res.CorrectWords
	res.Accuracy = float64(res.CorrectWords) / float64(res.TotalWords)
	res.AverageTimePerWord = float64(totalTime) / float64(res.TotalWords)
	return res
}

// MergeMetadata overlays update onto base without mutating either
func MergeMetadata(base, update map[string]any) map[string]any {
	return mergeMetadata(base, update)
}

func mergeMetadata(base, update map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(update))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range update {
		out[k] = v
	}
	return out
}

// WordPerformance is a single performance recording
type WordPerformance struct {
	WordID      string         `json:"wordId"`
	Performance Performance    `json:"performance"`
	TimeSpent   int            `json:"timeSpent"`
	Attempts    int            `json:"attempts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ResultsUpdate carries the result fields a caller may overwrite
type ResultsUpdate struct {
	TotalWords         *int     `json:"totalWords,omitempty"`
	CorrectWords       *int     `json:"correctWords,omitempty"`
	IncorrectWords     *int     `json:"incorrectWords,omitempty"`
	Accuracy           *float64 `json:"accuracy,omitempty"`
	AverageTimePerWord *float64 `json:"averageTimePerWord,omitempty"`
	Streak             *int     `json:"streak,omitempty"`
	XPEarned           *int     `json:"xpEarned,omitempty"`
}

// Apply shallow-merges the provided fields onto r
func (u *ResultsUpdate) Apply(r SessionResults) SessionResults {
	if u == nil {
		return r
	}
	if u.TotalWords != nil {
		r.TotalWords = *u.TotalWords
	}
	if u.CorrectWords != nil {
		r.CorrectWords = *u.CorrectWords
	}
	if u.IncorrectWords != nil {
		r.IncorrectWords = *u.IncorrectWords
	}
	if u.Accuracy != nil {
		r.Accuracy = *u.Accuracy
	}
	if u.AverageTimePerWord != nil {
		r.AverageTimePerWord = *u.AverageTimePerWord
	}
	if u.Streak != nil {
		r.Streak = *u.Streak
	}
	if u.XPEarned != nil {
		r.XPEarned = *u.XPEarned
	}
	return r
}

// SessionUpdate is a partial update of a session
type SessionUpdate struct {
	Duration *int           `json:"duration,omitempty"`
	Score    *int           `json:"score,omitempty"`
	Results  *ResultsUpdate `json:"results,omitempty"`
}
