package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabuddy/internal/database"
	"vocabuddy/internal/models"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))
	return db
}

func seedWord(t *testing.T, repo *WordRepository, userID, text string, learning models.Learning, categories ...string) models.Word {
	t.Helper()
	w := models.Word{
		ID:         uuid.NewString(),
		UserID:     userID,
		Text:       text,
		Categories: categories,
		Learning:   learning,
		Content: models.WordContent{
			Translations: []models.Translation{{Language: "es", Translation: text + "-es"}},
		},
	}
	require.NoError(t, repo.CreateWord(context.Background(), &w))
	return w
}

func texts(words []models.Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}

func TestWordRepository_FindWordsByFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWordRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	seedWord(t, repo, "alice", "apple", models.Learning{Status: models.StatusNew, Strength: 0.1, NextReview: now.Add(-2 * time.Hour)}, "food")
	seedWord(t, repo, "alice", "banana", models.Learning{Status: models.StatusLearning, Strength: 0.5, NextReview: now.Add(-time.Hour), LastStudied: now.Add(-48 * time.Hour)}, "food", "fruit")
	seedWord(t, repo, "alice", "car", models.Learning{Status: models.StatusMastered, Strength: 0.9, NextReview: now.Add(24 * time.Hour), LastStudied: now.Add(-time.Hour)}, "travel")
	seedWord(t, repo, "bob", "dog", models.Learning{Status: models.StatusNew, Strength: 0.2})

	t.Run("scoped to user", func(t *testing.T) {
		words, err := repo.FindWordsByFilter(ctx, "alice", models.SelectionFilter{}, models.OrderSpec{}, 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"apple", "banana", "car"}, texts(words))
		for _, w := range words {
			assert.Equal(t, "alice", w.UserID)
		}
	})

	t.Run("strength ascending with limit", func(t *testing.T) {
		words, err := repo.FindWordsByFilter(ctx, "alice", models.SelectionFilter{}, models.OrderSpec{By: models.OrderStrength}, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"apple", "banana"}, texts(words))
	})

	t.Run("due words by next review", func(t *testing.T) {
		words, err := repo.FindWordsByFilter(ctx, "alice", models.SelectionFilter{}, models.OrderSpec{By: models.OrderNextReview, DueBefore: now}, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"apple", "banana"}, texts(words))
	})

	t.Run("least practiced puts never studied first", func(t *testing.T) {
		words, err := repo.FindWordsByFilter(ctx, "alice", models.SelectionFilter{}, models.OrderSpec{By: models.OrderLastStudied}, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"apple", "banana", "car"}, texts(words))
	})

	t.Run("status and strength bounds", func(t *testing.T) {
		filter := models.SelectionFilter{
			Status:      []models.LearningStatus{models.StatusLearning, models.StatusMastered},
			MinStrength: models.Float(0.2),
			MaxStrength: models.Float(0.8),
		}
		words, err := repo.FindWordsByFilter(ctx, "alice", filter, models.OrderSpec{}, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"banana"}, texts(words))
	})

	t.Run("category filter and categories loaded", func(t *testing.T) {
		words, err := repo.FindWordsByFilter(ctx, "alice", models.SelectionFilter{Categories: []string{"fruit", "travel"}}, models.OrderSpec{By: models.OrderStrength}, 0)
		require.NoError(t, err)
		require.Equal(t, []string{"banana", "car"}, texts(words))
		assert.Equal(t, []string{"food", "fruit"}, words[0].Categories)
		assert.Equal(t, []string{"travel"}, words[1].Categories)
	})

	t.Run("random order returns the filtered set", func(t *testing.T) {
		words, err := repo.FindWordsByFilter(ctx, "alice", models.SelectionFilter{}, models.OrderSpec{By: models.OrderRandom}, 2)
		require.NoError(t, err)
		assert.Len(t, words, 2)
	})

	t.Run("content and learning round trip", func(t *testing.T) {
		words, err := repo.FindWordsByFilter(ctx, "bob", models.SelectionFilter{}, models.OrderSpec{}, 0)
		require.NoError(t, err)
		require.Len(t, words, 1)
		assert.Equal(t, "dog-es", words[0].Content.Translations[0].Translation)
		assert.Equal(t, models.StatusNew, words[0].Learning.Status)
		assert.False(t, words[0].Learning.NextReview.IsZero(), "new words are due from creation")
		assert.WithinDuration(t, words[0].CreatedAt, words[0].Learning.NextReview, time.Millisecond)
		assert.Empty(t, words[0].Categories)
	})
}

func newSession(userID string, wordIDs ...string) *models.PracticeSession {
	s := &models.PracticeSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		SessionType: models.SessionQuiz,
		Settings: models.SessionSettings{
			Difficulty: models.DifficultyMedium,
			ReviewType: models.ReviewSpaced,
			WordsLimit: 10,
		},
	}
	for _, id := range wordIDs {
		s.Words = append(s.Words, models.SessionWord{WordID: id, Performance: models.PerformanceFair, Metadata: map[string]any{}})
	}
	s.Results = models.SessionResults{TotalWords: len(wordIDs)}
	return s
}

func TestPracticeRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPracticeRepository(db)
	ctx := context.Background()

	session := newSession("alice", "w1", "w2", "w3")
	require.NoError(t, repo.CreateSession(ctx, session))
	assert.Equal(t, int64(1), session.Version)

	got, err := repo.GetSession(ctx, "alice", session.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "w2", "w3"}, []string{got.Words[0].WordID, got.Words[1].WordID, got.Words[2].WordID})
	assert.Equal(t, 3, got.Results.TotalWords)
	assert.Equal(t, 10, got.Settings.WordsLimit)

	t.Run("other users cannot read", func(t *testing.T) {
		_, err := repo.GetSession(ctx, "mallory", session.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save bumps version and rewrites words", func(t *testing.T) {
		got.Words[1].Performance = models.PerformancePerfect
		got.Words[1].Attempts = 1
		got.Words[1].Metadata = map[string]any{"hint": true}
		got.Results.CorrectWords = 1
		require.NoError(t, repo.SaveSession(ctx, got))
		assert.Equal(t, int64(2), got.Version)

		reloaded, err := repo.GetSession(ctx, "alice", session.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), reloaded.Version)
		assert.Equal(t, models.PerformancePerfect, reloaded.Words[1].Performance)
		assert.Equal(t, true, reloaded.Words[1].Metadata["hint"])
		assert.Equal(t, 1, reloaded.Results.CorrectWords)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		stale := session.Clone()
		stale.Version = 1
		assert.ErrorIs(t, repo.SaveSession(ctx, stale), ErrVersionConflict)
	})

	t.Run("delete is owner scoped", func(t *testing.T) {
		assert.ErrorIs(t, repo.DeleteSession(ctx, "mallory", session.ID), ErrNotFound)
		require.NoError(t, repo.DeleteSession(ctx, "alice", session.ID))
		_, err := repo.GetSession(ctx, "alice", session.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.SaveSession(ctx, got), ErrNotFound)
	})
}

func TestPracticeRepository_ListSessionsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPracticeRepository(db)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		s := newSession("alice", fmt.Sprintf("w%d", i))
		require.NoError(t, repo.CreateSession(ctx, s))
		ids = append(ids, s.ID)
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, repo.CreateSession(ctx, newSession("bob", "x")))

	sessions, err := repo.ListSessions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, ids[2], sessions[0].ID)
	assert.Equal(t, ids[0], sessions[2].ID)
	assert.Len(t, sessions[0].Words, 1)
}

func TestWordRepository_CountSessionErrorsByWord(t *testing.T) {
	db := setupTestDB(t)
	practice := NewPracticeRepository(db)
	words := NewWordRepository(db)
	ctx := context.Background()

	s1 := newSession("alice", "w1", "w2", "w3")
	s1.Words[0].Performance, s1.Words[0].Attempts = models.PerformancePoor, 2
	s1.Words[1].Performance, s1.Words[1].Attempts = models.PerformanceFair, 1
	s1.Words[2].Performance, s1.Words[2].Attempts = models.PerformancePerfect, 1
	require.NoError(t, practice.CreateSession(ctx, s1))

	s2 := newSession("alice", "w1", "w2")
	s2.Words[0].Performance, s2.Words[0].Attempts = models.PerformanceFair, 1
	// w2 untouched: default fair with zero attempts is not an error
	require.NoError(t, practice.CreateSession(ctx, s2))

	other := newSession("bob", "w1")
	other.Words[0].Performance, other.Words[0].Attempts = models.PerformancePoor, 1
	require.NoError(t, practice.CreateSession(ctx, other))

	counts, err := words.CountSessionErrorsByWord(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"w1": 2, "w2": 1}, counts)
}
