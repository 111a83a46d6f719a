package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabuddy/internal/cache"
	"vocabuddy/internal/database"
	"vocabuddy/internal/models"
	"vocabuddy/internal/repository"
	"vocabuddy/internal/selection"
)

// newSQLiteService wires the real selector, cache and repositories over a temp SQLite file
func newSQLiteService(t *testing.T) (*PracticeService, *repository.WordRepository) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "practice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	words := repository.NewWordRepository(db)
	selectionCache := cache.NewSelectionCache(100)
	selector := selection.NewSelector(words, selectionCache, selection.Options{Logger: logger})

	svc := NewPracticeService(repository.NewPracticeRepository(db), selector, selectionCache, logger)
	return svc, words
}

func TestStartSession_FlashcardOverNewWords(t *testing.T) {
	svc, words := newSQLiteService(t)
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"lumen", "quill", "brisk"} {
		w := models.Word{ID: uuid.NewString(), UserID: "u1", Text: text, Learning: models.Learning{Status: models.StatusNew}}
		require.NoError(t, words.CreateWord(ctx, &w))
		ids = append(ids, w.ID)
	}

	session, err := svc.StartSession(ctx, "u1", models.SessionFlashcard, models.SessionSettings{WordsLimit: 10})
	require.NoError(t, err)

	got := make([]string, len(session.Words))
	for i, w := range session.Words {
		got[i] = w.WordID
	}
	assert.ElementsMatch(t, ids, got)
	assert.Equal(t, 3, session.Results.TotalWords)

	stored, err := svc.GetSession(ctx, "u1", session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Words, 3)
}

func TestStartSession_RecordThroughSQLite(t *testing.T) {
	svc, words := newSQLiteService(t)
	ctx := context.Background()

	w := models.Word{ID: uuid.NewString(), UserID: "u1", Text: "tarn", Learning: models.Learning{Status: models.StatusNew}}
	require.NoError(t, words.CreateWord(ctx, &w))

	session, err := svc.StartSession(ctx, "u1", models.SessionListening, models.SessionSettings{WordsLimit: 5})
	require.NoError(t, err)

	updated, err := svc.RecordWordPerformance(ctx, "u1", session.ID, models.WordPerformance{
		WordID:      w.ID,
		Performance: models.PerformancePoor,
		Attempts:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Results.IncorrectWords)

	counts, err := words.CountSessionErrorsByWord(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{w.ID: 1}, counts)
}
