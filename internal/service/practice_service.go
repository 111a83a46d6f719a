package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"vocabuddy/internal/apperr"
	"vocabuddy/internal/models"
	"vocabuddy/internal/repository"
)

// maxSaveAttempts bounds optimistic retries of one session mutation
const maxSaveAttempts = 3

// SessionStore persists practice sessions
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.PracticeSession) error
	GetSession(ctx context.Context, userID, sessionID string) (*models.PracticeSession, error)
	ListSessions(ctx context.Context, userID string) ([]*models.PracticeSession, error)
	SaveSession(ctx context.Context, session *models.PracticeSession) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
}

// WordSelector picks candidate words for a session
type WordSelector interface {
	SelectWords(ctx context.Context, req models.SelectionRequest) (models.SelectionResult, error)
}

// CacheInvalidator drops a user's cached selections
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) int
}

// PracticeService handles the practice session lifecycle
type PracticeService struct {
	sessions    SessionStore
	selector    WordSelector
	invalidator CacheInvalidator
	locks       *keyedMutex
	logger      *slog.Logger
	shuffle     func(n int, swap func(i, j int))
}

// NewPracticeService creates a new practice service. invalidator may be nil.
func NewPracticeService(sessions SessionStore, selector WordSelector, invalidator CacheInvalidator, logger *slog.Logger) *PracticeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PracticeService{
		sessions:    sessions,
		selector:    selector,
		invalidator: invalidator,
		locks:       newKeyedMutex(),
		logger:      logger,
		shuffle:     rand.Shuffle,
	}
}

// StartSession selects words for sessionType and persists a new session
func (s *PracticeService) StartSession(ctx context.Context, userID string, sessionType models.SessionType, settings models.SessionSettings) (*models.PracticeSession, error) {
	if userID == "" {
		return nil, apperr.InvalidRequest("userId is required")
	}
	plan, ok := PlanFor(sessionType)
	if !ok {
		return nil, apperr.InvalidRequest("unknown session type %q", sessionType)
	}
	settings, err := normalizeSettings(settings)
	if err != nil {
		return nil, err
	}

	result, err := s.selector.SelectWords(ctx, models.SelectionRequest{
		UserID:           userID,
		Count:            settings.WordsLimit,
		Strategy:         plan.Strategy,
		RandomPercentage: plan.RandomPercentage,
		Filter:           FilterFor(settings.Difficulty),
		UseCache:         true,
	})
	if err != nil {
		return nil, err
	}

	words := mergePools(result)
	if len(words) == 0 {
		s.logger.Warn("no words available for practice session", "user_id", userID, "session_type", sessionType)
		return nil, apperr.InsufficientContent("no words available for practice, add some words first")
	}
	if len(words) < settings.WordsLimit {
		s.logger.Info("practice session is short of words",
			"user_id", userID, "requested", settings.WordsLimit, "available", len(words))
	}

	s.shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })

	entries := make([]models.SessionWord, len(words))
	for i, w := range words {
		entries[i] = models.SessionWord{
			WordID:      w.ID,
			Performance: models.PerformanceFair,
			Metadata:    map[string]any{},
		}
	}

	session := &models.PracticeSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		SessionType: sessionType,
		Settings:    settings,
		Words:       entries,
		Results:     models.SessionResults{TotalWords: len(entries)},
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, apperr.StoreUnavailable("failed to create practice session", err)
	}

	s.logger.Debug("started practice session",
		"session_id", session.ID, "user_id", userID, "session_type", sessionType, "words", len(entries))
	return session, nil
}

// GetSession returns a session owned by userID
func (s *PracticeService) GetSession(ctx context.Context, userID, sessionID string) (*models.PracticeSession, error) {
	session, err := s.sessions.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load practice session")
	}
	return session, nil
}

// ListSessions returns the user's sessions, newest first
func (s *PracticeService) ListSessions(ctx context.Context, userID string) ([]*models.PracticeSession, error) {
	sessions, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		return nil, apperr.StoreUnavailable("failed to list practice sessions", err)
	}
	return sessions, nil
}

// RecordWordPerformance grades one word of a session and recomputes the
// session results from all its words.
func (s *PracticeService) RecordWordPerformance(ctx context.Context, userID, sessionID string, perf models.WordPerformance) (*models.PracticeSession, error) {
	if perf.WordID == "" {
		return nil, apperr.InvalidRequest("wordId is required")
	}
	if !perf.Performance.Valid() {
		return nil, apperr.InvalidRequest("unknown performance %q", perf.Performance)
	}
	if perf.TimeSpent < 0 || perf.Attempts < 0 {
		return nil, apperr.InvalidRequest("timeSpent and attempts must not be negative")
	}

	session, err := s.mutate(ctx, userID, sessionID, func(session *models.PracticeSession) error {
		idx := session.WordIndex(perf.WordID)
		if idx < 0 {
			return apperr.NotFound("word %s is not part of this practice session", perf.WordID)
		}

		entry := &session.Words[idx]
		entry.Performance = perf.Performance
		entry.TimeSpent = perf.TimeSpent
		entry.Attempts = perf.Attempts
		entry.Metadata = models.MergeMetadata(entry.Metadata, perf.Metadata)

		session.Results = models.ComputeResults(session.Words, session.Results)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Past errors feed the MOST_ERRORS ranking
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(ctx, userID)
	}
	return session, nil
}

// UpdateSession shallow-merges duration, score and results into a session
func (s *PracticeService) UpdateSession(ctx context.Context, userID, sessionID string, update models.SessionUpdate) (*models.PracticeSession, error) {
	if update.Duration != nil && *update.Duration < 0 {
		return nil, apperr.InvalidRequest("duration must not be negative")
	}

	return s.mutate(ctx, userID, sessionID, func(session *models.PracticeSession) error {
		if update.Duration != nil {
			session.Duration = *update.Duration
		}
		if update.Score != nil {
			session.Score = *update.Score
		}
		session.Results = update.Results.Apply(session.Results)
		return nil
	})
}

// DeleteSession removes a session owned by userID
func (s *PracticeService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.sessions.DeleteSession(ctx, userID, sessionID); err != nil {
		return translateStoreError(err, "failed to delete practice session")
	}
	return nil
}

// mutate applies fn to a fresh copy of the session and saves it. Writers of
// one session are serialized in-process. The store's version check catches
// writers in other processes; a lost race is retried on fresh state.
func (s *PracticeService) mutate(ctx context.Context, userID, sessionID string, fn func(*models.PracticeSession) error) (*models.PracticeSession, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		current, err := s.GetSession(ctx, userID, sessionID)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}

		err = s.sessions.SaveSession(ctx, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, translateStoreError(err, "failed to save practice session")
		}

		lastErr = err
		s.logger.Debug("practice session version conflict, retrying",
			"session_id", sessionID, "attempt", attempt)
	}

	return nil, apperr.Conflict("practice session was modified concurrently", lastErr)
}

// mergePools concatenates both pools, keeping the first occurrence of each
// word. Entries are located by word id, so a session holds a word once.
func mergePools(result models.SelectionResult) []models.Word {
	seen := make(map[string]bool, result.Len())
	words := make([]models.Word, 0, result.Len())
	for _, pool := range [][]models.Word{result.AlgorithmicWords, result.RandomWords} {
		for _, w := range pool {
			if seen[w.ID] {
				continue
			}
			seen[w.ID] = true
			words = append(words, w)
		}
	}
	return words
}

func normalizeSettings(settings models.SessionSettings) (models.SessionSettings, error) {
	if settings.WordsLimit <= 0 {
		return settings, apperr.InvalidRequest("wordsLimit must be positive, got %d", settings.WordsLimit)
	}
	if settings.TimeLimit < 0 {
		return settings, apperr.InvalidRequest("timeLimit must not be negative")
	}

	switch settings.Difficulty {
	case "":
		settings.Difficulty = models.DifficultyMedium
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		return settings, apperr.InvalidRequest("unknown difficulty %q", settings.Difficulty)
	}

	switch settings.ReviewType {
	case "":
		settings.ReviewType = models.ReviewSpaced
	case models.ReviewSpaced, models.ReviewRandom, models.ReviewWeakWords:
	default:
		return settings, apperr.InvalidRequest("unknown review type %q", settings.ReviewType)
	}

	return settings, nil
}

func translateStoreError(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("practice session not found")
	}
	return apperr.StoreUnavailable(msg, err)
}
