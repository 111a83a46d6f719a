package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"vocabuddy/internal/database"
	"vocabuddy/internal/models"
)

// PracticeRepository handles practice session database operations
type PracticeRepository struct {
	db *database.DB
}

// NewPracticeRepository creates a new practice repository
func NewPracticeRepository(db *database.DB) *PracticeRepository {
	return &PracticeRepository{db: db}
}

type sessionRow struct {
	ID                 string        `db:"id"`
	UserID             string        `db:"user_id"`
	SessionType        string        `db:"session_type"`
	Difficulty         string        `db:"difficulty"`
	ReviewType         string        `db:"review_type"`
	TimeLimit          sql.NullInt64 `db:"time_limit"`
	WordsLimit         int           `db:"words_limit"`
	Duration           int           `db:"duration"`
	Score              int           `db:"score"`
	TotalWords         int           `db:"total_words"`
	CorrectWords       int           `db:"correct_words"`
	IncorrectWords     int           `db:"incorrect_words"`
	Accuracy           float64       `db:"accuracy"`
	AverageTimePerWord float64       `db:"average_time_per_word"`
	Streak             int           `db:"streak"`
	XPEarned           int           `db:"xp_earned"`
	Version            int64         `db:"version"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

func (r sessionRow) toModel() *models.PracticeSession {
	s := &models.PracticeSession{
		ID:          r.ID,
		UserID:      r.UserID,
		SessionType: models.SessionType(r.SessionType),
		Settings: models.SessionSettings{
			Difficulty: models.Difficulty(r.Difficulty),
			ReviewType: models.ReviewType(r.ReviewType),
			WordsLimit: r.WordsLimit,
		},
		Duration: r.Duration,
		Score:    r.Score,
		Results: models.SessionResults{
			TotalWords:         r.TotalWords,
			CorrectWords:       r.CorrectWords,
			IncorrectWords:     r.IncorrectWords,
			Accuracy:           r.Accuracy,
			AverageTimePerWord: r.AverageTimePerWord,
			Streak:             r.Streak,
			XPEarned:           r.XPEarned,
		},
		Version:   r.Version,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		Words:     []models.SessionWord{},
	}
	if r.TimeLimit.Valid {
		s.Settings.TimeLimit = int(r.TimeLimit.Int64)
	}
	return s
}

type sessionWordRow struct {
	SessionID   string `db:"session_id"`
	Ordinal     int    `db:"ordinal"`
	WordID      string `db:"word_id"`
	Performance string `db:"performance"`
	TimeSpent   int    `db:"time_spent"`
	Attempts    int    `db:"attempts"`
	Metadata    string `db:"metadata"`
}

const sessionColumns = `id, user_id, session_type, difficulty, review_type, time_limit, words_limit,
	duration, score, total_words, correct_words, incorrect_words, accuracy,
	average_time_per_word, streak, xp_earned, version, created_at, updated_at`

// CreateSession stores a new session and its word entries atomically.
// The session starts at version 1.
func (r *PracticeRepository) CreateSession(ctx context.Context, session *models.PracticeSession) error {
	now := dbTime(time.Now())
	session.CreatedAt = now
	session.UpdatedAt = now
	session.Version = 1

	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := tx.GetDialect().RewriteQuery(`
			INSERT INTO practice_sessions (` + sessionColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		res := session.Results
		_, err := tx.ExecContext(ctx, query,
			session.ID,
			session.UserID,
			string(session.SessionType),
			string(session.Settings.Difficulty),
			string(session.Settings.ReviewType),
			nullInt(session.Settings.TimeLimit),
			session.Settings.WordsLimit,
			session.Duration,
			session.Score,
			res.TotalWords,
			res.CorrectWords,
			res.IncorrectWords,
			res.Accuracy,
			res.AverageTimePerWord,
			res.Streak,
			res.XPEarned,
			session.Version,
			session.CreatedAt,
			session.UpdatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "insert practice session")
		}
		return insertSessionWords(ctx, tx, session)
	})
}

// GetSession retrieves a session owned by userID
func (r *PracticeRepository) GetSession(ctx context.Context, userID, sessionID string) (*models.PracticeSession, error) {
	query := r.db.Dialect.RewriteQuery(
		"SELECT " + sessionColumns + " FROM practice_sessions WHERE id = ? AND user_id = ?")

	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, sessionID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "select practice session")
	}

	sessions := []*models.PracticeSession{row.toModel()}
	if err := r.attachWords(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions[0], nil
}

// ListSessions returns the user's sessions, newest first
func (r *PracticeRepository) ListSessions(ctx context.Context, userID string) ([]*models.PracticeSession, error) {
	query := r.db.Dialect.RewriteQuery(
		"SELECT " + sessionColumns + " FROM practice_sessions WHERE user_id = ? ORDER BY created_at DESC, id DESC")

	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "select practice sessions")
	}

	sessions := make([]*models.PracticeSession, len(rows))
	for i, row := range rows {
		sessions[i] = row.toModel()
	}
	if err := r.attachWords(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SaveSession writes session back if its version still matches the stored
// one, then bumps the version. A stale version yields ErrVersionConflict.
func (r *PracticeRepository) SaveSession(ctx context.Context, session *models.PracticeSession) error {
	now := dbTime(time.Now())

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := tx.GetDialect().RewriteQuery(`
			UPDATE practice_sessions
			SET duration = ?, score = ?, total_words = ?, correct_words = ?, incorrect_words = ?,
			    accuracy = ?, average_time_per_word = ?, streak = ?, xp_earned = ?,
			    version = version + 1, updated_at = ?
			WHERE id = ? AND user_id = ? AND version = ?
		`)
		res := session.Results
		result, err := tx.ExecContext(ctx, query,
			session.Duration,
			session.Score,
			res.TotalWords,
			res.CorrectWords,
			res.IncorrectWords,
			res.Accuracy,
			res.AverageTimePerWord,
			res.Streak,
			res.XPEarned,
			now,
			session.ID,
			session.UserID,
			session.Version,
		)
		if err != nil {
			return errors.Wrap(err, "update practice session")
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "rows affected")
		}
		if affected == 0 {
			var count int
			exists := tx.GetDialect().RewriteQuery("SELECT COUNT(*) FROM practice_sessions WHERE id = ? AND user_id = ?")
			if err := tx.GetContext(ctx, &count, exists, session.ID, session.UserID); err != nil {
				return errors.Wrap(err, "check practice session")
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrVersionConflict
		}

		del := tx.GetDialect().RewriteQuery("DELETE FROM practice_session_words WHERE session_id = ?")
		if _, err := tx.ExecContext(ctx, del, session.ID); err != nil {
			return errors.Wrap(err, "clear session words")
		}
		return insertSessionWords(ctx, tx, session)
	})
	if err != nil {
		return err
	}

	session.Version++
	session.UpdatedAt = now
	return nil
}

// DeleteSession removes a session owned by userID
func (r *PracticeRepository) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		del := tx.GetDialect().RewriteQuery(`
			DELETE FROM practice_session_words
			WHERE session_id IN (SELECT id FROM practice_sessions WHERE id = ? AND user_id = ?)
		`)
		if _, err := tx.ExecContext(ctx, del, sessionID, userID); err != nil {
			return errors.Wrap(err, "delete session words")
		}

		result, err := tx.ExecContext(ctx,
			tx.GetDialect().RewriteQuery("DELETE FROM practice_sessions WHERE id = ? AND user_id = ?"),
			sessionID, userID)
		if err != nil {
			return errors.Wrap(err, "delete practice session")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "rows affected")
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PracticeRepository) attachWords(ctx context.Context, sessions []*models.PracticeSession) error {
	if len(sessions) == 0 {
		return nil
	}

	ids := make([]string, len(sessions))
	byID := make(map[string]*models.PracticeSession, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	query, args, err := r.db.In(`
		SELECT session_id, ordinal, word_id, performance, time_spent, attempts, metadata
		FROM practice_session_words
		WHERE session_id IN (?)
		ORDER BY session_id, ordinal
	`, ids)
	if err != nil {
		return errors.Wrap(err, "build session words query")
	}

	var rows []sessionWordRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return errors.Wrap(err, "select session words")
	}

	for _, row := range rows {
		meta := map[string]any{}
		if row.Metadata != "" {
			if err := json.Unmarshal([]byte(row.Metadata), &meta); err != nil {
				return errors.Wrapf(err, "decode metadata of session %s", row.SessionID)
			}
		}
		s := byID[row.SessionID]
		s.Words = append(s.Words, models.SessionWord{
			WordID:      row.WordID,
			Performance: models.Performance(row.Performance),
			TimeSpent:   row.TimeSpent,
			Attempts:    row.Attempts,
			Metadata:    meta,
		})
	}
	return nil
}

func insertSessionWords(ctx context.Context, tx *database.Tx, session *models.PracticeSession) error {
	query := tx.GetDialect().RewriteQuery(`
		INSERT INTO practice_session_words (session_id, ordinal, word_id, performance, time_spent, attempts, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	for i, w := range session.Words {
		meta := w.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		encoded, err := json.Marshal(meta)
		if err != nil {
			return errors.Wrapf(err, "encode metadata of word %s", w.WordID)
		}
		_, err = tx.ExecContext(ctx, query,
			session.ID, i, w.WordID, string(w.Performance), w.TimeSpent, w.Attempts, string(encoded))
		if err != nil {
			return errors.Wrapf(err, "insert session word %s", w.WordID)
		}
	}
	return nil
}

func nullInt(v int) sql.NullInt64 {
	if v <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}
