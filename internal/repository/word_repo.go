package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"vocabuddy/internal/database"
	"vocabuddy/internal/models"
)

// WordRepository handles vocabulary database operations
type WordRepository struct {
	db *database.DB
}

// NewWordRepository creates a new word repository
func NewWordRepository(db *database.DB) *WordRepository {
	return &WordRepository{db: db}
}

type wordRow struct {
	ID          string       `db:"id"`
	UserID      string       `db:"user_id"`
	Word        string       `db:"word"`
	Content     string       `db:"content"`
	Status      string       `db:"status"`
	Strength    float64      `db:"strength"`
	NextReview  sql.NullTime `db:"next_review"`
	LastStudied sql.NullTime `db:"last_studied"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func (r wordRow) toModel() (models.Word, error) {
	w := models.Word{
		ID:     r.ID,
		UserID: r.UserID,
		Text:   r.Word,
		Learning: models.Learning{
			Status:   models.LearningStatus(r.Status),
			Strength: r.Strength,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.NextReview.Valid {
		w.Learning.NextReview = r.NextReview.Time.UTC()
	}
	if r.LastStudied.Valid {
		w.Learning.LastStudied = r.LastStudied.Time.UTC()
	}
	if r.Content != "" {
		if err := json.Unmarshal([]byte(r.Content), &w.Content); err != nil {
			return w, errors.Wrapf(err, "decode content of word %s", r.ID)
		}
	}
	return w, nil
}

const wordColumns = `w.id, w.user_id, w.word, w.content, w.status, w.strength,
	w.next_review, w.last_studied, w.created_at, w.updated_at`

// CreateWord inserts a word and its categories
func (r *WordRepository) CreateWord(ctx context.Context, word *models.Word) error {
	word.Learning.Normalize()
	if !word.Learning.Status.Valid() {
		return errors.Errorf("invalid learning status %q", word.Learning.Status)
	}

	content, err := json.Marshal(word.Content)
	if err != nil {
		return errors.Wrap(err, "encode word content")
	}

	now := dbTime(time.Now())
	if word.CreatedAt.IsZero() {
		word.CreatedAt = now
	}
	word.UpdatedAt = now
	// A new word is due for review immediately
	if word.Learning.NextReview.IsZero() {
		word.Learning.NextReview = dbTime(word.CreatedAt)
	}

	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := tx.GetDialect().RewriteQuery(`
			INSERT INTO words (id, user_id, word, content, status, strength, next_review, last_studied, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		_, err := tx.ExecContext(ctx, query,
			word.ID,
			word.UserID,
			word.Text,
			string(content),
			string(word.Learning.Status),
			word.Learning.Strength,
			nullTime(word.Learning.NextReview),
			nullTime(word.Learning.LastStudied),
			dbTime(word.CreatedAt),
			word.UpdatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "insert word")
		}

		catQuery := tx.GetDialect().RewriteQuery("INSERT INTO word_categories (word_id, name) VALUES (?, ?)")
		for _, name := range dedupe(word.Categories) {
			if _, err := tx.ExecContext(ctx, catQuery, word.ID, name); err != nil {
				return errors.Wrapf(err, "insert category %q", name)
			}
		}
		return nil
	})
}

// FindWordsByFilter returns the user's words that pass filter, ordered per
// order. A limit of zero or less returns every match.
func (r *WordRepository) FindWordsByFilter(ctx context.Context, userID string, filter models.SelectionFilter, order models.OrderSpec, limit int) ([]models.Word, error) {
	where := []string{"w.user_id = ?"}
	args := []any{userID}

	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		where = append(where, "w.status IN (?)")
		args = append(args, statuses)
	}
	if filter.MinStrength != nil {
		where = append(where, "w.strength >= ?")
		args = append(args, *filter.MinStrength)
	}
	if filter.MaxStrength != nil {
		where = append(where, "w.strength <= ?")
		args = append(args, *filter.MaxStrength)
	}
	if len(filter.Categories) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM word_categories c WHERE c.word_id = w.id AND c.name IN (?))")
		args = append(args, filter.Categories)
	}
	if !order.DueBefore.IsZero() {
		where = append(where, "w.next_review IS NOT NULL AND w.next_review <= ?")
		args = append(args, dbTime(order.DueBefore))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(wordColumns)
	sb.WriteString(" FROM words w WHERE ")
	sb.WriteString(strings.Join(where, " AND "))
	sb.WriteString(" ORDER BY ")
	sb.WriteString(r.orderClause(order.By))
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	query, expanded, err := r.db.In(sb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, "build word query")
	}

	var rows []wordRow
	if err := r.db.SelectContext(ctx, &rows, query, expanded...); err != nil {
		return nil, errors.Wrap(err, "select words")
	}

	words := make([]models.Word, 0, len(rows))
	for _, row := range rows {
		w, err := row.toModel()
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}

	if err := r.attachCategories(ctx, words); err != nil {
		return nil, err
	}
	return words, nil
}

func (r *WordRepository) orderClause(by models.WordOrder) string {
	switch by {
	case models.OrderNextReview:
		return "w.next_review ASC, w.id ASC"
	case models.OrderStrength:
		return "w.strength ASC, w.id ASC"
	case models.OrderLastStudied:
		// Never-studied words first on every dialect
		return "CASE WHEN w.last_studied IS NULL THEN 0 ELSE 1 END ASC, w.last_studied ASC, w.id ASC"
	case models.OrderRandom:
		return r.db.Dialect.RandomFunc()
	default:
		return "w.id ASC"
	}
}

func (r *WordRepository) attachCategories(ctx context.Context, words []models.Word) error {
	if len(words) == 0 {
		return nil
	}

	query, args, err := r.db.In(
		"SELECT word_id, name FROM word_categories WHERE word_id IN (?) ORDER BY word_id, name",
		models.WordIDs(words),
	)
	if err != nil {
		return errors.Wrap(err, "build category query")
	}

	var rows []struct {
		WordID string `db:"word_id"`
		Name   string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return errors.Wrap(err, "select categories")
	}

	byWord := make(map[string][]string, len(words))
	for _, row := range rows {
		byWord[row.WordID] = append(byWord[row.WordID], row.Name)
	}
	for i := range words {
		words[i].Categories = byWord[words[i].ID]
		if words[i].Categories == nil {
			words[i].Categories = []string{}
		}
	}
	return nil
}

// CountSessionErrorsByWord counts, per word, the session entries of userID
// graded fair or poor after at least one attempt.
func (r *WordRepository) CountSessionErrorsByWord(ctx context.Context, userID string) (map[string]int, error) {
	query := r.db.Dialect.RewriteQuery(`
		SELECT sw.word_id AS word_id, COUNT(*) AS errors
		FROM practice_session_words sw
		JOIN practice_sessions s ON s.id = sw.session_id
		WHERE s.user_id = ? AND sw.performance IN (?, ?) AND sw.attempts > 0
		GROUP BY sw.word_id
	`)

	var rows []struct {
		WordID string `db:"word_id"`
		Errors int    `db:"errors"`
	}
	err := r.db.SelectContext(ctx, &rows, query,
		userID, string(models.PerformanceFair), string(models.PerformancePoor))
	if err != nil {
		return nil, errors.Wrap(err, "count session errors")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.WordID] = row.Errors
	}
	return counts, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
