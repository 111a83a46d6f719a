// Package selection picks the words a user should practice next.
package selection

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"vocabuddy/internal/apperr"
	"vocabuddy/internal/cache"
	"vocabuddy/internal/models"
)

// WordStore is the read side of the user's vocabulary
type WordStore interface {
	// FindWordsByFilter returns matching words in order; limit <= 0 means all.
	FindWordsByFilter(ctx context.Context, userID string, filter models.SelectionFilter, order models.OrderSpec, limit int) ([]models.Word, error)
	// CountSessionErrorsByWord maps word id to its number of failed session entries.
	CountSessionErrorsByWord(ctx context.Context, userID string) (map[string]int, error)
}

// Cache holds candidate lists between requests
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Word, bool, error)
	Set(ctx context.Context, key string, words []models.Word, ttl time.Duration) error
}

// Options tunes a Selector. Zero values get defaults.
type Options struct {
	StoreTimeout   time.Duration
	AlgorithmicTTL time.Duration
	RandomTTL      time.Duration
	Now            func() time.Time
	Logger         *slog.Logger
}

// Selector implements the algorithmic and random word selection
type Selector struct {
	store  WordStore
	cache  Cache
	opts   Options
	flight singleflight.Group
}

// NewSelector creates a selector. A nil cache disables caching.
func NewSelector(store WordStore, c Cache, opts Options) *Selector {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.AlgorithmicTTL <= 0 {
		opts.AlgorithmicTTL = 300 * time.Second
	}
	if opts.RandomTTL <= 0 {
		opts.RandomTTL = 60 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Selector{store: store, cache: c, opts: opts}
}

// SelectWords returns up to req.Count words split between a strategy-ranked
// pool and a random pool. The pools may overlap.
func (s *Selector) SelectWords(ctx context.Context, req models.SelectionRequest) (models.SelectionResult, error) {
	if err := validate(req); err != nil {
		return models.SelectionResult{}, err
	}

	algorithmicCount, randomCount := req.Split()
	filter := req.Filter.Canonical()

	result := models.SelectionResult{
		AlgorithmicWords: []models.Word{},
		RandomWords:      []models.Word{},
	}

	g, gctx := errgroup.WithContext(ctx)
	if algorithmicCount > 0 {
		g.Go(func() error {
			key := cache.Key(cache.KindAlgorithmic, req.UserID, req.Strategy, filter)
			words, err := s.fetch(gctx, req.UseCache, key, algorithmicCount, s.opts.AlgorithmicTTL,
				func(ctx context.Context, limit int) ([]models.Word, error) {
					return s.algorithmicWords(ctx, req.UserID, req.Strategy, filter, limit)
				})
			if err != nil {
				return err
			}
			result.AlgorithmicWords = words
			return nil
		})
	}
	if randomCount > 0 {
		g.Go(func() error {
			key := cache.Key(cache.KindRandom, req.UserID, "", filter)
			words, err := s.fetch(gctx, req.UseCache, key, randomCount, s.opts.RandomTTL,
				func(ctx context.Context, limit int) ([]models.Word, error) {
					return s.randomWords(ctx, req.UserID, filter, limit)
				})
			if err != nil {
				return err
			}
			result.RandomWords = words
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.SelectionResult{}, err
	}

	s.opts.Logger.Debug("selected words",
		"user_id", req.UserID,
		"strategy", req.Strategy,
		"algorithmic", len(result.AlgorithmicWords),
		"random", len(result.RandomWords))

	return result, nil
}

type fetchFunc func(ctx context.Context, limit int) ([]models.Word, error)

// fetch serves count words from the cache, or loads 2*count on a miss and
// caches them. Concurrent misses for the same key and count share one load.
func (s *Selector) fetch(ctx context.Context, useCache bool, key string, count int, ttl time.Duration, load fetchFunc) ([]models.Word, error) {
	if !useCache || s.cache == nil {
		return load(ctx, count)
	}

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, apperr.StoreUnavailable("selection cache read failed", err)
	}
	if ok {
		return head(cached, count), nil
	}

	// The shared load outlives any single caller; query still bounds it
	// with the store timeout.
	shared := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key+"#"+strconv.Itoa(count), func() (any, error) {
		words, err := load(shared, 2*count)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(shared, key, words, ttl); err != nil {
			return nil, apperr.StoreUnavailable("selection cache write failed", err)
		}
		return words, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperr.StoreUnavailable("word selection cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return head(res.Val.([]models.Word), count), nil
	}
}

// query runs one store call under the store timeout
func (s *Selector) query(ctx context.Context, userID string, filter models.SelectionFilter, order models.OrderSpec, limit int) ([]models.Word, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	words, err := s.store.FindWordsByFilter(ctx, userID, filter, order, limit)
	if err != nil {
		return nil, apperr.StoreUnavailable("word store query failed", err)
	}
	return words, nil
}

func (s *Selector) errorCounts(ctx context.Context, userID string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	counts, err := s.store.CountSessionErrorsByWord(ctx, userID)
	if err != nil {
		return nil, apperr.StoreUnavailable("session error counts failed", err)
	}
	return counts, nil
}

func (s *Selector) algorithmicWords(ctx context.Context, userID string, strategy models.SelectionStrategy, filter models.SelectionFilter, limit int) ([]models.Word, error) {
	switch strategy {
	case models.StrategySpacedRepetition:
		return s.query(ctx, userID, filter, models.OrderSpec{By: models.OrderNextReview, DueBefore: s.opts.Now()}, limit)

	case models.StrategyWeakestWords:
		return s.query(ctx, userID, filter, models.OrderSpec{By: models.OrderStrength}, limit)

	case models.StrategyLeastPracticed:
		return s.query(ctx, userID, filter, models.OrderSpec{By: models.OrderLastStudied}, limit)

	case models.StrategyMostErrors:
		var (
			pool   []models.Word
			counts map[string]int
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			pool, err = s.query(gctx, userID, filter, models.OrderSpec{}, 0)
			return err
		})
		g.Go(func() (err error) {
			counts, err = s.errorCounts(gctx, userID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return head(RankByErrors(pool, counts), limit), nil

	case models.StrategyBalanced:
		pool, err := s.query(ctx, userID, filter, models.OrderSpec{}, 0)
		if err != nil {
			return nil, err
		}
		return head(RankBalanced(pool, s.opts.Now()), limit), nil
	}

	return nil, apperr.InvalidRequest("unknown strategy %q", strategy)
}

func (s *Selector) randomWords(ctx context.Context, userID string, filter models.SelectionFilter, limit int) ([]models.Word, error) {
	return s.query(ctx, userID, filter, models.OrderSpec{By: models.OrderRandom}, limit)
}

func validate(req models.SelectionRequest) error {
	if req.UserID == "" {
		return apperr.InvalidRequest("userId is required")
	}
	if req.Count < 0 {
		return apperr.InvalidRequest("count must not be negative, got %d", req.Count)
	}
	if req.Count > models.MaxSelectionCount {
		return apperr.InvalidRequest("count must be at most %d, got %d", models.MaxSelectionCount, req.Count)
	}
	if req.RandomPercentage < 0 || req.RandomPercentage > 100 {
		return apperr.InvalidRequest("randomPercentage must be within [0,100], got %d", req.RandomPercentage)
	}
	if !req.Strategy.Valid() {
		return apperr.InvalidRequest("unknown strategy %q", req.Strategy)
	}

	f := req.Filter
	for _, st := range f.Status {
		if !st.Valid() {
			return apperr.InvalidRequest("unknown status %q", st)
		}
	}
	if f.MinStrength != nil && (*f.MinStrength < 0 || *f.MinStrength > 1) {
		return apperr.InvalidRequest("minStrength must be within [0,1]")
	}
	if f.MaxStrength != nil && (*f.MaxStrength < 0 || *f.MaxStrength > 1) {
		return apperr.InvalidRequest("maxStrength must be within [0,1]")
	}
	if f.MinStrength != nil && f.MaxStrength != nil && *f.MinStrength > *f.MaxStrength {
		return apperr.InvalidRequest("minStrength exceeds maxStrength")
	}
	return nil
}

// head returns a copy of at most n leading words
func head(words []models.Word, n int) []models.Word {
	if n > len(words) {
		n = len(words)
	}
	out := make([]models.Word, n)
	copy(out, words[:n])
	return out
}
