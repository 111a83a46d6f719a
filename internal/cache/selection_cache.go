package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"vocabuddy/internal/models"
)

// SelectionCache stores candidate word lists by selection key. Values are
// kept encoded, so a hit is a snapshot unaffected by later caller mutation.
type SelectionCache struct {
	lru *LRUCache
}

// NewSelectionCache creates a selection cache holding at most maxItems lists
func NewSelectionCache(maxItems int) *SelectionCache {
	return &SelectionCache{lru: NewLRUCache(maxItems, time.Minute)}
}

// Get returns the cached list for key, if present and unexpired
func (c *SelectionCache) Get(_ context.Context, key string) ([]models.Word, bool, error) {
	raw, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}

	var words []models.Word
	if err := json.Unmarshal(raw, &words); err != nil {
		c.lru.Invalidate(key)
		return nil, false, errors.Wrapf(err, "decode cached selection %s", key)
	}
	return words, true, nil
}

// Set stores words under key for ttl
func (c *SelectionCache) Set(_ context.Context, key string, words []models.Word, ttl time.Duration) error {
	if words == nil {
		words = []models.Word{}
	}
	raw, err := json.Marshal(words)
	if err != nil {
		return errors.Wrapf(err, "encode selection %s", key)
	}
	c.lru.Set(key, raw, ttl)
	return nil
}

// InvalidateUser drops every cached list of userID and returns how many
func (c *SelectionCache) InvalidateUser(_ context.Context, userID string) int {
	removed := 0
	for _, pattern := range userPatterns(userID) {
		removed += c.lru.Invalidate(pattern)
	}
	return removed
}

// Sweep removes expired entries
func (c *SelectionCache) Sweep() int {
	return c.lru.CleanupExpired()
}

// Size returns the number of stored lists
func (c *SelectionCache) Size() int {
	return c.lru.Size()
}

// Clear drops everything
func (c *SelectionCache) Clear() {
	c.lru.Clear()
}
