package redis

import (
	"context"
	"encoding/json"
	"time"

	"leaderboard-watch/internal/domain"
	"leaderboard-watch/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Keys used for cached catalog snapshots.
const (
	quizzesKey = "catalog:quizzes"
	groupsKey  = "catalog:groups"
)

// CatalogCache caches catalog snapshots in Redis as JSON values with TTL and
// falls back to the loader on cache miss. Useful when several watcher
// processes share one backend.
type CatalogCache struct {
	client *redis.Client
	loader memory.CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewCatalogCache(client *redis.Client, loader memory.CatalogLoader, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, loader: loader, ttl: ttl}
}

func (c *CatalogCache) Quizzes(ctx context.Context) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	if c.cachedJSON(ctx, quizzesKey, &quizzes) {
		return quizzes, nil
	}

	result, err, _ := c.sf.Do(quizzesKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		var quizzes []domain.Quiz
		if c.cachedJSON(ctx, quizzesKey, &quizzes) {
			return quizzes, nil
		}
		quizzes, err := c.loader.Quizzes(ctx)
		if err != nil {
			return nil, err
		}
		c.storeJSON(ctx, quizzesKey, quizzes)
		return quizzes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Quiz), nil
}

func (c *CatalogCache) Groups(ctx context.Context) ([]domain.Group, error) {
	var groups []domain.Group
	if c.cachedJSON(ctx, groupsKey, &groups) {
		return groups, nil
	}

	result, err, _ := c.sf.Do(groupsKey, func() (interface{}, error) {
		var groups []domain.Group
		if c.cachedJSON(ctx, groupsKey, &groups) {
			return groups, nil
		}
		groups, err := c.loader.Groups(ctx)
		if err != nil {
			return nil, err
		}
		c.storeJSON(ctx, groupsKey, groups)
		return groups, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Group), nil
}

func (c *CatalogCache) cachedJSON(ctx context.Context, key string, out any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil || len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// storeJSON is best effort; a failed cache write only costs a reload.
func (c *CatalogCache) storeJSON(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttl).Err()
}
