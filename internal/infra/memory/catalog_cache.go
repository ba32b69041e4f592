package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"leaderboard-watch/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the quiz/group catalog from the backend.
type CatalogLoader interface {
	Quizzes(ctx context.Context) ([]domain.Quiz, error)
	Groups(ctx context.Context) ([]domain.Group, error)
}

// CatalogCache caches catalog snapshots with TTL. The catalog changes rarely
// compared to how often scope pickers read it, so repeated REST hits are
// avoided.
type CatalogCache struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu      sync.RWMutex
	quizzes cachedQuizzes
	groups  cachedGroups
}

type cachedQuizzes struct {
	items     []domain.Quiz
	expiresAt time.Time
}

type cachedGroups struct {
	items     []domain.Group
	expiresAt time.Time
}

func NewCatalogCache(loader CatalogLoader, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) Quizzes(ctx context.Context) ([]domain.Quiz, error) {
	now := c.clock()

	c.mu.RLock()
	if c.quizzes.items != nil && c.quizzes.expiresAt.After(now) {
		items := c.quizzes.items
		c.mu.RUnlock()
		return items, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("quizzes", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.quizzes.items != nil && c.quizzes.expiresAt.After(now) {
			items := c.quizzes.items
			c.mu.RUnlock()
			return items, nil
		}
		c.mu.RUnlock()

		items, err := c.loader.Quizzes(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.quizzes = cachedQuizzes{items: items, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Quiz), nil
}

func (c *CatalogCache) Groups(ctx context.Context) ([]domain.Group, error) {
	now := c.clock()

	c.mu.RLock()
	if c.groups.items != nil && c.groups.expiresAt.After(now) {
		items := c.groups.items
		c.mu.RUnlock()
		return items, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("groups", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.groups.items != nil && c.groups.expiresAt.After(now) {
			items := c.groups.items
			c.mu.RUnlock()
			return items, nil
		}
		c.mu.RUnlock()

		items, err := c.loader.Groups(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.groups = cachedGroups{items: items, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Group), nil
}

// QuizTitle resolves a quiz id to its title through the cache.
func (c *CatalogCache) QuizTitle(ctx context.Context, quizID string) (string, error) {
	quizzes, err := c.Quizzes(ctx)
	if err != nil {
		return "", err
	}
	for _, quiz := range quizzes {
		if quiz.ID == quizID {
			return quiz.Title, nil
		}
	}
	return "", domain.ErrQuizNotFound
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticCatalog is a loader backed by in-memory slices (useful for tests).
type StaticCatalog struct {
	QuizList  []domain.Quiz
	GroupList []domain.Group
}

func (s *StaticCatalog) Quizzes(_ context.Context) ([]domain.Quiz, error) {
	return s.QuizList, nil
}

func (s *StaticCatalog) Groups(_ context.Context) ([]domain.Group, error) {
	return s.GroupList, nil
}
