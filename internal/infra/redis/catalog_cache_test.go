package redis

import (
	"context"
	"testing"
	"time"

	"leaderboard-watch/internal/domain"
	"leaderboard-watch/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCatalogCacheStoresInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingCatalog{
		CatalogLoader: &memory.StaticCatalog{
			QuizList: []domain.Quiz{{ID: "q1", Title: "Fractions", Published: true}},
		},
	}
	cache := NewCatalogCache(client, loader, time.Minute)

	quizzes, err := cache.Quizzes(context.Background())
	if err != nil {
		t.Fatalf("quizzes: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].ID != "q1" {
		t.Fatalf("unexpected quizzes %+v", quizzes)
	}
	if loader.quizCalls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.quizCalls)
	}
	if !mr.Exists(quizzesKey) {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit the cached value, loader not incremented.
	if _, err := cache.Quizzes(context.Background()); err != nil {
		t.Fatalf("quizzes 2: %v", err)
	}
	if loader.quizCalls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.quizCalls)
	}
}

func TestCatalogCacheExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingCatalog{
		CatalogLoader: &memory.StaticCatalog{
			GroupList: []domain.Group{{ID: "g1", Name: "Class A"}},
		},
	}
	cache := NewCatalogCache(client, loader, time.Minute)

	if _, err := cache.Groups(context.Background()); err != nil {
		t.Fatalf("groups: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := cache.Groups(context.Background()); err != nil {
		t.Fatalf("groups after expiry: %v", err)
	}
	if loader.groupCalls != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.groupCalls)
	}
}

type countingCatalog struct {
	memory.CatalogLoader
	quizCalls  int
	groupCalls int
}

func (c *countingCatalog) Quizzes(ctx context.Context) ([]domain.Quiz, error) {
	c.quizCalls++
	return c.CatalogLoader.Quizzes(ctx)
}

func (c *countingCatalog) Groups(ctx context.Context) ([]domain.Group, error) {
	c.groupCalls++
	return c.CatalogLoader.Groups(ctx)
}
