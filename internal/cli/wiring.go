package cli

import (
	"fmt"
	"time"

	"leaderboard-watch/internal/config"
	"leaderboard-watch/internal/infra/memory"
	redisinfra "leaderboard-watch/internal/infra/redis"
	"leaderboard-watch/internal/infra/rest"
	"github.com/redis/go-redis/v9"
)

// loadConfig reads the YAML config, tolerating a missing file when the URLs
// are supplied through flags instead.
func loadConfig(path, apiFlag, socketFlag string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if apiFlag == "" {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = config.Config{}
	}
	if apiFlag != "" {
		cfg.API.BaseURL = apiFlag
	}
	if socketFlag != "" {
		cfg.Socket.URL = socketFlag
	}
	if cfg.API.BaseURL == "" {
		return cfg, fmt.Errorf("api base url not configured")
	}
	return cfg, nil
}

func newAPIClient(cfg config.Config) *rest.Client {
	return rest.NewClient(cfg.API.BaseURL, config.TTLDuration(cfg.API.Timeout, 10*time.Second))
}

// newCatalog picks the Redis-backed catalog cache when Redis is configured,
// the in-memory one otherwise.
func newCatalog(cfg config.Config, api *rest.Client) memory.CatalogLoader {
	ttl := config.TTLDuration(cfg.Redis.TTL, 5*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisinfra.NewCatalogCache(client, api, ttl)
	}
	return memory.NewCatalogCache(api, ttl)
}
