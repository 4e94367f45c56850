package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stackdeck-app/stackdeck-backend/config"
	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
)

// OpenStore selects the key-value backend: Postgres when DATABASE_URL is
// set, Redis otherwise.
func OpenStore(cfg *config.Config) (kvstore.Store, error) {
	if cfg.Database.URL != "" {
		return kvstore.OpenPostgresStore(cfg.Database.URL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return kvstore.NewRedisStore(client), nil
}
