package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"skincare-ingredients/internal/infrastructure/config"
)

// NewClient 建立 Redis 連線並測試連接；未啟用時回傳 nil
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
