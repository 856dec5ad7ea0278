package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/yatube/config"
)

// Open 启用时返回 redis 列表缓存，否则返回 Nop
// 返回的 close 函数总是可以安全调用
func Open(ctx context.Context, cfg config.RedisConfig) (FeedCache, func() error, error) {
	if !cfg.Enabled {
		return Nop{}, func() error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisFeedCache(client, cfg.TTL), client.Close, nil
}
