package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/paginator"
)

// PostPage 缓存的一页帖子列表
type PostPage = paginator.Page[*model.Post]

// FeedCache 缓存分页后的帖子列表。任何对 posts / groups 的写入都必须调用
// Invalidate，保证写入之后不会再读到写入之前的页。
//
// Get 同时返回它读到的版本号；Set 必须带回这个版本号，
// 这样在查库期间发生的写入会让这一页落到已废弃的版本下。
type FeedCache interface {
	Get(ctx context.Context, scope string, page int) (*PostPage, int64, bool)
	Set(ctx context.Context, version int64, scope string, page int, value *PostPage)
	Invalidate(ctx context.Context) error
}

// NoVersion 表示读版本号失败，Set 收到它时不写缓存
const NoVersion int64 = -1

// 三种列表的缓存作用域
func ScopeAll() string                   { return "all" }
func ScopeGroup(groupID uint) string     { return fmt.Sprintf("group:%d", groupID) }
func ScopeAuthor(authorID string) string { return "author:" + authorID }

const versionKey = "feed:version"

// RedisFeedCache 所有页挂在全局版本号下；Invalidate 递增版本号，
// 旧版本的页不会再被读到，随 TTL 过期
type RedisFeedCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisFeedCache(client *redis.Client, ttl time.Duration) *RedisFeedCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisFeedCache{client: client, ttl: ttl}
}

func (c *RedisFeedCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func pageKey(version int64, scope string, page int) string {
	return fmt.Sprintf("feed:v%d:%s:%d", version, scope, page)
}

func (c *RedisFeedCache) Get(ctx context.Context, scope string, page int) (*PostPage, int64, bool) {
	v, err := c.version(ctx)
	if err != nil {
		logger.Warn("feed cache version read failed", zap.Error(err))
		c.misses.Add(1)
		return nil, NoVersion, false
	}
	data, err := c.client.Get(ctx, pageKey(v, scope, page)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("feed cache read failed", zap.String("scope", scope), zap.Error(err))
		}
		c.misses.Add(1)
		return nil, v, false
	}
	var out PostPage
	if err := json.Unmarshal(data, &out); err != nil {
		c.misses.Add(1)
		return nil, v, false
	}
	c.hits.Add(1)
	return &out, v, true
}

// Set 把页写到 version 下；version 是 Get 时读到的，不重新读取
func (c *RedisFeedCache) Set(ctx context.Context, version int64, scope string, page int, value *PostPage) {
	if version < 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, pageKey(version, scope, page), payload, c.ttl).Err(); err != nil {
		logger.Warn("feed cache write failed", zap.String("scope", scope), zap.Error(err))
	}
}

func (c *RedisFeedCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, versionKey).Err()
}

// Counters 启动或上次重置以来的命中与未命中次数
func (c *RedisFeedCache) Counters() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *RedisFeedCache) ResetCounters() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// Nop 未启用 redis 时使用
type Nop struct{}

func (Nop) Get(context.Context, string, int) (*PostPage, int64, bool) { return nil, NoVersion, false }
func (Nop) Set(context.Context, int64, string, int, *PostPage)         {}
func (Nop) Invalidate(context.Context) error                           { return nil }
