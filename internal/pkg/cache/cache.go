package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"
)

// Cache 报表等只读查询的结果缓存
type Cache interface {
	// Get 命中时把值解码到 dest 并返回 true
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// DeletePrefix 删除所有以 prefix 开头的键
	DeletePrefix(ctx context.Context, prefix string) error
}

// Connect 未配置地址或连接失败时返回 nil，调用方退化为不缓存
func Connect(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		klog.Warningf("redis addr not set, cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		klog.Errorf("failed to connect redis %s: %v", addr, err)
		_ = client.Close()
		return nil
	}

	klog.Infof("connected to redis %s", addr)
	return client
}

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache client 为 nil 时返回 Noop
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) Cache {
	if client == nil {
		return Noop{}
	}
	return &redisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, c.ttl).Err()
}

func (c *redisCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, c.prefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Noop 不缓存
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any) error          { return nil }
func (Noop) DeletePrefix(context.Context, string) error      { return nil }
