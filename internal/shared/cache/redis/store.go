// Package redis Redis 缓存实现
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store Redis 缓存存储
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStoreFromURL 从 URL 创建 Redis 缓存实例
//
// ttl 为排行榜缓存的过期时间，<= 0 时使用默认 30 秒。
func NewStoreFromURL(redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	log.Printf("[Redis/Cache] Connected to %s", opts.Addr)
	return &Store{client: client, ttl: ttl}, nil
}

// NewStoreFromClient 从现有 Redis 客户端创建缓存实例
func NewStoreFromClient(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Store{client: client, ttl: ttl}
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}
