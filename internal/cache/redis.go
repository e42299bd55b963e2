package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "wishlily:page:"

// Store is a shared cache tier that outlives the process.
type Store interface {
	Get(ctx context.Context, key Key) (string, bool, error)
	Set(ctx context.Context, key Key, body string) error
}

// RedisClient is the subset of go-redis used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client RedisClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) name(key Key) string {
	return s.prefix + key.Digest()
}

func (s *RedisStore) Get(ctx context.Context, key Key) (string, bool, error) {
	body, err := s.client.Get(ctx, s.name(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read page from redis: %w", err)
	}
	return body, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, body string) error {
	if err := s.client.Set(ctx, s.name(key), body, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write page to redis: %w", err)
	}
	return nil
}
