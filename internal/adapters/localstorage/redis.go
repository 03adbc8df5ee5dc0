package localstorage_adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage хранит значения клиента в одном хэше <prefix>:<scope>.
// TTL продлевается при каждой записи; 0 - без срока.
type RedisStorage struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisStorage(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStorage {
	if prefix == "" {
		prefix = "localstorage"
	}
	return &RedisStorage{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStorage) hashKey(scope string) string {
	return s.prefix + ":" + scope
}

func (s *RedisStorage) Get(ctx context.Context, scope, key string) (string, bool, error) {
	value, err := s.client.HGet(ctx, s.hashKey(scope), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis hget %s/%s: %w", scope, key, err)
	}
	return value, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, scope, key, value string) error {
	hash := s.hashKey(scope)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hash, key, value)
		if s.ttl > 0 {
			pipe.Expire(ctx, hash, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset %s/%s: %w", scope, key, err)
	}
	return nil
}

func (s *RedisStorage) Remove(ctx context.Context, scope, key string) error {
	if err := s.client.HDel(ctx, s.hashKey(scope), key).Err(); err != nil {
		return fmt.Errorf("redis hdel %s/%s: %w", scope, key, err)
	}
	return nil
}
