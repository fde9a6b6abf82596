package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisStore implements KeyValueStore
var _ KeyValueStore = (*redisStore)(nil)

type redisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed KeyValueStore. Documents are stored
// without TTL; the collection keys live as long as the product data does.
func NewRedisStore(client *redis.Client, logger *zap.Logger) KeyValueStore {
	return &redisStore{
		client: client,
		logger: logger.Named("RedisStore"),
	}
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		s.logger.Error("Failed to read key from redis", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("failed to read key %q from redis: %w", key, err)
	}
	return data, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		s.logger.Error("Failed to write key to redis", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to write key %q to redis: %w", key, err)
	}
	s.logger.Debug("Key written", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Error("Failed to delete key from redis", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to delete key %q from redis: %w", key, err)
	}
	return nil
}
