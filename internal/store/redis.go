package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore saves each document as a JSON string under
// "<prefix>:<collection>:<key>" with no expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ DocumentStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(collection, key string) string {
	if s.prefix == "" {
		return fmt.Sprintf("%s:%s", collection, key)
	}
	return fmt.Sprintf("%s:%s:%s", s.prefix, collection, key)
}

func (s *RedisStore) Get(ctx context.Context, collection, key string) (Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(collection, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis get %s/%s: %w", collection, key, err)
	}
	return Snapshot{Exists: true, Data: data}, nil
}

func (s *RedisStore) Set(ctx context.Context, collection, key string, data []byte) error {
	if !validObject(data) {
		return ErrInvalidDocument
	}
	if err := s.client.Set(ctx, s.key(collection, key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op: the client is shared with the session store and closed by the app.
func (s *RedisStore) Close(context.Context) error { return nil }
