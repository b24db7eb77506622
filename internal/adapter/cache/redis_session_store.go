package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/repository"
)

const sessionKeyPrefix = "gda:session:"

// RedisSessionStore implements repository.SessionStore backed by Redis.
// Expiry is enforced by Redis itself; the store never issues deletes.
type RedisSessionStore struct {
	client redis.UniversalClient
}

var _ repository.SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore constructs a Redis-backed session store.
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Put upserts the sealed blob under id. A ttl of repository.KeepTTL keeps
// the remaining expiry (redis KEEPTTL).
func (s *RedisSessionStore) Put(ctx context.Context, id, blob string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+id, blob, ttl).Err(); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Get loads the sealed blob for id.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (string, error) {
	val, err := s.client.Get(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("load session: %w", err)
	}
	return val, nil
}
