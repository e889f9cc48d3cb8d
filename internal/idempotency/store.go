// Package idempotency remembers request keys in Redis so a retried write is
// applied at most once.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewStore(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (s *Store) Key(key string) string {
	return fmt.Sprintf("idem:%s:%s", s.prefix, key)
}

// Seen claims key and reports whether an earlier request already held it.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.Key(key), "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Forget releases key so a failed request can be retried with it.
func (s *Store) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.Key(key)).Err()
}
