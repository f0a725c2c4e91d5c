package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each registration as a JSON value under member:<uid>.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func memberKey(uid string) string {
	return MemberCollection + ":" + uid
}

func (s *RedisStore) Save(ctx context.Context, reg Registration) error {
	payload, err := json.Marshal(reg.Document())
	if err != nil {
		return fmt.Errorf("failed to encode member %s: %w", reg.UID, err)
	}
	// TTL=0 means no expiration.
	if err := s.rdb.Set(ctx, memberKey(reg.UID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to set member %s: %w", reg.UID, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
