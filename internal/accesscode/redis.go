package accesscode

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "accesscode:"

type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore is a Store backed by Redis key expiry.
type RedisStore struct {
	rdb  redisClient
	nowF func() time.Time
}

// NewRedisClient returns a client for addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisStore returns a Store using rdb.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, nowF: time.Now}
}

// Put is a no-op when expiresAt has already passed.
func (s *RedisStore) Put(ctx context.Context, phone, code string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.nowF())
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, keyPrefix+phone, code, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, phone string) (string, bool, error) {
	code, err := s.rdb.Get(ctx, keyPrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}
