// Package dragonfly implements the CacheStore interface on top of a
// Dragonfly (or any Redis-protocol) server.
package dragonfly

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/repobox/repobox/internal/storage"
)

// cacheStore implements the CacheStore interface for Dragonfly
type cacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new Dragonfly store instance and verifies the
// connection.
func NewCacheStore(ctx context.Context, addr string) (storage.CacheStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to dragonfly: %w", err)
	}
	return &cacheStore{client: client}, nil
}

func (s *cacheStore) ZAdd(ctx context.Context, key, member string, score float64) error {
	return s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (s *cacheStore) ZIncrBy(ctx context.Context, key string, increment float64, member string) error {
	return s.client.ZIncrBy(ctx, key, increment, member).Err()
}

func (s *cacheStore) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) error {
	return s.client.ZRemRangeByRank(ctx, key, start, stop).Err()
}

func (s *cacheStore) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]storage.ScoredMember, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}
	members := make([]storage.ScoredMember, 0, len(zs))
	for _, z := range zs {
		members = append(members, storage.ScoredMember{Member: z.Member, Score: z.Score})
	}
	return members, nil
}

func (s *cacheStore) ZCard(ctx context.Context, key string) (int64, error) {
	return s.client.ZCard(ctx, key).Result()
}

func (s *cacheStore) HIncrBy(ctx context.Context, key, field string, increment int64) error {
	return s.client.HIncrBy(ctx, key, field, increment).Err()
}

func (s *cacheStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return s.client.HSet(ctx, key, values).Err()
}

func (s *cacheStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return s.client.HGetAll(ctx, key).Result()
}

func (s *cacheStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", storage.ErrCacheMiss
	}
	return value, err
}

func (s *cacheStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.SetEx(ctx, key, value, ttl).Err()
}

func (s *cacheStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return s.client.Del(ctx, keys...).Result()
}

func (s *cacheStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return s.client.Keys(ctx, pattern).Result()
}

func (s *cacheStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, key).Result()
}

func (s *cacheStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *cacheStore) DBSize(ctx context.Context) (int64, error) {
	return s.client.DBSize(ctx).Result()
}

func (s *cacheStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *cacheStore) Close() error {
	return s.client.Close()
}
