package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// redisStore keeps one sorted set per address and endpoint, scored by hit
// time in milliseconds.
type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func redisKey(ip, endpoint string) string {
	return redisKeyPrefix + endpoint + ":" + ip
}

func score(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (s *redisStore) Count(ctx context.Context, ip, endpoint string, since time.Time) (int, error) {
	n, err := s.client.ZCount(ctx, redisKey(ip, endpoint), score(since), "+inf").Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *redisStore) Record(ctx context.Context, ip, endpoint string, at time.Time) error {
	key := redisKey(ip, endpoint)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixMilli()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, Retention)
	_, err := pipe.Exec(ctx)
	return err
}

// expiresEntries marks the store as bounded by key TTLs set in Record.
func (s *redisStore) expiresEntries() {}

func (s *redisStore) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", "("+score(before)).Result()
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, iter.Err()
}
