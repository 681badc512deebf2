package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "shield:cnt:"

// RedisConfig controls the Redis counter backend.
type RedisConfig struct {
	// KeyPrefix namespaces counter keys. Defaults to "shield:cnt:".
	KeyPrefix string
}

// Redis keeps one sorted set per counter key: member = event ID, score =
// hit timestamp in unix nanoseconds. Writes prune expired entries in the
// same pipeline, and every key carries a TTL slightly above its horizon so
// idle counters expire server-side.
type Redis struct {
	client redis.UniversalClient
	guard  *Guard
	prefix string
}

// NewRedis builds the Redis backend. The client is owned by the caller.
func NewRedis(client redis.UniversalClient, guard *Guard, cfg RedisConfig) *Redis {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{client: client, guard: guard, prefix: prefix}
}

func (r *Redis) key(key Key) string {
	return r.prefix + key.Name
}

func horizonCutoff(key Key, now time.Time) string {
	return strconv.FormatInt(now.Add(-key.Horizon).UnixNano(), 10)
}

func windowCutoff(window time.Duration, now time.Time) string {
	return strconv.FormatInt(now.Add(-window).UnixNano(), 10)
}

// Increment records a hit and returns the in-horizon count including it.
// The event ID is the set member, so a retried report cannot double-count.
func (r *Redis) Increment(ctx context.Context, key Key, eventID string, now time.Time) (uint64, error) {
	var count uint64

	err := r.guard.Do(ctx, func(ctx context.Context) error {
		k := r.key(key)

		pipe := r.client.Pipeline()
		pipe.ZRemRangeByScore(ctx, k, "0", horizonCutoff(key, now))
		pipe.ZAddNX(ctx, k, redis.Z{Score: float64(now.UnixNano()), Member: eventID})
		card := pipe.ZCard(ctx, k)
		pipe.Expire(ctx, k, key.Horizon+time.Second)

		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		count = uint64(card.Val())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Count returns the number of hits within [now-window, now].
func (r *Redis) Count(ctx context.Context, key Key, window time.Duration, now time.Time) (uint64, error) {
	var count uint64

	err := r.guard.Do(ctx, func(ctx context.Context) error {
		k := r.key(key)

		pipe := r.client.Pipeline()
		pipe.ZRemRangeByScore(ctx, k, "0", horizonCutoff(key, now))
		cnt := pipe.ZCount(ctx, k, windowCutoff(window, now), "+inf")

		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		count = uint64(cnt.Val())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Oldest returns the timestamp of the oldest hit within [now-window, now].
func (r *Redis) Oldest(ctx context.Context, key Key, window time.Duration, now time.Time) (time.Time, bool, error) {
	var (
		oldest time.Time
		found  bool
	)

	err := r.guard.Do(ctx, func(ctx context.Context) error {
		vals, err := r.client.ZRangeByScoreWithScores(ctx, r.key(key), &redis.ZRangeBy{
			Min:    windowCutoff(window, now),
			Max:    "+inf",
			Offset: 0,
			Count:  1,
		}).Result()
		if err != nil {
			return err
		}
		if len(vals) > 0 {
			oldest = time.Unix(0, int64(vals[0].Score))
			found = true
		}
		return nil
	})
	if err != nil {
		return time.Time{}, false, err
	}
	return oldest, found, nil
}

// EvictExpired is a no-op: per-key TTLs expire idle counters server-side and
// writes prune in-set entries.
func (r *Redis) EvictExpired(context.Context, time.Time) error { return nil }

// Ping reports backend reachability through the guard.
func (r *Redis) Ping(ctx context.Context) error {
	return r.guard.Do(ctx, func(ctx context.Context) error {
		return r.client.Ping(ctx).Err()
	})
}

// Close is a no-op; the Redis client is owned by the caller.
func (r *Redis) Close() error { return nil }
