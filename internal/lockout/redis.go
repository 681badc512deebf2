package lockout

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goShield/internal/store"
)

const redisKeyPrefix = "shield:lock:"

// RedisStore keeps one hash per account: failures, last-failure nanos and
// lock-until nanos. HIncrBy keeps concurrent failure reports lossless.
type RedisStore struct {
	client redis.UniversalClient
	guard  *store.Guard
}

// NewRedisStore builds the Redis-backed lockout store. The client is owned by
// the caller.
func NewRedisStore(client redis.UniversalClient, guard *store.Guard) *RedisStore {
	return &RedisStore{client: client, guard: guard}
}

func (r *RedisStore) key(account string) string {
	return redisKeyPrefix + account
}

func (r *RedisStore) Fail(ctx context.Context, account string, now time.Time, ttl time.Duration) (uint64, error) {
	var failures uint64

	err := r.guard.Do(ctx, func(ctx context.Context) error {
		k := r.key(account)

		pipe := r.client.Pipeline()
		incr := pipe.HIncrBy(ctx, k, "failures", 1)
		pipe.HSet(ctx, k, "last", strconv.FormatInt(now.UnixNano(), 10))
		pipe.Expire(ctx, k, ttl)

		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		failures = uint64(incr.Val())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return failures, nil
}

func (r *RedisStore) Lock(ctx context.Context, account string, until time.Time, ttl time.Duration) error {
	return r.guard.Do(ctx, func(ctx context.Context) error {
		k := r.key(account)

		pipe := r.client.Pipeline()
		pipe.HSet(ctx, k, "until", strconv.FormatInt(until.UnixNano(), 10))
		pipe.Expire(ctx, k, ttl)

		_, err := pipe.Exec(ctx)
		return err
	})
}

func (r *RedisStore) Get(ctx context.Context, account string) (uint64, time.Time, time.Time, error) {
	var (
		failures uint64
		last     time.Time
		until    time.Time
	)

	err := r.guard.Do(ctx, func(ctx context.Context) error {
		fields, err := r.client.HGetAll(ctx, r.key(account)).Result()
		if err != nil {
			return err
		}
		failures = parseUint(fields["failures"])
		last = parseNanos(fields["last"])
		until = parseNanos(fields["until"])
		return nil
	})
	if err != nil {
		return 0, time.Time{}, time.Time{}, err
	}
	return failures, last, until, nil
}

func (r *RedisStore) Clear(ctx context.Context, account string) (bool, error) {
	var existed bool

	err := r.guard.Do(ctx, func(ctx context.Context) error {
		n, err := r.client.Del(ctx, r.key(account)).Result()
		if err != nil {
			return err
		}
		existed = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

func parseUint(s string) uint64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseNanos(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, v)
}
