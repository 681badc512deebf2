package reputation

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goShield/internal/store"
)

const (
	redisViolationPrefix = "shield:rep:"
	redisBlockPrefix     = "shield:blk:"
)

// RedisStore keeps violations in one sorted set per source (member =
// "weight:id", score = unix nanos) and the block marker in a plain key whose
// TTL is the block itself, so expiry unblocks without cleanup work.
type RedisStore struct {
	client redis.UniversalClient
	guard  *store.Guard
}

// NewRedisStore builds the Redis-backed reputation store. The client is
// owned by the caller.
func NewRedisStore(client redis.UniversalClient, guard *store.Guard) *RedisStore {
	return &RedisStore{client: client, guard: guard}
}

func (r *RedisStore) violationKey(source string) string {
	return redisViolationPrefix + source
}

func (r *RedisStore) blockKey(source string) string {
	return redisBlockPrefix + source
}

func (r *RedisStore) Add(ctx context.Context, source string, v Violation, id string, horizon time.Duration) error {
	return r.guard.Do(ctx, func(ctx context.Context) error {
		k := r.violationKey(source)
		member := strconv.FormatFloat(v.Weight, 'g', -1, 64) + ":" + id
		cutoff := strconv.FormatInt(v.At.Add(-horizon).UnixNano(), 10)

		pipe := r.client.Pipeline()
		pipe.ZRemRangeByScore(ctx, k, "0", cutoff)
		pipe.ZAddNX(ctx, k, redis.Z{Score: float64(v.At.UnixNano()), Member: member})
		pipe.Expire(ctx, k, horizon+time.Second)

		_, err := pipe.Exec(ctx)
		return err
	})
}

func (r *RedisStore) List(ctx context.Context, source string, cutoff time.Time) ([]Violation, error) {
	var out []Violation

	err := r.guard.Do(ctx, func(ctx context.Context) error {
		vals, err := r.client.ZRangeByScoreWithScores(ctx, r.violationKey(source), &redis.ZRangeBy{
			Min: strconv.FormatInt(cutoff.UnixNano(), 10),
			Max: "+inf",
		}).Result()
		if err != nil {
			return err
		}

		out = make([]Violation, 0, len(vals))
		for _, z := range vals {
			member, ok := z.Member.(string)
			if !ok {
				continue
			}
			weightStr, _, found := strings.Cut(member, ":")
			if !found {
				continue
			}
			weight, err := strconv.ParseFloat(weightStr, 64)
			if err != nil {
				continue
			}
			out = append(out, Violation{At: time.Unix(0, int64(z.Score)), Weight: weight})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RedisStore) Block(ctx context.Context, source string, until time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.guard.Do(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, r.blockKey(source),
			strconv.FormatInt(until.UnixNano(), 10), ttl).Err()
	})
}

func (r *RedisStore) BlockedUntil(ctx context.Context, source string) (time.Time, error) {
	var until time.Time

	err := r.guard.Do(ctx, func(ctx context.Context) error {
		val, err := r.client.Get(ctx, r.blockKey(source)).Result()
		if err != nil {
			if err == redis.Nil {
				return nil
			}
			return err
		}
		nanos, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil
		}
		until = time.Unix(0, nanos)
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return until, nil
}
