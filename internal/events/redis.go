package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goShield/internal/store"
)

const (
	redisEventsKey = "shield:events"
	redisScanPage  = 256
)

// RedisLog keeps events in a capped list, newest at index zero.
type RedisLog struct {
	client   redis.UniversalClient
	guard    *store.Guard
	capacity int64
}

// NewRedisLog builds the Redis-backed log. The client is owned by the caller.
func NewRedisLog(client redis.UniversalClient, guard *store.Guard, capacity int) *RedisLog {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &RedisLog{client: client, guard: guard, capacity: int64(capacity)}
}

func (r *RedisLog) Append(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return r.guard.Do(ctx, func(ctx context.Context) error {
		pipe := r.client.Pipeline()
		pipe.LPush(ctx, redisEventsKey, data)
		pipe.LTrim(ctx, redisEventsKey, 0, r.capacity-1)

		_, err := pipe.Exec(ctx)
		return err
	})
}

func (r *RedisLog) List(ctx context.Context, f Filter) (*Page, error) {
	limit := f.Limit
	if limit <= 0 || limit > int(r.capacity) {
		limit = int(r.capacity)
	}

	page := &Page{}
	skipping := f.Cursor != ""

	err := r.guard.Do(ctx, func(ctx context.Context) error {
		page.Events = page.Events[:0]
		page.NextCursor = ""
		skipping = f.Cursor != ""

		for offset := int64(0); ; offset += redisScanPage {
			raw, err := r.client.LRange(ctx, redisEventsKey, offset, offset+redisScanPage-1).Result()
			if err != nil {
				return err
			}
			if len(raw) == 0 {
				return nil
			}

			for i, item := range raw {
				var e Event
				if err := json.Unmarshal([]byte(item), &e); err != nil {
					continue
				}

				if skipping {
					if e.ID == f.Cursor {
						skipping = false
					}
					continue
				}
				if !f.matches(e) {
					continue
				}

				page.Events = append(page.Events, e)
				if len(page.Events) == limit {
					if offset+int64(i)+1 < r.capacity {
						page.NextCursor = e.ID
					}
					return nil
				}
			}

			if int64(len(raw)) < redisScanPage {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *RedisLog) Close() error { return nil }
