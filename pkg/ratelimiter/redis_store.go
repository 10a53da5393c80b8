package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	loginKeyPrefix = "rate_limit:login:"
	maxTxRetries   = 5
)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore keeps each identity in a hash so every instance of the
// service sees the same counters.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Update(ctx context.Context, key string, ttl time.Duration, fn func(rec *Record)) (Record, error) {
	fullKey := loginKeyPrefix + key
	var out Record

	txf := func(tx *redis.Tx) error {
		values, err := tx.HGetAll(ctx, fullKey).Result()
		if err != nil {
			return err
		}

		rec, err := decodeRecord(values)
		if err != nil {
			return err
		}

		fn(&rec)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if rec.isZero() {
				pipe.Del(ctx, fullKey)
				return nil
			}
			pipe.HSet(ctx, fullKey,
				"count", rec.Count,
				"last", rec.LastAttempt.UnixNano(),
				"blocked", boolToInt(rec.Blocked),
			)
			pipe.Expire(ctx, fullKey, ttl)
			return nil
		})
		if err != nil {
			return err
		}

		out = rec
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, fullKey)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Record{}, fmt.Errorf("failed to update login attempts in redis: %w", err)
	}

	return Record{}, ErrStoreContention
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, loginKeyPrefix+key).Err()
}

func decodeRecord(values map[string]string) (Record, error) {
	var rec Record
	if len(values) == 0 {
		return rec, nil
	}

	count, err := strconv.Atoi(values["count"])
	if err != nil {
		return rec, fmt.Errorf("corrupt login attempt count: %w", err)
	}
	last, err := strconv.ParseInt(values["last"], 10, 64)
	if err != nil {
		return rec, fmt.Errorf("corrupt login attempt timestamp: %w", err)
	}

	rec.Count = count
	rec.LastAttempt = time.Unix(0, last)
	rec.Blocked = values["blocked"] == "1"
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
