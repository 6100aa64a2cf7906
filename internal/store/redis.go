package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// redisEnvelope wraps the blob payload with its revision so the pair is
// updated atomically in a single key.
type redisEnvelope struct {
	Rev  int64           `json:"rev"`
	Data json.RawMessage `json:"data"`
}

// RedisKV stores each blob as a JSON envelope under its key. The
// revision check runs inside WATCH/MULTI so a concurrent writer fails
// the transaction instead of being overwritten.
type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) Get(ctx context.Context, key string) (Blob, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return Blob{}, ErrMiss
		}
		return Blob{}, err
	}
	var env redisEnvelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		return Blob{}, fmt.Errorf("decode blob %s: %w", key, err)
	}
	return Blob{Rev: env.Rev, Data: env.Data}, nil
}

func (r *RedisKV) Put(ctx context.Context, key string, data []byte, expectRev int64) (int64, error) {
	var newRev int64
	err := r.c.Watch(ctx, func(tx *redis.Tx) error {
		var cur int64
		val, err := tx.Get(ctx, key).Result()
		switch {
		case err == redis.Nil:
			cur = 0
		case err != nil:
			return err
		default:
			var env redisEnvelope
			if err := json.Unmarshal([]byte(val), &env); err != nil {
				return fmt.Errorf("decode blob %s: %w", key, err)
			}
			cur = env.Rev
		}

		if expectRev != RevAny && expectRev != cur {
			return ErrRevisionConflict
		}

		newRev = cur + 1
		payload, err := json.Marshal(redisEnvelope{Rev: newRev, Data: data})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(payload), 0)
			return nil
		})
		return err
	}, key)
	if err == redis.TxFailedErr {
		// Key changed between WATCH and EXEC.
		return 0, ErrRevisionConflict
	}
	if err != nil {
		return 0, err
	}
	return newRev, nil
}
