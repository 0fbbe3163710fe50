package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/handover/internal/common"
	"github.com/redis/go-redis/v9"
)

// ErrUnchanged is returned by an Update mutator to skip the write.
var ErrUnchanged = errors.New("unchanged")

// Getter is satisfied by *redis.Client, *redis.Tx and pipelines.
type Getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// MultiGetter is satisfied by *redis.Client and *redis.Tx.
type MultiGetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// maxUpdateAttempts bounds the optimistic retry loop of Update.
const maxUpdateAttempts = 16

// Get loads and decodes the record at key. It returns (nil, nil) when the key
// does not exist.
func Get[T any](ctx context.Context, rdb Getter, key string) (*T, error) {
	data, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return decode[T](key, data)
}

// GetMany loads the records at keys with a single MGET. Missing keys are
// skipped; the order of the remaining records follows keys.
func GetMany[T any](ctx context.Context, rdb MultiGetter, keys []string) ([]*T, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}

	out := make([]*T, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decode[T](keys[i], []byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Set queues the encoded record on pipe with the given expiry.
func Set(ctx context.Context, pipe redis.Pipeliner, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	pipe.Set(ctx, key, data, ttl)
	return nil
}

// Update performs a read-modify-write of the record at key under WATCH, so a
// concurrent writer makes the transaction fail and the whole cycle is retried
// with fresh data. mutate may return ErrUnchanged to leave the record as is.
// A missing key yields (nil, nil) without calling mutate.
func Update[T any](ctx context.Context, rdb redis.UniversalClient, key string, ttl time.Duration, mutate func(*T) error) (*T, error) {
	return UpdateTx(ctx, rdb, key, ttl, func(_ *redis.Tx, rec *T) error {
		return mutate(rec)
	}, nil)
}

// UpdateTx is Update with the watching transaction exposed to mutate. Records
// that decide the outcome are read through WatchGet so that a concurrent write
// to them also retries the cycle. renew, when set, names keys whose expiry is
// reset to ttl in the same MULTI as the record write.
func UpdateTx[T any](ctx context.Context, rdb redis.UniversalClient, key string, ttl time.Duration,
	mutate func(tx *redis.Tx, rec *T) error, renew func(rec *T) []string) (*T, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var result *T

		err := rdb.Watch(ctx, func(tx *redis.Tx) error {
			rec, err := Get[T](ctx, tx, key)
			if err != nil || rec == nil {
				return err
			}

			if err := mutate(tx, rec); err != nil {
				if errors.Is(err, ErrUnchanged) {
					result = rec
					return nil
				}
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if err := Set(ctx, pipe, key, rec, ttl); err != nil {
					return err
				}
				if renew != nil {
					for _, k := range renew(rec) {
						pipe.Expire(ctx, k, ttl)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			result = rec
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	return nil, fmt.Errorf("update %s: %w", key, common.ErrVersionConflict)
}

// WatchGet adds key to the transaction's watch set and then reads it, so the
// value seen stays current until EXEC or the transaction fails.
func WatchGet[T any](ctx context.Context, tx *redis.Tx, key string) (*T, error) {
	if err := tx.Watch(ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("watch %s: %w", key, err)
	}
	return Get[T](ctx, tx, key)
}

// Score is the sorted-set score used for creation ordering.
func Score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func decode[T any](key string, data []byte) (*T, error) {
	rec := new(T)
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return rec, nil
}
