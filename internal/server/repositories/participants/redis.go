package participants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/handover/internal/common"
	"github.com/dmitrijs2005/handover/internal/server/kvstore"
	"github.com/dmitrijs2005/handover/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const maxAddAttempts = 16

type RedisRepository struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisRepository(rdb redis.UniversalClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

// Add watches the user's slot so two concurrent joins of the same user
// cannot both leave a membership behind.
func (r *RedisRepository) Add(ctx context.Context, p *models.SessionParticipant) ([]string, error) {
	slot := kvstore.UserSessionsKey(p.UserID)

	for attempt := 0; attempt < maxAddAttempts; attempt++ {
		var left []string

		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.SMembers(ctx, slot).Result()
			if err != nil {
				return err
			}

			left = left[:0]
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, sid := range current {
					if sid == p.SessionID {
						continue
					}
					left = append(left, sid)
					r.queueRemove(ctx, pipe, p.UserID, sid)
				}

				key := kvstore.ParticipantKey(p.UserID, p.SessionID)
				if err := kvstore.Set(ctx, pipe, key, p, r.ttl); err != nil {
					return err
				}
				pipe.SAdd(ctx, kvstore.SessionParticipantsKey(p.SessionID), key)
				pipe.Expire(ctx, kvstore.SessionParticipantsKey(p.SessionID), r.ttl)

				pipe.Del(ctx, slot)
				pipe.SAdd(ctx, slot, p.SessionID)
				pipe.Expire(ctx, slot, r.ttl)
				return nil
			})
			return err
		}, slot)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		return left, nil
	}

	return nil, fmt.Errorf("add participant %s: %w", p.UserID, common.ErrVersionConflict)
}

func (r *RedisRepository) Remove(ctx context.Context, userID, sessionID string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		r.queueRemove(ctx, pipe, userID, sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *RedisRepository) queueRemove(ctx context.Context, pipe redis.Pipeliner, userID, sessionID string) {
	key := kvstore.ParticipantKey(userID, sessionID)
	pipe.Del(ctx, key)
	pipe.SRem(ctx, kvstore.SessionParticipantsKey(sessionID), key)
	pipe.SRem(ctx, kvstore.UserSessionsKey(userID), sessionID)
}

func (r *RedisRepository) Exists(ctx context.Context, userID, sessionID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, kvstore.ParticipantKey(userID, sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

// ListBySession resolves the session's participant set. Members whose
// record has expired are skipped.
func (r *RedisRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.SessionParticipant, error) {
	keys, err := r.rdb.SMembers(ctx, kvstore.SessionParticipantsKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	list, err := kvstore.GetMany[models.SessionParticipant](ctx, r.rdb, keys)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *RedisRepository) SessionIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, kvstore.UserSessionsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}
