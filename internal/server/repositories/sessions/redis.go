package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/handover/internal/server/kvstore"
	"github.com/dmitrijs2005/handover/internal/server/models"
	"github.com/redis/go-redis/v9"
)

type RedisRepository struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisRepository(rdb redis.UniversalClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := kvstore.Set(ctx, pipe, kvstore.SessionKey(session.ID), session, r.ttl); err != nil {
			return err
		}
		pipe.ZAdd(ctx, kvstore.SessionsAllKey, redis.Z{Score: kvstore.Score(session.CreatedAt), Member: session.ID})
		pipe.Expire(ctx, kvstore.SessionsAllKey, r.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	s, err := kvstore.Get[models.Session](ctx, r.rdb, kvstore.SessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *RedisRepository) GetMany(ctx context.Context, ids []string) ([]*models.Session, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = kvstore.SessionKey(id)
	}

	list, err := kvstore.GetMany[models.Session](ctx, r.rdb, keys)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

// List returns all live sessions, most recently created first.
func (r *RedisRepository) List(ctx context.Context) ([]*models.Session, error) {
	ids, err := r.rdb.ZRevRange(ctx, kvstore.SessionsAllKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.GetMany(ctx, ids)
}

func (r *RedisRepository) Update(ctx context.Context, id string, mutate func(*models.Session) error) (*models.Session, error) {
	return kvstore.UpdateTx(ctx, r.rdb, kvstore.SessionKey(id), r.ttl,
		func(_ *redis.Tx, s *models.Session) error { return mutate(s) },
		func(s *models.Session) []string {
			return []string{kvstore.SessionsAllKey, kvstore.SessionParticipantsKey(s.ID), kvstore.SessionPatientsKey(s.ID)}
		})
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, kvstore.SessionsAllKey, id)
		pipe.Del(ctx,
			kvstore.SessionKey(id),
			kvstore.SessionParticipantsKey(id),
			kvstore.SessionPatientsKey(id),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
