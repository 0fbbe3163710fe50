package users

import (
	"context"
	"errors"
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

// Create writes the user record, the username index and the global user set
// in one MULTI/EXEC. Uniqueness of the username is not checked here.
func (r *RedisRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := kvstore.Set(ctx, pipe, kvstore.UserKey(user.ID), user, r.ttl); err != nil {
			return err
		}
		pipe.Set(ctx, kvstore.UserNameKey(user.UserName), user.ID, r.ttl)
		pipe.ZAdd(ctx, kvstore.UsersAllKey, redis.Z{Score: kvstore.Score(user.CreatedAt), Member: user.ID})
		pipe.Expire(ctx, kvstore.UsersAllKey, r.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *RedisRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := kvstore.Get[models.User](ctx, r.rdb, kvstore.UserKey(id))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// GetByUserName resolves the username index, then the record. A dangling
// index entry reads as not found.
func (r *RedisRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	id, err := r.rdb.Get(ctx, kvstore.UserNameKey(userName)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *RedisRepository) GetMany(ctx context.Context, ids []string) ([]*models.User, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = kvstore.UserKey(id)
	}

	list, err := kvstore.GetMany[models.User](ctx, r.rdb, keys)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

// List returns all users, most recently created first.
func (r *RedisRepository) List(ctx context.Context) ([]*models.User, error) {
	ids, err := r.rdb.ZRevRange(ctx, kvstore.UsersAllKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.GetMany(ctx, ids)
}
