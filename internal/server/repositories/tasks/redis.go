package tasks

import (
	"context"
	"fmt"
	"sort"
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

func (r *RedisRepository) Create(ctx context.Context, tasks ...*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	list := kvstore.PatientTasksKey(tasks[0].PatientID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range tasks {
			if t.PatientID != tasks[0].PatientID {
				return fmt.Errorf("task %s belongs to patient %s, batch is for %s", t.ID, t.PatientID, tasks[0].PatientID)
			}
			if err := kvstore.Set(ctx, pipe, kvstore.TaskKey(t.ID), t, r.ttl); err != nil {
				return err
			}
			pipe.RPush(ctx, list, t.ID)
		}
		pipe.Expire(ctx, list, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	t, err := kvstore.Get[models.Task](ctx, r.rdb, kvstore.TaskKey(id))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// ListByPatient reads the list in insertion order and then sorts by
// creation time; tasks created in the same instant keep list order.
func (r *RedisRepository) ListByPatient(ctx context.Context, patientID string) ([]*models.Task, error) {
	ids, err := r.rdb.LRange(ctx, kvstore.PatientTasksKey(patientID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = kvstore.TaskKey(id)
	}

	list, err := kvstore.GetMany[models.Task](ctx, r.rdb, keys)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (r *RedisRepository) Update(ctx context.Context, id string, mutate func(t *models.Task, patient *models.Patient) error) (*models.Task, error) {
	return kvstore.UpdateTx(ctx, r.rdb, kvstore.TaskKey(id), r.ttl,
		func(tx *redis.Tx, t *models.Task) error {
			patient, err := kvstore.WatchGet[models.Patient](ctx, tx, kvstore.PatientKey(t.PatientID))
			if err != nil {
				return err
			}
			return mutate(t, patient)
		},
		func(t *models.Task) []string {
			return []string{kvstore.PatientTasksKey(t.PatientID)}
		})
}

func (r *RedisRepository) DeleteByPatient(ctx context.Context, patientID string) error {
	list := kvstore.PatientTasksKey(patientID)

	ids, err := r.rdb.LRange(ctx, list, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, kvstore.TaskKey(id))
	}
	keys = append(keys, list)

	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
