package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/handover/internal/server/kvstore"
	"github.com/dmitrijs2005/handover/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// delIfOwner deletes KEYS[1] only when it holds ARGV[1].
var delIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisRepository struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisRepository(rdb redis.UniversalClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisRepository) Create(ctx context.Context, patient *models.Patient) (*models.Patient, error) {
	score := kvstore.Score(patient.CreatedAt)
	sessionPatients := kvstore.SessionPatientsKey(patient.SessionID)

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := kvstore.Set(ctx, pipe, kvstore.PatientKey(patient.ID), patient, r.ttl); err != nil {
			return err
		}
		pipe.Set(ctx, kvstore.PatientTCKey(patient.TCNo), patient.ID, r.ttl)
		pipe.ZAdd(ctx, kvstore.PatientsAllKey, redis.Z{Score: score, Member: patient.ID})
		pipe.Expire(ctx, kvstore.PatientsAllKey, r.ttl)
		pipe.ZAdd(ctx, sessionPatients, redis.Z{Score: score, Member: patient.ID})
		pipe.Expire(ctx, sessionPatients, r.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return patient, nil
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*models.Patient, error) {
	p, err := kvstore.Get[models.Patient](ctx, r.rdb, kvstore.PatientKey(id))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *RedisRepository) GetByTC(ctx context.Context, tcNo string) (*models.Patient, error) {
	id, err := r.rdb.Get(ctx, kvstore.PatientTCKey(tcNo)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *RedisRepository) GetMany(ctx context.Context, ids []string) ([]*models.Patient, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = kvstore.PatientKey(id)
	}

	list, err := kvstore.GetMany[models.Patient](ctx, r.rdb, keys)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *RedisRepository) List(ctx context.Context) ([]*models.Patient, error) {
	ids, err := r.rdb.ZRevRange(ctx, kvstore.PatientsAllKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return r.GetMany(ctx, ids)
}

func (r *RedisRepository) ListIDsBySession(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := r.rdb.ZRevRange(ctx, kvstore.SessionPatientsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *RedisRepository) Update(ctx context.Context, id string, mutate func(*models.Patient) error) (*models.Patient, error) {
	var taskKeys []string

	return kvstore.UpdateTx(ctx, r.rdb, kvstore.PatientKey(id), r.ttl,
		func(tx *redis.Tx, p *models.Patient) error {
			if err := mutate(p); err != nil {
				return err
			}
			ids, err := tx.LRange(ctx, kvstore.PatientTasksKey(p.ID), 0, -1).Result()
			if err != nil {
				return fmt.Errorf("read task list: %w", err)
			}
			taskKeys = taskKeys[:0]
			for _, tid := range ids {
				taskKeys = append(taskKeys, kvstore.TaskKey(tid))
			}
			return nil
		},
		func(p *models.Patient) []string {
			return append(indexKeys(p), taskKeys...)
		})
}

// indexKeys lists the indices that lead to the patient.
func indexKeys(p *models.Patient) []string {
	return []string{
		kvstore.PatientTCKey(p.TCNo),
		kvstore.PatientsAllKey,
		kvstore.SessionPatientsKey(p.SessionID),
		kvstore.PatientTasksKey(p.ID),
	}
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, kvstore.PatientKey(id))
		pipe.ZRem(ctx, kvstore.PatientsAllKey, id)
		if p != nil {
			pipe.ZRem(ctx, kvstore.SessionPatientsKey(p.SessionID), id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if p == nil {
		return nil
	}
	if err := delIfOwner.Run(ctx, r.rdb, []string{kvstore.PatientTCKey(p.TCNo)}, id).Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
