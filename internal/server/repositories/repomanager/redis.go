// Package repomanager provides a RepositoryManager backed by Redis. All
// repositories share one client and one record expiry.
package repomanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/handover/internal/server/repositories/participants"
	"github.com/dmitrijs2005/handover/internal/server/repositories/patients"
	"github.com/dmitrijs2005/handover/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/handover/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/handover/internal/server/repositories/users"
	"github.com/redis/go-redis/v9"
)

type RedisRepositoryManager struct {
	rdb          redis.UniversalClient
	users        *users.RedisRepository
	sessions     *sessions.RedisRepository
	participants *participants.RedisRepository
	patients     *patients.RedisRepository
	tasks        *tasks.RedisRepository
}

// NewRedisRepositoryManager builds the repositories over rdb. ttl is applied
// to every record and index on each write.
func NewRedisRepositoryManager(rdb redis.UniversalClient, ttl time.Duration) (*RedisRepositoryManager, error) {
	if rdb == nil {
		return nil, errors.New("redis client is nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("record ttl must be positive, got %s", ttl)
	}

	return &RedisRepositoryManager{
		rdb:          rdb,
		users:        users.NewRedisRepository(rdb, ttl),
		sessions:     sessions.NewRedisRepository(rdb, ttl),
		participants: participants.NewRedisRepository(rdb, ttl),
		patients:     patients.NewRedisRepository(rdb, ttl),
		tasks:        tasks.NewRedisRepository(rdb, ttl),
	}, nil
}

func (m *RedisRepositoryManager) Ping(ctx context.Context) error {
	return m.rdb.Ping(ctx).Err()
}

func (m *RedisRepositoryManager) Users() users.Repository { return m.users }

func (m *RedisRepositoryManager) Sessions() sessions.Repository { return m.sessions }

func (m *RedisRepositoryManager) Participants() participants.Repository { return m.participants }

func (m *RedisRepositoryManager) Patients() patients.Repository { return m.patients }

func (m *RedisRepositoryManager) Tasks() tasks.Repository { return m.tasks }
