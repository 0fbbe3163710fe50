// Package sweeper periodically prunes members of the global listings whose
// primary record has already expired.
package sweeper

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/dmitrijs2005/handover/internal/server/kvstore"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// index is a sorted set of ids and the primary key of each member.
type index struct {
	key    string
	record func(id string) string
}

var indices = []index{
	{key: kvstore.UsersAllKey, record: kvstore.UserKey},
	{key: kvstore.SessionsAllKey, record: kvstore.SessionKey},
	{key: kvstore.PatientsAllKey, record: kvstore.PatientKey},
}

type Sweeper struct {
	rdb      redis.UniversalClient
	schedule string
	logger   logging.Logger
}

func New(rdb redis.UniversalClient, schedule string, l logging.Logger) *Sweeper {
	return &Sweeper{rdb: rdb, schedule: schedule, logger: l.With("module", "sweeper")}
}

// Run sweeps on the configured cron schedule until ctx is done. An empty
// schedule disables the sweeper.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.schedule == "" {
		s.logger.Info(ctx, "sweeper disabled")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error(ctx, "sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.logger.Info(ctx, "Starting sweeper", "schedule", s.schedule)
	c.Start()

	<-ctx.Done()
	s.logger.Info(ctx, "Stopping sweeper...")
	<-c.Stop().Done()
	return nil
}

// Sweep removes dangling members from every global listing and returns how
// many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	total := 0
	for _, idx := range indices {
		n, err := s.prune(ctx, idx)
		if err != nil {
			return total, err
		}
		total += n
	}

	if total > 0 {
		s.logger.Info(ctx, "dangling index members pruned", "count", total)
	}
	return total, nil
}

func (s *Sweeper) prune(ctx context.Context, idx index) (int, error) {
	ids, err := s.rdb.ZRange(ctx, idx.key, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", idx.key, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	cmds := make([]*redis.IntCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.Exists(ctx, idx.record(id))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("check %s members: %w", idx.key, err)
	}

	var dangling []any
	for i, cmd := range cmds {
		if cmd.Val() == 0 {
			dangling = append(dangling, ids[i])
		}
	}
	if len(dangling) == 0 {
		return 0, nil
	}

	if err := s.rdb.ZRem(ctx, idx.key, dangling...).Err(); err != nil {
		return 0, fmt.Errorf("prune %s: %w", idx.key, err)
	}
	return len(dangling), nil
}
