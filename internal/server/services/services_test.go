package services

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/dmitrijs2005/handover/internal/server/config"
	"github.com/dmitrijs2005/handover/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/handover/internal/testutil"
	"github.com/stretchr/testify/require"
)

// stepClock advances one millisecond per reading so creation order is
// deterministic in listings scored by unix milliseconds.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

type testEnv struct {
	mr       *miniredis.Miniredis
	rm       repomanager.RepositoryManager
	users    *UserService
	sessions *SessionService
	patients *PatientService
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, rdb := testutil.SetupRedis(t)
	cfg := newTestConfig()

	rm, err := repomanager.NewRedisRepositoryManager(rdb, cfg.RecordTTL)
	require.NoError(t, err)

	return newTestEnvWith(t, mr, rm)
}

func newTestEnvWith(t *testing.T, mr *miniredis.Miniredis, rm repomanager.RepositoryManager) *testEnv {
	t.Helper()

	cfg := newTestConfig()
	clock := &stepClock{t: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}

	us := NewUserService(rm, cfg, logging.Nop{})
	ss := NewSessionService(rm, us, logging.Nop{})
	ps := NewPatientService(rm, us, cfg.DefaultTasks, logging.Nop{})
	us.now, ss.now, ps.now = clock.Now, clock.Now, clock.Now

	return &testEnv{mr: mr, rm: rm, users: us, sessions: ss, patients: ps}
}
