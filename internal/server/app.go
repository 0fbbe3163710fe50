// Package server wires the handover store, services and gRPC endpoint
// together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/handover/internal/logging"
	"github.com/dmitrijs2005/handover/internal/server/config"
	"github.com/dmitrijs2005/handover/internal/server/kvstore"
	"github.com/dmitrijs2005/handover/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/handover/internal/server/services"
	"github.com/dmitrijs2005/handover/internal/server/sweeper"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/handover/internal/server/grpc"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	rdb            *redis.Client
	userService    *services.UserService
	sessionService *services.SessionService
	patientService *services.PatientService
	sweeper        *sweeper.Sweeper
}

func NewApp(c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	ctx := context.Background()

	rdb, err := kvstore.NewClient(ctx, kvstore.Options{URL: c.RedisURL, Addr: c.RedisAddr, DB: c.RedisDB}, logger)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}

	rm, err := repomanager.NewRedisRepositoryManager(rdb, c.RecordTTL)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("repository init error: %w", err)
	}

	if err := rm.Ping(ctx); err != nil {
		logger.Warn(ctx, "redis is not reachable yet", "error", err)
	}

	us := services.NewUserService(rm, c, logger)
	ss := services.NewSessionService(rm, us, logger)
	ps := services.NewPatientService(rm, us, c.DefaultTasks, logger)

	return &App{
		config:         c,
		logger:         logger,
		rdb:            rdb,
		userService:    us,
		sessionService: ss,
		patientService: ps,
		sweeper:        sweeper.New(rdb, c.SweepSchedule, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.sessionService, app.patientService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startSweeper(ctx context.Context) {
	if err := app.sweeper.Run(ctx); err != nil {
		app.logger.Error(ctx, "sweeper stopped", "error", err)
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startSweeper(ctx)
	}()

	wg.Wait()

	if err := app.rdb.Close(); err != nil {
		app.logger.Error(ctx, "closing redis client", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
