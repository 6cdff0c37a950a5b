package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-allocation/internal/config"
	"github.com/iliyamo/event-seat-allocation/internal/database"
	"github.com/iliyamo/event-seat-allocation/internal/handler"
	"github.com/iliyamo/event-seat-allocation/internal/logging"
	"github.com/iliyamo/event-seat-allocation/internal/middleware"
	"github.com/iliyamo/event-seat-allocation/internal/milp"
	"github.com/iliyamo/event-seat-allocation/internal/queue"
	"github.com/iliyamo/event-seat-allocation/internal/repository"
	"github.com/iliyamo/event-seat-allocation/internal/router"
	"github.com/iliyamo/event-seat-allocation/internal/runlock"
	"github.com/iliyamo/event-seat-allocation/internal/seating"
	"github.com/iliyamo/event-seat-allocation/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, "seat-allocation")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(log)
	var locker runlock.Locker = runlock.NewLocalLocker()
	if rdb != nil {
		defer rdb.Close()
		locker = runlock.NewRedisLocker(rdb, cfg.LockTTL)
	}

	loader := &service.SnapshotLoader{
		Events: repository.NewEventRepo(db),
		Zones:  repository.NewZoneRepo(db),
		Seats:  repository.NewSeatRepo(db),
		Demand: repository.NewDemandRepo(db),
	}
	solver := milp.NewBranchAndBound(
		milp.WithNodeLimit(cfg.SolverNodeLimit),
		milp.WithLPRelaxation(cfg.SolverLPMaxVars),
		milp.WithLogger(log.Named("milp")),
	)
	orchestrator := seating.NewOrchestrator(
		seating.NewExactAssigner(solver, cfg.SolverTimeout, log.Named("exact")),
		seating.NewGreedyAssigner(log.Named("greedy")),
		log.Named("orchestrator"),
	)

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	allocations := service.NewAllocationService(loader, orchestrator, repository.NewAllocationRepo(db), locker,
		service.WithPublisher(service.NewAMQPPublisher(cfg.AMQPURL)),
		service.WithInvalidator(cache),
		service.WithLogger(log),
	)
	h := handler.NewAllocationHandler(allocations, service.NewLayoutService(loader), log)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAllocation(e, h,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		cache.Middleware(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.AMQPURL, "logs", log.Named("consumer"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("allocation consumer stopped", zap.Error(err))
			}
		}()
	}

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
