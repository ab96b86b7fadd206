package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wy-vetapp/clinic-booking/internal/booking"
	"github.com/wy-vetapp/clinic-booking/internal/cache"
	"github.com/wy-vetapp/clinic-booking/internal/config"
	"github.com/wy-vetapp/clinic-booking/internal/db"
	redisclient "github.com/wy-vetapp/clinic-booking/internal/redis"
)

// Slot times sort lexicographically, so the cutoff is rendered in the same
// shape the clients use.
const slotTimeLayout = "2006-01-02T15:04"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	logger.Info("retention-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
		zap.Duration("retention_period", cfg.RetentionPeriod),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.CacheTimeout)
	if err != nil {
		logger.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", zap.Error(err))
		}
	}()
	logger.Info("connected to Redis")

	store := cache.NewStore(cache.NewRedisBackend(rdb), cfg.CacheTTL, cfg.CacheTimeout, logger)
	invalidator := booking.NewInvalidator(store, logger)
	svc := booking.NewService(booking.NewPgRepository(pgPool), store, invalidator, logger)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.RetentionPeriod, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping retention worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.RetentionPeriod, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, retention time.Duration, logger *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-retention).Format(slotTimeLayout)

	start := time.Now()
	slots, reservations, err := svc.PruneBefore(runCtx, cutoff)
	if err != nil {
		logger.Error("retention run error", zap.Error(err))
		return
	}

	logger.Info("retention run complete",
		zap.String("cutoff", cutoff),
		zap.Int64("slots_deleted", slots),
		zap.Int64("reservations_deleted", reservations),
		zap.Duration("took", time.Since(start)),
	)
}
