package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wy-vetapp/clinic-booking/internal/api"
	"github.com/wy-vetapp/clinic-booking/internal/booking"
	"github.com/wy-vetapp/clinic-booking/internal/cache"
	"github.com/wy-vetapp/clinic-booking/internal/clinic"
	"github.com/wy-vetapp/clinic-booking/internal/config"
	"github.com/wy-vetapp/clinic-booking/internal/db"
	"github.com/wy-vetapp/clinic-booking/internal/favorite"
	redisclient "github.com/wy-vetapp/clinic-booking/internal/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("cache_timeout", cfg.CacheTimeout),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Connect Redis
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

	bookingSvc := booking.NewService(booking.NewPgRepository(pgPool), store, invalidator, logger)
	clinicSvc := clinic.NewService(clinic.NewPgRepository(pgPool), store, logger)
	favoriteSvc := favorite.NewService(favorite.NewPgRepository(pgPool), store, logger)

	router := api.NewRouter(api.RouterConfig{
		Booking:   bookingSvc,
		Clinics:   clinicSvc,
		Favorites: favoriteSvc,
		PgPool:    pgPool,
		Redis:     rdb,
		Env:       cfg.Env,
		Version:   version,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("api-server stopped")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
