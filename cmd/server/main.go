package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taquilla/internal/cache"
	"taquilla/internal/config"
	"taquilla/internal/infra"
	"taquilla/internal/repository"
	"taquilla/internal/router"
	"taquilla/internal/service"
	"taquilla/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.MigrateOnStart {
		if err := infra.RunMigrations(ctx, db, false); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
	}

	pools, breaker := newCache(cfg, rdb)

	// Audit writes leave the request path through the worker pool; jobs that
	// exhaust their retries go to Redis when available, else to the log.
	var dlq worker.DeadLetter = worker.LogDeadLetter{}
	if rdb != nil {
		dlq = worker.NewRedisDeadLetter(rdb)
	}
	auditPool := worker.NewPool(worker.PoolConfig{
		Queue:     "audit",
		Workers:   cfg.AuditWorkers,
		QueueSize: cfg.AuditQueueSize,
	}, service.AuditHandler(repository.NewAuditRepository(db)), dlq)
	auditPool.Start(ctx)

	r := router.New(cfg, router.Deps{
		DB:      db,
		Redis:   rdb,
		Breaker: breaker,
		Cache:   pools,
		Audit:   auditPool,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("cache", cfg.CacheBackend).Msgf("taquilla backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	// Requests are done; drain the audit entries they queued.
	if err := auditPool.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("audit pool did not drain")
	}
	log.Info().Msg("server exited")
}

// newCache builds both response-cache pools. The breaker is nil for the
// in-memory backend.
func newCache(cfg *config.Config, rdb *redis.Client) (*cache.Pools, *infra.CircuitBreaker) {
	quickTTL := time.Duration(cfg.CacheQuickTTLSeconds) * time.Second
	generalTTL := time.Duration(cfg.CacheGeneralTTLSeconds) * time.Second

	if cfg.CacheBackend == "redis" {
		if rdb == nil {
			log.Fatal().Msg("CACHE_BACKEND=redis requires REDIS_URL")
		}
		cb := infra.NewCircuitBreaker(infra.DefaultCBConfig("cache-redis"))
		return cache.NewPools(
			cache.NewRedisStore(rdb, "cache:quick:", quickTTL, cb),
			cache.NewRedisStore(rdb, "cache:general:", generalTTL, cb),
		), cb
	}
	return cache.NewPools(
		cache.NewMemoryStore(quickTTL, quickTTL/6),
		cache.NewMemoryStore(generalTTL, generalTTL/5),
	), nil
}
