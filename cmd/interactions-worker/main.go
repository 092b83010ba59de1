package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jinesh-basnet/Naaya-sub000/internal/adapters/repo"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/config"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/db"
	applog "github.com/jinesh-basnet/Naaya-sub000/internal/infra/log"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/queue"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/interactions"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	pool, err := db.Connect(cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: database unavailable")
	}
	defer pool.Close()

	store := repo.NewPostgres(pool)
	if cfg.PGMigrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("worker: schema migration failed")
		}
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = db.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: redis unavailable")
		}
		defer redisClient.Close()
	}

	interactionQueue, closeQueue, err := queue.Open(queue.Options{
		Driver:    cfg.Queues.Driver,
		Name:      cfg.Queues.Interaction,
		Redis:     redisClient,
		RabbitURL: cfg.RabbitURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: interaction queue unavailable")
	}
	if interactionQueue == nil {
		logger.Fatal().Str("driver", cfg.Queues.Driver).Msg("worker: driver records in-process, nothing to consume")
	}
	defer func() { _ = closeQueue() }()

	service := interactions.NewService(store, interactions.Config{
		HalfLifeDays: cfg.Interactions.HalfLifeDays,
	}, logger.With().Str("component", "interactions").Logger())
	worker := interactions.NewWorker(interactionQueue, service, cfg.Interactions.MaxAttempts, logger.With().Str("component", "worker").Logger())

	logger.Info().Str("queue", cfg.Queues.Interaction).Msg("worker: consuming interaction events")
	worker.Run(ctx)
	logger.Info().Msg("worker: stopped")
}
