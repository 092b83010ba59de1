package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jinesh-basnet/Naaya-sub000/internal/adapters/guard"
	"github.com/jinesh-basnet/Naaya-sub000/internal/adapters/httpapi"
	"github.com/jinesh-basnet/Naaya-sub000/internal/adapters/ranker"
	"github.com/jinesh-basnet/Naaya-sub000/internal/adapters/repo"
	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/breaker"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/cache"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/config"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/db"
	httpinfra "github.com/jinesh-basnet/Naaya-sub000/internal/infra/http"
	applog "github.com/jinesh-basnet/Naaya-sub000/internal/infra/log"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/queue"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/feed"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/graph"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/interactions"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/stories"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/suggestions"
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
		logger.Fatal().Err(err).Msg("api: database unavailable")
	}
	defer pool.Close()

	store := repo.NewPostgres(pool)
	if cfg.PGMigrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("api: schema migration failed")
		}
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = db.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: redis unavailable")
		}
		defer redisClient.Close()
	}

	newBreaker := func(name string, expected ...error) *breaker.Breaker {
		return breaker.New(breaker.Settings{
			Name:         name,
			Timeout:      cfg.Breaker.Timeout,
			MinRequests:  cfg.Breaker.MinRequests,
			FailureRatio: cfg.Breaker.FailureRatio,
			Expected:     expected,
		}, logger.With().Str("component", "breaker").Logger())
	}
	content := guard.NewContent(store, newBreaker("content"))
	follows := guard.NewFollows(store, newBreaker("follows"))
	profiles := guard.NewProfiles(store, newBreaker("profiles", domain.ErrProfileNotFound))
	storyRepo := guard.NewStories(store, newBreaker("stories"))

	relationships := graph.New(follows, 8)

	interactionService := interactions.NewService(store, interactions.Config{
		HalfLifeDays: cfg.Interactions.HalfLifeDays,
	}, component(logger, "interactions"))

	feedService := feed.NewService(content, profiles, relationships, ranker.NewContentScorer(), feed.Config{
		WindowDays:    cfg.Feed.WindowDays,
		TrendingDays:  cfg.Feed.TrendingDays,
		OverFetch:     cfg.Feed.OverFetch,
		MaxCandidates: cfg.Feed.MaxCandidates,
		MaxPageSize:   cfg.Feed.MaxPageSize,
	}, component(logger, "feed"), feed.WithComments(store), feed.WithScoreWriter(store))

	suggestionService := suggestions.NewService(relationships, profiles, interactionService, suggestions.Config{
		MutualCap:  cfg.Suggestions.MutualCap,
		PopularCap: cfg.Suggestions.PopularCap,
		ActiveDays: cfg.Suggestions.ActiveDays,
		MaxLimit:   cfg.Suggestions.MaxLimit,
	}, component(logger, "suggestions"))

	viewed, releaseViewed, err := cache.Open(cfg.ViewedStories.Driver, redisClient, cfg.ViewedStories.TTL, cfg.ViewedStories.MaxEntries)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: viewed stories cache unavailable")
	}
	defer releaseViewed()
	storyService := stories.NewService(storyRepo, relationships, viewed, component(logger, "stories"))

	interactionQueue, closeQueue, err := queue.Open(queue.Options{
		Driver:    cfg.Queues.Driver,
		Name:      cfg.Queues.Interaction,
		Redis:     redisClient,
		RabbitURL: cfg.RabbitURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: interaction queue unavailable")
	}
	defer func() { _ = closeQueue() }()
	publisher := interactions.NewPublisher(interactionQueue, interactionService, component(logger, "publisher"))

	server := httpinfra.NewServer(component(logger, "http"))
	handler := &httpapi.Handler{
		Feeds:        feedService,
		Suggestions:  suggestionService,
		Interactions: publisher,
		Preferences:  interactionService,
		Stories:      storyService,
		Log:          component(logger, "api"),
	}
	handler.Mount(server.Router)

	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("api: server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown failed")
	}
}

func component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
