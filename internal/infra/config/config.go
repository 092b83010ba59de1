package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig describes the configuration of both binaries.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN      string `envconfig:"PG_DSN"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"5"`

	// PGMigrate applies the embedded schema on startup.
	PGMigrate bool `envconfig:"PG_MIGRATE" default:"false"`

	RedisAddr string `envconfig:"REDIS_ADDR"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Queues struct {
		Driver      string `envconfig:"QUEUE_DRIVER" default:"redis"`
		Interaction string `envconfig:"INTERACTION_QUEUE" default:"interaction_events"`
	} `envconfig:""`

	Feed struct {
		WindowDays    int `envconfig:"FEED_WINDOW_DAYS" default:"30"`
		TrendingDays  int `envconfig:"FEED_TRENDING_DAYS" default:"7"`
		OverFetch     int `envconfig:"FEED_OVERFETCH" default:"3"`
		MaxCandidates int `envconfig:"FEED_MAX_CANDIDATES" default:"1000"`
		MaxPageSize   int `envconfig:"FEED_MAX_PAGE_SIZE" default:"50"`
	} `envconfig:""`

	Suggestions struct {
		MutualCap  int `envconfig:"SUGGEST_MUTUAL_CAP" default:"100"`
		PopularCap int `envconfig:"SUGGEST_POPULAR_CAP" default:"200"`
		ActiveDays int `envconfig:"SUGGEST_ACTIVE_DAYS" default:"30"`
		MaxLimit   int `envconfig:"SUGGEST_MAX_LIMIT" default:"50"`
	} `envconfig:""`

	Interactions struct {
		HalfLifeDays float64 `envconfig:"INTERACTION_HALF_LIFE_DAYS" default:"7"`
		MaxAttempts  int     `envconfig:"INTERACTION_MAX_ATTEMPTS" default:"3"`
	} `envconfig:""`

	ViewedStories struct {
		Driver     string        `envconfig:"VIEWED_STORIES_DRIVER" default:"memory"`
		TTL        time.Duration `envconfig:"VIEWED_STORIES_TTL" default:"10m"`
		MaxEntries int64         `envconfig:"VIEWED_STORIES_MAX_ENTRIES" default:"1048576"`
	} `envconfig:""`

	Breaker struct {
		Timeout      time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`
		MinRequests  uint32        `envconfig:"BREAKER_MIN_REQUESTS" default:"10"`
		FailureRatio float64       `envconfig:"BREAKER_FAILURE_RATIO" default:"0.6"`
	} `envconfig:""`
}

// Load reads the configuration from the environment.
func Load() AppConfig {
	cfg, err := load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func load() (AppConfig, error) {
	var cfg AppConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}
