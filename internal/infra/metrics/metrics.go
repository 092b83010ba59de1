package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	FeedBuildSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_build_seconds",
		Help:    "Time spent assembling a feed page",
		Buckets: prometheus.DefBuckets,
	}, []string{"feed_type"})

	FeedItemsReturned = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_items_returned",
		Help:    "Items returned per feed page",
		Buckets: []float64{0, 1, 5, 10, 20, 50},
	}, []string{"feed_type"})

	SuggestionBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "suggestion_build_seconds",
		Help:    "Time spent ranking friend suggestions",
		Buckets: prometheus.DefBuckets,
	})

	SuggestionCandidates = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "suggestion_candidates",
		Help:    "Candidates per suggestion pool",
		Buckets: []float64{0, 5, 10, 25, 50, 100, 200},
	}, []string{"pool"})

	InteractionsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "interactions_recorded_total",
		Help: "Interaction events applied to the interaction store",
	}, []string{"kind"})

	InteractionWriteErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "interaction_write_errors_total",
		Help: "Interaction events that could not be stored or enqueued",
	}, []string{"stage"})

	RankingUnavailable = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ranking_unavailable_total",
		Help: "Feed and suggestion requests failed by an unavailable collaborator",
	}, []string{"operation"})

	ViewedStoriesCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "viewed_stories_cache_total",
		Help: "Viewed-stories cache lookups by result",
	}, []string{"result"})

	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})

	CircuitBreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_transitions_total",
		Help: "Circuit breaker state transitions",
	}, []string{"name", "from", "to"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Duration of outgoing network requests",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Number of outgoing network requests",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister registers every collector.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		FeedBuildSeconds,
		FeedItemsReturned,
		SuggestionBuildSeconds,
		SuggestionCandidates,
		InteractionsRecorded,
		InteractionWriteErrors,
		RankingUnavailable,
		ViewedStoriesCache,
		CircuitBreakerState,
		CircuitBreakerTransitions,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer serves /metrics on addr in the background.
//
// The server is shut down gracefully when ctx is done or when ListenAndServe
// returns on its own, e.g. because the port is taken. Shutdown waits at most
// five seconds for in-flight scrapes. Errors are only logged: a broken metrics
// endpoint must not stop the API process.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest records duration and status of a network call.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveFeed records the build time and size of a feed page.
func ObserveFeed(feedType string, start time.Time, items int) {
	FeedBuildSeconds.WithLabelValues(feedType).Observe(time.Since(start).Seconds())
	FeedItemsReturned.WithLabelValues(feedType).Observe(float64(items))
}

// ObserveSuggestionPools records pool sizes of one suggestion request.
func ObserveSuggestionPools(mutual, popular int) {
	SuggestionCandidates.WithLabelValues("mutual").Observe(float64(mutual))
	SuggestionCandidates.WithLabelValues("popular").Observe(float64(popular))
}

// IncInteraction counts an applied interaction.
func IncInteraction(kind string) {
	InteractionsRecorded.WithLabelValues(kind).Inc()
}

// IncInteractionError counts a failed interaction write at stage (enqueue, store).
func IncInteractionError(stage string) {
	InteractionWriteErrors.WithLabelValues(stage).Inc()
}

// IncRankingUnavailable counts a failed feed or suggestion request.
func IncRankingUnavailable(operation string) {
	RankingUnavailable.WithLabelValues(operation).Inc()
}

// IncViewedStoriesCache counts a cache hit or miss.
func IncViewedStoriesCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ViewedStoriesCache.WithLabelValues(result).Inc()
}
