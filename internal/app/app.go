package app

import (
	"context"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	"github.com/yared-ayele-debela/tournament-events/internal/config"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/deadletter"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/tournament"
	rediscache "github.com/yared-ayele-debela/tournament-events/internal/infrastructure/cache"
	redisdlq "github.com/yared-ayele-debela/tournament-events/internal/infrastructure/deadletter"
	"github.com/yared-ayele-debela/tournament-events/internal/infrastructure/eventbus"
	redisledger "github.com/yared-ayele-debela/tournament-events/internal/infrastructure/ledger"
	"github.com/yared-ayele-debela/tournament-events/internal/infrastructure/repository/postgres"
	"github.com/yared-ayele-debela/tournament-events/internal/infrastructure/sports"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/resilience"
	"github.com/yared-ayele-debela/tournament-events/internal/usecase"
)

// Pipeline owns every long-lived component of the worker: the consumer
// group pulling from the bus, the producer re-emitting derived events and
// the shared Postgres and Redis connections behind them.
type Pipeline struct {
	consumer  *eventbus.KafkaConsumer
	publisher *eventbus.KafkaPublisher
	db        *sqlx.DB
	redis     *redis.Client
	logger    *logging.Logger
}

func NewPipeline(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		_ = db.Close()
		_ = redisClient.Close()
		return nil, crerr.Wrap(err, "ping redis")
	}

	matchRepo := postgres.NewMatchResultRepository(db)
	standingRepo := postgres.NewStandingRepository(db)

	var tournaments tournament.Reader
	if cfg.SportsAPIEnabled {
		var breaker *resilience.CircuitBreaker
		if cfg.SportsCircuitEnabled {
			breaker = resilience.NewCircuitBreaker(
				cfg.SportsCircuitFailureCount,
				cfg.SportsCircuitOpenTimeout,
				cfg.SportsCircuitHalfOpenMaxReq,
			)
		}
		tournaments = sports.NewClient(
			&http.Client{Timeout: cfg.SportsAPITimeout},
			cfg.SportsAPIBaseURL,
			breaker,
			logger,
		)
	}

	sharedCache := rediscache.NewRedisCache(redisClient)
	eventLedger := redisledger.NewRedisLedger(redisClient, redisledger.RedisConfig{
		ProcessingTTL: cfg.LedgerProcessingTTL,
		Retention:     cfg.LedgerRetention,
	})
	deadLetters := redisdlq.NewRedisStore(redisClient, cfg.DeadLetterList)

	publisher, err := eventbus.NewKafkaPublisher(eventbus.PublisherConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaDerivedTopic,
		ClientID: cfg.ServiceName + "-publisher",
	}, logger)
	if err != nil {
		_ = db.Close()
		_ = redisClient.Close()
		return nil, err
	}

	standingsSvc := usecase.NewStandingsService(
		standingRepo,
		matchRepo,
		tournaments,
		sharedCache,
		cfg.CacheTableTTL,
		logger,
	)

	router := usecase.NewCacheRouter()
	recomputePolicy := usecase.RetryPolicy{
		MaxAttempts:    cfg.RecomputeAttempts,
		BaseBackoff:    cfg.RecomputeBackoff,
		MaxBackoff:     cfg.RetryMaxBackoff,
		AttemptTimeout: cfg.AttemptTimeout,
	}

	registry := usecase.NewRegistry(logger)
	handlers := []usecase.Handler{
		usecase.NewMatchCompletedHandler(matchRepo, standingsSvc, publisher, logger),
		usecase.NewTournamentStatusHandler(matchRepo, standingsSvc, publisher, recomputePolicy, logger),
		// The match-facing service and the public results service share the
		// router but watch disjoint slices of the event stream.
		usecase.NewCacheInvalidationHandler(
			"match-cache-invalidation",
			[]string{
				event.TypeMatchCreated,
				event.TypeMatchUpdated,
				event.TypeMatchCompleted,
				event.TypeMatchCancelled,
				event.TypeTeamCreated,
				event.TypeTeamUpdated,
			},
			router,
			sharedCache,
			logger,
		),
		usecase.NewCacheInvalidationHandler(
			"results-cache-invalidation",
			[]string{
				event.TypeTournamentCreated,
				event.TypeTournamentUpdated,
				event.TypeTournamentStatusChanged,
				event.TypeTournamentRecalculated,
				event.TypeStandingsUpdated,
				event.TypeStatisticsUpdated,
			},
			router,
			sharedCache,
			logger,
		),
	}
	for _, h := range handlers {
		if err := registry.Register(h); err != nil {
			_ = publisher.Close()
			_ = db.Close()
			_ = redisClient.Close()
			return nil, err
		}
	}

	orchestrator := usecase.NewOrchestrator(
		usecase.RetryPolicy{
			MaxAttempts:    cfg.RetryMaxAttempts,
			BaseBackoff:    cfg.RetryBaseBackoff,
			MaxBackoff:     cfg.RetryMaxBackoff,
			AttemptTimeout: cfg.AttemptTimeout,
		},
		eventLedger,
		deadLetters,
		deadLetterAlert(logger),
		cfg.ServiceName,
		logger,
	)

	consumer, err := eventbus.NewKafkaConsumer(eventbus.ConsumerConfig{
		Brokers:  cfg.KafkaBrokers,
		Topics:   cfg.KafkaTopics,
		GroupID:  cfg.KafkaConsumerGroup,
		ClientID: cfg.ServiceName + "-consumer",
		PoolSize: cfg.WorkerPoolSize,
	}, registry, orchestrator, logger)
	if err != nil {
		_ = publisher.Close()
		_ = db.Close()
		_ = redisClient.Close()
		return nil, err
	}

	logger.Info("pipeline wired",
		"topics", cfg.KafkaTopics,
		"consumer_group", cfg.KafkaConsumerGroup,
		"handled_types", registry.Types(),
		"worker_pool_size", cfg.WorkerPoolSize,
	)

	return &Pipeline{
		consumer:  consumer,
		publisher: publisher,
		db:        db,
		redis:     redisClient,
		logger:    logger,
	}, nil
}

// deadLetterAlert is the operator hook fired on every dead-lettered event.
// Error-level so log-based alerting picks it up without extra plumbing.
func deadLetterAlert(logger *logging.Logger) usecase.AlertFunc {
	return func(entry deadletter.Entry) {
		logger.Error("event dead-lettered",
			"event_id", entry.Event.ID,
			"event_type", entry.Event.Type,
			"reason", entry.Reason,
			"service", entry.Service,
		)
	}
}

// Run blocks consuming events until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.consumer.Run(ctx)
}

// Close tears components down in dependency order: stop intake first,
// then the producer, then the stores underneath.
func (p *Pipeline) Close() error {
	var firstErr error
	if err := p.consumer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.publisher.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.redis.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
