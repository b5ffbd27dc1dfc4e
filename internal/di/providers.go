package di

import (
	"context"
	"fmt"
	"os"
	"time"

	drepo "AltCredit/internal/domain/repository"
	dservice "AltCredit/internal/domain/service"
	"AltCredit/internal/handler/api"
	internalrepo "AltCredit/internal/repository"
	icache "AltCredit/internal/service/cache"
	"AltCredit/internal/service/ratelimit"
	"AltCredit/internal/services/explain"
	"AltCredit/internal/services/fairness"
	"AltCredit/internal/services/scoring"
	"AltCredit/internal/usecase"
	pkgcache "AltCredit/pkg/cache"
	pkgch "AltCredit/pkg/clickhouse"
	"AltCredit/pkg/config"
	xhttp "AltCredit/pkg/http"
	"AltCredit/pkg/http/middleware"
	pkgkafka "AltCredit/pkg/kafka"
	applogger "AltCredit/pkg/logger"
	"AltCredit/pkg/metrics"
	"AltCredit/pkg/server"
)

const serviceName = "altcredit"

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the application logger and attaches the error
// collector when it is enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	log, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collector.Enabled && producer != nil {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.Threshold,
			Topic:          cfg.Log.Collector.Topic,
			Service:        serviceName,
			IncludeWarn:    cfg.Log.Collector.IncludeWarn,
			Publisher:      producer,
			OnError: func(err error) {
				// The collector is not attached to this logger.
				applogger.NewWriter(os.Stderr, "warn").Warn("log collector publish failed", applogger.Error(err))
			},
		})
	}
	return log, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideModel returns the versioned model tables.
func ProvideModel() (*scoring.ModelConfig, error) {
	m := scoring.DefaultModel()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model config: %w", err)
	}
	return m, nil
}

// ProvideJitter returns a seeded source when jitter is enabled.
func ProvideJitter(cfg *config.Config) scoring.Jitter {
	if !cfg.Scoring.Jitter.Enabled || cfg.Scoring.Jitter.Amplitude == 0 {
		return scoring.NoJitter{}
	}
	seed := cfg.Scoring.Jitter.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return scoring.NewSeededJitter(seed, cfg.Scoring.Jitter.Amplitude)
}

func ProvideScorer(model *scoring.ModelConfig, j scoring.Jitter) dservice.Scorer {
	return scoring.NewScorer(scoring.WithModel(model), scoring.WithJitter(j))
}

func ProvideExplainer(model *scoring.ModelConfig) dservice.Explainer {
	return explain.NewEngine(model)
}

func ProvideBiasAnalyzer(cfg *config.Config) dservice.BiasAnalyzer {
	return fairness.NewAnalyzer(fairness.WithThresholds(fairness.Thresholds{
		DemographicParity: cfg.Fairness.DemographicParity,
		EqualizedOdds:     cfg.Fairness.EqualizedOdds,
		EqualOpportunity:  cfg.Fairness.EqualOpportunity,
	}))
}

// ProvideCacheService returns the memory cache, layered over Redis when
// configured, or nil when caching is disabled.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if !cfg.Cache.Redis.Enabled {
		return pkgcache.NewMemoryCache(
			pkgcache.WithMemoryMaxSize(cfg.Cache.MemorySize),
			pkgcache.WithMemoryDefaultTTL(cfg.Cache.TTL),
		), nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Cache.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(cfg.Cache.MemorySize)), nil
}

func ProvideScoreCache(cfg *config.Config, svc pkgcache.Service) *icache.ScoreCache {
	if svc == nil {
		return nil
	}
	return icache.NewScoreCache(svc, cfg.Cache.TTL)
}

// ProvideDecisionPublisher publishes decision events to Kafka when a
// producer exists.
func ProvideDecisionPublisher(cfg *config.Config, producer *pkgkafka.Producer) drepo.DecisionPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaDecisionPublisher(producer, cfg.Kafka.DecisionsTopic)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns, 0),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithCompression(cfg.ClickHouse.Compression),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideDecisionStore creates the audit store and ensures its schema.
func ProvideDecisionStore(cfg *config.Config, client *pkgch.Client, log *applogger.Logger) (drepo.DecisionStore, error) {
	if client == nil {
		return internalrepo.NopStore{}, nil
	}
	store := internalrepo.NewClickHouseDecisionStore(client, cfg.ClickHouse.Table)
	store.SetLogger(log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideCreditScoring creates the scoring use case.
func ProvideCreditScoring(
	cfg *config.Config,
	scorer dservice.Scorer,
	explainer dservice.Explainer,
	bias dservice.BiasAnalyzer,
	model *scoring.ModelConfig,
	cache *icache.ScoreCache,
	pub drepo.DecisionPublisher,
	store drepo.DecisionStore,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.CreditScoring {
	return usecase.NewCreditScoring(scorer, explainer, bias, model,
		usecase.WithCache(cache),
		usecase.WithPublisher(pub),
		usecase.WithStore(store),
		usecase.WithMetrics(m),
		usecase.WithLogger(log),
		usecase.WithBatchLimits(cfg.Scoring.MaxBatch, cfg.Scoring.BatchWorkers),
	)
}

// ProvideLimiter returns the per-IP limiter, or nil when rate limiting is off.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

func ProvideHandler(
	cfg *config.Config,
	log *applogger.Logger,
	uc *usecase.CreditScoring,
	limiter *ratelimit.Limiter,
) *api.CreditScoringHandler {
	opts := []api.HandlerOption{
		api.WithDebug(cfg.Debug),
		api.WithEnvironment(cfg.Environment),
	}
	if limiter != nil {
		opts = append(opts, api.WithLimiter(limiter))
	}
	return api.NewCreditScoringHandler(log, uc, opts...)
}

// ProvideDecisionsHandler serves the audit listing. Without ClickHouse it
// answers 404.
func ProvideDecisionsHandler(log *applogger.Logger, store drepo.DecisionStore, limiter *ratelimit.Limiter) *api.DecisionsHandler {
	return api.NewDecisionsHandler(log, store, asLimiter(limiter))
}

// asLimiter keeps a nil *Limiter from becoming a non-nil interface.
func asLimiter(l *ratelimit.Limiter) middleware.Limiter {
	if l == nil {
		return nil
	}
	return l
}

func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, h *api.CreditScoringHandler, dh *api.DecisionsHandler) *xhttp.Server {
	return xhttp.NewServer(xhttp.Handlers{h, dh},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS, cfg.Server.AllowOrigins...),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(log),
	)
}

// ProvideKafkaConsumer creates the requests consumer, or nil when no
// requests topic is configured.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.RequestsTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(log),
		pkgkafka.WithConsumerHook(pkgkafka.NewHookChain(
			pkgkafka.LoggingHook(log),
			pkgkafka.MaxPayloadHook(cfg.Kafka.Consumer.MaxPayload),
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideDecisionRequestHandler serves scoring requests from the requests topic.
func ProvideDecisionRequestHandler(cfg *config.Config, uc *usecase.CreditScoring, log *applogger.Logger) *usecase.DecisionRequestHandler {
	return usecase.NewDecisionRequestHandler(cfg.Kafka.RequestsTopic, uc, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	rh *usecase.DecisionRequestHandler,
	limiter *ratelimit.Limiter,
	pub drepo.DecisionPublisher,
	store drepo.DecisionStore,
	chClient *pkgch.Client,
	cacheSvc pkgcache.Service,
) *server.App {
	opts := []server.Option{
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithConsumer(consumer, rh),
		// The collector publishes through the producer, so it goes before the publisher.
		server.WithCloser("log collector", func() error { log.RemoveCollector(); return nil }),
		server.WithCloser("decision publisher", pub.Close),
		server.WithCloser("decision store", store.Close),
	}
	if limiter != nil {
		idle := cfg.RateLimit.IdleTTL
		opts = append(opts, server.WithTask(func(ctx context.Context) {
			limiter.RunJanitor(ctx, idle/2, idle)
		}))
	}
	if chClient != nil {
		opts = append(opts, server.WithCloser("clickhouse", chClient.Close))
	}
	if cacheSvc != nil {
		opts = append(opts, server.WithCloser("cache", cacheSvc.Close))
	}
	return server.New(log, srv, opts...)
}
