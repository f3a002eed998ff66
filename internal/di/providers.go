package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"SetupScanner/internal/analysis/candles"
	"SetupScanner/internal/analysis/divergence"
	"SetupScanner/internal/analysis/odds"
	"SetupScanner/internal/domain/repository"
	"SetupScanner/internal/handler/api"
	internalrepo "SetupScanner/internal/repository"
	"SetupScanner/internal/scheduler"
	"SetupScanner/internal/service/binance"
	"SetupScanner/internal/service/cache"
	"SetupScanner/internal/service/ratelimit"
	"SetupScanner/internal/stream"
	"SetupScanner/internal/usecase"
	"SetupScanner/pkg/config"
	xhttp "SetupScanner/pkg/http"
	pkgkafka "SetupScanner/pkg/kafka"
	"SetupScanner/pkg/logger"
	"SetupScanner/pkg/metrics"
	"SetupScanner/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry shared by every collector and /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideCache returns an in-process cache layered over Redis when Redis is enabled and
// reachable, otherwise the in-process TTL cache alone.
func ProvideCache(cfg *config.Config, log *logger.Logger) (cache.BytesCache, func()) {
	if !cfg.Redis.Enabled {
		return cache.NewTTLCache(), func() {}
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warn("Redis unavailable, using in-process cache", logger.String("addr", cfg.Redis.Addr), logger.Error(err))
		_ = rc.Close()
		return cache.NewTTLCache(), func() {}
	}
	return cache.NewLayered(cache.NewTTLCache(), rc, 5*time.Second), func() {
		if err := rc.Close(); err != nil {
			log.Warn("Closing redis", logger.Error(err))
		}
	}
}

// ProvideKlineClient creates the REST history client.
func ProvideKlineClient(cfg *config.Config, c cache.BytesCache, log *logger.Logger, m repository.Metrics) *binance.KlineClient {
	return binance.NewKlineClient(binance.Config{
		RestURL:    cfg.Binance.RestURL,
		APIKey:     cfg.Binance.APIKey,
		SecretKey:  cfg.Binance.SecretKey,
		RateLimit:  cfg.Binance.RateLimit,
		Burst:      cfg.Binance.Burst,
		MaxRetries: cfg.Binance.MaxRetries,
		CacheTTL:   cfg.Binance.CacheTTL,
	}, c, log.With(logger.String("component", "binance_rest")), m)
}

// ProvideCandleSource exposes the kline client as the scanner's history source.
func ProvideCandleSource(k *binance.KlineClient) repository.CandleSource {
	return k
}

// ProvideStreamManager creates the connection manager on the websocket dialer.
func ProvideStreamManager(cfg *config.Config, log *logger.Logger, m repository.Metrics) *stream.Manager {
	dialer := binance.NewWSDialer(cfg.Binance.WSURL, cfg.Stream.PingInterval)
	return stream.NewManager(dialer, binance.DecodeKline, log.With(logger.String("component", "stream")), m)
}

// ProvideOddsEngine loads the odds tables; a missing path uses the built-in tables.
func ProvideOddsEngine(cfg *config.Config) (*odds.Engine, error) {
	oc, err := odds.LoadConfig(cfg.Odds.ConfigPath)
	if err != nil {
		return nil, err
	}
	e, err := odds.NewFromConfig(oc)
	if err != nil {
		return nil, fmt.Errorf("odds engine: %w", err)
	}
	return e, nil
}

func ProvideDivergenceDetector(cfg *config.Config) *divergence.Detector {
	sc := divergence.DefaultScoringConfig()
	sc.SwingLookback = cfg.Scan.SwingLookback
	return divergence.New(sc)
}

func ProvideCandleAnalyzer() *candles.Analyzer {
	return candles.NewAnalyzer(candles.DefaultConfig())
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled. The cleanup
// closes the producer if a later provider fails.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry, log *logger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() {
		if err := producer.Close(); err != nil {
			log.Warn("Closing kafka producer", logger.Error(err))
		}
	}, nil
}

// ProvideResultPublisher creates the Kafka result publisher. A nil interface disables publishing.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ResultsTopic)
}

func ProvideScanner(
	cfg *config.Config,
	source repository.CandleSource,
	detector *divergence.Detector,
	analyzer *candles.Analyzer,
	engine *odds.Engine,
	publisher repository.ResultPublisher,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Scanner {
	return usecase.NewScanner(
		usecase.ScannerConfig{RSIPeriod: cfg.Scan.RSIPeriod, DefaultLimit: cfg.Scan.DefaultLimit},
		source, detector, analyzer, engine, publisher, m,
		log.With(logger.String("component", "scanner")),
	)
}

func ProvideLiveFeed(
	cfg *config.Config,
	streams *stream.Manager,
	source repository.CandleSource,
	scanner *usecase.Scanner,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.LiveFeed {
	return usecase.NewLiveFeed(
		usecase.LiveFeedConfig{Interval: cfg.Stream.Interval, History: cfg.Stream.History},
		streams, source, scanner, m,
		log.With(logger.String("component", "live_feed")),
	)
}

func ProvideScheduler(cfg *config.Config, scanner *usecase.Scanner, log *logger.Logger) *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{
		Spec:     cfg.Scheduler.WatchlistSpec,
		Symbols:  cfg.Watchlist,
		Interval: cfg.Stream.Interval,
	}, scanner, log)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML, or nil when there is
// no request topic to consume.
func ProvideKafkaConsumer(cfg *config.Config, reg *prometheus.Registry, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.ScanRequestsTopic == "" {
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
		pkgkafka.WithConsumerLogger(log.With(logger.String("component", "kafka_consumer"))),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TraceHook(),
		pkgkafka.LoggingHook(log.With(logger.String("component", "kafka_consumer"))),
	))
	return consumer, nil
}

// ProvideScanRequestsHandler creates the handler for the scan request topic.
func ProvideScanRequestsHandler(cfg *config.Config, scanner *usecase.Scanner, m repository.Metrics, log *logger.Logger) *usecase.ScanRequestsHandler {
	return usecase.NewScanRequestsHandler(cfg.Kafka.ScanRequestsTopic, scanner, m, log)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

func ProvideHTTPHandler(log *logger.Logger, scanner *usecase.Scanner, feed *usecase.LiveFeed) *api.ScanEchoHandler {
	return api.NewScanEchoHandler(log, scanner, feed)
}

// ProvideHTTPServer creates the echo server with metrics and per-client rate limiting.
func ProvideHTTPServer(cfg *config.Config, h *api.ScanEchoHandler, reg *prometheus.Registry, limiter *ratelimit.Limiter, log *logger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithRateLimiter(limiter),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, reg))
	} else {
		opts = append(opts, xhttp.WithMetrics("", reg, nil))
	}
	return xhttp.NewServer(h, log.With(logger.String("component", "http")), opts...)
}

// ProvideApp assembles the application lifecycle.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	streams *stream.Manager,
	feed *usecase.LiveFeed,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	kh *usecase.ScanRequestsHandler,
	publisher repository.ResultPublisher,
	limiter *ratelimit.Limiter,
	httpServer *xhttp.Server,
) *server.App {
	return server.New(cfg, log, streams, feed, sched, consumer, kh, publisher, limiter, httpServer)
}
