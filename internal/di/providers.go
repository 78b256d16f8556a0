package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"CryptoSignal/internal/domain/repository"
	"CryptoSignal/internal/handler/api"
	internalrepo "CryptoSignal/internal/repository"
	"CryptoSignal/internal/service/binance"
	svccache "CryptoSignal/internal/service/cache"
	"CryptoSignal/internal/service/coingecko"
	"CryptoSignal/internal/service/marketdata"
	svcmetrics "CryptoSignal/internal/service/metrics"
	"CryptoSignal/internal/service/ratelimit"
	"CryptoSignal/internal/service/yahoo"
	"CryptoSignal/internal/usecase"
	pkgcache "CryptoSignal/pkg/cache"
	pkgch "CryptoSignal/pkg/clickhouse"
	"CryptoSignal/pkg/config"
	xhttp "CryptoSignal/pkg/http"
	pkgkafka "CryptoSignal/pkg/kafka"
	"CryptoSignal/pkg/logger"
	"CryptoSignal/pkg/metrics"
	"CryptoSignal/pkg/queue"
	"CryptoSignal/pkg/server"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRedisCache connects to Redis when the cache backend needs it; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if cfg.Cache.Backend == "memory" {
		return nil, nil
	}
	r := cfg.Cache.Redis
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(r.Host),
		pkgcache.WithRedisPort(r.Port),
		pkgcache.WithRedisPassword(r.Password),
		pkgcache.WithRedisDB(r.DB),
		pkgcache.WithRedisPool(r.PoolSize, r.MinIdle, r.Timeout),
		pkgcache.WithRedisPrefix(r.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCacheBackend picks memory, redis or memory-in-front-of-redis.
func ProvideCacheBackend(cfg *config.Config, rc *pkgcache.RedisCache) pkgcache.Service {
	switch cfg.Cache.Backend {
	case "redis":
		return rc
	case "layered":
		return pkgcache.NewLayeredCache(rc,
			pkgcache.WithLayeredMemorySize(cfg.Cache.Memory.MaxSize),
			pkgcache.WithLayeredMaxL1TTL(cfg.Cache.Memory.MaxL1TTL),
		)
	default:
		return pkgcache.NewMemoryCache(
			pkgcache.WithMemoryMaxSize(cfg.Cache.Memory.MaxSize),
			pkgcache.WithMemoryCleanup(cfg.Cache.Memory.CleanupInterval),
		)
	}
}

func ProvideStore(cfg *config.Config, backend pkgcache.Service, l *logger.Logger) *svccache.Store {
	t := cfg.Cache.TTL
	ttls := svccache.TTLs{
		Coins:      t.Coins,
		Price:      t.Price,
		Historical: t.Historical,
		Prediction: t.Prediction,
		Bundle:     t.Bundle,
		Analysis:   t.Analysis,
		Recommend:  t.Recommendation,
	}
	return svccache.NewStore(backend, ttls, cfg.Cache.Epoch, l)
}

// ProvideMetrics registers collectors on the default registry served at /metrics.
func ProvideMetrics() repository.Metrics {
	svcmetrics.Register()
	return metrics.New(prometheus.DefaultRegisterer)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(float64(cfg.RateLimit.Capacity), cfg.RateLimit.RefillPerSec)
}

// ProvideBinance returns nil when the source is disabled.
func ProvideBinance(cfg *config.Config, limiter *ratelimit.Limiter) *binance.Client {
	if !cfg.Binance.Enabled {
		return nil
	}
	return binance.New(cfg.Binance.BaseURL, limiter,
		xhttp.WithTimeout(cfg.Binance.Timeout),
		xhttp.WithRetry(cfg.Binance.Retries+1, 0),
		xhttp.WithUserAgent("cryptosignal/1.0"),
	)
}

// ProvideCoinGecko returns nil when the source is disabled.
func ProvideCoinGecko(cfg *config.Config, limiter *ratelimit.Limiter) *coingecko.Client {
	if !cfg.CoinGecko.Enabled {
		return nil
	}
	return coingecko.New(cfg.CoinGecko.BaseURL, cfg.CoinGecko.APIKey, cfg.CoinGecko.Timeout, limiter)
}

// ProvideBarStore connects the ClickHouse archive and creates its table; nil when disabled.
func ProvideBarStore(cfg *config.Config, l *logger.Logger) (*internalrepo.CHBarStore, error) {
	c := cfg.ClickHouse
	if !c.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.DialTimeout+c.ReadTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(c.Host),
		pkgch.WithPort(c.Port),
		pkgch.WithDatabase(c.Database),
		pkgch.WithCredentials(c.User, c.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(c.UseHTTP),
		pkgch.WithAsyncInsert(c.AsyncInsert, c.AsyncInsert),
		pkgch.WithTimeouts(c.DialTimeout, c.ReadTimeout),
		pkgch.WithMaxExecutionTime(c.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	store := internalrepo.NewCHBarStore(client, c.Table, l)
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideBarSource orders the enabled sources for failover and archives upstream hits.
func ProvideBarSource(cfg *config.Config, l *logger.Logger, bn *binance.Client, cg *coingecko.Client, store *internalrepo.CHBarStore) repository.BarSource {
	var sources []repository.BarSource
	if bn != nil {
		sources = append(sources, bn)
	}
	if cg != nil {
		sources = append(sources, cg)
	}
	if cfg.Yahoo.Enabled {
		sources = append(sources, yahoo.New())
	}
	if store != nil && cfg.ClickHouse.ServeReads {
		sources = append(sources, store)
	}
	f := marketdata.NewFailover(l.With(logger.String("component", "marketdata")), sources...)
	if store != nil {
		f.WithSink(store)
	}
	return f
}

// ProvideCatalog returns a nil interface, not a typed nil, when CoinGecko is off.
func ProvideCatalog(cg *coingecko.Client) repository.MarketCatalog {
	if cg == nil {
		return nil
	}
	return cg
}

func ProvidePriceSource(bn *binance.Client) repository.PriceSource {
	if bn == nil {
		return nil
	}
	return bn
}

func ProvidePipeline() *usecase.Pipeline {
	return usecase.NewDefaultPipeline()
}

func ProvideOrchestrator(cfg *config.Config, source repository.BarSource, pipeline *usecase.Pipeline, m repository.Metrics, l *logger.Logger) *usecase.Orchestrator {
	return usecase.NewOrchestrator(source, pipeline, m, l.With(logger.String("component", "orchestrator"))).
		WithTimeout(cfg.Server.PredictTimeout)
}

// ProvideKafkaProducer returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	k := cfg.Kafka
	if !k.Enabled {
		return nil, nil
	}
	p, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithClientID(k.ClientID),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithBatching(k.BatchSize, k.Linger),
		pkgkafka.WithWriteTimeout(k.WriteTimeout),
		pkgkafka.WithAsync(k.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return p, nil
}

func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

func ProvidePredictionUseCase(orch *usecase.Orchestrator, store *svccache.Store, events repository.EventPublisher, l *logger.Logger) *usecase.PredictionUseCase {
	return usecase.NewPredictionUseCase(orch, store, events, l.With(logger.String("component", "predictions")))
}

func ProvideMarketUseCase(catalog repository.MarketCatalog, quotes repository.PriceSource, source repository.BarSource, store *svccache.Store, l *logger.Logger) *usecase.MarketUseCase {
	return usecase.NewMarketUseCase(catalog, quotes, source, store, l.With(logger.String("component", "market")))
}

func ProvideAnalysisUseCase(source repository.BarSource, pipeline *usecase.Pipeline, store *svccache.Store, l *logger.Logger) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(source, pipeline, store, l.With(logger.String("component", "analysis")))
}

func ProvideHandlers(l *logger.Logger, predictions *usecase.PredictionUseCase, market *usecase.MarketUseCase, analysis *usecase.AnalysisUseCase, limiter *ratelimit.Limiter) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewSignalsEchoHandler(l, predictions, market, analysis),
		api.NewStreamHandler(l, predictions, limiter),
	}
}

func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	s := cfg.Server
	return xhttp.NewServer(l, handlers,
		xhttp.WithHost(s.Host),
		xhttp.WithPort(s.Port),
		xhttp.WithTimeouts(s.ReadTimeout, s.WriteTimeout, s.ShutdownTimeout),
		xhttp.WithCORS(s.AllowOrigins),
		xhttp.WithSlowThreshold(s.SlowThreshold),
	)
}

// ProvideWarmQueue starts the shared warm-up queue when distributed warm-up is on; nil otherwise.
func ProvideWarmQueue(cfg *config.Config, rc *pkgcache.RedisCache, predictions *usecase.PredictionUseCase, l *logger.Logger) (*queue.RedisQueue, error) {
	w := cfg.Warmup
	if !w.Enabled || !w.Distributed || rc == nil {
		return nil, nil
	}
	q := queue.NewRedisQueue(l.With(logger.String("component", "warmup-queue")), queue.Config{
		Workers:    w.Workers,
		RetryLimit: w.RetryLimit,
		RetryDelay: w.RetryDelay,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Cache.Redis.Prefix+":warmup"))
	q.RegisterJob(usecase.NewWarmCoinJob(predictions))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Cache.Redis.Timeout)
	defer cancel()
	if err := q.Start(ctx); err != nil {
		return nil, fmt.Errorf("warmup queue: %w", err)
	}
	return q, nil
}

// ProvideWarmup returns nil when warm-up is disabled. Shared backends also
// carry the run lock so only one replica warms per tick.
func ProvideWarmup(cfg *config.Config, predictions *usecase.PredictionUseCase, q *queue.RedisQueue, backend pkgcache.Service, l *logger.Logger) (*usecase.WarmupScheduler, error) {
	w := cfg.Warmup
	if !w.Enabled {
		return nil, nil
	}
	s := usecase.NewWarmupScheduler(predictions, w.Coins, w.Timeout, l.With(logger.String("component", "warmup")))
	if q != nil {
		s.WithQueue(q)
	}
	if cfg.Cache.Backend != "memory" {
		s.WithLock(backend)
	}
	if err := s.Register(w.Spec); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideApp assembles the lifecycle and attaches the Kafka log digest when configured.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	httpServer *xhttp.Server,
	warmup *usecase.WarmupScheduler,
	q *queue.RedisQueue,
	backend pkgcache.Service,
	store *internalrepo.CHBarStore,
	producer *pkgkafka.Producer,
) *server.App {
	app := server.New(cfg, l, httpServer, warmup)

	// Closed in reverse: the producer goes last so the digest can flush through it.
	if producer != nil {
		app.OnShutdown("kafka producer", producer)
		if cfg.Kafka.DigestTopic != "" {
			l.AttachDigest(&logger.DigestConfig{
				Topic:     cfg.Kafka.DigestTopic,
				Publisher: producer,
			})
			app.OnShutdown("log digest", closerFunc(func() error {
				l.DetachDigest()
				return nil
			}))
		}
	}
	app.OnShutdown("cache", backend)
	if store != nil {
		app.OnShutdown("clickhouse", store)
	}
	if q != nil {
		app.OnShutdown("warmup queue", q)
	}
	return app
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
