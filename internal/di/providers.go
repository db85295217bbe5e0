package di

import (
	"context"
	"fmt"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/handler/api"
	internalrepo "SignalDesk/internal/repository"
	icache "SignalDesk/internal/service/cache"
	amet "SignalDesk/internal/service/metrics"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/services/arima"
	"SignalDesk/internal/services/consensus"
	"SignalDesk/internal/services/forecast"
	"SignalDesk/internal/services/regime"
	"SignalDesk/internal/services/sources"
	"SignalDesk/internal/usecase"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/server"
)

// ProvideLogger builds the process logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	amet.Register()
	return metrics.New()
}

func ProvideClassifier(cfg *config.Config) (*regime.Classifier, error) {
	return regime.New(regime.Config{
		Window:        cfg.Regime.Window,
		Count:         cfg.Regime.Count,
		Annualization: cfg.Regime.Annualization,
	})
}

func ProvideForecaster(cfg *config.Config) (*forecast.Forecaster, error) {
	fc := forecast.Config{
		Horizon:    cfg.Forecast.Horizon,
		Confidence: cfg.Forecast.Confidence,
		Order: models.ModelOrder{
			P: cfg.Forecast.Order.P,
			D: cfg.Forecast.Order.D,
			Q: cfg.Forecast.Order.Q,
		},
		Estimation: arima.Options{
			MinObservations: cfg.Forecast.MinObservations,
			MaxIterations:   cfg.Forecast.MaxIterations,
		},
		Parallelism:   cfg.Forecast.Parallelism,
		Annualization: cfg.Regime.Annualization,
	}
	if s := cfg.Forecast.Search; s.Enabled {
		fc.Search = &arima.Grid{MaxP: s.MaxP, MinD: s.MinD, MaxD: s.MaxD, MaxQ: s.MaxQ}
	}
	return forecast.New(fc)
}

func ProvideConsensusEngine(cfg *config.Config) (*consensus.Engine, error) {
	c := cfg.Consensus
	return consensus.NewEngine(consensus.Thresholds{
		MinConfidence:       c.MinConfidence,
		ConflictReliability: c.ConflictReliability,
		NeutralConfidence:   c.NeutralConfidence,
		Coherence:           c.Coherence,
		Alpha:               c.Significance,
		Distribution:        consensus.Distribution(c.Distribution),
	}, consensus.NewValidator())
}

// ProvideSignalSources builds one HTTP source per configured endpoint.
func ProvideSignalSources(cfg *config.Config) []domsvc.SignalSource {
	c := cfg.Consensus
	opts := sources.Options{
		Timeout:         c.SourceTimeout,
		Retries:         c.SourceRetries,
		BreakerFailures: c.BreakerFailures,
		BreakerCooldown: c.BreakerCooldown,
	}
	out := make([]domsvc.SignalSource, 0, len(c.Sources))
	for _, s := range c.Sources {
		out = append(out, sources.NewHTTPSource(s.Name, s.URL, s.Reliability, opts))
	}
	return out
}

// ProvideRedisCache returns nil unless redis is enabled.
func ProvideRedisCache(cfg *config.Config, l *applogger.Logger) *icache.RedisCache {
	r := cfg.Cache.Redis
	if !r.Enabled {
		return nil
	}
	l.Info("redis cache enabled", applogger.String("addr", r.Addr))
	return icache.NewRedisCache(icache.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB})
}

// ProvideForecastCache prefers redis and falls back to an in-process cache.
func ProvideForecastCache(rc *icache.RedisCache) icache.BytesCache {
	if rc != nil {
		return rc
	}
	return icache.NewTTLCache()
}

// ProvideClickHouseClient returns nil when no host is configured; the
// symbol forecast endpoint then answers 503.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, error) {
	ch := cfg.ClickHouse
	if ch.Host == "" {
		l.Info("clickhouse disabled, price store unavailable")
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), ch.DialTimeout+ch.ReadTimeout)
	defer cancel()
	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

func ProvidePriceStore(cfg *config.Config, client *pkgch.Client, l *applogger.Logger) domrepo.PriceStore {
	if client == nil {
		return nil
	}
	store := internalrepo.NewCHPriceStore(client.DB(), cfg.ClickHouse.Database)
	store.SetLogger(l)
	return store
}

// ProvideKafkaProducer returns nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
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

func ProvideDecisionPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.DecisionPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaDecisionPublisher(producer, cfg.Kafka.DecisionsTopic)
}

func ProvideForecastUseCase(
	cfg *config.Config,
	classifier *regime.Classifier,
	forecaster *forecast.Forecaster,
	m domrepo.Metrics,
	l *applogger.Logger,
	store domrepo.PriceStore,
	cache icache.BytesCache,
) *usecase.ForecastUseCase {
	uc := usecase.NewForecastUseCase(classifier, forecaster, m, l)
	if store != nil {
		uc.SetStore(store)
	}
	uc.SetCache(cache, cfg.Cache.TTL)
	return uc
}

func ProvideConsensusUseCase(
	cfg *config.Config,
	engine *consensus.Engine,
	m domrepo.Metrics,
	l *applogger.Logger,
	pub domrepo.DecisionPublisher,
	srcs []domsvc.SignalSource,
) *usecase.ConsensusUseCase {
	uc := usecase.NewConsensusUseCase(engine, m, l)
	if pub != nil {
		uc.SetPublisher(pub)
	}
	uc.SetSources(srcs, cfg.Consensus.SourceTimeout)
	return uc
}

// ProvideKafkaConsumer returns nil when no brokers are configured.
// Otherwise it consumes signal batches and feeds them to the cascade.
func ProvideKafkaConsumer(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.ConsensusUseCase,
	m domrepo.Metrics,
) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	kc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(kc.GroupID),
		pkgkafka.WithConsumerWorkers(kc.Workers),
		pkgkafka.WithConsumerBufferSize(kc.BufferSize),
		pkgkafka.WithConsumerRetry(kc.RetryMax, kc.BackoffMin, kc.BackoffMax),
		pkgkafka.WithConsumerDLQ(kc.DLQTopic),
		pkgkafka.WithConsumerFetch(kc.MinBytes, kc.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook()))
	consumer.RegisterHandler(usecase.NewKafkaSignalsHandler(cfg.Kafka.SignalsTopic, uc, m, l))
	return consumer, nil
}

func ProvideHealthHandler(client *pkgch.Client, rc *icache.RedisCache) *api.HealthHandler {
	h := api.NewHealthHandler()
	if client != nil {
		h.AddCheck("clickhouse", client.Health)
	}
	if rc != nil {
		h.AddCheck("redis", rc.Ping)
	}
	return h
}

func ProvideForecastHandler(cfg *config.Config, l *applogger.Logger, uc *usecase.ForecastUseCase) *api.ForecastHandler {
	rl := ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillEvery, cfg.RateLimit.RefillTokens)
	return api.NewForecastHandler(l, uc, rl, cfg.Server.RequestTimeout)
}

func ProvideConsensusHandler(l *applogger.Logger, uc *usecase.ConsensusUseCase) *api.ConsensusHandler {
	return api.NewConsensusHandler(l, uc)
}

func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	health *api.HealthHandler,
	fh *api.ForecastHandler,
	ch *api.ConsensusHandler,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{health, fh, ch},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS.AllowOrigins, cfg.Server.CORS.MaxAge),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp assembles the application and registers every client that
// needs closing.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	client *pkgch.Client,
	rc *icache.RedisCache,
	pub domrepo.DecisionPublisher,
) *server.App {
	app := server.New(cfg, l, srv, consumer)
	if client != nil {
		app.AddCloser("clickhouse", client)
	}
	if rc != nil {
		app.AddCloser("redis", rc)
	}
	if pub != nil {
		app.AddCloser("decision publisher", pub)
	}
	return app
}
