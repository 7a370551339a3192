package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/pitviper/backend/internal/advice"
	"github.com/wonny/pitviper/backend/internal/brain"
	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/internal/external/coinbase"
	"github.com/wonny/pitviper/backend/internal/external/fred"
	"github.com/wonny/pitviper/backend/internal/external/newsapi"
	"github.com/wonny/pitviper/backend/internal/external/yahoo"
	"github.com/wonny/pitviper/backend/internal/portfolio"
	"github.com/wonny/pitviper/backend/internal/realtime"
	"github.com/wonny/pitviper/backend/internal/s0_data"
	"github.com/wonny/pitviper/backend/internal/s1_unify"
	"github.com/wonny/pitviper/backend/internal/s2_features"
	"github.com/wonny/pitviper/backend/internal/selection"
	"github.com/wonny/pitviper/backend/internal/sentiment"
	"github.com/wonny/pitviper/backend/internal/storage"
	"github.com/wonny/pitviper/backend/internal/strategyconfig"
	"github.com/wonny/pitviper/backend/pkg/config"
	"github.com/wonny/pitviper/backend/pkg/database"
	"github.com/wonny/pitviper/backend/pkg/httputil"
	"github.com/wonny/pitviper/backend/pkg/logger"
	"github.com/wonny/pitviper/backend/pkg/metrics"
	"github.com/wonny/pitviper/backend/pkg/redis"
)

const keyPrefix = "pitviper"

// app holds every long-lived component built from config.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	metrics  *metrics.Recorder

	redis   *redis.Client
	cache   *redis.Cache
	db      *database.DB
	runs    *storage.PostgresRepository
	kafka   *storage.KafkaPublisher
	crypto  *coinbase.Client
	hub     *realtime.Hub
	orch    *brain.Orchestrator
	closers []func()
}

// newApp wires the pipeline. Redis, Postgres, Kafka and Slack are used
// only when configured.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	// 1. Strategy
	strategy, _, err := strategyconfig.Load(cfg.Pipeline.StrategyFile)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return fmt.Errorf("hash strategy: %w", err)
	}
	a.strategy = strategy

	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 2. Redis (disabled client is a no-op)
	a.redis, err = redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.redis.Close() })
	a.cache = redis.NewCache(a.redis, keyPrefix)
	limiter := redis.NewRateLimiter(a.redis, keyPrefix)

	// 3. Postgres
	var sinks []contracts.PacketSink
	var holdings contracts.HoldingsProvider
	if cfg.Database.Enabled() {
		a.db, err = database.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, a.db.Close)

		a.runs = storage.NewPostgresRepository(a.db.Pool)
		if err := a.runs.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, a.runs)
	}

	// 4. Holdings: CSV file, else the latest stored snapshot, else mock
	switch {
	case cfg.Pipeline.HoldingsCSV != "" || a.db == nil:
		holdings = portfolio.NewFileProvider(cfg.Pipeline.HoldingsCSV, log)
	default:
		repo := portfolio.NewRepository(a.db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		holdings = repo
	}

	// 5. Packet sinks
	if cfg.Kafka.Enabled() {
		a.kafka, err = storage.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("create kafka publisher: %w", err)
		}
		a.closers = append(a.closers, func() { _ = a.kafka.Close() })
		sinks = append(sinks, a.kafka)
	}
	a.hub = realtime.NewHub(log)
	a.closers = append(a.closers, func() { _ = a.hub.Close() })
	sinks = append(sinks, a.hub)
	if cfg.Notification.SlackWebhook != "" {
		slackHTTP := httputil.NewWithTimeout(cfg, log, 5*time.Second).DisableRetry()
		sinks = append(sinks, storage.NewSlackNotifier(slackHTTP, cfg.Notification.SlackWebhook))
	}

	// 6. Source providers, one per asset class
	descriptions := strategy.Universe.Descriptions()
	providerHTTP := func(provider string) *httputil.Client {
		quota := redis.LimitFor(provider)
		rps := float64(quota.Limit) / quota.Window.Seconds()
		return httputil.New(cfg, log).
			WithLocalLimit(rps, 2).
			WithRateLimiter(limiter, quota)
	}
	yahooHTTP := providerHTTP("yahoo")

	a.crypto = coinbase.NewClient(cfg.Credentials.Coinbase, "", cfg.Pipeline.FetchTimeout, log)
	a.closers = append(a.closers, func() { _ = a.crypto.Close() })

	providers := map[contracts.AssetType]contracts.SourceProvider{
		contracts.AssetCrypto:    a.crypto,
		contracts.AssetEquity:    yahoo.NewClient(yahooHTTP, contracts.AssetEquity, descriptions, log),
		contracts.AssetFund:      yahoo.NewClient(yahooHTTP, contracts.AssetFund, descriptions, log),
		contracts.AssetCommodity: yahoo.NewClient(yahooHTTP, contracts.AssetCommodity, descriptions, log),
		contracts.AssetBond:      fred.NewClient(providerHTTP("fred"), cfg.Credentials.FRED, descriptions, log),
	}
	for assetType, p := range providers {
		providers[assetType] = s0_data.NewCachedProvider(p, assetType, a.cache, cfg.Pipeline.CacheTTL)
	}
	specs := s0_data.BuildSpecs(strategy.Universe.Symbols(), providers)
	collector := s0_data.NewCollector(s0_data.NewAdapter(log, a.metrics), specs, cfg.Pipeline.CollectParallel, log)

	// 7. Stages
	mode, err := s2_features.ParseMomentumMode(strategy.MomentumMode)
	if err != nil {
		return err
	}
	advisor, err := advice.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	analyzer := sentiment.NewAnalyzer()
	news := newsapi.NewClient(providerHTTP("newsapi"), cfg.Credentials.NewsAPI, log)

	a.orch = brain.NewOrchestrator(brain.Deps{
		Collector:    collector,
		Unifier:      s1_unify.NewUnifier(log),
		Features:     s2_features.NewEngine(mode, log),
		Scorer:       selection.NewScorer(strategy.Weights, log),
		TopN:         strategy.TopN,
		Holdings:     holdings,
		News:         sentiment.NewNewsCollector(news, analyzer, log),
		Social:       sentiment.NewSocialCollector(analyzer, cfg.SentimentSources, log),
		Advisor:      advisor,
		Artifacts:    storage.NewDataStore(cfg.Storage.DataDir, log),
		Sinks:        sinks,
		Latest:       a.cache,
		Metrics:      a.metrics,
		StrategyHash: hash,
	}, log)

	log.WithFields(map[string]interface{}{
		"strategy": strategy.Meta.StrategyID,
		"hash":     hash[:12],
		"universe": strategy.Universe.Size(),
		"provider": advisor.Provider(),
		"sinks":    len(sinks),
		"redis":    a.redis.Enabled(),
	}).Info("Pipeline initialized")

	return nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
