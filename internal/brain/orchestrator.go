package brain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/internal/portfolio"
	"github.com/wonny/pitviper/backend/internal/s1_unify"
	"github.com/wonny/pitviper/backend/internal/s2_features"
	"github.com/wonny/pitviper/backend/internal/selection"
	"github.com/wonny/pitviper/backend/internal/storage"
	"github.com/wonny/pitviper/backend/pkg/logger"
	"github.com/wonny/pitviper/backend/pkg/metrics"
	"github.com/wonny/pitviper/backend/pkg/redis"
)

// DefaultTopN is the recommendation list length when none is configured.
const DefaultTopN = 10

// SourceCollector runs S0 over every configured asset class.
type SourceCollector interface {
	Collect(ctx context.Context) []contracts.SourceResult
}

// Deps are the stage components of one Orchestrator.
// Artifacts, Latest and Metrics are optional.
type Deps struct {
	Collector SourceCollector
	Unifier   *s1_unify.Unifier
	Features  *s2_features.Engine
	Scorer    *selection.Scorer
	TopN      int

	Holdings contracts.HoldingsProvider
	News     contracts.SentimentCollector
	Social   contracts.SentimentCollector
	Advisor  contracts.AdviceGenerator

	Artifacts contracts.ArtifactWriter
	Sinks     []contracts.PacketSink
	Latest    *redis.Cache
	Metrics   *metrics.Recorder

	StrategyHash string
}

// Orchestrator coordinates the daily advice run
// S0 → S1 → S2 → S3 → S4 → S5 → S6 → S7
type Orchestrator struct {
	deps   Deps
	logger *logger.Logger
	now    func() time.Time

	// one run at a time; the scheduler and the API may both trigger
	runMu sync.Mutex

	mu     sync.RWMutex
	latest *contracts.AdvicePacket
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(deps Deps, log *logger.Logger) *Orchestrator {
	if deps.TopN == 0 {
		deps.TopN = DefaultTopN
	}
	return &Orchestrator{
		deps:   deps,
		logger: log.Module("brain"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// stageTimer records one stage into the packet, the log and the metrics.
type stageTimer struct {
	o       *Orchestrator
	packet  *contracts.AdvicePacket
	stage   contracts.Stage
	started time.Time
}

func (o *Orchestrator) begin(packet *contracts.AdvicePacket, stage contracts.Stage) stageTimer {
	return stageTimer{o: o, packet: packet, stage: stage, started: time.Now()}
}

func (t stageTimer) done(in, out int, note string) {
	res := contracts.StageResult{
		Stage:       t.stage,
		InputCount:  in,
		OutputCount: out,
		DurationMs:  time.Since(t.started).Milliseconds(),
		Note:        note,
	}
	t.packet.Stages = append(t.packet.Stages, res)
	t.o.deps.Metrics.ObserveStage(t.stage.String(), t.started, out)
	t.o.logger.WithFields(map[string]interface{}{
		"run_id": t.packet.RunID,
		"stage":  t.stage.ShortName(),
		"in":     in,
		"out":    out,
		"ms":     res.DurationMs,
	}).Debug(t.stage.Description() + " completed")
}

// Run executes the whole pipeline once and returns the advice packet.
// Source and sentiment failures degrade to offline data; a holdings,
// artifact or cancellation error fails the run.
func (o *Orchestrator) Run(ctx context.Context) (*contracts.AdvicePacket, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	startTime := time.Now()
	packet := &contracts.AdvicePacket{
		RunID:        uuid.NewString(),
		StrategyHash: o.deps.StrategyHash,
		Stages:       make([]contracts.StageResult, 0, len(contracts.AllStages())),
	}
	log := o.logger.WithField("run_id", packet.RunID)
	log.WithField("top_n", o.deps.TopN).Info("Starting advice run")

	if err := o.run(ctx, packet); err != nil {
		o.deps.Metrics.RunFinished("failed")
		log.WithError(err).WithField("completed", len(packet.Stages)).Error("Advice run failed")
		return packet, err
	}

	o.publish(ctx, packet)
	o.deps.Metrics.RunFinished("success")
	log.WithFields(map[string]interface{}{
		"assets":   packet.MarketOverview.AssetsConsidered,
		"top":      len(packet.Recommendations.Top),
		"provider": packet.Advice.Provider,
		"duration": time.Since(startTime).String(),
	}).Info("Advice run completed")

	return packet, nil
}

func (o *Orchestrator) run(ctx context.Context, packet *contracts.AdvicePacket) error {
	// S0: collect
	t := o.begin(packet, contracts.StageCollect)
	results := o.deps.Collector.Collect(ctx)
	rawRows, fallbacks := 0, 0
	packet.Sources = make([]contracts.SourceMetadata, 0, len(results))
	for _, r := range results {
		packet.Sources = append(packet.Sources, r.Metadata)
		rawRows += len(r.Rows)
		if r.Metadata.UsedFallback {
			fallbacks++
		}
	}
	t.done(len(results), rawRows, fmt.Sprintf("%d fallbacks", fallbacks))
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("S0 failed: %w", err)
	}

	// S1: unify
	t = o.begin(packet, contracts.StageUnify)
	unified, report := o.deps.Unifier.Unify(results)
	t.done(report.Input, report.Kept, fmt.Sprintf("%d dropped", report.Dropped))

	// S2: features
	t = o.begin(packet, contracts.StageFeatures)
	features := o.deps.Features.Compute(unified)
	t.done(unified.Len(), features.Len(), string(o.deps.Features.Mode()))

	// S3: score
	t = o.begin(packet, contracts.StageScore)
	scored := o.deps.Scorer.Score(features)
	t.done(features.Len(), scored.Len(), "")

	// S4: recommend
	t = o.begin(packet, contracts.StageRecommend)
	top := selection.SummarizeRecommendations(scored, o.deps.TopN)
	packet.Recommendations = contracts.RecommendationBlock{Top: top}
	t.done(scored.Len(), len(top), "")

	// S5: holdings + reconcile
	t = o.begin(packet, contracts.StageReconcile)
	snapshot, err := o.deps.Holdings.Load(ctx)
	if err != nil {
		return fmt.Errorf("S5 failed: load holdings: %w", err)
	}
	reconciled := portfolio.Reconcile(snapshot.Holdings, top)
	packet.Portfolio = contracts.PortfolioBlock{Holdings: snapshot.Holdings, Reconciled: reconciled}
	t.done(len(snapshot.Holdings), len(reconciled), snapshot.Source)

	// S6: sentiment over the recommended tickers
	t = o.begin(packet, contracts.StageSentiment)
	tickers := make([]string, 0, len(top))
	for _, rec := range top {
		tickers = append(tickers, rec.AssetID)
	}
	news := o.deps.News.Collect(ctx, tickers)
	social := o.deps.Social.Collect(ctx, tickers)
	packet.Sentiment = contracts.SentimentSummary{News: news, Social: social}
	t.done(len(tickers), len(news)+len(social), "")
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("S6 failed: %w", err)
	}

	// S7: advice + persistence
	t = o.begin(packet, contracts.StageAdvice)
	packet.MarketOverview = contracts.MarketOverview{
		GeneratedAt:      o.now(),
		AssetsConsidered: unified.Len(),
		AssetBreakdown:   unified.AssetBreakdown(),
	}
	req := contracts.AdviceRequest{
		MarketOverview:  packet.MarketOverview,
		Recommendations: packet.Recommendations,
		Portfolio:       packet.Portfolio,
		Sentiment:       packet.Sentiment,
	}
	packet.Advice = o.deps.Advisor.Generate(ctx, req)

	if err := o.persist(ctx, packet, unified); err != nil {
		return fmt.Errorf("S7 failed: %w", err)
	}
	t.done(len(top), 1, packet.Advice.Provider)

	return nil
}

// persist writes the run artifacts, named by the run date.
func (o *Orchestrator) persist(ctx context.Context, packet *contracts.AdvicePacket, unified contracts.UnifiedTable) error {
	if o.deps.Artifacts == nil {
		return nil
	}
	date := packet.MarketOverview.GeneratedAt
	artifacts := []struct {
		category string
		name     string
		payload  any
	}{
		{"processed", storage.ArtifactName("market", date), unified},
		{"sentiment", storage.ArtifactName("news", date), packet.Sentiment.News},
		{"sentiment", storage.ArtifactName("social", date), packet.Sentiment.Social},
		{"advice", storage.ArtifactName("advice", date), packet.Advice},
	}
	for _, a := range artifacts {
		if err := o.deps.Artifacts.Write(ctx, a.category, a.name, a.payload); err != nil {
			return fmt.Errorf("persist %s/%s: %w", a.category, a.name, err)
		}
	}
	return nil
}

// publish hands the packet to the optional sinks. Sink failures are logged only.
func (o *Orchestrator) publish(ctx context.Context, packet *contracts.AdvicePacket) {
	o.mu.Lock()
	o.latest = packet
	o.mu.Unlock()

	if o.deps.Latest != nil {
		if err := o.deps.Latest.Set(ctx, redis.LatestPacketKey(), packet, redis.TTLDaily); err != nil {
			o.logger.WithError(err).Warn("Failed to cache latest packet")
		}
	}

	for _, sink := range o.deps.Sinks {
		if err := sink.Save(ctx, packet); err != nil {
			o.logger.WithError(err).WithFields(map[string]interface{}{
				"run_id": packet.RunID,
				"sink":   sink.Name(),
			}).Warn("Failed to deliver advice packet")
		}
	}
}

// Latest returns the packet of the last successful run, or nil.
func (o *Orchestrator) Latest() *contracts.AdvicePacket {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.latest
}
