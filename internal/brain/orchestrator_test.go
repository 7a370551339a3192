package brain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pitviper/backend/internal/advice"
	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/internal/portfolio"
	"github.com/wonny/pitviper/backend/internal/s1_unify"
	"github.com/wonny/pitviper/backend/internal/s2_features"
	"github.com/wonny/pitviper/backend/internal/selection"
	"github.com/wonny/pitviper/backend/internal/storage"
	"github.com/wonny/pitviper/backend/pkg/logger"
	"github.com/wonny/pitviper/backend/pkg/metrics"
)

var runAt = time.Date(2024, 3, 1, 1, 30, 0, 0, time.UTC)

type fakeCollector struct {
	results []contracts.SourceResult
}

func (f fakeCollector) Collect(context.Context) []contracts.SourceResult {
	return f.results
}

type fakeHoldings struct {
	snapshot *contracts.PortfolioSnapshot
	err      error
}

func (f fakeHoldings) Load(context.Context) (*contracts.PortfolioSnapshot, error) {
	return f.snapshot, f.err
}

type fakeSentiment struct {
	source string
	got    []string
}

func (f *fakeSentiment) Collect(_ context.Context, tickers []string) []contracts.SentimentRecord {
	f.got = tickers
	out := make([]contracts.SentimentRecord, 0, len(tickers))
	for _, t := range tickers {
		out = append(out, contracts.SentimentRecord{Ticker: t, SentimentScore: 0.1, Source: f.source})
	}
	return out
}

type fakeSink struct {
	err   error
	saved []*contracts.AdvicePacket
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) Save(_ context.Context, p *contracts.AdvicePacket) error {
	f.saved = append(f.saved, p)
	return f.err
}

func sourceResults() []contracts.SourceResult {
	row := func(id string, t contracts.AssetType, close, vol float64) contracts.RawRow {
		return contracts.RawRow{AssetID: id, AssetType: t, Close: close, High: close * 1.01, Low: close * 0.99, Volume: vol, AsOf: runAt}
	}
	return []contracts.SourceResult{
		{
			AssetType: contracts.AssetCrypto,
			Rows:      []contracts.RawRow{row("BTC-USD", contracts.AssetCrypto, 60000, 5e4)},
			Metadata:  contracts.SourceMetadata{AssetType: contracts.AssetCrypto, Source: "coinbase", Count: 1},
		},
		{
			AssetType: contracts.AssetEquity,
			Rows: []contracts.RawRow{
				row("SPY", contracts.AssetEquity, 500, 8e7),
				row("QQQ", contracts.AssetEquity, 430, 4e7),
				{AssetID: nil, Close: 1.0},
			},
			Metadata: contracts.SourceMetadata{AssetType: contracts.AssetEquity, Source: contracts.SourceMock, Count: 3, UsedFallback: true},
		},
	}
}

type harness struct {
	orch   *Orchestrator
	news   *fakeSentiment
	social *fakeSentiment
	sink   *fakeSink
	dir    string
}

func newHarness(t *testing.T, holdings contracts.HoldingsProvider) harness {
	t.Helper()
	log := logger.Nop()
	dir := t.TempDir()
	h := harness{
		news:   &fakeSentiment{source: "mock"},
		social: &fakeSentiment{source: "social"},
		sink:   &fakeSink{err: errors.New("sink offline")},
		dir:    dir,
	}
	h.orch = NewOrchestrator(Deps{
		Collector: fakeCollector{results: sourceResults()},
		Unifier:   s1_unify.NewUnifier(log),
		Features:  s2_features.NewEngine(s2_features.MomentumPerAsset, log),
		Scorer:    selection.NewScorer(selection.DefaultWeightConfig(), log),
		TopN:      2,
		Holdings:  holdings,
		News:      h.news,
		Social:    h.social,
		Advisor:   advice.NewMock(log),
		Artifacts: storage.NewDataStore(dir, log),
		Sinks:     []contracts.PacketSink{h.sink},
		Metrics:   metrics.New(),
	}, log)
	h.orch.now = func() time.Time { return runAt }
	return h
}

func TestRun_FullPipeline(t *testing.T) {
	h := newHarness(t, fakeHoldings{snapshot: portfolio.MockSnapshot()})

	packet, err := h.orch.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, packet.RunID)
	require.Len(t, packet.Stages, len(contracts.AllStages()))
	for i, stage := range contracts.AllStages() {
		assert.Equal(t, stage, packet.Stages[i].Stage)
	}
	assert.Equal(t, 4, packet.Stages[1].InputCount, "unify sees every raw row")
	assert.Equal(t, 3, packet.Stages[1].OutputCount, "row without id is dropped")

	assert.Equal(t, runAt, packet.MarketOverview.GeneratedAt)
	assert.Equal(t, 3, packet.MarketOverview.AssetsConsidered)
	assert.Equal(t, map[contracts.AssetType]int{contracts.AssetCrypto: 1, contracts.AssetEquity: 2}, packet.MarketOverview.AssetBreakdown)
	require.Len(t, packet.Sources, 2)
	assert.True(t, packet.Sources[1].UsedFallback)

	require.Len(t, packet.Recommendations.Top, 2)
	tickers := []string{packet.Recommendations.Top[0].AssetID, packet.Recommendations.Top[1].AssetID}
	assert.Equal(t, tickers, h.news.got)
	assert.Equal(t, tickers, h.social.got)
	assert.Len(t, packet.Sentiment.News, 2)

	assert.Len(t, packet.Portfolio.Holdings, 2)
	require.Len(t, packet.Portfolio.Reconciled, 2)
	for _, row := range packet.Portfolio.Reconciled {
		assert.Equal(t, row.AssetID == "SPY" || row.AssetID == "BTC-USD", row.InPortfolio)
	}

	assert.Equal(t, advice.MockSummary, packet.Advice.Summary)
	assert.Equal(t, packet.Recommendations, packet.Advice.Details.Recommendations)

	for _, rel := range []string{
		"processed/market_20240301.json",
		"processed/market_20240301.csv",
		"sentiment/news_20240301.json",
		"sentiment/social_20240301.json",
		"advice/advice_20240301.json",
	} {
		_, err := os.Stat(filepath.Join(h.dir, rel))
		assert.NoError(t, err, rel)
	}

	// a failing sink does not fail the run
	require.Len(t, h.sink.saved, 1)
	assert.Same(t, packet, h.orch.Latest())
}

func TestRun_HoldingsError(t *testing.T) {
	h := newHarness(t, fakeHoldings{err: errors.New("bad csv")})

	packet, err := h.orch.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "S5 failed")
	assert.Len(t, packet.Stages, 5)
	assert.Nil(t, h.orch.Latest())
	assert.Empty(t, h.sink.saved)
}

func TestRun_Cancelled(t *testing.T) {
	h := newHarness(t, fakeHoldings{snapshot: portfolio.MockSnapshot()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.orch.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_DistinctRunIDs(t *testing.T) {
	h := newHarness(t, fakeHoldings{snapshot: portfolio.MockSnapshot()})

	first, err := h.orch.Run(context.Background())
	require.NoError(t, err)
	second, err := h.orch.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Same(t, second, h.orch.Latest())
}

func TestNewOrchestrator_DefaultTopN(t *testing.T) {
	o := NewOrchestrator(Deps{}, logger.Nop())
	assert.Equal(t, DefaultTopN, o.deps.TopN)
}
