package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/config"
	"github.com/wonny/pitviper/backend/pkg/httputil"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

var runAt = time.Date(2024, 3, 1, 1, 30, 0, 0, time.UTC)

func samplePacket() *contracts.AdvicePacket {
	return &contracts.AdvicePacket{
		RunID: "run-1",
		MarketOverview: contracts.MarketOverview{
			GeneratedAt:      runAt,
			AssetsConsidered: 3,
		},
		Recommendations: contracts.RecommendationBlock{Top: []contracts.Recommendation{
			{AssetID: "SPY", AssetType: contracts.AssetEquity, CompositeScore: 0.75},
			{AssetID: "BTC-USD", AssetType: contracts.AssetCrypto, CompositeScore: 0.5},
		}},
		Advice: contracts.Advice{Summary: "Stay diversified.", Provider: "mock"},
	}
}

func TestDataStore_WriteJSONAndRead(t *testing.T) {
	store := NewDataStore(t.TempDir(), logger.Nop())
	packet := samplePacket()

	require.NoError(t, store.Write(context.Background(), "advice", ArtifactName("advice", runAt), packet))

	_, err := os.Stat(filepath.Join(store.Root(), "advice", "advice_20240301.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(store.Root(), "advice", "advice_20240301.csv"))
	assert.True(t, os.IsNotExist(err), "packets are not tabular")

	var got contracts.AdvicePacket
	require.NoError(t, store.ReadJSON("advice", "advice_20240301", &got))
	assert.Equal(t, packet.RunID, got.RunID)
	assert.Equal(t, packet.Recommendations.Top, got.Recommendations.Top)
}

func TestDataStore_TableWritesCSV(t *testing.T) {
	store := NewDataStore(t.TempDir(), logger.Nop())
	table := contracts.UnifiedTable{Rows: []contracts.SourcedRow{
		{AssetID: "SPY", AssetType: contracts.AssetEquity, Currency: "USD", Close: 510.5, Open: 509, High: 512, Low: 508, Volume: 1e6, AsOf: runAt, Description: "S&P 500, ETF"},
	}}

	require.NoError(t, store.Write(context.Background(), "processed", "market_20240301", table))

	f, err := os.Open(filepath.Join(store.Root(), "processed", "market_20240301.csv"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "asset_id", records[0][0])
	assert.Equal(t, []string{"SPY", "equity", "USD", "510.5", "509", "512", "508", "1e+06", "2024-03-01T01:30:00Z", "S&P 500, ETF"}, records[1])
}

func TestDataStore_SentimentCSV(t *testing.T) {
	store := NewDataStore(t.TempDir(), logger.Nop())
	recs := []contracts.SentimentRecord{{Ticker: "AAPL", SentimentScore: 0.42, Source: "mock"}}

	require.NoError(t, store.Write(context.Background(), "sentiment", "news_20240301", recs))

	data, err := os.ReadFile(filepath.Join(store.Root(), "sentiment", "news_20240301.csv"))
	require.NoError(t, err)
	assert.Equal(t, "ticker,sentiment_score,source\nAAPL,0.42,mock\n", string(data))
}

func TestDataStore_InvalidNames(t *testing.T) {
	store := NewDataStore(t.TempDir(), logger.Nop())

	tests := []struct {
		name     string
		category string
		artifact string
	}{
		{"empty category", "", "x"},
		{"empty name", "raw", ""},
		{"slash in name", "raw", "a/b"},
		{"parent category", "../escape", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.Write(context.Background(), tt.category, tt.artifact, map[string]int{}))
		})
	}
}

func TestDataStore_CancelledContext(t *testing.T) {
	store := NewDataStore(t.TempDir(), logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Write(ctx, "raw", "x", 1), context.Canceled)
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "market_20240301", ArtifactName("market", runAt))
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Save(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "pitviper.advice"}

	require.NoError(t, p.Save(context.Background(), samplePacket()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "run-1", string(w.msgs[0].Key))

	var decoded contracts.AdvicePacket
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "Stay diversified.", decoded.Advice.Summary)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_Error(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}, topic: "t"}
	err := p.Save(context.Background(), samplePacket())
	assert.ErrorContains(t, err, "broker down")
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(config.KafkaConfig{Topic: "t"})
	assert.Error(t, err)

	p, err := NewKafkaPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NoError(t, err)
	assert.Equal(t, "kafka", p.Name())
	require.NoError(t, p.Close())
}

func TestSlackNotifier(t *testing.T) {
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	n := NewSlackNotifier(client, server.URL)

	require.NoError(t, n.Save(context.Background(), samplePacket()))
	assert.Contains(t, body["text"], "1. SPY (equity) score 0.750")
	assert.Contains(t, body["text"], "Stay diversified.")
}

func TestSlackNotifier_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	err := NewSlackNotifier(client, server.URL).Save(context.Background(), samplePacket())
	assert.Equal(t, httputil.KindClient, httputil.KindOf(err))
}

func TestPostgresRepository(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewPostgresRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	packet := samplePacket()
	packet.RunID = "test-" + time.Now().Format("150405.000000")
	require.NoError(t, repo.Save(ctx, packet))

	latest, err := repo.LatestPacket(ctx)
	require.NoError(t, err)
	assert.Equal(t, packet.RunID, latest.RunID)
	assert.Equal(t, packet.Recommendations.Top, latest.Recommendations.Top)
}
