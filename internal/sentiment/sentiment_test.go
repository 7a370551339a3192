package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/internal/external/newsapi"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

type fakeArticles struct {
	articles []newsapi.Article
	err      error
}

func (f *fakeArticles) Everything(ctx context.Context, tickers []string) ([]newsapi.Article, error) {
	return f.articles, f.err
}

func article(title, outlet string) newsapi.Article {
	a := newsapi.Article{Title: title}
	a.Source.Name = outlet
	return a
}

func TestCollectNews_Live(t *testing.T) {
	source := &fakeArticles{articles: []newsapi.Article{
		article("SPY gains as strong jobs data lifts markets", "Wire"),
		article("SPY slump deepens", "Desk"),
		article("BTC-USD soars to record", "Coins"),
		article("Central bank meeting today", "Wire"),
	}}
	c := NewNewsCollector(source, NewAnalyzer(), logger.Nop())

	result := c.CollectNews(context.Background(), []string{"SPY", "BTC-USD"})
	assert.False(t, result.UsedFallback)
	require.Len(t, result.Articles, 4)
	assert.Equal(t, "", result.Articles[3].Ticker)

	require.Len(t, result.Aggregated, 2)
	assert.Equal(t, "BTC-USD", result.Aggregated[0].Ticker)
	assert.Equal(t, "SPY", result.Aggregated[1].Ticker)
	for _, rec := range result.Aggregated {
		assert.Equal(t, SourceNewsAPI, rec.Source)
	}
	wantSPY := (result.Articles[0].Sentiment + result.Articles[1].Sentiment) / 2
	assert.InDelta(t, wantSPY, result.Aggregated[1].SentimentScore, 1e-12)
}

func TestCollectNews_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		source ArticleSource
	}{
		{"no source", nil},
		{"error", &fakeArticles{err: errors.New("boom")}},
		{"no articles", &fakeArticles{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewNewsCollector(tt.source, NewAnalyzer(), logger.Nop())
			records := c.Collect(context.Background(), []string{"SPY"})

			require.Len(t, records, 2)
			assert.Equal(t, "AAPL", records[0].Ticker)
			assert.Greater(t, records[0].SentimentScore, 0.0)
			assert.Equal(t, "CL=F", records[1].Ticker)
			assert.Less(t, records[1].SentimentScore, 0.0)
			assert.Equal(t, contracts.SourceMock, records[0].Source)
		})
	}
}

func TestSocialCollector(t *testing.T) {
	c := NewSocialCollector(NewAnalyzer(), nil, logger.Nop())
	records := c.Collect(context.Background(), nil)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"AAPL", "BTC-USD", "SPY"}, []string{records[0].Ticker, records[1].Ticker, records[2].Ticker})
	assert.Less(t, records[0].SentimentScore, 0.0)
	assert.Greater(t, records[2].SentimentScore, 0.0)
	for _, r := range records {
		assert.Equal(t, SourceSocial, r.Source)
	}
}

func TestSocialCollector_DisabledPlatform(t *testing.T) {
	sources := map[string]map[string]string{"twitter": {"enabled": "false"}}
	c := NewSocialCollector(NewAnalyzer(), sources, logger.Nop())

	records := c.Collect(context.Background(), nil)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.NotEqual(t, "BTC-USD", r.Ticker)
	}
}

func TestMatchTicker(t *testing.T) {
	tickers := []string{"SPY", "CL=F"}
	assert.Equal(t, "SPY", matchTicker("Why $SPY dipped", tickers))
	assert.Equal(t, "CL=F", matchTicker("Crude (CL=F) steady", tickers))
	assert.Equal(t, "", matchTicker("SPYGLASS launches", tickers))
}
