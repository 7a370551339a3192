package sentiment

import (
	"context"
	"strings"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

const SourceSocial = "social"

// mockPosts stand in for Reddit, X and StockTwits until their APIs are wired.
var mockPosts = []ScoredText{
	{Ticker: "SPY", Text: "SPY looks strong into earnings", Origin: "reddit"},
	{Ticker: "BTC-USD", Text: "Bitcoin consolidating before breakout", Origin: "twitter"},
	{Ticker: "AAPL", Text: "AAPL might be overvalued", Origin: "stocktwits"},
}

// SocialCollector scores social posts.
type SocialCollector struct {
	analyzer *Analyzer
	sources  map[string]map[string]string
	logger   *logger.Logger
}

// NewSocialCollector creates a SocialCollector. sources is the decoded
// PIT_VIPER_SENTIMENT_SOURCES object; a platform with "enabled": "false"
// is skipped.
func NewSocialCollector(analyzer *Analyzer, sources map[string]map[string]string, log *logger.Logger) *SocialCollector {
	return &SocialCollector{
		analyzer: analyzer,
		sources:  sources,
		logger:   log.Module("sentiment_social"),
	}
}

// Collect implements contracts.SentimentCollector.
func (c *SocialCollector) Collect(ctx context.Context, tickers []string) []contracts.SentimentRecord {
	return aggregate(c.Posts(ctx), SourceSocial)
}

// Posts returns the scored posts of every enabled platform.
func (c *SocialCollector) Posts(ctx context.Context) []ScoredText {
	posts := make([]ScoredText, 0, len(mockPosts))
	for _, p := range mockPosts {
		if !c.enabled(p.Origin) {
			continue
		}
		p.Sentiment = c.analyzer.Compound(p.Text)
		posts = append(posts, p)
	}

	c.logger.WithField("posts", len(posts)).Debug("Scored social posts")
	return posts
}

func (c *SocialCollector) enabled(platform string) bool {
	settings, ok := c.sources[platform]
	if !ok {
		return true
	}
	return !strings.EqualFold(settings["enabled"], "false")
}
