package sentiment

import (
	"context"
	"errors"
	"strings"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/internal/external/newsapi"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

const SourceNewsAPI = "newsapi"

// ArticleSource searches news articles for tickers.
type ArticleSource interface {
	Everything(ctx context.Context, tickers []string) ([]newsapi.Article, error)
}

// fallbackHeadlines are scored when no live articles are available.
var fallbackHeadlines = []ScoredText{
	{Ticker: "AAPL", Text: "Tech stocks rally on strong earnings", Origin: contracts.SourceMock},
	{Ticker: "CL=F", Text: "Oil prices fall amid supply concerns", Origin: contracts.SourceMock},
}

// NewsResult is the scored article list plus its per-ticker aggregate.
type NewsResult struct {
	Articles     []ScoredText                `json:"articles"`
	Aggregated   []contracts.SentimentRecord `json:"aggregated"`
	UsedFallback bool                        `json:"used_fallback"`
}

// NewsCollector scores news headlines for the recommended tickers.
type NewsCollector struct {
	source   ArticleSource
	analyzer *Analyzer
	logger   *logger.Logger
}

// NewNewsCollector creates a NewsCollector. source may be nil, in which
// case the canned headlines are always used.
func NewNewsCollector(source ArticleSource, analyzer *Analyzer, log *logger.Logger) *NewsCollector {
	return &NewsCollector{
		source:   source,
		analyzer: analyzer,
		logger:   log.Module("sentiment_news"),
	}
}

// Collect implements contracts.SentimentCollector.
func (c *NewsCollector) Collect(ctx context.Context, tickers []string) []contracts.SentimentRecord {
	return c.CollectNews(ctx, tickers).Aggregated
}

// CollectNews searches articles, scores their titles and averages per
// ticker. A missing key, an error or zero articles switch to the canned
// headlines and report source "mock".
func (c *NewsCollector) CollectNews(ctx context.Context, tickers []string) NewsResult {
	articles, err := c.search(ctx, tickers)
	if err == nil && len(articles) == 0 {
		err = errors.New("no articles from newsapi")
	}

	var items []ScoredText
	source := SourceNewsAPI
	if err != nil {
		c.logger.WithError(err).Warn("Falling back to canned headlines")
		items = append(items, fallbackHeadlines...)
		source = contracts.SourceMock
	} else {
		for _, a := range articles {
			items = append(items, ScoredText{
				Ticker: matchTicker(a.Title+" "+a.Description, tickers),
				Text:   a.Title,
				Origin: a.Source.Name,
			})
		}
	}

	for i := range items {
		items[i].Sentiment = c.analyzer.Compound(items[i].Text)
	}

	return NewsResult{
		Articles:     items,
		Aggregated:   aggregate(items, source),
		UsedFallback: source == contracts.SourceMock,
	}
}

func (c *NewsCollector) search(ctx context.Context, tickers []string) ([]newsapi.Article, error) {
	if c.source == nil {
		return nil, errors.New("no news source configured")
	}
	return c.source.Everything(ctx, tickers)
}

// matchTicker returns the first ticker mentioned as a whole word in text.
func matchTicker(text string, tickers []string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == ':' || r == ';' || r == '(' || r == ')' || r == '$' || r == '"'
	})
	for _, t := range tickers {
		for _, w := range words {
			if strings.EqualFold(w, t) {
				return t
			}
		}
	}
	return ""
}
