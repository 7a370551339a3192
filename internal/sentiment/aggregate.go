package sentiment

import (
	"sort"

	"github.com/wonny/pitviper/backend/internal/contracts"
)

// ScoredText is one headline or post with its ticker and score.
type ScoredText struct {
	Ticker    string  `json:"ticker"`
	Text      string  `json:"text"`
	Origin    string  `json:"origin"` // news outlet or social platform
	Sentiment float64 `json:"sentiment"`
}

// aggregate averages scores per ticker, ordered by ticker. Texts without
// a ticker are left out.
func aggregate(items []ScoredText, source string) []contracts.SentimentRecord {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, it := range items {
		if it.Ticker == "" {
			continue
		}
		sums[it.Ticker] += it.Sentiment
		counts[it.Ticker]++
	}

	out := make([]contracts.SentimentRecord, 0, len(sums))
	for ticker, sum := range sums {
		out = append(out, contracts.SentimentRecord{
			Ticker:         ticker,
			SentimentScore: sum / float64(counts[ticker]),
			Source:         source,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}
