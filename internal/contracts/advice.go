package contracts

import "time"

// MarketOverview summarizes the unified universe of a run.
type MarketOverview struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	AssetsConsidered int               `json:"assets_considered"`
	AssetBreakdown   map[AssetType]int `json:"asset_breakdown"`
}

// SentimentRecord is the mean sentiment of one ticker from one collector.
type SentimentRecord struct {
	Ticker         string  `json:"ticker"`
	SentimentScore float64 `json:"sentiment_score"`
	Source         string  `json:"source"`
}

// SentimentSummary groups news and social aggregates.
type SentimentSummary struct {
	News   []SentimentRecord `json:"news"`
	Social []SentimentRecord `json:"social"`
}

// RecommendationBlock wraps the top-N list.
type RecommendationBlock struct {
	Top []Recommendation `json:"top"`
}

// PortfolioBlock carries holdings and the reconciliation.
type PortfolioBlock struct {
	Holdings   []HoldingRecord `json:"holdings"`
	Reconciled []ReconciledRow `json:"reconciled"`
}

// AdviceRequest is the payload handed to the advice generator.
type AdviceRequest struct {
	MarketOverview  MarketOverview      `json:"market_overview"`
	Recommendations RecommendationBlock `json:"recommendations"`
	Portfolio       PortfolioBlock      `json:"portfolio"`
	Sentiment       SentimentSummary    `json:"sentiment"`
}

// Advice is the generated summary together with the payload it was based on.
type Advice struct {
	Summary  string        `json:"summary"`
	Provider string        `json:"provider"`
	Details  AdviceRequest `json:"details"`
}

// AdvicePacket is the output of one daily run.
type AdvicePacket struct {
	RunID           string              `json:"run_id"`
	StrategyHash    string              `json:"strategy_hash,omitempty"`
	MarketOverview  MarketOverview      `json:"market_overview"`
	Recommendations RecommendationBlock `json:"recommendations"`
	Portfolio       PortfolioBlock      `json:"portfolio"`
	Sentiment       SentimentSummary    `json:"sentiment"`
	Advice          Advice              `json:"advice"`
	Sources         []SourceMetadata    `json:"sources"`
	Stages          []StageResult       `json:"stages"`
}
