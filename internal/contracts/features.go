package contracts

// FeatureRow is a unified row with derived signals. No field is NaN or Inf.
type FeatureRow struct {
	SourcedRow
	LogClose        float64 `json:"log_close"`
	LiquidityScore  float64 `json:"liquidity_score"`
	VolatilityProxy float64 `json:"volatility_proxy"`
	MomentumProxy   float64 `json:"momentum_proxy"`
	ValuationProxy  float64 `json:"valuation_proxy"`
}

// FeatureTable is the S2 output, in unified order.
type FeatureTable struct {
	Rows []FeatureRow `json:"rows"`
}

// Len returns the number of rows.
func (t FeatureTable) Len() int {
	return len(t.Rows)
}

// ComponentScores are the five normalized score components.
type ComponentScores struct {
	Valuation       float64 `json:"valuation_score"`
	Momentum        float64 `json:"momentum_score"`
	Liquidity       float64 `json:"liquidity_score_norm"`
	Risk            float64 `json:"risk_score"`
	Diversification float64 `json:"diversification_score"`
}

// ScoredRow is a feature row with its component and composite scores.
type ScoredRow struct {
	FeatureRow
	ComponentScores
	CompositeScore float64 `json:"composite_score"`
}

// ScoredTable is ordered by CompositeScore descending; ties keep input order.
type ScoredTable struct {
	Rows []ScoredRow `json:"rows"`
}

// Len returns the number of rows.
func (t ScoredTable) Len() int {
	return len(t.Rows)
}

// Recommendation is the reporting projection of a scored row.
type Recommendation struct {
	AssetID         string    `json:"asset_id"`
	AssetType       AssetType `json:"asset_type"`
	CompositeScore  float64   `json:"composite_score"`
	Close           float64   `json:"close"`
	MomentumProxy   float64   `json:"momentum_proxy"`
	VolatilityProxy float64   `json:"volatility_proxy"`
	LiquidityScore  float64   `json:"liquidity_score"`
}
