package contracts

// HoldingRecord is one held position supplied by the portfolio provider.
type HoldingRecord struct {
	AssetID   string    `json:"asset_id"`
	AssetType AssetType `json:"asset_type"`
	Quantity  float64   `json:"quantity"`
	CostBasis float64   `json:"cost_basis"`
	Source    string    `json:"source"`
}

// PortfolioSnapshot is the holdings table plus where it came from.
type PortfolioSnapshot struct {
	Holdings []HoldingRecord `json:"holdings"`
	Source   string          `json:"source"` // "file" or "mock"
}

// ReconciledRow is a recommendation left-joined with a matching holding.
// Holding fields are nil when no holding matched.
type ReconciledRow struct {
	Recommendation
	Quantity      *float64 `json:"quantity"`
	CostBasis     *float64 `json:"cost_basis"`
	HoldingSource *string  `json:"source"`
	PositionDelta float64  `json:"position_delta"`
	InPortfolio   bool     `json:"in_portfolio"`
}
