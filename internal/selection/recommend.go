package selection

import "github.com/wonny/pitviper/backend/internal/contracts"

// SummarizeRecommendations projects the first topN scored rows onto the
// reporting columns. topN <= 0 yields an empty list.
func SummarizeRecommendations(scored contracts.ScoredTable, topN int) []contracts.Recommendation {
	if topN <= 0 {
		return []contracts.Recommendation{}
	}
	n := min(topN, len(scored.Rows))

	out := make([]contracts.Recommendation, 0, n)
	for _, r := range scored.Rows[:n] {
		out = append(out, Project(r))
	}
	return out
}

// Project maps one scored row onto the reporting columns.
func Project(r contracts.ScoredRow) contracts.Recommendation {
	return contracts.Recommendation{
		AssetID:         r.AssetID,
		AssetType:       r.AssetType,
		CompositeScore:  r.CompositeScore,
		Close:           r.Close,
		MomentumProxy:   r.MomentumProxy,
		VolatilityProxy: r.VolatilityProxy,
		LiquidityScore:  r.LiquidityScore,
	}
}
