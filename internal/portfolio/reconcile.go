package portfolio

import "github.com/wonny/pitviper/backend/internal/contracts"

type holdingKey struct {
	assetID   string
	assetType contracts.AssetType
}

// Reconcile left-joins recommendations against holdings on
// (asset_id, asset_type). Either side empty yields an empty result.
// Every recommendation is kept; it repeats only when its holding key does.
func Reconcile(holdings []contracts.HoldingRecord, recs []contracts.Recommendation) []contracts.ReconciledRow {
	if len(holdings) == 0 || len(recs) == 0 {
		return []contracts.ReconciledRow{}
	}

	byKey := make(map[holdingKey][]contracts.HoldingRecord, len(holdings))
	for _, h := range holdings {
		k := holdingKey{h.AssetID, h.AssetType}
		byKey[k] = append(byKey[k], h)
	}

	out := make([]contracts.ReconciledRow, 0, len(recs))
	for _, rec := range recs {
		matches := byKey[holdingKey{rec.AssetID, rec.AssetType}]
		if len(matches) == 0 {
			out = append(out, contracts.ReconciledRow{Recommendation: rec})
			continue
		}
		for _, h := range matches {
			quantity, costBasis, source := h.Quantity, h.CostBasis, h.Source
			out = append(out, contracts.ReconciledRow{
				Recommendation: rec,
				Quantity:       &quantity,
				CostBasis:      &costBasis,
				HoldingSource:  &source,
				PositionDelta:  quantity,
				InPortfolio:    true,
			})
		}
	}
	return out
}
