package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pitviper/backend/internal/contracts"
)

func recs() []contracts.Recommendation {
	return []contracts.Recommendation{
		{AssetID: "SPY", AssetType: contracts.AssetEquity, CompositeScore: 0.9, Close: 510},
		{AssetID: "BTC-USD", AssetType: contracts.AssetCrypto, CompositeScore: 0.7, Close: 61000},
		{AssetID: "DGS10", AssetType: contracts.AssetBond, CompositeScore: 0.6, Close: 4.3},
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	assert.Empty(t, Reconcile(nil, recs()))
	assert.Empty(t, Reconcile(MockSnapshot().Holdings, nil))
	assert.NotNil(t, Reconcile(nil, nil))
}

func TestReconcileLeftJoin(t *testing.T) {
	holdings := []contracts.HoldingRecord{
		{AssetID: "SPY", AssetType: contracts.AssetEquity, Quantity: 10, CostBasis: 4000, Source: "mock"},
		// same id, different class: must not match
		{AssetID: "BTC-USD", AssetType: contracts.AssetEquity, Quantity: 3, Source: "mock"},
	}

	out := Reconcile(holdings, recs())
	require.Len(t, out, 3)

	spy := out[0]
	assert.Equal(t, "SPY", spy.AssetID)
	assert.True(t, spy.InPortfolio)
	assert.Equal(t, 10.0, spy.PositionDelta)
	require.NotNil(t, spy.Quantity)
	assert.Equal(t, 10.0, *spy.Quantity)
	require.NotNil(t, spy.CostBasis)
	assert.Equal(t, 4000.0, *spy.CostBasis)
	require.NotNil(t, spy.HoldingSource)
	assert.Equal(t, "mock", *spy.HoldingSource)

	for _, row := range out[1:] {
		assert.False(t, row.InPortfolio)
		assert.Equal(t, 0.0, row.PositionDelta)
		assert.Nil(t, row.Quantity)
		assert.Nil(t, row.CostBasis)
		assert.Nil(t, row.HoldingSource)
	}
	assert.Equal(t, recs()[2], out[2].Recommendation)
}

func TestReconcileMatchedZeroQuantityIsInPortfolio(t *testing.T) {
	holdings := []contracts.HoldingRecord{{AssetID: "DGS10", AssetType: contracts.AssetBond}}

	out := Reconcile(holdings, recs())
	require.Len(t, out, 3)
	assert.True(t, out[2].InPortfolio)
	assert.Equal(t, 0.0, out[2].PositionDelta)
}

func TestReconcileDuplicateHoldingKeys(t *testing.T) {
	holdings := []contracts.HoldingRecord{
		{AssetID: "SPY", AssetType: contracts.AssetEquity, Quantity: 1, Source: "fidelity"},
		{AssetID: "SPY", AssetType: contracts.AssetEquity, Quantity: 2, Source: "schwab"},
	}

	out := Reconcile(holdings, recs())
	require.Len(t, out, 4)
	assert.Equal(t, 1.0, out[0].PositionDelta)
	assert.Equal(t, 2.0, out[1].PositionDelta)
	assert.Equal(t, "BTC-USD", out[2].AssetID)
}
