package s0_data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pitviper/backend/internal/contracts"
)

func TestGenerateMockPricesDeterministic(t *testing.T) {
	now := time.Now().UTC()
	symbols := []string{"BTC-USD", "ETH-USD", "SOL-USD"}

	first := GenerateMockPrices(symbols, contracts.AssetCrypto, now)
	second := GenerateMockPrices(symbols, contracts.AssetCrypto, now)

	assert.Equal(t, first, second)
}

func TestGenerateMockPricesRanges(t *testing.T) {
	symbols := []string{"AAPL", "MSFT", "SPY", "VTI", "DGS10"}
	rows := GenerateMockPrices(symbols, contracts.AssetEquity, time.Now())
	require.Len(t, rows, len(symbols))

	for idx, row := range rows {
		base := 10 + float64(idx)*5
		closePrice := row.Close.(float64)
		high := row.High.(float64)
		low := row.Low.(float64)
		open := row.Open.(float64)
		volume := row.Volume.(int64)

		assert.Equal(t, symbols[idx], row.AssetID)
		assert.Equal(t, "USD", row.Currency)
		assert.InDelta(t, base, closePrice, base*0.05+0.01)
		assert.GreaterOrEqual(t, high, closePrice-0.01)
		assert.LessOrEqual(t, low, closePrice+0.01)
		assert.InDelta(t, closePrice, open, closePrice*0.02+0.01)
		assert.GreaterOrEqual(t, volume, int64(1_000))
		assert.Less(t, volume, int64(1_000_000))
		assert.Equal(t, round2(closePrice), closePrice)
	}
}

func TestGenerateMockPricesEmpty(t *testing.T) {
	assert.Empty(t, GenerateMockPrices(nil, contracts.AssetFund, time.Now()))
}
