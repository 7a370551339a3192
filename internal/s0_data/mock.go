package s0_data

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/wonny/pitviper/backend/internal/contracts"
)

// GenerateMockPrices synthesizes one offline row per symbol. Values depend
// only on the symbol and its position, so repeated calls agree.
func GenerateMockPrices(symbols []string, assetType contracts.AssetType, now time.Time) []contracts.RawRow {
	rows := make([]contracts.RawRow, 0, len(symbols))
	for idx, symbol := range symbols {
		rng := rand.New(rand.NewPCG(symbolSeed(symbol), 0))
		uniform := func(lo, hi float64) float64 {
			return lo + (hi-lo)*rng.Float64()
		}

		base := 10 + float64(idx)*5
		closePrice := base * uniform(0.95, 1.05)

		rows = append(rows, contracts.RawRow{
			AssetID:   symbol,
			AssetType: assetType,
			Currency:  "USD",
			Close:     round2(closePrice),
			Open:      round2(closePrice * uniform(0.98, 1.02)),
			High:      round2(closePrice * uniform(1.00, 1.05)),
			Low:       round2(closePrice * uniform(0.95, 1.00)),
			Volume:    int64(1_000 + rng.IntN(999_000)),
			AsOf:      now,
		})
	}
	return rows
}

// MockFallback adapts GenerateMockPrices to ClassSpec.Fallback.
func MockFallback(assetType contracts.AssetType) func([]string, time.Time) []contracts.RawRow {
	return func(symbols []string, now time.Time) []contracts.RawRow {
		return GenerateMockPrices(symbols, assetType, now)
	}
}

func symbolSeed(symbol string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return h.Sum64()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
