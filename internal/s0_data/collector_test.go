package s0_data

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
	"github.com/wonny/pitviper/backend/pkg/redis"
)

func testUniverse() map[contracts.AssetType][]string {
	return map[contracts.AssetType][]string{
		contracts.AssetCrypto:    {"BTC-USD", "ETH-USD"},
		contracts.AssetEquity:    {"AAPL"},
		contracts.AssetFund:      {"VTI"},
		contracts.AssetBond:      {"DGS10"},
		contracts.AssetCommodity: {"GC=F"},
	}
}

func TestCollectorSequentialAndParallelAgree(t *testing.T) {
	providers := map[contracts.AssetType]contracts.SourceProvider{
		contracts.AssetEquity: &fakeProvider{name: "yahoo", rows: []contracts.RawRow{{AssetID: "AAPL", Close: 190.0}}},
		contracts.AssetBond:   &fakeProvider{name: "fred", err: errors.New("no key")},
	}
	specs := BuildSpecs(testUniverse(), providers)

	seq := NewCollector(NewAdapter(logger.Nop(), nil), specs, false, logger.Nop()).Collect(context.Background())
	par := NewCollector(NewAdapter(logger.Nop(), nil), specs, true, logger.Nop()).Collect(context.Background())

	require.Len(t, seq, 5)
	require.Len(t, par, 5)
	for i := range seq {
		assert.Equal(t, seq[i].AssetType, par[i].AssetType)
		assert.Equal(t, seq[i].Metadata.Source, par[i].Metadata.Source)
		assert.Equal(t, seq[i].Metadata.Count, par[i].Metadata.Count)
	}

	assert.Equal(t, "yahoo", seq[1].Metadata.Source)
	assert.Equal(t, contracts.SourceMock, seq[3].Metadata.Source)
	assert.Equal(t, 2, seq[0].Metadata.Count)
}

func TestCachedProviderPassthrough(t *testing.T) {
	inner := &fakeProvider{name: "yahoo", rows: []contracts.RawRow{{AssetID: "SPY", Close: 500.0}}}
	cached := NewCachedProvider(inner, contracts.AssetEquity, redis.NewCache(redis.Disabled(), "test"), redis.TTLMedium)

	rows, err := cached.Fetch(context.Background(), []string{"SPY"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "yahoo", cached.Name())

	inner.err = errors.New("down")
	inner.rows = nil
	_, err = cached.Fetch(context.Background(), []string{"SPY"})
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}
