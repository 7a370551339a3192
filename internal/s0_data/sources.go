package s0_data

import (
	"context"

	"github.com/wonny/pitviper/backend/internal/contracts"
)

// BuildSpecs binds each asset class in universe order to its provider.
// A class without a provider always serves offline data.
func BuildSpecs(universe map[contracts.AssetType][]string, providers map[contracts.AssetType]contracts.SourceProvider) []ClassSpec {
	specs := make([]ClassSpec, 0, len(universe))
	for _, assetType := range contracts.AllAssetTypes() {
		symbols, ok := universe[assetType]
		if !ok {
			continue
		}
		symbols = append([]string(nil), symbols...)

		spec := ClassSpec{
			AssetType: assetType,
			Provider:  contracts.SourceMock,
			Symbols:   symbols,
			Fallback:  MockFallback(assetType),
		}
		if p, ok := providers[assetType]; ok && p != nil {
			spec.Provider = p.Name()
			spec.Fetch = func(ctx context.Context) ([]contracts.RawRow, error) {
				return p.Fetch(ctx, symbols)
			}
		}
		specs = append(specs, spec)
	}
	return specs
}
