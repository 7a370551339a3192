package strategyconfig

import (
	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/internal/selection"
)

// Config is the full strategy used to select assets
type Config struct {
	Meta         Meta                   `yaml:"meta" json:"meta"`
	Weights      selection.WeightConfig `yaml:"weights" json:"weights"`
	TopN         int                    `yaml:"top_n" json:"top_n" default:"10" validate:"gte=0"`
	MomentumMode string                 `yaml:"momentum_mode" json:"momentum_mode" default:"per_asset" validate:"oneof=per_asset global"`
	Universe     Universe               `yaml:"universe" json:"universe"`
}

// Meta identifies the strategy
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id" default:"pit_viper_default" validate:"required"`
	Version    string `yaml:"version" json:"version" default:"1"`
}

// Asset is one symbol of the candidate universe.
type Asset struct {
	Symbol      string `yaml:"symbol" json:"symbol" validate:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Universe lists candidate symbols per asset class. A class left out of
// the file takes its default list; an explicit empty list disables it.
type Universe struct {
	Crypto    []Asset `yaml:"crypto" json:"crypto" validate:"dive"`
	Equity    []Asset `yaml:"equity" json:"equity" validate:"dive"`
	Fund      []Asset `yaml:"fund" json:"fund" validate:"dive"`
	Bond      []Asset `yaml:"bond" json:"bond" validate:"dive"`
	Commodity []Asset `yaml:"commodity" json:"commodity" validate:"dive"`
}

// DefaultUniverse returns the built-in candidate universe.
func DefaultUniverse() Universe {
	return Universe{
		Crypto: []Asset{{Symbol: "BTC-USD"}, {Symbol: "ETH-USD"}, {Symbol: "SOL-USD"}},
		Equity: []Asset{{Symbol: "AAPL"}, {Symbol: "MSFT"}, {Symbol: "SPY"}},
		Fund:   []Asset{{Symbol: "VTI"}, {Symbol: "VXUS"}, {Symbol: "BND"}},
		Bond: []Asset{
			{Symbol: "DGS10", Description: "10Y Treasury"},
			{Symbol: "DGS2", Description: "2Y Treasury"},
			{Symbol: "BAMLH0A0HYM2", Description: "High Yield OAS"},
		},
		Commodity: []Asset{
			{Symbol: "GC=F", Description: "Gold Futures"},
			{Symbol: "CL=F", Description: "WTI Crude"},
			{Symbol: "SI=F", Description: "Silver Futures"},
		},
	}
}

// Class returns the assets configured for an asset type.
func (u Universe) Class(t contracts.AssetType) []Asset {
	switch t {
	case contracts.AssetCrypto:
		return u.Crypto
	case contracts.AssetEquity:
		return u.Equity
	case contracts.AssetFund:
		return u.Fund
	case contracts.AssetBond:
		return u.Bond
	case contracts.AssetCommodity:
		return u.Commodity
	}
	return nil
}

// Symbols returns symbols per asset type.
func (u Universe) Symbols() map[contracts.AssetType][]string {
	out := make(map[contracts.AssetType][]string, len(contracts.AllAssetTypes()))
	for _, t := range contracts.AllAssetTypes() {
		assets := u.Class(t)
		symbols := make([]string, 0, len(assets))
		for _, a := range assets {
			symbols = append(symbols, a.Symbol)
		}
		out[t] = symbols
	}
	return out
}

// Descriptions maps symbol to description for assets that carry one.
func (u Universe) Descriptions() map[string]string {
	out := make(map[string]string)
	for _, t := range contracts.AllAssetTypes() {
		for _, a := range u.Class(t) {
			if a.Description != "" {
				out[a.Symbol] = a.Description
			}
		}
	}
	return out
}

// Size returns the total number of symbols.
func (u Universe) Size() int {
	n := 0
	for _, t := range contracts.AllAssetTypes() {
		n += len(u.Class(t))
	}
	return n
}

// fillMissing replaces classes absent from the file with their defaults.
func (u *Universe) fillMissing() {
	def := DefaultUniverse()
	if u.Crypto == nil {
		u.Crypto = def.Crypto
	}
	if u.Equity == nil {
		u.Equity = def.Equity
	}
	if u.Fund == nil {
		u.Fund = def.Fund
	}
	if u.Bond == nil {
		u.Bond = def.Bond
	}
	if u.Commodity == nil {
		u.Commodity = def.Commodity
	}
}
