package contracts

import (
	"fmt"
	"strings"
)

// AssetType is the asset class of a row.
type AssetType string

const (
	AssetEquity    AssetType = "equity"
	AssetFund      AssetType = "fund"
	AssetBond      AssetType = "bond"
	AssetCommodity AssetType = "commodity"
	AssetCrypto    AssetType = "crypto"
)

// AllAssetTypes returns the asset classes in collection order.
func AllAssetTypes() []AssetType {
	return []AssetType{AssetCrypto, AssetEquity, AssetFund, AssetBond, AssetCommodity}
}

// Valid reports whether a is a known asset class.
func (a AssetType) Valid() bool {
	switch a {
	case AssetEquity, AssetFund, AssetBond, AssetCommodity, AssetCrypto:
		return true
	}
	return false
}

// ParseAssetType accepts any casing and surrounding spaces.
func ParseAssetType(s string) (AssetType, error) {
	a := AssetType(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown asset type %q", s)
	}
	return a, nil
}
