package contracts

import "time"

// SourceMock is the source name reported when offline data was substituted.
const SourceMock = "mock"

// RawRow is one observation as a provider returned it. Values are
// loosely typed; the unifier coerces them into a SourcedRow.
type RawRow struct {
	AssetID     any       `json:"asset_id"`
	AssetType   AssetType `json:"asset_type"`
	Currency    string    `json:"currency"`
	Close       any       `json:"close"`
	Open        any       `json:"open,omitempty"`
	High        any       `json:"high,omitempty"`
	Low         any       `json:"low,omitempty"`
	Volume      any       `json:"volume,omitempty"`
	AsOf        any       `json:"as_of,omitempty"`
	Description string    `json:"description,omitempty"`
}

// SourceMetadata describes where a SourceResult came from.
type SourceMetadata struct {
	AssetType    AssetType `json:"asset_type"`
	Source       string    `json:"source"` // provider name or "mock"
	Count        int       `json:"count"`
	UsedFallback bool      `json:"used_fallback"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// SourceResult is the output of one adapter invocation (S0 → S1).
type SourceResult struct {
	AssetType AssetType      `json:"asset_type"`
	Rows      []RawRow       `json:"rows"`
	Metadata  SourceMetadata `json:"metadata"`
}

// SourcedRow is one typed observation for one asset.
type SourcedRow struct {
	AssetID     string    `json:"asset_id"`
	AssetType   AssetType `json:"asset_type"`
	Currency    string    `json:"currency"`
	Close       float64   `json:"close"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Volume      float64   `json:"volume"`
	AsOf        time.Time `json:"as_of"`
	Description string    `json:"description,omitempty"`
}

// UnifiedTable is every sourced row, sorted by (AssetID, AsOf).
// Row position is the dense index.
type UnifiedTable struct {
	Rows []SourcedRow `json:"rows"`
}

// Len returns the number of rows.
func (t UnifiedTable) Len() int {
	return len(t.Rows)
}

// AssetBreakdown counts rows per asset type.
func (t UnifiedTable) AssetBreakdown() map[AssetType]int {
	out := make(map[AssetType]int)
	for _, r := range t.Rows {
		out[r.AssetType]++
	}
	return out
}
