package s1_unify

import (
	"sort"
	"time"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// Report counts rows through one unification.
type Report struct {
	Input   int `json:"input"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

// Unifier merges per-class SourceResults into one UnifiedTable (S1).
type Unifier struct {
	logger *logger.Logger
	now    func() time.Time
}

// NewUnifier creates a Unifier.
func NewUnifier(log *logger.Logger) *Unifier {
	return &Unifier{
		logger: log.Module("s1_unify"),
		now:    time.Now,
	}
}

// Unify coerces every row, drops those without an id, close or valid
// timestamp, concatenates in input order and sorts by (asset_id, as_of).
// Malformed rows are dropped silently; empty input yields an empty table.
func (u *Unifier) Unify(results []contracts.SourceResult) (contracts.UnifiedTable, Report) {
	batchTime := u.now().UTC()
	var report Report
	rows := make([]contracts.SourcedRow, 0)

	for _, result := range results {
		for _, raw := range result.Rows {
			report.Input++
			row, ok := coerceRow(raw, result.AssetType, batchTime)
			if !ok {
				report.Dropped++
				continue
			}
			rows = append(rows, row)
		}
	}
	report.Kept = len(rows)

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AssetID != rows[j].AssetID {
			return rows[i].AssetID < rows[j].AssetID
		}
		return rows[i].AsOf.Before(rows[j].AsOf)
	})

	if report.Dropped > 0 {
		u.logger.WithFields(map[string]interface{}{
			"dropped": report.Dropped,
			"input":   report.Input,
		}).Debug("Dropped malformed rows")
	}

	return contracts.UnifiedTable{Rows: rows}, report
}

// coerceRow applies the column coercions. The result's asset type wins
// over whatever the provider put on the row.
func coerceRow(raw contracts.RawRow, assetType contracts.AssetType, batchTime time.Time) (contracts.SourcedRow, bool) {
	id, ok := toAssetID(raw.AssetID)
	if !ok {
		return contracts.SourcedRow{}, false
	}
	closePrice, ok := toFloat(raw.Close)
	if !ok {
		return contracts.SourcedRow{}, false
	}
	asOf, ok := toTime(raw.AsOf, batchTime)
	if !ok {
		return contracts.SourcedRow{}, false
	}

	if assetType == "" {
		assetType = raw.AssetType
	}
	currency := raw.Currency
	if currency == "" {
		currency = "USD"
	}

	volume, ok := toFloat(raw.Volume)
	if !ok || volume < 0 {
		volume = 0
	}

	return contracts.SourcedRow{
		AssetID:     id,
		AssetType:   assetType,
		Currency:    currency,
		Close:       closePrice,
		Open:        orDefault(raw.Open, closePrice),
		High:        orDefault(raw.High, closePrice),
		Low:         orDefault(raw.Low, closePrice),
		Volume:      volume,
		AsOf:        asOf,
		Description: raw.Description,
	}, true
}

func orDefault(v any, def float64) float64 {
	if f, ok := toFloat(v); ok {
		return f
	}
	return def
}
