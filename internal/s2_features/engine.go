package s2_features

import (
	"fmt"
	"math"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// MomentumMode selects which row momentum is measured against.
type MomentumMode string

const (
	// MomentumPerAsset lags against the previous row of the same asset_id.
	MomentumPerAsset MomentumMode = "per_asset"
	// MomentumGlobal lags against the preceding row of the sorted table,
	// crossing asset boundaries.
	MomentumGlobal MomentumMode = "global"
)

// minClose clamps non-positive prices before the log transform.
const minClose = 1e-6

// ParseMomentumMode maps a config value to a mode. Empty means per_asset.
func ParseMomentumMode(s string) (MomentumMode, error) {
	switch MomentumMode(s) {
	case "", MomentumPerAsset:
		return MomentumPerAsset, nil
	case MomentumGlobal:
		return MomentumGlobal, nil
	}
	return "", fmt.Errorf("unknown momentum mode %q", s)
}

// Engine derives per-row signals from a unified table (S2).
type Engine struct {
	mode   MomentumMode
	logger *logger.Logger
}

// NewEngine creates a feature engine.
func NewEngine(mode MomentumMode, log *logger.Logger) *Engine {
	if mode == "" {
		mode = MomentumPerAsset
	}
	return &Engine{
		mode:   mode,
		logger: log.Module("s2_features"),
	}
}

// Mode returns the configured momentum mode.
func (e *Engine) Mode() MomentumMode {
	return e.mode
}

// Compute derives features for every row, then replaces every non-finite
// value in the table with 0. The input table is not modified.
func (e *Engine) Compute(table contracts.UnifiedTable) contracts.FeatureTable {
	rows := make([]contracts.FeatureRow, 0, len(table.Rows))
	if len(table.Rows) == 0 {
		return contracts.FeatureTable{Rows: rows}
	}

	lastClose := make(map[string]float64)
	for i, src := range table.Rows {
		row := contracts.FeatureRow{SourcedRow: src}

		row.LogClose = math.Log(math.Max(src.Close, minClose))
		row.LiquidityScore = math.Log1p(src.Volume)
		row.VolatilityProxy = ratio(src.High-src.Low, src.Close)
		row.ValuationProxy = ratio(1, row.LogClose)

		switch e.mode {
		case MomentumGlobal:
			if i > 0 {
				row.MomentumProxy = pctChange(src.Close, table.Rows[i-1].Close)
			} else {
				row.MomentumProxy = math.NaN()
			}
		default:
			if prev, ok := lastClose[src.AssetID]; ok {
				row.MomentumProxy = pctChange(src.Close, prev)
			} else {
				row.MomentumProxy = math.NaN()
			}
			lastClose[src.AssetID] = src.Close
		}

		rows = append(rows, row)
	}

	replaced := 0
	for i := range rows {
		replaced += sanitize(&rows[i])
	}

	e.logger.WithFields(map[string]interface{}{
		"rows":      len(rows),
		"mode":      string(e.mode),
		"sanitized": replaced,
	}).Debug("Computed features")

	return contracts.FeatureTable{Rows: rows}
}

// ratio returns num/den, or NaN when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

func pctChange(cur, prev float64) float64 {
	return ratio(cur-prev, prev)
}

// sanitize zeroes every Inf or NaN numeric field and returns how many were replaced.
func sanitize(r *contracts.FeatureRow) int {
	fields := []*float64{
		&r.Close, &r.Open, &r.High, &r.Low, &r.Volume,
		&r.LogClose, &r.LiquidityScore, &r.VolatilityProxy, &r.MomentumProxy, &r.ValuationProxy,
	}
	n := 0
	for _, f := range fields {
		if math.IsNaN(*f) || math.IsInf(*f, 0) {
			*f = 0
			n++
		}
	}
	return n
}
