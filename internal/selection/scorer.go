package selection

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// WeightConfig defines component weights for the composite score.
// Weights need not sum to 1 and are not validated.
type WeightConfig struct {
	Valuation       float64 `yaml:"valuation" json:"valuation" default:"0.35"`
	Momentum        float64 `yaml:"momentum" json:"momentum" default:"0.20"`
	Liquidity       float64 `yaml:"liquidity" json:"liquidity" default:"0.15"`
	Risk            float64 `yaml:"risk" json:"risk" default:"0.20"`
	Diversification float64 `yaml:"diversification" json:"diversification" default:"0.10"`
}

// DefaultWeightConfig returns the default weights.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		Valuation:       0.35,
		Momentum:        0.20,
		Liquidity:       0.15,
		Risk:            0.20,
		Diversification: 0.10,
	}
}

// Sum returns the total of all weights.
func (w WeightConfig) Sum() float64 {
	return w.Valuation + w.Momentum + w.Liquidity + w.Risk + w.Diversification
}

// Warnings describes suspicious weights. Scoring proceeds regardless.
func (w WeightConfig) Warnings() []string {
	var out []string
	for name, v := range map[string]float64{
		"valuation":       w.Valuation,
		"momentum":        w.Momentum,
		"liquidity":       w.Liquidity,
		"risk":            w.Risk,
		"diversification": w.Diversification,
	} {
		if v < 0 {
			out = append(out, fmt.Sprintf("weight %s is negative (%g)", name, v))
		}
	}
	sort.Strings(out)
	// Allow small floating point error
	if sum := w.Sum(); math.Abs(sum-1) > 0.01 {
		out = append(out, fmt.Sprintf("weights sum to %g, not 1", sum))
	}
	return out
}

// Scorer implements S3: cross-sectional normalization and weighted ranking.
type Scorer struct {
	weights WeightConfig
	logger  *logger.Logger
}

// NewScorer creates a new scorer
func NewScorer(weights WeightConfig, log *logger.Logger) *Scorer {
	return &Scorer{
		weights: weights,
		logger:  log.Module("selection"),
	}
}

// Weights returns the configured weights.
func (s *Scorer) Weights() WeightConfig {
	return s.weights
}

// Score normalizes the feature columns over the whole table, combines them
// into a composite score and orders rows by it, descending. Ties keep
// their input order.
func (s *Scorer) Score(features contracts.FeatureTable) contracts.ScoredTable {
	n := len(features.Rows)
	scored := make([]contracts.ScoredRow, 0, n)
	if n == 0 {
		return contracts.ScoredTable{Rows: scored}
	}

	valuation := make([]float64, n)
	momentum := make([]float64, n)
	liquidity := make([]float64, n)
	volatility := make([]float64, n)
	classCount := make(map[contracts.AssetType]int)
	for i, r := range features.Rows {
		valuation[i] = r.ValuationProxy
		momentum[i] = r.MomentumProxy
		liquidity[i] = r.LiquidityScore
		volatility[i] = r.VolatilityProxy
		classCount[r.AssetType]++
	}

	valuation = Normalize(valuation)
	momentum = Normalize(momentum)
	liquidity = Normalize(liquidity)
	volatility = Normalize(volatility)

	for i, r := range features.Rows {
		components := contracts.ComponentScores{
			Valuation:       valuation[i],
			Momentum:        momentum[i],
			Liquidity:       liquidity[i],
			Risk:            1 - volatility[i],
			Diversification: 1 / float64(classCount[r.AssetType]),
		}
		scored = append(scored, contracts.ScoredRow{
			FeatureRow:      r,
			ComponentScores: components,
			CompositeScore:  s.composite(components),
		})
	}

	// Sort by composite score (descending)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CompositeScore > scored[j].CompositeScore
	})

	s.logger.WithFields(map[string]interface{}{
		"total_assets": len(scored),
		"top_score":    scored[0].CompositeScore,
		"top_asset":    scored[0].AssetID,
	}).Info("Scoring completed")

	return contracts.ScoredTable{Rows: scored}
}

func (s *Scorer) composite(c contracts.ComponentScores) float64 {
	return c.Valuation*s.weights.Valuation +
		c.Momentum*s.weights.Momentum +
		c.Liquidity*s.weights.Liquidity +
		c.Risk*s.weights.Risk +
		c.Diversification*s.weights.Diversification
}
