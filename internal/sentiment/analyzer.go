package sentiment

import (
	"math"
	"strings"
	"unicode"
)

// normalizationAlpha approximates the maximum expected raw valence sum.
const normalizationAlpha = 15.0

const (
	negationScalar = -0.74
	negationWindow = 3
)

// lexicon scores market-flavoured words on a -4..4 valence scale.
var lexicon = map[string]float64{
	// positive
	"beat": 1.6, "beats": 1.6, "boom": 2.0, "breakout": 1.8, "bullish": 2.4,
	"buy": 1.0, "climb": 1.2, "climbs": 1.2, "gain": 1.9, "gains": 1.9,
	"good": 1.9, "great": 3.1, "growth": 1.8, "high": 0.6, "higher": 1.0,
	"improve": 1.9, "improves": 1.9, "jump": 1.4, "jumps": 1.4, "optimistic": 2.0,
	"outperform": 2.0, "profit": 1.9, "profits": 1.9, "rally": 2.0, "rallies": 2.0,
	"rebound": 1.6, "record": 1.0, "rise": 1.3, "rises": 1.3, "soar": 2.4,
	"soars": 2.4, "solid": 1.6, "strong": 2.3, "stronger": 2.3, "surge": 2.0,
	"surges": 2.0, "up": 0.6, "upgrade": 2.0, "win": 2.8, "wins": 2.8,
	// negative
	"bearish": -2.4, "crash": -2.8, "crashes": -2.8, "concern": -1.5, "concerns": -1.5,
	"cut": -1.1, "cuts": -1.1, "decline": -1.5, "declines": -1.5, "default": -2.0,
	"down": -0.9, "downgrade": -2.0, "drop": -1.1, "drops": -1.1, "fall": -1.1,
	"falls": -1.1, "fear": -2.2, "fears": -2.2, "lawsuit": -1.6, "lose": -1.6,
	"loss": -2.0, "losses": -2.0, "miss": -1.2, "misses": -1.2, "overvalued": -1.2,
	"plunge": -2.4, "plunges": -2.4, "recession": -2.3, "risk": -1.1, "risks": -1.1,
	"sell": -0.8, "selloff": -2.0, "slump": -2.1, "slumps": -2.1, "weak": -1.9,
	"weaker": -1.9, "worse": -2.1, "worst": -3.1,
}

// boosters scale the magnitude of the following sentiment word.
var boosters = map[string]float64{
	"very": 0.293, "extremely": 0.293, "really": 0.293, "sharply": 0.293,
	"hugely": 0.293, "slightly": -0.293, "somewhat": -0.293, "marginally": -0.293,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "without": true,
	"isn't": true, "aren't": true, "don't": true, "doesn't": true, "won't": true, "can't": true,
}

// Analyzer scores short texts with a lexicon. It holds no mutable state
// and is safe for concurrent use.
type Analyzer struct{}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Compound returns a polarity in [-1, 1]; 0 means neutral or unknown.
func (a *Analyzer) Compound(text string) float64 {
	tokens := tokenize(text)

	sum := 0.0
	for i, tok := range tokens {
		v, ok := lexicon[tok]
		if !ok {
			continue
		}
		if i > 0 {
			if b, ok := boosters[tokens[i-1]]; ok {
				v += math.Copysign(b, v)
			}
		}
		for j := max(0, i-negationWindow); j < i; j++ {
			if negations[tokens[j]] {
				v *= negationScalar
				break
			}
		}
		sum += v
	}

	if sum == 0 {
		return 0
	}
	compound := sum / math.Sqrt(sum*sum+normalizationAlpha)
	return math.Round(max(-1, min(1, compound))*10000) / 10000
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
