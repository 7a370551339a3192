package contracts

// Pipeline stages. Logs, metrics and persisted runs use these names.
//
//   S0 → S1 → S2 → S3 → S4 → S5 → S6 → S7
//   Collect  Unify  Features  Score  Recommend  Reconcile  Sentiment  Advice

// Stage represents a pipeline stage
type Stage string

const (
	// StageCollect S0: one fetch-with-fallback per asset class (internal/s0_data)
	StageCollect Stage = "S0_COLLECT"

	// StageUnify S1: coerce, drop, merge and sort sourced rows (internal/s1_unify)
	StageUnify Stage = "S1_UNIFY"

	// StageFeatures S2: per-row derived signals (internal/s2_features)
	StageFeatures Stage = "S2_FEATURES"

	// StageScore S3: cross-sectional normalization and composite score (internal/selection)
	StageScore Stage = "S3_SCORE"

	// StageRecommend S4: top-N projection (internal/selection)
	StageRecommend Stage = "S4_RECOMMEND"

	// StageReconcile S5: join against holdings (internal/portfolio)
	StageReconcile Stage = "S5_RECONCILE"

	// StageSentiment S6: news and social sentiment for recommended tickers
	StageSentiment Stage = "S6_SENTIMENT"

	// StageAdvice S7: advice text and persistence
	StageAdvice Stage = "S7_ADVICE"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	if !IsValidStage(string(s)) {
		return "UNKNOWN"
	}
	return string(s)[:2]
}

// Description returns a short human description of the stage
func (s Stage) Description() string {
	switch s {
	case StageCollect:
		return "source collection"
	case StageUnify:
		return "schema unification"
	case StageFeatures:
		return "feature engineering"
	case StageScore:
		return "composite scoring"
	case StageRecommend:
		return "top-N recommendations"
	case StageReconcile:
		return "portfolio reconciliation"
	case StageSentiment:
		return "sentiment collection"
	case StageAdvice:
		return "advice generation"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageCollect,
		StageUnify,
		StageFeatures,
		StageScore,
		StageRecommend,
		StageReconcile,
		StageSentiment,
		StageAdvice,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult records one stage execution of a run.
type StageResult struct {
	Stage       Stage  `json:"stage"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	DurationMs  int64  `json:"duration_ms"`
	Note        string `json:"note,omitempty"`
}
