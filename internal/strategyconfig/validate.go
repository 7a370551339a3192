package strategyconfig

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/pitviper/backend/internal/contracts"
)

var validate = validator.New()

// ValidationError aborts loading
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning is a non-fatal recommendation violation
type Warning struct {
	Code    string
	Message string
}

// Validate checks structural constraints. Weights are not validated here;
// see Warn.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return ValidationError{fe.Namespace(), fmt.Sprintf("failed %q check", fe.Tag())}
		}
		return err
	}

	// === Universe ===
	for _, t := range contracts.AllAssetTypes() {
		seen := make(map[string]bool)
		for i, a := range cfg.Universe.Class(t) {
			if seen[a.Symbol] {
				return ValidationError{
					Field:   fmt.Sprintf("universe.%s[%d]", t, i),
					Message: fmt.Sprintf("duplicate symbol %s", a.Symbol),
				}
			}
			seen[a.Symbol] = true
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	for _, msg := range cfg.Weights.Warnings() {
		warnings = append(warnings, Warning{Code: "WEIGHTS", Message: msg})
	}

	if cfg.TopN == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_RECOMMENDATIONS",
			Message: "top_n = 0: recommendation list will be empty",
		})
	}

	if cfg.Universe.Size() == 0 {
		warnings = append(warnings, Warning{
			Code:    "EMPTY_UNIVERSE",
			Message: "no symbols configured for any asset class",
		})
	}

	if cfg.MomentumMode == "global" {
		warnings = append(warnings, Warning{
			Code:    "GLOBAL_MOMENTUM",
			Message: "momentum lags across asset boundaries in global mode",
		})
	}

	return warnings
}
