package config

import "fmt"

// BudgetConfig enforces the per-run resource and timeout budgets that
// bound each pipeline phase. Adapted from the project's CoreLimits
// (internal/config/limits.go), generalized from LLM-kernel concerns
// (facts, shards) to the truth pipeline's phase budgets.
type BudgetConfig struct {
	ObserveMaxMs         int `yaml:"observe_max_ms"`
	DetectMaxMs          int `yaml:"detect_max_ms"`
	TotalMaxMs           int `yaml:"total_max_ms"`
	MaxExpectations      int `yaml:"max_expectations"`
	MaxUniqueUrls        int `yaml:"max_unique_urls"`
	MaxTotalInteractions int `yaml:"max_total_interactions"`
}

// DefaultBudgetConfig returns default per-run budgets.
func DefaultBudgetConfig() BudgetConfig {
	return BudgetConfig{
		ObserveMaxMs:         120000,
		DetectMaxMs:          30000,
		TotalMaxMs:           240000,
		MaxExpectations:      500,
		MaxUniqueUrls:        200,
		MaxTotalInteractions: 1000,
	}
}

// Validate checks budgets are within sane, non-zero ranges. A
// misconfigured budget is a bug: fail loudly at startup rather than
// silently degrading determinism.
func (b BudgetConfig) Validate() error {
	if b.ObserveMaxMs <= 0 {
		return fmt.Errorf("observe_max_ms must be > 0")
	}
	if b.DetectMaxMs <= 0 {
		return fmt.Errorf("detect_max_ms must be > 0")
	}
	if b.TotalMaxMs <= 0 {
		return fmt.Errorf("total_max_ms must be > 0")
	}
	if b.MaxExpectations <= 0 {
		return fmt.Errorf("max_expectations must be > 0")
	}
	if b.MaxUniqueUrls <= 0 {
		return fmt.Errorf("max_unique_urls must be > 0")
	}
	if b.MaxTotalInteractions <= 0 {
		return fmt.Errorf("max_total_interactions must be > 0")
	}
	return nil
}
