package domain

// RuleConfig defines an operator-authored claim rule.
type RuleConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	// CEL expression over claim fields. A boolean result fires the rule
	// at Severity; a double result is used as the severity directly.
	Expression string `json:"expression"`

	// Severity assigned when a boolean expression fires, in [0,1].
	Severity float64 `json:"severity"`

	// Whether rule is active
	Enabled bool `json:"enabled"`
}

// RuleViolation records one fired rule during claim evaluation.
// Violations are ephemeral: they exist only inside the evaluation that
// produced them and in its persisted result.
type RuleViolation struct {
	RuleID   string  `json:"ruleId"`
	Severity float64 `json:"severity"`
	Message  string  `json:"message"`
}

// Built-in rule identifiers.
const (
	RuleCoverageExceedance = "coverage_exceedance"
	RuleSameDayHighValue   = "same_day_high_value"
	RuleRapidRepeatFiler   = "rapid_repeat_filer"
	RuleRoundAmount        = "suspicious_round_amount"
)
