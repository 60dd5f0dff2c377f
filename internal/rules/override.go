package rules

import (
	"fmt"
	"strings"

	"github.com/SoganiJ/insurax/internal/domain"
)

const (
	multiViolationBoost    = 0.02
	multiViolationBoostCap = 0.1
	overrideScoreCap       = 0.99
)

// OverrideScore combines fired rule severities into one override score.
// A single violation supplies its severity directly; multiple
// violations average and gain a small per-violation boost.
func OverrideScore(violations []domain.RuleViolation) float64 {
	switch len(violations) {
	case 0:
		return 0
	case 1:
		return violations[0].Severity
	}

	sum := 0.0
	for _, v := range violations {
		sum += v.Severity
	}
	avg := sum / float64(len(violations))

	boost := multiViolationBoost * float64(len(violations))
	if boost > multiViolationBoostCap {
		boost = multiViolationBoostCap
	}

	score := avg + boost
	if score > overrideScoreCap {
		score = overrideScoreCap
	}
	return score
}

// overrideRiskLevel maps an override score to its tier. Rule overrides
// never classify below medium.
func overrideRiskLevel(score float64) domain.RiskLevel {
	if score >= 0.80 {
		return domain.RiskHigh
	}
	return domain.RiskMedium
}

// ApplyOverride folds fired rule violations into a composite verdict.
// Overrides only ever raise risk: the statistical score and tier are
// kept when they are already higher. With no violations the composite
// passes through untouched.
func ApplyOverride(base *domain.CompositeScore, violations []domain.RuleViolation) *domain.CompositeScore {
	if len(violations) == 0 {
		return base
	}

	out := *base
	out.Overridden = true
	out.Violations = violations
	out.IsFraud = true

	if score := OverrideScore(violations); score > out.FraudScore {
		out.FraudScore = score
	}

	level := overrideRiskLevel(out.FraudScore)
	if riskRank(base.RiskLevel) > riskRank(level) {
		level = base.RiskLevel
	}
	out.RiskLevel = level

	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, v.Message)
	}
	out.Explanation = fmt.Sprintf("[Rule override] %s %s", strings.Join(messages, " "), base.Explanation)

	return &out
}

func riskRank(level domain.RiskLevel) int {
	switch level {
	case domain.RiskHigh:
		return 2
	case domain.RiskMedium:
		return 1
	default:
		return 0
	}
}
