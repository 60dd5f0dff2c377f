package rules

import (
	"fmt"
	"math"

	"github.com/SoganiJ/insurax/internal/domain"
)

// BuiltinRule is a deterministic claim check. Built-ins run on every
// claim and cannot be disabled.
type BuiltinRule func(c *domain.Claim) (domain.RuleViolation, bool)

// BuiltinRules returns the standard deterministic rule set in its
// evaluation order.
func BuiltinRules() []BuiltinRule {
	return []BuiltinRule{
		CheckCoverageExceedance,
		CheckSameDayHighValue,
		CheckRapidRepeatFiler,
		CheckRoundAmount,
	}
}

// EvaluateBuiltins runs all built-in rules against a claim.
func EvaluateBuiltins(c *domain.Claim) []domain.RuleViolation {
	var violations []domain.RuleViolation
	for _, rule := range BuiltinRules() {
		if v, fired := rule(c); fired {
			violations = append(violations, v)
		}
	}
	return violations
}

// CheckCoverageExceedance fires when the claimed amount reaches or
// exceeds the policy coverage. Severity scales with the exceedance
// ratio; a claim exactly at the coverage limit is a weaker signal.
func CheckCoverageExceedance(c *domain.Claim) (domain.RuleViolation, bool) {
	if c.SumInsured <= 0 || c.Amount < c.SumInsured {
		return domain.RuleViolation{}, false
	}

	ratio := c.Amount / c.SumInsured

	var severity float64
	switch {
	case ratio > 3.0:
		severity = 0.98
	case ratio > 2.0:
		severity = 0.95
	case ratio > 1.5:
		severity = 0.90
	case ratio > 1.0:
		severity = 0.85
	default:
		// Amount exactly at the coverage limit.
		severity = 0.56
	}

	return domain.RuleViolation{
		RuleID:   domain.RuleCoverageExceedance,
		Severity: severity,
		Message:  fmt.Sprintf("Claim amount %.2f exceeds policy coverage %.2f (%.1fx)", c.Amount, c.SumInsured, ratio),
	}, true
}

// CheckSameDayHighValue fires on high-value claims filed the day of the
// incident.
func CheckSameDayHighValue(c *domain.Claim) (domain.RuleViolation, bool) {
	if !c.SameDayFiling() || c.Amount <= 100000 {
		return domain.RuleViolation{}, false
	}

	var severity float64
	switch {
	case c.Amount > 5000000:
		severity = 0.95
	case c.Amount > 2000000:
		severity = 0.90
	case c.Amount > 1000000:
		severity = 0.85
	default:
		severity = 0.80
	}

	return domain.RuleViolation{
		RuleID:   domain.RuleSameDayHighValue,
		Severity: severity,
		Message:  fmt.Sprintf("High-value claim %.2f filed on the incident date", c.Amount),
	}, true
}

// CheckRapidRepeatFiler fires when a young policy has already seen
// several claims. Severity scales with the claims-per-month rate.
func CheckRapidRepeatFiler(c *domain.Claim) (domain.RuleViolation, bool) {
	if c.PreviousClaimsCount <= 2 || c.PolicyDurationDays <= 0 || c.PolicyDurationDays >= 180 {
		return domain.RuleViolation{}, false
	}

	rate := float64(c.PreviousClaimsCount) / float64(c.PolicyDurationDays) * 30

	var severity float64
	switch {
	case rate > 2:
		severity = 0.90
	case rate > 1:
		severity = 0.85
	case rate > 0.5:
		severity = 0.80
	default:
		severity = 0.75
	}

	return domain.RuleViolation{
		RuleID:   domain.RuleRapidRepeatFiler,
		Severity: severity,
		Message:  fmt.Sprintf("%d previous claims within a %d-day-old policy (%.1f claims/month)", c.PreviousClaimsCount, c.PolicyDurationDays, rate),
	}, true
}

// CheckRoundAmount fires on large claims with suspiciously round
// amounts.
func CheckRoundAmount(c *domain.Claim) (domain.RuleViolation, bool) {
	if c.Amount <= 500000 || math.Mod(c.Amount, 100000) != 0 {
		return domain.RuleViolation{}, false
	}

	var severity float64
	switch {
	case math.Mod(c.Amount, 1000000) == 0:
		severity = 0.70
	case math.Mod(c.Amount, 500000) == 0:
		severity = 0.65
	default:
		severity = 0.60
	}

	return domain.RuleViolation{
		RuleID:   domain.RuleRoundAmount,
		Severity: severity,
		Message:  fmt.Sprintf("Suspiciously round claim amount %.0f", c.Amount),
	}, true
}
