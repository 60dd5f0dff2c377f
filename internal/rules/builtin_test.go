package rules

import (
	"math"
	"testing"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

func baseClaim() *domain.Claim {
	day := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	return &domain.Claim{
		ID:                  "claim-001",
		UserID:              "user-001",
		PolicyID:            "policy-001",
		InsuranceType:       "vehicle",
		Amount:              50000,
		SumInsured:          500000,
		IncidentDate:        day.Add(-72 * time.Hour),
		SubmittedDate:       day,
		PreviousClaimsCount: 0,
		PolicyDurationDays:  365,
	}
}

func TestCheckCoverageExceedance(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		sumInsured float64
		fired      bool
		severity   float64
	}{
		{"WellWithinCoverage", 100000, 500000, false, 0},
		{"ExactlyAtLimit", 500000, 500000, true, 0.56},
		{"ModerateExceedance", 800000, 500000, true, 0.90},
		{"DoubleCoverage", 1250000, 500000, true, 0.95},
		{"TripleCoverage", 1250000, 400000, true, 0.98},
		{"ExtremeExceedance", 2000000, 500000, true, 0.98},
		{"NoCoverageInfo", 100000, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseClaim()
			c.Amount = tt.amount
			c.SumInsured = tt.sumInsured

			v, fired := CheckCoverageExceedance(c)
			if fired != tt.fired {
				t.Fatalf("fired = %v, want %v", fired, tt.fired)
			}
			if fired && v.Severity != tt.severity {
				t.Errorf("severity = %.2f, want %.2f", v.Severity, tt.severity)
			}
		})
	}
}

func TestCheckCoverageExceedanceRatioBands(t *testing.T) {
	// Ratio 2.5 falls in the >2 band.
	c := baseClaim()
	c.Amount = 1000000
	c.SumInsured = 400000

	v, fired := CheckCoverageExceedance(c)
	if !fired {
		t.Fatal("expected rule to fire")
	}
	if v.Severity != 0.95 {
		t.Errorf("ratio 2.5 severity = %.2f, want 0.95", v.Severity)
	}

	t.Run("QuarterMillionAgainstHundredK", func(t *testing.T) {
		// A 250000 claim against 100000 of coverage lands in the same
		// band and must flag the claim as fraud once overridden.
		c := baseClaim()
		c.Amount = 250000
		c.SumInsured = 100000

		v, fired := CheckCoverageExceedance(c)
		if !fired {
			t.Fatal("expected rule to fire")
		}
		if v.Severity != 0.95 {
			t.Errorf("ratio 2.5 severity = %.2f, want 0.95", v.Severity)
		}
		if v.Message == "" {
			t.Error("expected a violation message")
		}

		base := &domain.CompositeScore{
			FraudScore: 0.42,
			RiskLevel:  domain.RiskMedium,
		}
		out := ApplyOverride(base, []domain.RuleViolation{v})
		if !out.IsFraud {
			t.Error("expected override to flag fraud")
		}
		if out.FraudScore < v.Severity {
			t.Errorf("overridden score = %.2f, want at least %.2f", out.FraudScore, v.Severity)
		}
		if out.RiskLevel != domain.RiskHigh {
			t.Errorf("overridden risk = %s, want high", out.RiskLevel)
		}
	})
}

func TestCheckSameDayHighValue(t *testing.T) {
	sameDay := func(amount float64) *domain.Claim {
		c := baseClaim()
		c.Amount = amount
		c.IncidentDate = c.SubmittedDate
		return c
	}

	t.Run("NotSameDay", func(t *testing.T) {
		c := baseClaim()
		c.Amount = 6000000
		if _, fired := CheckSameDayHighValue(c); fired {
			t.Error("expected no fire when filed days after incident")
		}
	})

	t.Run("SameDayLowValue", func(t *testing.T) {
		if _, fired := CheckSameDayHighValue(sameDay(100000)); fired {
			t.Error("expected no fire at the 100000 threshold")
		}
	})

	tests := []struct {
		amount   float64
		severity float64
	}{
		{6000000, 0.95},
		{3000000, 0.90},
		{1500000, 0.85},
		{200000, 0.80},
	}

	for _, tt := range tests {
		v, fired := CheckSameDayHighValue(sameDay(tt.amount))
		if !fired {
			t.Fatalf("amount %.0f: expected fire", tt.amount)
		}
		if v.Severity != tt.severity {
			t.Errorf("amount %.0f: severity = %.2f, want %.2f", tt.amount, v.Severity, tt.severity)
		}
	}
}

func TestCheckRapidRepeatFiler(t *testing.T) {
	t.Run("FewPreviousClaims", func(t *testing.T) {
		c := baseClaim()
		c.PreviousClaimsCount = 2
		c.PolicyDurationDays = 30
		if _, fired := CheckRapidRepeatFiler(c); fired {
			t.Error("expected no fire with 2 previous claims")
		}
	})

	t.Run("MaturePolicy", func(t *testing.T) {
		c := baseClaim()
		c.PreviousClaimsCount = 5
		c.PolicyDurationDays = 365
		if _, fired := CheckRapidRepeatFiler(c); fired {
			t.Error("expected no fire on a mature policy")
		}
	})

	tests := []struct {
		claims   int
		days     int
		severity float64
	}{
		{5, 60, 0.90},  // 2.5 claims/month
		{3, 60, 0.85},  // 1.5 claims/month
		{3, 120, 0.80}, // 0.75 claims/month
		{3, 179, 0.80}, // just above 0.5 claims/month
	}

	for _, tt := range tests {
		c := baseClaim()
		c.PreviousClaimsCount = tt.claims
		c.PolicyDurationDays = tt.days

		v, fired := CheckRapidRepeatFiler(c)
		if !fired {
			t.Fatalf("%d claims in %d days: expected fire", tt.claims, tt.days)
		}
		if v.Severity != tt.severity {
			t.Errorf("%d claims in %d days: severity = %.2f, want %.2f",
				tt.claims, tt.days, v.Severity, tt.severity)
		}
	}
}

func TestCheckRoundAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		fired    bool
		severity float64
	}{
		{"BelowThreshold", 400000, false, 0},
		{"NotRound", 734567, false, 0},
		{"MillionMultiple", 2000000, true, 0.70},
		{"HalfMillionMultiple", 1500000, true, 0.65},
		{"HundredThousandMultiple", 1700000, true, 0.60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseClaim()
			c.Amount = tt.amount

			v, fired := CheckRoundAmount(c)
			if fired != tt.fired {
				t.Fatalf("fired = %v, want %v", fired, tt.fired)
			}
			if fired && v.Severity != tt.severity {
				t.Errorf("severity = %.2f, want %.2f", v.Severity, tt.severity)
			}
		})
	}
}

func TestEvaluateBuiltinsMultiple(t *testing.T) {
	c := baseClaim()
	c.Amount = 2000000
	c.SumInsured = 500000
	c.IncidentDate = c.SubmittedDate
	c.PreviousClaimsCount = 4
	c.PolicyDurationDays = 90

	violations := EvaluateBuiltins(c)

	if len(violations) != 4 {
		t.Fatalf("expected all 4 rules to fire, got %d", len(violations))
	}

	seen := map[string]bool{}
	for _, v := range violations {
		seen[v.RuleID] = true
		if v.Severity <= 0 || v.Severity > 1 {
			t.Errorf("rule %s severity out of range: %.2f", v.RuleID, v.Severity)
		}
		if v.Message == "" {
			t.Errorf("rule %s has no message", v.RuleID)
		}
	}
	for _, id := range []string{
		domain.RuleCoverageExceedance,
		domain.RuleSameDayHighValue,
		domain.RuleRapidRepeatFiler,
		domain.RuleRoundAmount,
	} {
		if !seen[id] {
			t.Errorf("missing violation for %s", id)
		}
	}
}

func TestCoverageSeverityMonotonic(t *testing.T) {
	c := baseClaim()
	c.SumInsured = 100000

	prev := 0.0
	for _, amount := range []float64{100000, 120000, 180000, 250000, 400000} {
		c.Amount = amount
		v, fired := CheckCoverageExceedance(c)
		if !fired {
			t.Fatalf("amount %.0f: expected fire", amount)
		}
		if v.Severity < prev {
			t.Errorf("severity decreased at amount %.0f: %.2f < %.2f", amount, v.Severity, prev)
		}
		prev = v.Severity
	}
}

func TestRapidRepeatRate(t *testing.T) {
	// 3 claims over 179 days is just above 0.5 claims per month, so the
	// lowest band a firing rule can report is 0.80.
	rate := 3.0 / 179.0 * 30
	if math.Abs(rate-0.5028) > 0.001 {
		t.Fatalf("unexpected rate %.4f", rate)
	}
}
