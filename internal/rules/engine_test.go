package rules

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

func TestEngineCreation(t *testing.T) {
	engine, err := NewEngine(nil, 5)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close()

	if engine.RulesCount() != 0 {
		t.Errorf("expected 0 rules, got %d", engine.RulesCount())
	}
}

func TestLoadRule(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "test-rule-001",
		Name:       "Test Rule",
		Expression: "amount > 100.0",
		Severity:   0.7,
		Enabled:    true,
	}

	err := engine.LoadRule(rule)
	if err != nil {
		t.Fatalf("failed to load rule: %v", err)
	}

	if engine.RulesCount() != 1 {
		t.Errorf("expected 1 rule, got %d", engine.RulesCount())
	}
}

func TestLoadInvalidRule(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "invalid-rule",
		Name:       "Invalid Rule",
		Expression: "this is not valid CEL !!!",
		Enabled:    true,
	}

	err := engine.LoadRule(rule)
	if err == nil {
		t.Error("expected error for invalid CEL expression")
	}
}

func TestValidateRuleDoesNotLoad(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "validate-only",
		Expression: "amount > 100.0",
		Severity:   0.5,
		Enabled:    true,
	}

	if err := engine.ValidateRule(rule); err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if engine.RulesCount() != 0 {
		t.Errorf("ValidateRule must not load, got %d rules", engine.RulesCount())
	}
}

func TestEvaluateBooleanRule(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:          "high-amount",
		Name:        "High amount",
		Description: "Claim amount above one million.",
		Expression:  "amount > 1000000.0",
		Severity:    0.8,
		Enabled:     true,
	}

	engine.LoadRule(rule)

	ctx := context.Background()

	// Below threshold: nothing fires
	claim := baseClaim()
	claim.Amount = 500000

	violations, err := engine.EvaluateAll(ctx, claim)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %d", len(violations))
	}

	// Above threshold: fires at configured severity
	claim.Amount = 2000000
	violations, _ = engine.EvaluateAll(ctx, claim)

	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].Severity != 0.8 {
		t.Errorf("expected configured severity 0.8, got %.2f", violations[0].Severity)
	}
	if violations[0].RuleID != "high-amount" {
		t.Errorf("expected rule id 'high-amount', got %s", violations[0].RuleID)
	}
	if violations[0].Message != "Claim amount above one million." {
		t.Errorf("expected description as message, got %q", violations[0].Message)
	}
}

func TestEvaluateNumericRule(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "scaled-severity",
		Name:       "Scaled severity",
		Expression: "amount > 1000000.0 ? 0.9 : 0.0",
		Enabled:    true,
	}
	engine.LoadRule(rule)

	ctx := context.Background()
	claim := baseClaim()
	claim.Amount = 2000000

	violations, _ := engine.EvaluateAll(ctx, claim)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].Severity != 0.9 {
		t.Errorf("numeric result should be the severity, got %.2f", violations[0].Severity)
	}

	// Zero result must not fire
	claim.Amount = 100
	violations, _ = engine.EvaluateAll(ctx, claim)
	if len(violations) != 0 {
		t.Errorf("expected no violations for zero result, got %d", len(violations))
	}
}

func TestClaimVariables(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "young-policy-repeat",
		Name:       "Young policy repeat filer",
		Expression: "previous_claims > 2 && policy_days < 180 && same_day",
		Severity:   0.85,
		Enabled:    true,
	}
	engine.LoadRule(rule)

	ctx := context.Background()
	claim := baseClaim()
	claim.PreviousClaimsCount = 3
	claim.PolicyDurationDays = 90
	claim.IncidentDate = claim.SubmittedDate

	violations, _ := engine.EvaluateAll(ctx, claim)
	if len(violations) != 1 {
		t.Fatalf("expected rule to fire, got %d violations", len(violations))
	}

	claim.PolicyDurationDays = 365
	violations, _ = engine.EvaluateAll(ctx, claim)
	if len(violations) != 0 {
		t.Errorf("expected no fire on a mature policy, got %d", len(violations))
	}
}

func TestRecentClaimsVariable(t *testing.T) {
	// History getter that reports a fixed filing count.
	historyGetter := func(ctx context.Context, userID string, windowDays int) (int64, error) {
		return 7, nil
	}

	engine, _ := NewEngine(historyGetter, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:          "filing-burst",
		Name:        "Filing burst",
		Description: "Many claims filed in the last 30 days.",
		Expression:  "recent_claims > 5 ? 0.9 : (recent_claims > 3 ? 0.6 : 0.0)",
		Enabled:     true,
	}
	engine.LoadRule(rule)

	ctx := context.Background()
	violations, _ := engine.EvaluateAll(ctx, baseClaim())

	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].Severity != 0.9 {
		t.Errorf("expected severity 0.9 for 7 recent claims, got %.2f", violations[0].Severity)
	}
}

func TestErroredRuleDoesNotFire(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	// Integer division by zero errors at runtime for this claim.
	rule := &domain.RuleConfig{
		ID:         "ratio-rule",
		Name:       "Ratio rule",
		Expression: "previous_claims / policy_days > 0",
		Severity:   0.9,
		Enabled:    true,
	}
	engine.LoadRule(rule)

	ctx := context.Background()
	claim := baseClaim()
	claim.PreviousClaimsCount = 3
	claim.PolicyDurationDays = 0

	violations, err := engine.EvaluateAll(ctx, claim)
	if err != nil {
		t.Fatalf("evaluation must absorb rule errors: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("errored rule must not fire, got %d violations", len(violations))
	}
}

func TestParallelExecution(t *testing.T) {
	engine, _ := NewEngine(nil, 3)
	defer engine.Close()

	// Load multiple rules
	for i := 0; i < 10; i++ {
		rule := &domain.RuleConfig{
			ID:         fmt.Sprintf("rule-%d", i),
			Name:       fmt.Sprintf("Rule %d", i),
			Expression: "amount > 0.0",
			Severity:   0.5,
			Enabled:    true,
		}
		engine.LoadRule(rule)
	}

	if engine.RulesCount() != 10 {
		t.Fatalf("expected 10 rules, got %d", engine.RulesCount())
	}

	ctx := context.Background()
	violations, err := engine.EvaluateAll(ctx, baseClaim())
	if err != nil {
		t.Fatalf("parallel evaluation failed: %v", err)
	}

	if len(violations) != 10 {
		t.Errorf("expected 10 violations, got %d", len(violations))
	}
}

func TestConcurrencyLimit(t *testing.T) {
	var calls int32

	historyGetter := func(ctx context.Context, userID string, windowDays int) (int64, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return 5, nil
	}

	engine, _ := NewEngine(historyGetter, 2)
	defer engine.Close()

	for i := 0; i < 10; i++ {
		rule := &domain.RuleConfig{
			ID:         fmt.Sprintf("rule-%d", i),
			Expression: "recent_claims > 10 ? 1.0 : 0.0",
			Enabled:    true,
		}
		engine.LoadRule(rule)
	}

	ctx := context.Background()
	engine.EvaluateAll(ctx, baseClaim())

	// History is fetched once per evaluation, not once per rule.
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 history lookup, got %d", got)
	}
}

func TestReloadRules(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	engine.LoadRule(&domain.RuleConfig{
		ID:         "old-rule",
		Expression: "amount > 0.0",
		Severity:   0.5,
		Enabled:    true,
	})

	err := engine.ReloadRules([]*domain.RuleConfig{
		{ID: "new-rule", Expression: "amount > 100.0", Severity: 0.6, Enabled: true},
		{ID: "disabled-rule", Expression: "amount > 200.0", Severity: 0.6, Enabled: false},
	})
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if engine.RulesCount() != 1 {
		t.Fatalf("expected 1 rule after reload, got %d", engine.RulesCount())
	}

	loaded := engine.GetLoadedRules()
	if loaded[0].ID != "new-rule" {
		t.Errorf("expected 'new-rule' loaded, got %s", loaded[0].ID)
	}
}

func TestRejectNonNumericExpression(t *testing.T) {
	engine, _ := NewEngine(nil, 5)
	defer engine.Close()

	rule := &domain.RuleConfig{
		ID:         "string-rule",
		Expression: `insurance_type + "-suffix"`,
		Enabled:    true,
	}

	if err := engine.LoadRule(rule); err == nil {
		t.Error("expected error for a string-typed expression")
	}
}
