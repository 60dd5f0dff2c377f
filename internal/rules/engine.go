// Package rules provides the deterministic business rule layer: four
// built-in claim rules plus a CEL-Go engine for operator-authored rules.
package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/SoganiJ/insurax/internal/domain"
)

// Engine is the CEL-based rule evaluation engine for custom rules.
type Engine struct {
	mu            sync.RWMutex
	env           *cel.Env
	compiledRules map[string]*CompiledRule
	historyGetter HistoryGetter
	maxWorkers    int
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Config  *domain.RuleConfig
	Program cel.Program
}

// HistoryGetter returns the number of claims a user filed within the
// window, for rules that look at recent filing volume.
type HistoryGetter func(ctx context.Context, userID string, windowDays int) (int64, error)

// NewEngine creates a new rule evaluation engine.
func NewEngine(historyGetter HistoryGetter, maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	// Create CEL environment with claim variables
	env, err := cel.NewEnv(
		cel.Variable("claim", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("sum_insured", cel.DoubleType),
		cel.Variable("insurance_type", cel.StringType),
		cel.Variable("previous_claims", cel.IntType),
		cel.Variable("policy_days", cel.IntType),
		cel.Variable("incident_to_claim_days", cel.IntType),
		cel.Variable("same_day", cel.BoolType),
		cel.Variable("recent_claims", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:           env,
		compiledRules: make(map[string]*CompiledRule),
		historyGetter: historyGetter,
		maxWorkers:    maxWorkers,
	}, nil
}

// ValidateRule compiles and validates a rule without mutating loaded engine rules.
func (e *Engine) ValidateRule(cfg *domain.RuleConfig) error {
	if cfg == nil {
		return fmt.Errorf("rule config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(cfg *domain.RuleConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}

	e.compiledRules[cfg.ID] = compiled

	return nil
}

// LoadRules compiles and loads multiple rules.
func (e *Engine) LoadRules(configs []*domain.RuleConfig) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// EvaluateAll evaluates all loaded custom rules against a claim in
// parallel. Rules that error are skipped: the deterministic layer must
// never fire on an evaluation failure.
func (e *Engine) EvaluateAll(ctx context.Context, claim *domain.Claim) ([]domain.RuleViolation, error) {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil, nil
	}

	var recentClaims int64
	if e.historyGetter != nil {
		count, err := e.historyGetter(ctx, claim.UserID, 30)
		if err == nil {
			recentClaims = count
		}
	}

	activation := map[string]any{
		"claim": map[string]any{
			"id":             claim.ID,
			"user_id":        claim.UserID,
			"policy_id":      claim.PolicyID,
			"insurance_type": claim.InsuranceType,
			"amount":         claim.Amount,
			"sum_insured":    claim.SumInsured,
			"description":    claim.Description,
		},
		"amount":                 claim.Amount,
		"sum_insured":            claim.SumInsured,
		"insurance_type":         claim.InsuranceType,
		"previous_claims":        int64(claim.PreviousClaimsCount),
		"policy_days":            int64(claim.PolicyDurationDays),
		"incident_to_claim_days": int64(claim.IncidentToClaimDays),
		"same_day":               claim.SameDayFiling(),
		"recent_claims":          recentClaims,
	}

	// Parallel evaluation using worker pool pattern
	fired := make([]*domain.RuleViolation, len(rules))
	var wg sync.WaitGroup

	// Limit concurrency with semaphore
	sem := make(chan struct{}, e.maxWorkers)

	for i, rule := range rules {
		wg.Add(1)
		go func(idx int, r *CompiledRule) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			if v, ok := e.evaluateRule(r, activation); ok {
				fired[idx] = &v
			}
		}(i, rule)
	}

	wg.Wait()

	var violations []domain.RuleViolation
	for _, v := range fired {
		if v != nil {
			violations = append(violations, *v)
		}
	}
	return violations, nil
}

// evaluateRule evaluates a single rule. A boolean expression fires the
// rule at its configured severity; a numeric expression supplies the
// severity directly (values <= 0 do not fire).
func (e *Engine) evaluateRule(rule *CompiledRule, activation map[string]any) (domain.RuleViolation, bool) {
	out, _, err := rule.Program.Eval(activation)
	if err != nil {
		return domain.RuleViolation{}, false
	}

	severity, fired := toSeverity(out, rule.Config.Severity)
	if !fired {
		return domain.RuleViolation{}, false
	}

	message := rule.Config.Description
	if message == "" {
		message = rule.Config.Name
	}

	return domain.RuleViolation{
		RuleID:   rule.Config.ID,
		Severity: domain.Clamp01(severity),
		Message:  message,
	}, true
}

// toSeverity converts a CEL result to a severity and fired flag.
func toSeverity(val ref.Val, configured float64) (float64, bool) {
	switch v := val.(type) {
	case types.Bool:
		return configured, bool(v)
	case types.Double:
		return float64(v), float64(v) > 0
	case types.Int:
		return float64(v), int64(v) > 0
	default:
		return 0, false
	}
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// ReloadRules clears all existing rules and loads new ones.
// This enables hot-reloading of rules from the database.
func (e *Engine) ReloadRules(configs []*domain.RuleConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make(map[string]*CompiledRule)

	// Load new rules
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		compiled, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		newRules[cfg.ID] = compiled
	}

	e.compiledRules = newRules

	return nil
}

// GetLoadedRules returns the currently loaded rule configurations.
func (e *Engine) GetLoadedRules() []*domain.RuleConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.RuleConfig, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Config)
	}
	return rules
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

func (e *Engine) compileRule(cfg *domain.RuleConfig) (*CompiledRule, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", cfg.ID, issues.Err())
	}

	outputType := ast.OutputType()
	if outputType != cel.BoolType && outputType != cel.DoubleType && outputType != cel.IntType {
		return nil, fmt.Errorf("rule %s: expression must return bool, int, or double, got %s", cfg.ID, outputType)
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", cfg.ID, err)
	}

	return &CompiledRule{
		Config:  cfg,
		Program: program,
	}, nil
}
