package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

func TestSQLiteRepository(t *testing.T) {
	// Create temp database file
	tmpFile, err := os.CreateTemp("", "insurax-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	cfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	}

	repo, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetClaim", func(t *testing.T) {
		claim := &domain.Claim{
			ID:                  "claim-001",
			UserID:              "user-001",
			PolicyID:            "policy-001",
			InsuranceType:       "vehicle",
			Amount:              250000,
			SumInsured:          500000,
			IncidentDate:        time.Now().UTC().Add(-48 * time.Hour),
			SubmittedDate:       time.Now().UTC(),
			CreatedAt:           time.Now().UTC(),
			IncidentToClaimDays: 2,
			PreviousClaimsCount: 1,
			PolicyDurationDays:  365,
			Description:         "rear bumper collision",
			ClaimantName:        "Asha Verma",
		}

		if err := repo.SaveClaim(ctx, claim); err != nil {
			t.Fatalf("SaveClaim failed: %v", err)
		}

		retrieved, err := repo.GetClaim(ctx, claim.ID)
		if err != nil {
			t.Fatalf("GetClaim failed: %v", err)
		}

		if retrieved.ID != claim.ID {
			t.Errorf("expected ID %s, got %s", claim.ID, retrieved.ID)
		}
		if retrieved.Amount != claim.Amount {
			t.Errorf("expected Amount %.2f, got %.2f", claim.Amount, retrieved.Amount)
		}
		if retrieved.PreviousClaimsCount != claim.PreviousClaimsCount {
			t.Errorf("expected PreviousClaimsCount %d, got %d", claim.PreviousClaimsCount, retrieved.PreviousClaimsCount)
		}
	})

	t.Run("ListClaimsByUser", func(t *testing.T) {
		claim2 := &domain.Claim{
			ID:            "claim-002",
			UserID:        "user-001", // Same user as claim-001
			PolicyID:      "policy-002",
			InsuranceType: "property",
			Amount:        80000,
			SumInsured:    1000000,
			IncidentDate:  time.Now().UTC().Add(-24 * time.Hour),
			SubmittedDate: time.Now().UTC(),
			CreatedAt:     time.Now().UTC(),
		}

		if err := repo.SaveClaim(ctx, claim2); err != nil {
			t.Fatalf("SaveClaim failed: %v", err)
		}

		since := time.Now().Add(-1 * time.Hour)
		claims, err := repo.ListClaimsByUser(ctx, "user-001", since)
		if err != nil {
			t.Fatalf("ListClaimsByUser failed: %v", err)
		}

		if len(claims) != 2 {
			t.Errorf("expected 2 claims, got %d", len(claims))
		}
	})

	t.Run("SaveAndListUsers", func(t *testing.T) {
		user := &domain.User{
			ID:          "user-001",
			Name:        "Asha Verma",
			Email:       "asha@example.com",
			Phone:       "+911234567890",
			ClaimsCount: 2,
		}

		if err := repo.SaveUser(ctx, user); err != nil {
			t.Fatalf("SaveUser failed: %v", err)
		}

		users, err := repo.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 1 {
			t.Errorf("expected 1 user, got %d", len(users))
		}
	})

	t.Run("SaveAndListPolicies", func(t *testing.T) {
		policy := &domain.Policy{
			ID:         "policy-001",
			UserID:     "user-001",
			Type:       "vehicle",
			SumInsured: 500000,
			StartDate:  "2025-01-01",
		}

		if err := repo.SavePolicy(ctx, policy); err != nil {
			t.Fatalf("SavePolicy failed: %v", err)
		}

		policies, err := repo.ListPolicies(ctx)
		if err != nil {
			t.Fatalf("ListPolicies failed: %v", err)
		}
		if len(policies) != 1 {
			t.Errorf("expected 1 policy, got %d", len(policies))
		}
	})

	t.Run("SaveAndGetEvaluation", func(t *testing.T) {
		eval := &domain.Evaluation{
			ID:      "eval-001",
			ClaimID: "claim-001",
			Score: domain.CompositeScore{
				FraudScore:         0.5075,
				RiskLevel:          domain.RiskMedium,
				Confidence:         100,
				ComponentsAnalyzed: []string{"ml", "network", "ocr", "cnn"},
				WeightsUsed: map[string]float64{
					"ml": 0.35, "network": 0.35, "ocr": 0.20, "cnn": 0.15,
				},
				Timestamp: time.Now().UTC(),
			},
			Timestamp: time.Now().UTC(),
			Metadata:  domain.EvaluationMetadata{TraceID: "trace-001"},
		}

		if err := repo.SaveEvaluation(ctx, eval); err != nil {
			t.Fatalf("SaveEvaluation failed: %v", err)
		}

		retrieved, err := repo.GetEvaluation(ctx, eval.ID)
		if err != nil {
			t.Fatalf("GetEvaluation failed: %v", err)
		}

		if retrieved.ID != eval.ID {
			t.Errorf("expected ID %s, got %s", eval.ID, retrieved.ID)
		}
		if retrieved.Score.FraudScore != eval.Score.FraudScore {
			t.Errorf("expected FraudScore %.4f, got %.4f", eval.Score.FraudScore, retrieved.Score.FraudScore)
		}
		if retrieved.Score.RiskLevel != eval.Score.RiskLevel {
			t.Errorf("expected RiskLevel %s, got %s", eval.Score.RiskLevel, retrieved.Score.RiskLevel)
		}
	})

	t.Run("RuleConfigLifecycle", func(t *testing.T) {
		rule := &domain.RuleConfig{
			ID:         "high-amount",
			Name:       "High amount",
			Version:    "1.0.0",
			Expression: "amount > 1000000.0",
			Severity:   0.8,
			Enabled:    true,
		}

		if err := repo.SaveRuleConfig(ctx, rule); err != nil {
			t.Fatalf("SaveRuleConfig failed: %v", err)
		}

		got, err := repo.GetRuleConfig(ctx, rule.ID)
		if err != nil {
			t.Fatalf("GetRuleConfig failed: %v", err)
		}
		if got.Severity != rule.Severity {
			t.Errorf("expected Severity %.2f, got %.2f", rule.Severity, got.Severity)
		}

		list, err := repo.ListRuleConfigs(ctx)
		if err != nil {
			t.Fatalf("ListRuleConfigs failed: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("expected 1 rule, got %d", len(list))
		}

		if err := repo.DeleteRuleConfig(ctx, rule.ID); err != nil {
			t.Fatalf("DeleteRuleConfig failed: %v", err)
		}

		list, err = repo.ListRuleConfigs(ctx)
		if err != nil {
			t.Fatalf("ListRuleConfigs failed: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("expected 0 rules after delete, got %d", len(list))
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetClaim(ctx, "nonexistent")
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}

		_, err = repo.GetEvaluation(ctx, "nonexistent")
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
