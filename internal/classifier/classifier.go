// Package classifier calls the fraud model serving API.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

// Client calls the classifier prediction endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a classifier client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	ClaimID             string  `json:"claimId"`
	InsuranceType       string  `json:"insuranceType"`
	Amount              float64 `json:"amount"`
	SumInsured          float64 `json:"sumInsured"`
	IncidentToClaimDays int     `json:"incidentToClaimDays"`
	PreviousClaimsCount int     `json:"previousClaimsCount"`
	PolicyDurationDays  int     `json:"policyDurationDays"`
	Description         string  `json:"description,omitempty"`
}

type predictResponse struct {
	Success             bool    `json:"success"`
	IsFraud             bool    `json:"isFraud"`
	FraudScore          float64 `json:"fraudScore"`
	RiskLevel           string  `json:"riskLevel"`
	DetailedExplanation string  `json:"detailedExplanation"`
	Error               string  `json:"error,omitempty"`
}

// Predict scores a claim with the ML model. Callers treat any error as
// "classifier evidence unavailable" and evaluate without it.
func (c *Client) Predict(ctx context.Context, claim *domain.Claim) (*domain.MLScore, error) {
	body, err := json.Marshal(predictRequest{
		ClaimID:             claim.ID,
		InsuranceType:       claim.InsuranceType,
		Amount:              claim.Amount,
		SumInsured:          claim.SumInsured,
		IncidentToClaimDays: claim.IncidentToClaimDays,
		PreviousClaimsCount: claim.PreviousClaimsCount,
		PolicyDurationDays:  claim.PolicyDurationDays,
		Description:         claim.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict call failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !decoded.Success {
		return nil, fmt.Errorf("predict returned %d: %s", resp.StatusCode, decoded.Error)
	}

	score := domain.Clamp01(decoded.FraudScore)
	level := domain.RiskLevel(decoded.RiskLevel)
	switch level {
	case domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
	default:
		level = domain.RiskLevelFor(score)
	}

	return &domain.MLScore{
		FraudScore:  score,
		RiskLevel:   level,
		IsFraud:     decoded.IsFraud,
		Explanation: decoded.DetailedExplanation,
	}, nil
}
