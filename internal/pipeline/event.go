package pipeline

import (
	"encoding/json"

	"github.com/SoganiJ/insurax/internal/domain"
)

// ScoredEvent is the payload published on claim.scored and alert
// topics.
type ScoredEvent struct {
	EvaluationID string           `json:"evaluationId"`
	ClaimID      string           `json:"claimId"`
	FraudScore   float64          `json:"fraudScore"`
	RiskLevel    domain.RiskLevel `json:"riskLevel"`
	IsFraud      bool             `json:"isFraud"`
	Overridden   bool             `json:"overridden"`
}

func marshalEvent(eval *domain.Evaluation) ([]byte, error) {
	return json.Marshal(ScoredEvent{
		EvaluationID: eval.ID,
		ClaimID:      eval.ClaimID,
		FraudScore:   eval.Score.FraudScore,
		RiskLevel:    eval.Score.RiskLevel,
		IsFraud:      eval.Score.IsFraud,
		Overridden:   eval.Score.Overridden,
	})
}
