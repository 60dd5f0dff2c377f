package domain

import (
	"time"
)

// RiskLevel is the calibrated three-tier verdict.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevelFor maps a composite fraud score to its tier.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 0.7:
		return RiskHigh
	case score >= 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Clamp01 bounds a score to the unit interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Component names used in weights and availability sets.
const (
	ComponentML      = "ml"
	ComponentNetwork = "network"
	ComponentOCR     = "ocr"
	ComponentCNN     = "cnn"
)

// MLScore is the classifier verdict for a claim. Immutable input.
type MLScore struct {
	FraudScore  float64   `json:"fraudScore"`
	RiskLevel   RiskLevel `json:"riskLevel"`
	IsFraud     bool      `json:"isFraud"`
	Explanation string    `json:"explanation"`
}

// NetworkScore is the graph-derived risk signal for a claimant.
type NetworkScore struct {
	OverallRisk            float64 `json:"overallRisk"`
	SuspiciousNetworkCount int     `json:"suspiciousNetworkCount"`
	IsRapidFiler           bool    `json:"isRapidFiler"`
	IsInFraudRing          bool    `json:"isInFraudRing"`
}

// OCRScore summarizes document verification for a claim.
// Authenticity is fraud-facing inverted by the aggregator: a fully
// authentic document set contributes zero fraud signal.
type OCRScore struct {
	Authenticity      float64 `json:"authenticity"`
	OverallConfidence float64 `json:"overallConfidence"`
	ItemsAnalyzed     int     `json:"itemsAnalyzed"`
	SuspiciousItems   int     `json:"suspiciousItems"`
}

// CNNScore summarizes image consistency checks for a claim.
type CNNScore struct {
	Authenticity      float64 `json:"authenticity"`
	OverallConfidence float64 `json:"overallConfidence"`
	ItemsAnalyzed     int     `json:"itemsAnalyzed"`
	SuspiciousItems   int     `json:"suspiciousItems"`
}

// ComponentScores carries the per-component inputs that fed a composite.
type ComponentScores struct {
	ML      *MLScore      `json:"ml,omitempty"`
	Network *NetworkScore `json:"network,omitempty"`
	OCR     *OCRScore     `json:"ocr,omitempty"`
	CNN     *CNNScore     `json:"cnn,omitempty"`
}

// CompositeScore is the fused verdict for one claim. It is a fresh value
// object: re-running the aggregation on the same inputs yields an equal
// score with a new timestamp.
type CompositeScore struct {
	FraudScore float64   `json:"fraudScore"`
	RiskLevel  RiskLevel `json:"riskLevel"`
	IsFraud    bool      `json:"isFraud"`

	// Confidence in [0,100], proportional to available components.
	Confidence float64 `json:"confidence"`

	ComponentScores    ComponentScores    `json:"componentScores"`
	WeightsUsed        map[string]float64 `json:"weightsUsed"`
	ComponentsAnalyzed []string           `json:"componentsAnalyzed"`

	Explanation string    `json:"explanation"`
	Timestamp   time.Time `json:"timestamp"`

	// Rule override bookkeeping
	Overridden bool            `json:"overridden"`
	Violations []RuleViolation `json:"violations,omitempty"`
}

// Evaluation is the persisted record binding a claim to its verdict.
type Evaluation struct {
	ID        string         `json:"id"`
	ClaimID   string         `json:"claimId"`
	Score     CompositeScore `json:"score"`
	Timestamp time.Time      `json:"timestamp"`

	Metadata EvaluationMetadata `json:"metadata"`
}

// EvaluationMetadata contains processing information.
type EvaluationMetadata struct {
	TraceID       string `json:"traceId"`
	ExtractMs     int64  `json:"extractMs"`
	AggregateMs   int64  `json:"aggregateMs"`
	RulesMs       int64  `json:"rulesMs"`
	TotalMs       int64  `json:"totalMs"`
	RulesFired    int    `json:"rulesFired"`
	EngineVersion string `json:"engineVersion"`
}

// EvaluationResponse is the API response for a claim evaluation.
type EvaluationResponse struct {
	EvaluationID       string             `json:"evaluationId"`
	ClaimID            string             `json:"claimId"`
	FraudScore         float64            `json:"fraudScore"`
	RiskLevel          RiskLevel          `json:"riskLevel"`
	IsFraud            bool               `json:"isFraud"`
	Confidence         float64            `json:"confidence"`
	ComponentsAnalyzed []string           `json:"componentsAnalyzed"`
	WeightsUsed        map[string]float64 `json:"weightsUsed"`
	Explanation        string             `json:"explanation"`
	Overridden         bool               `json:"overridden"`
	Violations         []RuleViolation    `json:"violations,omitempty"`
	Metadata           EvaluationMetadata `json:"metadata"`
}

// ToResponse converts an Evaluation to an API response.
func (e *Evaluation) ToResponse() *EvaluationResponse {
	return &EvaluationResponse{
		EvaluationID:       e.ID,
		ClaimID:            e.ClaimID,
		FraudScore:         e.Score.FraudScore,
		RiskLevel:          e.Score.RiskLevel,
		IsFraud:            e.Score.IsFraud,
		Confidence:         e.Score.Confidence,
		ComponentsAnalyzed: e.Score.ComponentsAnalyzed,
		WeightsUsed:        e.Score.WeightsUsed,
		Explanation:        e.Score.Explanation,
		Overridden:         e.Score.Overridden,
		Violations:         e.Score.Violations,
		Metadata:           e.Metadata,
	}
}
