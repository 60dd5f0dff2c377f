// Package pipeline orchestrates claim evaluation end to end: evidence
// extraction, composite aggregation, the business rule layer and
// persistence of the resulting verdict.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SoganiJ/insurax/internal/domain"
	"github.com/SoganiJ/insurax/internal/rules"
	"github.com/SoganiJ/insurax/internal/scoring"
)

// EngineVersion tags persisted evaluations with the engine release.
const EngineVersion = "insurax-1.0"

// Predictor scores a claim with the ML model.
type Predictor interface {
	Predict(ctx context.Context, claim *domain.Claim) (*domain.MLScore, error)
}

// VisionAnalyzer runs OCR and scene analysis over evidence references.
type VisionAnalyzer interface {
	AnalyzeDocuments(ctx context.Context, claimID string, refs []string) ([]domain.DocumentAnalysis, error)
	AnalyzeImages(ctx context.Context, claimID string, refs []string) ([]domain.ImageAnalysis, error)
}

// SnapshotProvider supplies the current network analysis snapshot.
type SnapshotProvider interface {
	GetOrRefresh(ctx context.Context) (*domain.NetworkAnalysisSnapshot, error)
}

// RuleEvaluator runs operator-authored rules against a claim.
type RuleEvaluator interface {
	EvaluateAll(ctx context.Context, claim *domain.Claim) ([]domain.RuleViolation, error)
}

// Pipeline wires the evaluation stages together. Collaborator failures
// degrade to absent evidence: a claim is always evaluated with
// whatever components are available.
type Pipeline struct {
	predictor  Predictor
	vision     VisionAnalyzer
	ring       SnapshotProvider
	engine     RuleEvaluator
	aggregator *scoring.Aggregator
	repo       domain.Repository
	bus        domain.EventBus
	logger     *slog.Logger
}

// New creates an evaluation pipeline. predictor, vision, ring, engine
// and bus are optional: a nil collaborator simply contributes nothing.
func New(predictor Predictor, vision VisionAnalyzer, ring SnapshotProvider, engine RuleEvaluator, aggregator *scoring.Aggregator, repo domain.Repository, bus domain.EventBus, logger *slog.Logger) *Pipeline {
	if aggregator == nil {
		aggregator = scoring.NewAggregator(scoring.DefaultWeights())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		predictor:  predictor,
		vision:     vision,
		ring:       ring,
		engine:     engine,
		aggregator: aggregator,
		repo:       repo,
		bus:        bus,
		logger:     logger,
	}
}

// EvaluateInput carries one claim and its evidence through the pipeline.
type EvaluateInput struct {
	Claim        *domain.Claim
	Documents    []domain.DocumentAnalysis
	Images       []domain.ImageAnalysis
	DocumentRefs []string
	ImageRefs    []string
	TraceID      string
	StartTime    time.Time
}

// Evaluate runs the full pipeline for one claim and persists the
// result. The returned error covers persistence only: evidence
// failures are logged and absorbed.
func (p *Pipeline) Evaluate(ctx context.Context, input *EvaluateInput) (*domain.Evaluation, error) {
	if input.StartTime.IsZero() {
		input.StartTime = time.Now()
	}
	claim := input.Claim

	extractStart := time.Now()
	in := p.extract(ctx, input)
	extractMs := time.Since(extractStart).Milliseconds()

	aggStart := time.Now()
	composite := p.aggregator.Aggregate(in)
	aggMs := time.Since(aggStart).Milliseconds()

	rulesStart := time.Now()
	violations := rules.EvaluateBuiltins(claim)
	if p.engine != nil {
		custom, err := p.engine.EvaluateAll(ctx, claim)
		if err != nil {
			p.logger.Warn("custom rule evaluation failed", "claimId", claim.ID, "error", err)
		} else {
			violations = append(violations, custom...)
		}
	}
	composite = rules.ApplyOverride(composite, violations)
	rulesMs := time.Since(rulesStart).Milliseconds()

	eval := &domain.Evaluation{
		ID:        uuid.New().String(),
		ClaimID:   claim.ID,
		Score:     *composite,
		Timestamp: time.Now().UTC(),
		Metadata: domain.EvaluationMetadata{
			TraceID:       input.TraceID,
			ExtractMs:     extractMs,
			AggregateMs:   aggMs,
			RulesMs:       rulesMs,
			TotalMs:       time.Since(input.StartTime).Milliseconds(),
			RulesFired:    len(violations),
			EngineVersion: EngineVersion,
		},
	}

	if p.repo != nil {
		if err := p.repo.SaveEvaluation(ctx, eval); err != nil {
			return nil, fmt.Errorf("failed to save evaluation: %w", err)
		}
	}

	p.publish(ctx, eval)

	return eval, nil
}

// extract collects the component scores, degrading on any collaborator
// failure.
func (p *Pipeline) extract(ctx context.Context, input *EvaluateInput) scoring.Inputs {
	claim := input.Claim
	var in scoring.Inputs

	if p.predictor != nil {
		ml, err := p.predictor.Predict(ctx, claim)
		if err != nil {
			p.logger.Warn("classifier unavailable, evaluating without ML score",
				"claimId", claim.ID, "error", err)
		} else {
			in.ML = ml
		}
	}

	docs := input.Documents
	if len(docs) == 0 && len(input.DocumentRefs) > 0 && p.vision != nil {
		analyzed, err := p.vision.AnalyzeDocuments(ctx, claim.ID, input.DocumentRefs)
		if err != nil {
			p.logger.Warn("document analysis unavailable", "claimId", claim.ID, "error", err)
		} else {
			docs = analyzed
		}
	}
	in.OCR = scoring.ExtractOCR(claim, docs)

	images := input.Images
	if len(images) == 0 && len(input.ImageRefs) > 0 && p.vision != nil {
		analyzed, err := p.vision.AnalyzeImages(ctx, claim.ID, input.ImageRefs)
		if err != nil {
			p.logger.Warn("image analysis unavailable", "claimId", claim.ID, "error", err)
		} else {
			images = analyzed
		}
	}
	in.CNN = scoring.ExtractCNN(claim, images)

	if p.ring != nil {
		snap, err := p.ring.GetOrRefresh(ctx)
		if err != nil {
			p.logger.Warn("network snapshot unavailable, evaluating without network score",
				"claimId", claim.ID, "error", err)
		} else {
			in.Network = scoring.ExtractNetwork(claim, snap)
		}
	}

	return in
}

// publish announces the verdict, and an alert for high-risk claims.
func (p *Pipeline) publish(ctx context.Context, eval *domain.Evaluation) {
	if p.bus == nil {
		return
	}

	payload, err := marshalEvent(eval)
	if err != nil {
		p.logger.Warn("failed to encode evaluation event", "error", err)
		return
	}

	if err := p.bus.Publish(ctx, domain.TopicClaimScored, payload); err != nil {
		p.logger.Warn("failed to publish scored event", "error", err)
	}

	if eval.Score.RiskLevel == domain.RiskHigh {
		if err := p.bus.Publish(ctx, domain.TopicAlert, payload); err != nil {
			p.logger.Warn("failed to publish alert event", "error", err)
		}
	}
}
