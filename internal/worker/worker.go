// Package worker provides async claim processing from the EventBus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
	"github.com/SoganiJ/insurax/internal/pipeline"
)

// Worker evaluates claims submitted through the EventBus. The HTTP API
// handles synchronous evaluation; the worker serves batch imports and
// integrations that submit claims as events.
type Worker struct {
	bus  domain.EventBus
	repo domain.Repository
	pipe *pipeline.Pipeline

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, pipe *pipeline.Pipeline) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		pipe:   pipe,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the claim submission topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicClaimSubmitted, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("claim worker started", "topic", domain.TopicClaimSubmitted)
	return nil
}

// ClaimMessage is the message payload for async claim processing.
type ClaimMessage struct {
	TraceID string              `json:"traceId,omitempty"`
	Claim   domain.ClaimRequest `json:"claim"`
}

// handleMessage evaluates one submitted claim.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var claimMsg ClaimMessage
	if err := json.Unmarshal(msg.Payload, &claimMsg); err != nil {
		slog.Error("failed to parse claim message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	traceID := claimMsg.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	claim := claimMsg.Claim.ToClaim()
	if claim.ID == "" {
		claim.ID = msg.ID
	}

	slog.Debug("processing claim",
		"claim_id", claim.ID,
		"trace_id", traceID,
	)

	if w.repo != nil {
		if err := w.repo.SaveClaim(ctx, claim); err != nil {
			slog.Error("failed to save claim",
				"claim_id", claim.ID,
				"error", err,
			)
			return err
		}
	}

	eval, err := w.pipe.Evaluate(ctx, &pipeline.EvaluateInput{
		Claim:        claim,
		Documents:    claimMsg.Claim.Documents,
		Images:       claimMsg.Claim.Images,
		DocumentRefs: claimMsg.Claim.DocumentRefs,
		ImageRefs:    claimMsg.Claim.ImageRefs,
		TraceID:      traceID,
		StartTime:    start,
	})
	if err != nil {
		slog.Error("claim evaluation failed",
			"claim_id", claim.ID,
			"error", err,
		)
		return err
	}

	slog.Info("claim processed",
		"claim_id", claim.ID,
		"risk_level", eval.Score.RiskLevel,
		"fraud_score", eval.Score.FraudScore,
		"overridden", eval.Score.Overridden,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("claim worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
