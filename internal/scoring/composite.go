// Package scoring implements the per-signal score extractors and the
// composite aggregator that fuses them into a single claim verdict.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

// Weights configures the relative contribution of each component.
// Values are renormalized over the available components at aggregation
// time, so they only need to be meaningful relative to each other.
type Weights struct {
	ML      float64
	Network float64
	OCR     float64
	CNN     float64
}

// DefaultWeights returns the calibrated production weights.
func DefaultWeights() Weights {
	return Weights{
		ML:      0.35,
		Network: 0.35,
		OCR:     0.20,
		CNN:     0.15,
	}
}

// Inputs carries the optional component scores for one claim.
// A nil pointer means the component produced no evidence.
type Inputs struct {
	ML      *domain.MLScore
	Network *domain.NetworkScore
	OCR     *domain.OCRScore
	CNN     *domain.CNNScore
}

// Aggregator fuses component scores into a CompositeScore.
// It is stateless and safe for concurrent use.
type Aggregator struct {
	weights Weights
}

// NewAggregator creates an aggregator with the given base weights.
func NewAggregator(w Weights) *Aggregator {
	return &Aggregator{weights: w}
}

// component pairs a fraud-facing contribution with its base weight.
type component struct {
	name      string
	weight    float64
	value     float64
	available bool
}

// Aggregate fuses the available components into one verdict.
// Unavailable components get weight zero and the remaining weights are
// renormalized to sum to 1.0. With no components at all the result
// degenerates to score 0, confidence 0.
func (a *Aggregator) Aggregate(in Inputs) *domain.CompositeScore {
	components := []component{
		{name: domain.ComponentML, weight: a.weights.ML},
		{name: domain.ComponentNetwork, weight: a.weights.Network},
		{name: domain.ComponentOCR, weight: a.weights.OCR},
		{name: domain.ComponentCNN, weight: a.weights.CNN},
	}

	if in.ML != nil {
		components[0].available = true
		components[0].value = domain.Clamp01(in.ML.FraudScore)
	}
	if in.Network != nil && in.Network.OverallRisk > 0 {
		components[1].available = true
		components[1].value = domain.Clamp01(in.Network.OverallRisk)
	}
	if in.OCR != nil && in.OCR.ItemsAnalyzed > 0 {
		components[2].available = true
		// Document forgery is a fraud signal, authenticity is not.
		components[2].value = domain.Clamp01(1 - in.OCR.Authenticity)
	}
	if in.CNN != nil && in.CNN.ItemsAnalyzed > 0 {
		components[3].available = true
		components[3].value = domain.Clamp01(1 - in.CNN.Authenticity)
	}

	totalWeight := 0.0
	for _, c := range components {
		if c.available {
			totalWeight += c.weight
		}
	}

	score := 0.0
	analyzed := make([]string, 0, len(components))
	weightsUsed := make(map[string]float64, len(components))
	for _, c := range components {
		if !c.available || totalWeight == 0 {
			weightsUsed[c.name] = 0
			continue
		}
		w := c.weight / totalWeight
		weightsUsed[c.name] = w
		score += w * c.value
		analyzed = append(analyzed, c.name)
	}

	score = domain.Clamp01(score)

	cs := &domain.CompositeScore{
		FraudScore: score,
		RiskLevel:  domain.RiskLevelFor(score),
		IsFraud:    score >= 0.7,
		Confidence: 100 * float64(len(analyzed)) / float64(len(components)),
		ComponentScores: domain.ComponentScores{
			ML:      in.ML,
			Network: in.Network,
			OCR:     in.OCR,
			CNN:     in.CNN,
		},
		WeightsUsed:        weightsUsed,
		ComponentsAnalyzed: analyzed,
		Explanation:        buildExplanation(in, analyzed),
		Timestamp:          time.Now().UTC(),
	}
	if in.ML != nil && in.ML.IsFraud {
		cs.IsFraud = true
	}
	return cs
}

func buildExplanation(in Inputs, analyzed []string) string {
	var parts []string
	if in.ML != nil && in.ML.Explanation != "" {
		parts = append(parts, in.ML.Explanation)
	}
	if in.Network != nil && in.Network.IsInFraudRing {
		parts = append(parts, fmt.Sprintf("Claimant appears in %d suspicious network(s).", in.Network.SuspiciousNetworkCount))
	}
	if in.Network != nil && in.Network.IsRapidFiler {
		parts = append(parts, "Claimant shows a rapid claim filing pattern.")
	}
	if in.OCR != nil && in.OCR.SuspiciousItems > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d document(s) failed verification.", in.OCR.SuspiciousItems, in.OCR.ItemsAnalyzed))
	}
	if in.CNN != nil && in.CNN.SuspiciousItems > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d image(s) are inconsistent with the reported incident.", in.CNN.SuspiciousItems, in.CNN.ItemsAnalyzed))
	}
	if len(parts) == 0 {
		if len(analyzed) == 0 {
			return "No analysis components were available for this claim."
		}
		return "No fraud indicators were raised by the analyzed components."
	}
	return strings.Join(parts, " ")
}
