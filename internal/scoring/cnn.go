package scoring

import (
	"strings"

	"github.com/SoganiJ/insurax/internal/domain"
)

const (
	mismatchPenalty      = 0.4
	lowOverlapPenalty    = 0.3
	highOverlapBonus     = 0.2
	missingObjectPenalty = 0.2
	objectPresentBonus   = 0.1
	severityPenalty      = 0.4
	severityBonus        = 0.1
	stagedPenalty        = 0.5
)

var (
	mismatchMarkers = []string{"mismatch", "inconsistent", "does not match", "unrelated"}
	stagedMarkers   = []string{"stock photo", "stock image", "watermark", "staged", "screenshot"}

	vehicleLabels  = []string{"car", "truck", "vehicle", "motorcycle", "bus", "van"}
	propertyLabels = []string{"house", "building", "roof", "wall", "door", "window"}

	minorDamageTerms  = []string{"scratch", "dent", "minor", "small crack", "chip", "scuff"}
	severeDamageTerms = []string{"totaled", "destroyed", "severe", "extensive", "crushed", "collapsed", "burned"}
)

// ExtractCNN scores image consistency against the reported incident.
// Zero images is "not analyzed": neutral authenticity, no items.
func ExtractCNN(claim *domain.Claim, images []domain.ImageAnalysis) *domain.CNNScore {
	if len(images) == 0 {
		return &domain.CNNScore{Authenticity: 1.0}
	}

	consistencySum := 0.0
	confSum := 0.0
	suspicious := 0

	for _, img := range images {
		consistency, hardFlag := scoreImage(claim, img)
		consistencySum += consistency
		confSum += img.Confidence
		if consistency < suspiciousCutoff || hardFlag {
			suspicious++
		}
	}

	n := float64(len(images))
	meanConsistency := consistencySum / n
	meanConf := confSum / n

	return &domain.CNNScore{
		Authenticity:      domain.Clamp01(0.5*meanConsistency + 0.5*meanConf),
		OverallConfidence: domain.Clamp01(meanConf),
		ItemsAnalyzed:     len(images),
		SuspiciousItems:   suspicious,
	}
}

func scoreImage(claim *domain.Claim, img domain.ImageAnalysis) (float64, bool) {
	scene := strings.ToLower(img.SceneDescription)
	verification := strings.ToLower(img.Verification)
	consistency := 1.0
	hardFlag := false

	if VerificationMismatch(verification, img.Confidence) {
		consistency -= mismatchPenalty
	}

	if ratio, ok := KeywordOverlap(claim.Description, scene); ok {
		switch {
		case ratio < 0.3:
			consistency -= lowOverlapPenalty
		case ratio > 0.7:
			consistency += highOverlapBonus
		}
	}

	if adj, checked := expectedObjectAdjustment(claim, img.DetectedObjects); checked {
		consistency += adj
	}

	consistency += severityAdjustment(scene, claim.Amount)

	if StagedSignals(scene, verification) {
		consistency -= stagedPenalty
		hardFlag = true
	}

	return domain.Clamp01(consistency), hardFlag
}

// VerificationMismatch reports whether the verifier rejected the image
// or produced a low-confidence result.
func VerificationMismatch(lowerVerification string, confidence float64) bool {
	if confidence < 0.5 {
		return true
	}
	for _, m := range mismatchMarkers {
		if strings.Contains(lowerVerification, m) {
			return true
		}
	}
	return false
}

// KeywordOverlap computes the share of incident description keywords
// that also appear in the scene description. The second return value is
// false when the description carries no usable keywords.
func KeywordOverlap(description, lowerScene string) (float64, bool) {
	keywords := contentWords(strings.ToLower(description))
	if len(keywords) == 0 {
		return 0, false
	}
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(lowerScene, kw) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords)), true
}

var stopWords = map[string]bool{
	"the": true, "and": true, "was": true, "were": true, "that": true,
	"this": true, "with": true, "from": true, "have": true, "has": true,
	"had": true, "for": true, "are": true, "but": true, "not": true,
	"when": true, "then": true, "there": true, "their": true, "into": true,
}

func contentWords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) > 3 && !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}

// expectedObjectAdjustment checks that the object class the claim implies
// actually appears in the image. Returns checked=false when the claim
// implies no particular object.
func expectedObjectAdjustment(claim *domain.Claim, objects []domain.DetectedObject) (float64, bool) {
	desc := strings.ToLower(claim.Description)
	var expected []string
	switch {
	case claim.InsuranceType == "vehicle" || containsAny(desc, vehicleLabels):
		expected = vehicleLabels
	case claim.InsuranceType == "property" || containsAny(desc, propertyLabels):
		expected = propertyLabels
	default:
		return 0, false
	}

	for _, obj := range objects {
		if containsAny(strings.ToLower(obj.Label), expected) {
			return objectPresentBonus, true
		}
	}
	return -missingObjectPenalty, true
}

// severityAdjustment scores visible damage severity against the claimed
// amount: minor damage on a large claim is penalized, severe damage
// backing a large claim earns a small bonus.
func severityAdjustment(lowerScene string, amount float64) float64 {
	minor := containsAny(lowerScene, minorDamageTerms)
	severe := containsAny(lowerScene, severeDamageTerms)

	switch {
	case minor && !severe:
		switch {
		case amount > 500000:
			return -severityPenalty
		case amount > 100000:
			return -severityPenalty / 2
		}
	case severe && !minor:
		if amount > 100000 {
			return severityBonus
		}
	}
	return 0
}

// StagedSignals flags stock, staged or watermarked imagery.
func StagedSignals(lowerScene, lowerVerification string) bool {
	return containsAny(lowerScene, stagedMarkers) || containsAny(lowerVerification, stagedMarkers)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
