package scoring

import (
	"strconv"
	"strings"

	"github.com/SoganiJ/insurax/internal/domain"
)

// Per-document scoring adjustments. Each heuristic below is a named
// predicate so it can be tested in isolation.
const (
	syntheticPenalty   = 0.5
	identityAdjustment = 0.3
	amountBonus        = 0.15
	policyIDBonus      = 0.15
	incidentDateBonus  = 0.1
	suspiciousCutoff   = 0.5
)

var syntheticMarkers = []string{
	"lorem ipsum",
	"sample document",
	"test document",
	"template",
	"placeholder",
	"dummy",
}

// ExtractOCR scores document authenticity for a claim.
// Zero documents is "not analyzed": neutral authenticity, no items.
func ExtractOCR(claim *domain.Claim, docs []domain.DocumentAnalysis) *domain.OCRScore {
	if len(docs) == 0 {
		return &domain.OCRScore{Authenticity: 1.0}
	}

	matchSum := 0.0
	confSum := 0.0
	suspicious := 0

	for _, doc := range docs {
		match, synthetic := scoreDocument(claim, doc)
		matchSum += match
		confSum += doc.Confidence
		if match < suspiciousCutoff || synthetic {
			suspicious++
		}
	}

	n := float64(len(docs))
	meanMatch := matchSum / n
	meanConf := confSum / n

	return &domain.OCRScore{
		Authenticity:      domain.Clamp01(0.6*meanMatch + 0.4*meanConf),
		OverallConfidence: domain.Clamp01(meanConf),
		ItemsAnalyzed:     len(docs),
		SuspiciousItems:   suspicious,
	}
}

// scoreDocument computes the per-document match score and whether the
// text looks machine generated.
func scoreDocument(claim *domain.Claim, doc domain.DocumentAnalysis) (float64, bool) {
	text := strings.ToLower(doc.ExtractedText)
	match := 1.0

	synthetic := LooksSynthetic(doc.ExtractedText)
	if synthetic {
		match -= syntheticPenalty
	}

	if hasIdentity(claim) {
		if IdentityFound(claim, text) {
			match += identityAdjustment
		} else {
			match -= identityAdjustment
		}
	}

	if AmountFound(text, claim.Amount) {
		match += amountBonus
	}
	if claim.PolicyID != "" && strings.Contains(text, strings.ToLower(claim.PolicyID)) {
		match += policyIDBonus
	}
	if IncidentDateFound(text, claim) {
		match += incidentDateBonus
	}

	return domain.Clamp01(match), synthetic
}

// LooksSynthetic flags text that is too short to be a real document or
// carries boilerplate markers.
func LooksSynthetic(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 30 {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range syntheticMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func hasIdentity(claim *domain.Claim) bool {
	return claim.ClaimantName != "" || claim.ClaimantEmail != "" || claim.ClaimantPhone != ""
}

// IdentityFound reports whether any claimant identity field appears in
// the (lowercased) document text.
func IdentityFound(claim *domain.Claim, lowerText string) bool {
	if claim.ClaimantName != "" && strings.Contains(lowerText, strings.ToLower(claim.ClaimantName)) {
		return true
	}
	if claim.ClaimantEmail != "" && strings.Contains(lowerText, strings.ToLower(claim.ClaimantEmail)) {
		return true
	}
	if claim.ClaimantPhone != "" && strings.Contains(lowerText, normalizePhone(claim.ClaimantPhone)) {
		return true
	}
	return false
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AmountFound reports whether the claim amount appears in the text under
// any of its common renderings.
func AmountFound(lowerText string, amount float64) bool {
	if amount <= 0 {
		return false
	}
	for _, r := range amountRenderings(amount) {
		if strings.Contains(lowerText, r) {
			return true
		}
	}
	return false
}

func amountRenderings(amount float64) []string {
	plain := strings.TrimSuffix(strings.TrimRight(formatFloat(amount), "0"), ".")
	withDecimals := formatFloat(amount)
	grouped := groupThousands(plain)
	return []string{plain, withDecimals, grouped}
}

func formatFloat(v float64) string {
	// Two decimal places, the rendering invoices use.
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// IncidentDateFound checks the common date renderings of the incident
// date against the document text.
func IncidentDateFound(lowerText string, claim *domain.Claim) bool {
	if claim.IncidentDate.IsZero() {
		return false
	}
	renderings := []string{
		claim.IncidentDate.Format("2006-01-02"),
		claim.IncidentDate.Format("02/01/2006"),
		claim.IncidentDate.Format("01/02/2006"),
		strings.ToLower(claim.IncidentDate.Format("January 2, 2006")),
		strings.ToLower(claim.IncidentDate.Format("2 January 2006")),
	}
	for _, r := range renderings {
		if strings.Contains(lowerText, r) {
			return true
		}
	}
	return false
}

func groupThousands(digits string) string {
	dot := strings.IndexByte(digits, '.')
	intPart := digits
	frac := ""
	if dot >= 0 {
		intPart = digits[:dot]
		frac = digits[dot:]
	}
	if len(intPart) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + frac
}
