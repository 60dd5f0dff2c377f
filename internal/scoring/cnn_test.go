package scoring

import (
	"testing"

	"github.com/SoganiJ/insurax/internal/domain"
)

func TestExtractCNNNoImages(t *testing.T) {
	score := ExtractCNN(testClaim(), nil)

	if score.Authenticity != 1.0 {
		t.Errorf("expected neutral authenticity 1.0, got %.2f", score.Authenticity)
	}
	if score.ItemsAnalyzed != 0 {
		t.Errorf("expected 0 items, got %d", score.ItemsAnalyzed)
	}
}

func TestExtractCNNConsistentImage(t *testing.T) {
	claim := testClaim()
	img := domain.ImageAnalysis{
		ID:               "img-1",
		SceneDescription: "car with rear bumper damaged after parking collision",
		DetectedObjects:  []domain.DetectedObject{{Label: "car", Confidence: 0.97}},
		Verification:     "consistent with reported incident",
		Confidence:       0.95,
	}

	score := ExtractCNN(claim, []domain.ImageAnalysis{img})

	if score.SuspiciousItems != 0 {
		t.Errorf("expected no suspicious items, got %d", score.SuspiciousItems)
	}
	if score.Authenticity < 0.9 {
		t.Errorf("expected high authenticity, got %.2f", score.Authenticity)
	}
}

func TestExtractCNNStagedImage(t *testing.T) {
	claim := testClaim()
	img := domain.ImageAnalysis{
		ID:               "img-1",
		SceneDescription: "stock photo of a car with watermark across the frame",
		Verification:     "unable to verify",
		Confidence:       0.9,
	}

	score := ExtractCNN(claim, []domain.ImageAnalysis{img})

	if score.SuspiciousItems != 1 {
		t.Errorf("expected staged image to be suspicious, got %d", score.SuspiciousItems)
	}
}

func TestExtractCNNLowConfidenceMismatch(t *testing.T) {
	claim := testClaim()
	img := domain.ImageAnalysis{
		ID:               "img-1",
		SceneDescription: "car with rear bumper damaged after parking collision",
		DetectedObjects:  []domain.DetectedObject{{Label: "car", Confidence: 0.97}},
		Verification:     "consistent",
		Confidence:       0.3,
	}

	high := domain.ImageAnalysis{
		ID:               "img-2",
		SceneDescription: img.SceneDescription,
		DetectedObjects:  img.DetectedObjects,
		Verification:     "consistent",
		Confidence:       0.95,
	}

	low := ExtractCNN(claim, []domain.ImageAnalysis{img})
	ok := ExtractCNN(claim, []domain.ImageAnalysis{high})

	if low.Authenticity >= ok.Authenticity {
		t.Errorf("low confidence should lower authenticity: %.3f vs %.3f",
			low.Authenticity, ok.Authenticity)
	}
}

func TestExtractCNNMissingExpectedObject(t *testing.T) {
	claim := testClaim() // vehicle claim
	img := domain.ImageAnalysis{
		ID:               "img-1",
		SceneDescription: "empty street with no visible damage",
		DetectedObjects:  []domain.DetectedObject{{Label: "tree", Confidence: 0.9}},
		Verification:     "consistent",
		Confidence:       0.9,
	}

	withObject := domain.ImageAnalysis{
		ID:               "img-2",
		SceneDescription: img.SceneDescription,
		DetectedObjects:  []domain.DetectedObject{{Label: "car", Confidence: 0.9}},
		Verification:     "consistent",
		Confidence:       0.9,
	}

	missing := ExtractCNN(claim, []domain.ImageAnalysis{img})
	present := ExtractCNN(claim, []domain.ImageAnalysis{withObject})

	if missing.Authenticity >= present.Authenticity {
		t.Errorf("missing expected object should lower authenticity: %.3f vs %.3f",
			missing.Authenticity, present.Authenticity)
	}
}

func TestExtractCNNMinorDamageHighAmount(t *testing.T) {
	claim := testClaim()
	claim.Amount = 900000

	img := domain.ImageAnalysis{
		ID:               "img-1",
		SceneDescription: "car with a small scratch on the rear bumper",
		DetectedObjects:  []domain.DetectedObject{{Label: "car", Confidence: 0.97}},
		Verification:     "consistent",
		Confidence:       0.9,
	}

	highAmount := ExtractCNN(claim, []domain.ImageAnalysis{img})

	claim.Amount = 50000
	lowAmount := ExtractCNN(claim, []domain.ImageAnalysis{img})

	if highAmount.Authenticity >= lowAmount.Authenticity {
		t.Errorf("minor damage with a large amount should score worse: %.3f vs %.3f",
			highAmount.Authenticity, lowAmount.Authenticity)
	}
}

func TestExtractCNNSevereDamageHighAmount(t *testing.T) {
	claim := testClaim()
	claim.Amount = 900000

	img := domain.ImageAnalysis{
		ID:               "img-1",
		SceneDescription: "car crushed after severe highway collision",
		DetectedObjects:  []domain.DetectedObject{{Label: "car", Confidence: 0.97}},
		Verification:     "consistent",
		Confidence:       0.9,
	}

	highAmount := ExtractCNN(claim, []domain.ImageAnalysis{img})

	claim.Amount = 50000
	lowAmount := ExtractCNN(claim, []domain.ImageAnalysis{img})

	if highAmount.Authenticity <= lowAmount.Authenticity {
		t.Errorf("severe damage backing a large amount should score better: %.3f vs %.3f",
			highAmount.Authenticity, lowAmount.Authenticity)
	}
}

func TestVerificationMismatch(t *testing.T) {
	tests := []struct {
		verification string
		confidence   float64
		want         bool
	}{
		{"consistent", 0.9, false},
		{"image does not match the reported incident", 0.9, true},
		{"inconsistent lighting detected", 0.9, true},
		{"consistent", 0.3, true},
	}

	for _, tt := range tests {
		if got := VerificationMismatch(tt.verification, tt.confidence); got != tt.want {
			t.Errorf("VerificationMismatch(%q, %.1f) = %v, want %v",
				tt.verification, tt.confidence, got, tt.want)
		}
	}
}

func TestKeywordOverlap(t *testing.T) {
	t.Run("HighOverlap", func(t *testing.T) {
		ratio, ok := KeywordOverlap(
			"bumper damaged parking collision",
			"car with bumper damaged after a parking collision",
		)
		if !ok {
			t.Fatal("expected usable keywords")
		}
		if ratio <= 0.7 {
			t.Errorf("expected overlap above 0.7, got %.2f", ratio)
		}
	})

	t.Run("LowOverlap", func(t *testing.T) {
		ratio, ok := KeywordOverlap(
			"bumper damaged parking collision",
			"kitchen interior with ceiling water stains",
		)
		if !ok {
			t.Fatal("expected usable keywords")
		}
		if ratio >= 0.3 {
			t.Errorf("expected overlap below 0.3, got %.2f", ratio)
		}
	})

	t.Run("NoKeywords", func(t *testing.T) {
		_, ok := KeywordOverlap("the and was", "anything")
		if ok {
			t.Error("expected no usable keywords from stop words")
		}
	})
}

func TestStagedSignals(t *testing.T) {
	if !StagedSignals("a stock photo of damage", "") {
		t.Error("expected stock photo marker to flag")
	}
	if !StagedSignals("", "watermark detected in corner") {
		t.Error("expected watermark marker to flag")
	}
	if StagedSignals("genuine accident scene", "consistent") {
		t.Error("expected clean image to pass")
	}
}
