package scoring

import (
	"github.com/SoganiJ/insurax/internal/domain"
)

// ExtractNetwork derives the claimant's network risk from the current
// fraud ring snapshot. A nil snapshot (network evidence unavailable)
// yields the zero score, which the aggregator treats as absent.
func ExtractNetwork(claim *domain.Claim, snap *domain.NetworkAnalysisSnapshot) *domain.NetworkScore {
	if snap == nil {
		return &domain.NetworkScore{}
	}

	base := snap.RiskFor(claim.UserID).OverallRisk
	memberships := snap.MembershipsOf(claim.UserID, claim.ClaimantEmail)

	risk := base
	if len(memberships) > 0 {
		maxRisk := 0.0
		for _, n := range memberships {
			if n.RiskScore > maxRisk {
				maxRisk = n.RiskScore
			}
		}
		risk = 0.4*base + 0.4*maxRisk + 0.05*float64(len(memberships)-1)
	}

	rf, rapid := snap.RapidFilerOf(claim.UserID, claim.ClaimantEmail)
	if rapid {
		risk += 0.2 * rapidFilerTier(rf.ClaimsCount)
	}

	return &domain.NetworkScore{
		OverallRisk:            domain.Clamp01(risk),
		SuspiciousNetworkCount: len(memberships),
		IsRapidFiler:           rapid,
		IsInFraudRing:          len(memberships) > 0,
	}
}

// rapidFilerTier scales the rapid-filing increment by recent volume.
func rapidFilerTier(claimsCount int) float64 {
	switch {
	case claimsCount >= 5:
		return 0.3
	case claimsCount >= 3:
		return 0.2
	default:
		return 0.1
	}
}
