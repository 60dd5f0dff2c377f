package domain

import (
	"time"
)

// SuspiciousNetwork is a connected group of claimants flagged by the
// fraud ring service (shared phone, shared policy or cross-claim links).
type SuspiciousNetwork struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"` // "phone", "policy", "claim"
	MemberIDs    []string `json:"memberIds"`
	MemberEmails []string `json:"memberEmails,omitempty"`
	RiskScore    float64  `json:"riskScore"`
	Description  string   `json:"description,omitempty"`
}

// RapidFiler marks a claimant with an unusually high recent filing rate.
type RapidFiler struct {
	UserID      string `json:"userId"`
	Email       string `json:"email,omitempty"`
	ClaimsCount int    `json:"claimsCount"`
	WindowDays  int    `json:"windowDays"`
}

// FraudIndicators groups the per-user warning signals of a snapshot.
type FraudIndicators struct {
	HighRiskUsers []string     `json:"highRiskUsers,omitempty"`
	RapidFilers   []RapidFiler `json:"rapidFilers,omitempty"`
}

// RiskEntry is one user's graph-derived risk in a snapshot.
type RiskEntry struct {
	UserID      string  `json:"userId"`
	OverallRisk float64 `json:"overallRisk"`
	ClaimCount  int     `json:"claimCount"`
}

// NetworkAnalysisSnapshot is the cached result of one fraud ring service
// run. Snapshots are replaced atomically and never mutated in place.
type NetworkAnalysisSnapshot struct {
	SuspiciousNetworks []SuspiciousNetwork  `json:"suspiciousNetworks"`
	FraudIndicators    FraudIndicators      `json:"fraudIndicators"`
	RiskScores         map[string]RiskEntry `json:"riskScores"`

	FetchedAt time.Time `json:"fetchedAt"`
	Source    string    `json:"source"`
}

// RiskFor returns the snapshot risk entry for a user, zero-valued when the
// user does not appear in the analysis.
func (s *NetworkAnalysisSnapshot) RiskFor(userID string) RiskEntry {
	if s == nil || s.RiskScores == nil {
		return RiskEntry{UserID: userID}
	}
	return s.RiskScores[userID]
}

// MembershipsOf returns the suspicious networks a user belongs to,
// matched by id or email.
func (s *NetworkAnalysisSnapshot) MembershipsOf(userID, email string) []SuspiciousNetwork {
	if s == nil {
		return nil
	}
	var out []SuspiciousNetwork
	for _, n := range s.SuspiciousNetworks {
		if containsString(n.MemberIDs, userID) || (email != "" && containsString(n.MemberEmails, email)) {
			out = append(out, n)
		}
	}
	return out
}

// RapidFilerOf returns the rapid filer record for a user, if any.
func (s *NetworkAnalysisSnapshot) RapidFilerOf(userID, email string) (RapidFiler, bool) {
	if s == nil {
		return RapidFiler{}, false
	}
	for _, rf := range s.FraudIndicators.RapidFilers {
		if rf.UserID == userID || (email != "" && rf.Email == email) {
			return rf, true
		}
	}
	return RapidFiler{}, false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
