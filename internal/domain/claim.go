package domain

import (
	"time"
)

// Claim represents an incoming insurance claim to be evaluated.
type Claim struct {
	// Core identifiers
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	PolicyID string `json:"policyId"`

	// Insurance type (e.g., "vehicle", "property", "health")
	InsuranceType string `json:"insuranceType"`

	// Financial details
	Amount     float64 `json:"amount"`
	SumInsured float64 `json:"sumInsured"`

	// Temporal
	IncidentDate  time.Time `json:"incidentDate"`
	SubmittedDate time.Time `json:"submittedDate"`
	CreatedAt     time.Time `json:"createdAt"`

	// Claimant history at submission time
	IncidentToClaimDays int `json:"incidentToClaimDays"`
	PreviousClaimsCount int `json:"previousClaimsCount"`
	PolicyDurationDays  int `json:"policyDurationDays"`

	// Free-text incident description (used for evidence cross-checks)
	Description string `json:"description"`

	// Claimant identity (used for document verification)
	ClaimantName  string `json:"claimantName,omitempty"`
	ClaimantEmail string `json:"claimantEmail,omitempty"`
	ClaimantPhone string `json:"claimantPhone,omitempty"`
}

// ClaimRequest is the API request payload for claim evaluation.
// Optional fields are resolved to conservative defaults in ToClaim so the
// rest of the pipeline never sees missing values.
type ClaimRequest struct {
	UserID        string   `json:"userId" validate:"required"`
	PolicyID      string   `json:"policyId" validate:"required"`
	InsuranceType string   `json:"insuranceType"`
	Amount        float64  `json:"amount" validate:"required,gt=0"`
	SumInsured    *float64 `json:"sumInsured,omitempty"`

	IncidentDate  string `json:"incidentDate,omitempty"`  // RFC 3339 date
	SubmittedDate string `json:"submittedDate,omitempty"` // RFC 3339 date

	PreviousClaimsCount *int `json:"previousClaimsCount,omitempty"`
	PolicyDurationDays  *int `json:"policyDurationDays,omitempty"`

	Description string `json:"description,omitempty"`

	ClaimantName  string `json:"claimantName,omitempty"`
	ClaimantEmail string `json:"claimantEmail,omitempty"`
	ClaimantPhone string `json:"claimantPhone,omitempty"`

	// Evidence attached to the claim, either pre-analyzed or as
	// references for the vision services to analyze.
	Documents    []DocumentAnalysis `json:"documents,omitempty"`
	Images       []ImageAnalysis    `json:"images,omitempty"`
	DocumentRefs []string           `json:"documentRefs,omitempty"`
	ImageRefs    []string           `json:"imageRefs,omitempty"`
}

// ToClaim converts a request to a Claim domain object, filling defaults.
func (r *ClaimRequest) ToClaim() *Claim {
	now := time.Now().UTC()

	c := &Claim{
		UserID:        r.UserID,
		PolicyID:      r.PolicyID,
		InsuranceType: r.InsuranceType,
		Amount:        r.Amount,
		Description:   r.Description,
		ClaimantName:  r.ClaimantName,
		ClaimantEmail: r.ClaimantEmail,
		ClaimantPhone: r.ClaimantPhone,
		SubmittedDate: now,
		CreatedAt:     now,
	}

	if r.SumInsured != nil {
		c.SumInsured = *r.SumInsured
	}
	if r.PreviousClaimsCount != nil {
		c.PreviousClaimsCount = *r.PreviousClaimsCount
	}
	if r.PolicyDurationDays != nil {
		c.PolicyDurationDays = *r.PolicyDurationDays
	}

	if t, err := parseDate(r.SubmittedDate); err == nil {
		c.SubmittedDate = t
	}
	if t, err := parseDate(r.IncidentDate); err == nil {
		c.IncidentDate = t
		c.IncidentToClaimDays = calendarDaysBetween(t, c.SubmittedDate)
	}

	return c
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// calendarDaysBetween counts whole calendar days from one date to the
// other, clamped at zero when the dates are out of order.
func calendarDaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	days := int(toDay.Sub(fromDay).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days
}

// SameDayFiling reports whether the claim was filed on the incident date.
// When both dates are present they are compared directly; the stored gap
// is only consulted for claims without a submission date.
func (c *Claim) SameDayFiling() bool {
	if c.IncidentDate.IsZero() {
		return false
	}
	if !c.SubmittedDate.IsZero() {
		return calendarDaysBetween(c.IncidentDate, c.SubmittedDate) == 0
	}
	return c.IncidentToClaimDays == 0
}

// User is the minimal claimant read model shared with network analysis.
type User struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	FraudScore  float64 `json:"fraudScore"`
	ClaimsCount int     `json:"claimsCount"`
}

// Policy is the minimal policy read model shared with network analysis.
type Policy struct {
	ID         string  `json:"id"`
	UserID     string  `json:"userId"`
	Type       string  `json:"type"`
	SumInsured float64 `json:"sumInsured"`
	StartDate  string  `json:"startDate"`
}
