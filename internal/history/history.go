// Package history provides claim filing history lookups.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

// Service counts recent claim filings per user.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
	db    *sql.DB // Direct DB access for custom queries
}

// NewService creates a new history service.
func NewService(repo domain.Repository, cache domain.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// GetClaimCount returns the number of claims a user filed within the
// window. This is the HistoryGetter signature expected by the rule
// engine.
func (s *Service) GetClaimCount(ctx context.Context, userID string, windowDays int) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("userID is required")
	}

	since := time.Now().AddDate(0, 0, -windowDays)

	if s.db != nil {
		return s.countFromDB(ctx, userID, since)
	}

	if s.repo != nil {
		return s.countFromRepo(ctx, userID, since)
	}

	return 0, fmt.Errorf("no data source available")
}

// countFromDB queries the database directly for the claim count.
func (s *Service) countFromDB(ctx context.Context, userID string, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*) FROM claims
		WHERE user_id = ?
		AND submitted_date >= ?
	`

	var count int64
	err := s.db.QueryRowContext(ctx, query, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}

	return count, nil
}

// countFromRepo uses the repository to list claims and count them.
func (s *Service) countFromRepo(ctx context.Context, userID string, since time.Time) (int64, error) {
	claims, err := s.repo.ListClaimsByUser(ctx, userID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list claims: %w", err)
	}
	return int64(len(claims)), nil
}

// GetHistoryGetter returns a HistoryGetter function for the rule engine.
func (s *Service) GetHistoryGetter() func(ctx context.Context, userID string, windowDays int) (int64, error) {
	return s.GetClaimCount
}
