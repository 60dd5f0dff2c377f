package history

import (
	"context"
	"testing"
	"time"

	"github.com/SoganiJ/insurax/internal/domain"
)

type stubRepo struct {
	domain.Repository
	claims []*domain.Claim
}

func (s *stubRepo) ListClaimsByUser(ctx context.Context, userID string, since time.Time) ([]*domain.Claim, error) {
	var out []*domain.Claim
	for _, c := range s.claims {
		if c.UserID == userID && !c.SubmittedDate.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestGetClaimCount(t *testing.T) {
	now := time.Now()
	repo := &stubRepo{claims: []*domain.Claim{
		{ID: "claim-1", UserID: "user-001", SubmittedDate: now.AddDate(0, 0, -5)},
		{ID: "claim-2", UserID: "user-001", SubmittedDate: now.AddDate(0, 0, -20)},
		{ID: "claim-3", UserID: "user-001", SubmittedDate: now.AddDate(0, 0, -90)},
		{ID: "claim-4", UserID: "user-002", SubmittedDate: now.AddDate(0, 0, -1)},
	}}
	svc := NewService(repo, nil)

	t.Run("CountsWithinWindow", func(t *testing.T) {
		count, err := svc.GetClaimCount(context.Background(), "user-001", 30)
		if err != nil {
			t.Fatalf("GetClaimCount failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 claims in 30-day window, got %d", count)
		}
	})

	t.Run("WiderWindow", func(t *testing.T) {
		count, err := svc.GetClaimCount(context.Background(), "user-001", 365)
		if err != nil {
			t.Fatalf("GetClaimCount failed: %v", err)
		}
		if count != 3 {
			t.Errorf("expected 3 claims in 365-day window, got %d", count)
		}
	})

	t.Run("OtherUser", func(t *testing.T) {
		count, err := svc.GetClaimCount(context.Background(), "user-002", 30)
		if err != nil {
			t.Fatalf("GetClaimCount failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 claim, got %d", count)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		count, err := svc.GetClaimCount(context.Background(), "user-999", 30)
		if err != nil {
			t.Fatalf("GetClaimCount failed: %v", err)
		}
		if count != 0 {
			t.Errorf("expected 0 claims, got %d", count)
		}
	})

	t.Run("EmptyUserID", func(t *testing.T) {
		if _, err := svc.GetClaimCount(context.Background(), "", 30); err == nil {
			t.Error("expected error for empty userID")
		}
	})

	t.Run("NoDataSource", func(t *testing.T) {
		empty := NewService(nil, nil)
		if _, err := empty.GetClaimCount(context.Background(), "user-001", 30); err == nil {
			t.Error("expected error with no data source")
		}
	})
}

func TestGetHistoryGetter(t *testing.T) {
	repo := &stubRepo{claims: []*domain.Claim{
		{ID: "claim-1", UserID: "user-001", SubmittedDate: time.Now().AddDate(0, 0, -3)},
	}}
	getter := NewService(repo, nil).GetHistoryGetter()

	count, err := getter(context.Background(), "user-001", 30)
	if err != nil {
		t.Fatalf("getter failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 claim, got %d", count)
	}
}
