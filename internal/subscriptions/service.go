package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/shared/telemetry"
)

// Service manages borrower plans.
type Service struct {
	Repo      Repo
	Borrowers borrowers.Repo
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ready() error {
	if s == nil || s.Repo == nil {
		return errors.New("subscription service not configured")
	}
	return nil
}

// Current returns the active plan, or an unsaved starter plan when none exists.
func (s *Service) Current(ctx context.Context, borrowerID string) (SubscriptionPlan, error) {
	if err := s.ready(); err != nil {
		return SubscriptionPlan{}, err
	}
	p, err := s.Repo.Active(ctx, borrowerID)
	if errors.Is(err, ErrNotFound) {
		starter, _ := Lookup(PlanStarter)
		return SubscriptionPlan{
			BorrowerProfileID: borrowerID,
			PlanName:          starter.Name,
			Price:             starter.Price,
			Features:          starter.Features,
			Status:            StatusActive,
		}, nil
	}
	return p, err
}

// Subscribe cancels the active plan and starts plan in its place.
func (s *Service) Subscribe(ctx context.Context, borrowerID, plan string) (SubscriptionPlan, error) {
	if err := s.ready(); err != nil {
		return SubscriptionPlan{}, err
	}
	entry, ok := Lookup(plan)
	if !ok {
		return SubscriptionPlan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}

	var borrower borrowers.BorrowerProfile
	if s.Borrowers != nil {
		b, err := s.Borrowers.GetByID(ctx, borrowerID)
		if err != nil {
			return SubscriptionPlan{}, err
		}
		borrower = b
	}

	now := s.now()
	next := SubscriptionPlan{
		ID:                uuid.NewString(),
		BorrowerProfileID: borrowerID,
		PlanName:          entry.Name,
		Price:             entry.Price,
		Features:          entry.Features,
		Status:            StatusActive,
		StartDate:         now,
	}
	if err := s.Repo.Replace(ctx, next, now); err != nil {
		return SubscriptionPlan{}, fmt.Errorf("subscribe: %w", err)
	}

	if s.Borrowers != nil {
		borrower.SubscriptionPlan = entry.Name
		borrower.UpdatedAt = now
		if err := s.Borrowers.Update(ctx, borrower); err != nil {
			return SubscriptionPlan{}, fmt.Errorf("subscribe: %w", err)
		}
	}
	telemetry.Info("subscription.changed", map[string]any{
		"borrower_id": borrowerID,
		"plan":        entry.Name,
	})
	return next, nil
}

// Allows reports whether the borrower's active plan grants feature.
// Borrowers without a stored plan are not gated.
func (s *Service) Allows(ctx context.Context, borrowerID, feature string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	p, err := s.Repo.Active(ctx, borrowerID)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return HasFeature(p.PlanName, feature), nil
}
