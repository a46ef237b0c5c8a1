package borrowers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loanmvp/internal/shared/auth"
)

// defaultPlan matches the starter tier of the subscription catalog.
const defaultPlan = "starter"

// Service contains business logic for borrower profiles.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create validates and stores an intake profile.
func (s *Service) Create(ctx context.Context, req CreateRequest) (BorrowerProfile, error) {
	if s == nil || s.Repo == nil {
		return BorrowerProfile{}, errors.New("borrower service not configured")
	}
	p := req.Profile()
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	if err := validate(p); err != nil {
		return BorrowerProfile{}, err
	}
	if p.SubscriptionPlan == "" {
		p.SubscriptionPlan = defaultPlan
	}
	now := s.now()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.Repo.Create(ctx, p); err != nil {
		return BorrowerProfile{}, fmt.Errorf("create borrower: %w", err)
	}
	return p, nil
}

// Get returns a profile by ID.
func (s *Service) Get(ctx context.Context, id string) (BorrowerProfile, error) {
	if strings.TrimSpace(id) == "" {
		return BorrowerProfile{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, id)
}

// ForUser returns the calling user's profile.
func (s *Service) ForUser(ctx context.Context, userID string) (BorrowerProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return BorrowerProfile{}, ErrInvalidInput
	}
	return s.Repo.GetByUserID(ctx, userID)
}

// List returns profiles newest-first.
func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]BorrowerProfile, error) {
	return s.Repo.List(ctx, filter, limit, offset)
}

// Update applies a patch and persists the result.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (BorrowerProfile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return BorrowerProfile{}, err
	}
	patch.Apply(&p)
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	if err := validate(p); err != nil {
		return BorrowerProfile{}, err
	}
	p.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, p); err != nil {
		return BorrowerProfile{}, err
	}
	return p, nil
}

func validate(p BorrowerProfile) error {
	if p.FullName == "" {
		return fmt.Errorf("%w: full_name is required", ErrInvalidInput)
	}
	if p.Email != "" && !auth.IsValidEmail(p.Email) {
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	money := map[string]float64{
		"annual_income":            p.AnnualIncome,
		"income":                   p.Income,
		"monthly_income_secondary": p.MonthlyIncomeSecondary,
		"bank_balance":             p.BankBalance,
		"monthly_housing_payment":  p.MonthlyHousingPayment,
		"years_at_job":             p.YearsAtJob,
	}
	for field, v := range money {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, field)
		}
	}
	if p.Dependents < 0 {
		return fmt.Errorf("%w: dependents must not be negative", ErrInvalidInput)
	}
	if p.CreditScore != 0 && (p.CreditScore < 300 || p.CreditScore > 850) {
		return fmt.Errorf("%w: credit_score must be between 300 and 850", ErrInvalidInput)
	}
	return nil
}
