package properties

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loanmvp/internal/pricing"
)

// Strategies accepted by Analyze.
const (
	StrategyFlip   = "flip"
	StrategyRental = "rental"
)

type Service struct {
	Repo Repo
}

// AnalyzeRequest selects a strategy; overrides replace stored estimates.
type AnalyzeRequest struct {
	Strategy string             `json:"strategy"`
	Flip     pricing.FlipInput   `json:"flip"`
	Rental   pricing.RentalInput `json:"rental"`
}

func (s *Service) Create(ctx context.Context, p Property) (Property, error) {
	if s == nil || s.Repo == nil {
		return Property{}, errors.New("property service not configured")
	}
	if err := validate(&p); err != nil {
		return Property{}, err
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	if err := s.Repo.Create(ctx, p); err != nil {
		return Property{}, fmt.Errorf("create property: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (Property, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Property, error) {
	return s.Repo.List(ctx, limit, offset)
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (Property, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Property{}, err
	}
	patch.apply(&p)
	if err := validate(&p); err != nil {
		return Property{}, err
	}
	if err := s.Repo.Update(ctx, p); err != nil {
		return Property{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

// Analyze runs the flip or rental budget for a property, filling purchase
// price, ARV and rent from the stored record when the request leaves them empty.
func (s *Service) Analyze(ctx context.Context, id string, req AnalyzeRequest) (any, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(req.Strategy)) {
	case StrategyFlip:
		in := req.Flip
		if in.PurchasePrice <= 0 {
			in.PurchasePrice = p.Price
		}
		if in.ARV <= 0 {
			in.ARV = p.ARVEstimate
		}
		return pricing.CalculateFlip(in), nil
	case StrategyRental, "":
		in := req.Rental
		if in.PurchasePrice <= 0 {
			in.PurchasePrice = p.Price
		}
		if in.MonthlyRent <= 0 {
			in.MonthlyRent = p.MarketRentEstimate
		}
		return pricing.CalculateRental(in), nil
	default:
		return nil, fmt.Errorf("%w: strategy must be flip or rental", ErrInvalidInput)
	}
}

func validate(p *Property) error {
	p.Address = strings.TrimSpace(p.Address)
	if p.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if p.Price < 0 || p.ARVEstimate < 0 || p.MarketRentEstimate < 0 {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
	}
	if p.Beds < 0 || p.Baths < 0 || p.Sqft < 0 {
		return fmt.Errorf("%w: beds, baths and sqft must not be negative", ErrInvalidInput)
	}
	return nil
}
