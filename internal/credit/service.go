package credit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loanmvp/internal/borrowers"
)

const (
	defaultBureau = "Equifax"
	minScore      = 300
	maxScore      = 850
)

// Service records and reads soft credit pulls.
type Service struct {
	Repo      Repo
	Borrowers borrowers.Repo
	Now       func() time.Time
}

// PullRequest is the payload for recording a soft pull.
type PullRequest struct {
	CreditScore      int             `json:"credit_score"`
	Bureau           string          `json:"bureau"`
	LoanAppID        string          `json:"loan_app_id"`
	MonthlyDebtTotal float64         `json:"monthly_debt_total"`
	Report           json.RawMessage `json:"report"`
}

// Record stores a pull and mirrors the score onto the borrower profile.
func (s *Service) Record(ctx context.Context, borrowerID string, req PullRequest) (CreditProfile, error) {
	if s == nil || s.Repo == nil || s.Borrowers == nil {
		return CreditProfile{}, errors.New("credit service not configured")
	}
	if req.CreditScore < minScore || req.CreditScore > maxScore {
		return CreditProfile{}, fmt.Errorf("%w: credit_score must be between %d and %d", ErrInvalidInput, minScore, maxScore)
	}
	if req.MonthlyDebtTotal < 0 {
		return CreditProfile{}, fmt.Errorf("%w: monthly_debt_total must not be negative", ErrInvalidInput)
	}
	borrower, err := s.Borrowers.GetByID(ctx, borrowerID)
	if err != nil {
		return CreditProfile{}, err
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	bureau := strings.TrimSpace(req.Bureau)
	if bureau == "" {
		bureau = defaultBureau
	}
	p := CreditProfile{
		ID:                uuid.NewString(),
		BorrowerProfileID: borrower.ID,
		LoanAppID:         strings.TrimSpace(req.LoanAppID),
		CreditScore:       req.CreditScore,
		Bureau:            bureau,
		Report:            req.Report,
		MonthlyDebtTotal:  req.MonthlyDebtTotal,
		PulledAt:          now,
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return CreditProfile{}, fmt.Errorf("record credit pull: %w", err)
	}

	borrower.CreditScore = req.CreditScore
	borrower.UpdatedAt = now
	if err := s.Borrowers.Update(ctx, borrower); err != nil {
		return CreditProfile{}, fmt.Errorf("update borrower score: %w", err)
	}
	return p, nil
}

// Latest returns the newest pull for a borrower.
func (s *Service) Latest(ctx context.Context, borrowerID string) (CreditProfile, error) {
	return s.Repo.Latest(ctx, borrowerID)
}
