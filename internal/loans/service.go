package loans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/credit"
	"loanmvp/internal/notifications"
	"loanmvp/internal/pricing"
	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/telemetry"
)

// Service contains business logic for loan applications.
type Service struct {
	Repo      Repo
	Borrowers borrowers.Repo
	Credit    credit.Repo
	Documents DocumentCounter
	Notifier  *notifications.Notifier
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ready() error {
	if s == nil || s.Repo == nil || s.Borrowers == nil {
		return errors.New("loan service not configured")
	}
	return nil
}

// Create stores a loan after pricing it against the borrower and their latest credit pull.
func (s *Service) Create(ctx context.Context, req CreateRequest) (LoanApplication, error) {
	if err := s.ready(); err != nil {
		return LoanApplication{}, err
	}
	if strings.TrimSpace(req.BorrowerProfileID) == "" {
		return LoanApplication{}, fmt.Errorf("%w: borrower_profile_id is required", ErrInvalidInput)
	}
	if req.Amount <= 0 {
		return LoanApplication{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if req.TermMonths < 0 || req.Rate < 0 || req.PropertyValue < 0 || req.MonthlyRent < 0 {
		return LoanApplication{}, fmt.Errorf("%w: numeric fields must be non-negative", ErrInvalidInput)
	}

	borrower, err := s.Borrowers.GetByID(ctx, req.BorrowerProfileID)
	if err != nil {
		return LoanApplication{}, err
	}

	now := s.now()
	l := LoanApplication{
		ID:                uuid.NewString(),
		BorrowerProfileID: borrower.ID,
		LoanOfficerID:     strings.TrimSpace(req.LoanOfficerID),
		PropertyID:        strings.TrimSpace(req.PropertyID),
		LenderName:        strings.TrimSpace(req.LenderName),
		Amount:            req.Amount,
		LoanType:          strings.TrimSpace(req.LoanType),
		TermMonths:        req.TermMonths,
		Rate:              req.Rate,
		PropertyValue:     req.PropertyValue,
		PropertyAddress:   strings.TrimSpace(req.PropertyAddress),
		Description:       strings.TrimSpace(req.Description),
		MonthlyRent:       req.MonthlyRent,
		RiskLevel:         defaultRiskLevel,
		Status:            StatusPending,
		MilestoneStage:    defaultStage,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if l.LoanType == "" {
		l.LoanType = borrower.LoanType
	}
	if l.LoanOfficerID == "" {
		l.LoanOfficerID = borrower.AssignedOfficerID
	}
	if req.MonthlyHousingPayment != nil {
		l.MonthlyHousingPayment = *req.MonthlyHousingPayment
	} else {
		l.MonthlyHousingPayment = borrower.MonthlyHousingPayment
	}

	score := s.derive(ctx, &l, borrower)
	if l.Rate <= 0 {
		l.Rate = pricing.EstimateRate(score, l.LTV, l.LoanType)
		l.EstimatedPayment = pricing.Breakdown(l.Amount, l.Rate, l.TermMonths, 0).PrincipalInterest
	}
	l.ProgressPercent, l.MilestoneStage = pricing.Progress(pricing.ProgressInput{
		ProfileComplete: borrower.IntakeComplete(),
		PropertyValue:   l.PropertyValue,
		Status:          l.Status,
	})

	if err := s.Repo.Create(ctx, l); err != nil {
		return LoanApplication{}, fmt.Errorf("create loan: %w", err)
	}
	telemetry.Info("loan.created", map[string]any{
		"loan_id":     l.ID,
		"borrower_id": l.BorrowerProfileID,
		"amount":      l.Amount,
		"rate":        l.Rate,
	})
	return l, nil
}

// derive recomputes LTV, DTI and payment from the loan, borrower and latest
// credit pull, returning the credit score used (0 when none is on file).
func (s *Service) derive(ctx context.Context, l *LoanApplication, borrower borrowers.BorrowerProfile) int {
	if l.TermMonths <= 0 {
		l.TermMonths = defaultTermMonths
	}
	score := borrower.CreditScore
	if s.Credit != nil {
		if cp, err := s.Credit.Latest(ctx, borrower.ID); err == nil {
			score = cp.CreditScore
			l.MonthlyDebtTotal = cp.MonthlyDebtTotal
		} else if !errors.Is(err, credit.ErrNotFound) {
			telemetry.Warn("loan.credit_lookup_failed", map[string]any{"borrower_id": borrower.ID, "error": err.Error()})
		}
	}

	ratios := pricing.ComputeRatios(pricing.RatioInput{
		MonthlyIncome:         borrower.Income,
		SecondaryIncome:       borrower.MonthlyIncomeSecondary,
		MonthlyHousingPayment: l.MonthlyHousingPayment,
		MonthlyDebts:          l.MonthlyDebtTotal,
		LoanAmount:            l.Amount,
		PropertyValue:         l.PropertyValue,
	})
	l.LTV = ratios.LTV
	l.FrontEndDTI = ratios.FrontEndDTI
	l.BackEndDTI = ratios.BackEndDTI
	if l.Rate > 0 {
		l.EstimatedPayment = pricing.Breakdown(l.Amount, l.Rate, l.TermMonths, 0).PrincipalInterest
	}
	return score
}

// Get returns a loan by ID.
func (s *Service) Get(ctx context.Context, id string) (LoanApplication, error) {
	if err := s.ready(); err != nil {
		return LoanApplication{}, err
	}
	if strings.TrimSpace(id) == "" {
		return LoanApplication{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns a page of loans matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanApplication, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if filter.Status != "" {
		status, ok := CanonicalStatus(filter.Status)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
		}
		filter.Status = status
	}
	out, err := s.Repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []LoanApplication{}
	}
	return out, nil
}

// Update applies a patch and recomputes the derived ratios.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (LoanApplication, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return LoanApplication{}, err
	}
	patch.apply(&l)
	if l.Amount <= 0 || l.Rate < 0 || l.PropertyValue < 0 || l.TermMonths < 0 {
		return LoanApplication{}, fmt.Errorf("%w: amount must be positive and rates non-negative", ErrInvalidInput)
	}
	borrower, err := s.Borrowers.GetByID(ctx, l.BorrowerProfileID)
	if err != nil {
		return LoanApplication{}, err
	}
	s.derive(ctx, &l, borrower)
	l.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, l); err != nil {
		return LoanApplication{}, fmt.Errorf("update loan: %w", err)
	}
	return l, nil
}

// SetStatus records an underwriting decision and notifies the borrower.
func (s *Service) SetStatus(ctx context.Context, id string, req StatusRequest) (LoanApplication, error) {
	status, ok := CanonicalStatus(req.Status)
	if !ok {
		return LoanApplication{}, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	l, err := s.Get(ctx, id)
	if err != nil {
		return LoanApplication{}, err
	}
	borrower, err := s.Borrowers.GetByID(ctx, l.BorrowerProfileID)
	if err != nil {
		return LoanApplication{}, err
	}

	now := s.now()
	l.Status = status
	if notes := strings.TrimSpace(req.DecisionNotes); notes != "" {
		l.DecisionNotes = notes
	}
	if status == StatusApproved || status == StatusDeclined {
		l.DecisionDate = &now
	}
	if err := s.applyProgress(ctx, &l, borrower); err != nil {
		return LoanApplication{}, err
	}
	l.UpdatedAt = now
	if err := s.Repo.Update(ctx, l); err != nil {
		return LoanApplication{}, fmt.Errorf("update loan status: %w", err)
	}

	telemetry.Info("loan.status_changed", map[string]any{
		"loan_id":     l.ID,
		"borrower_id": l.BorrowerProfileID,
		"status":      l.Status,
	})
	s.Notifier.Notify(ctx, notifications.Notification{
		Borrower: &notifications.Recipient{
			BorrowerID: borrower.ID,
			Phone:      borrower.Phone,
			Email:      borrower.Email,
		},
		LoanID:   l.ID,
		Role:     auth.RoleLoanOfficer,
		Title:    "Loan " + l.Status,
		Message:  statusMessage(l),
		Channels: []string{notifications.ChannelSocket, notifications.ChannelInApp, notifications.ChannelSMS, notifications.ChannelEmail},
	})
	return l, nil
}

func statusMessage(l LoanApplication) string {
	msg := fmt.Sprintf("Your loan application status is now %s.", l.Status)
	if l.DecisionNotes != "" {
		msg += " Notes: " + l.DecisionNotes
	}
	return msg
}

// RefreshProgress recomputes the milestone from documents and intake state.
func (s *Service) RefreshProgress(ctx context.Context, id string) (LoanApplication, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return LoanApplication{}, err
	}
	borrower, err := s.Borrowers.GetByID(ctx, l.BorrowerProfileID)
	if err != nil {
		return LoanApplication{}, err
	}
	if err := s.applyProgress(ctx, &l, borrower); err != nil {
		return LoanApplication{}, err
	}
	l.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, l); err != nil {
		return LoanApplication{}, fmt.Errorf("update loan progress: %w", err)
	}
	return l, nil
}

func (s *Service) applyProgress(ctx context.Context, l *LoanApplication, borrower borrowers.BorrowerProfile) error {
	var counts DocumentCounts
	if s.Documents != nil {
		c, err := s.Documents.CountByLoan(ctx, l.ID)
		if err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		counts = c
	}
	l.ProgressPercent, l.MilestoneStage = pricing.Progress(pricing.ProgressInput{
		ProfileComplete: borrower.IntakeComplete(),
		DocumentCount:   counts.Total,
		Conditions:      max(counts.Conditions, counts.Open),
		OpenConditions:  counts.Open,
		PropertyValue:   l.PropertyValue,
		Status:          l.Status,
	})
	return nil
}

// Preapproval screens the loan against the program rules.
func (s *Service) Preapproval(ctx context.Context, id string) (pricing.PreapprovalResult, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return pricing.PreapprovalResult{}, err
	}
	borrower, err := s.Borrowers.GetByID(ctx, l.BorrowerProfileID)
	if err != nil {
		return pricing.PreapprovalResult{}, err
	}
	in := pricing.PreapprovalInput{
		LoanType:        l.LoanType,
		LoanAmount:      l.Amount,
		PropertyValue:   l.PropertyValue,
		TermMonths:      l.TermMonths,
		RatePct:         l.Rate,
		MonthlyIncome:   borrower.Income,
		SecondaryIncome: borrower.MonthlyIncomeSecondary,
		HousingPayment:  l.MonthlyHousingPayment,
		MonthlyDebts:    l.MonthlyDebtTotal,
		MonthlyRent:     l.MonthlyRent,
		EmployerName:    borrower.EmployerName,
		Veteran:         borrower.Veteran,
	}
	if s.Credit != nil {
		cp, err := s.Credit.Latest(ctx, borrower.ID)
		switch {
		case err == nil:
			in.CreditScore, in.HasCredit = cp.CreditScore, true
			in.MonthlyDebts = cp.MonthlyDebtTotal
		case !errors.Is(err, credit.ErrNotFound):
			return pricing.PreapprovalResult{}, err
		}
	}
	return pricing.Preapproval(in)
}

// Scenario returns the monthly payment breakdown for the loan.
func (s *Service) Scenario(ctx context.Context, id string) (pricing.PaymentBreakdown, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return pricing.PaymentBreakdown{}, err
	}
	return pricing.Breakdown(l.Amount, l.Rate, l.TermMonths, l.PropertyValue), nil
}

// ApplyQuote records the selected lender and rate on the loan.
func (s *Service) ApplyQuote(ctx context.Context, id, lender string, rate float64, termMonths int) (LoanApplication, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return LoanApplication{}, err
	}
	l.LenderName = strings.TrimSpace(lender)
	l.Rate = rate
	if termMonths > 0 {
		l.TermMonths = termMonths
	}
	l.EstimatedPayment = pricing.Breakdown(l.Amount, l.Rate, l.TermMonths, 0).PrincipalInterest
	l.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, l); err != nil {
		return LoanApplication{}, fmt.Errorf("apply quote: %w", err)
	}
	return l, nil
}
