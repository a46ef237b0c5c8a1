package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/credit"
	"loanmvp/internal/loans"
	"loanmvp/internal/notifications"
	"loanmvp/internal/pricing"
	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/metrics"
	"loanmvp/internal/shared/telemetry"
)

// Service prices and stores quotes.
type Service struct {
	Repo      Repo
	Lenders   LenderRepo
	Loans     *loans.Service
	Borrowers borrowers.Repo
	Credit    credit.Repo
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
	if s == nil || s.Repo == nil {
		return errors.New("quote service not configured")
	}
	return nil
}

// Generate returns the public quick quote. Missing fields fall back to
// a 250k thirty year loan.
func Generate(req GenerateRequest) (GenerateResponse, error) {
	amount := float64(defaultAmount)
	if req.Amount != nil {
		amount = *req.Amount
	}
	term := defaultTermYears
	if req.Term != nil {
		term = *req.Term
	}
	if amount <= 0 {
		return GenerateResponse{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if term <= 0 {
		return GenerateResponse{}, fmt.Errorf("%w: term must be positive", ErrInvalidInput)
	}
	metrics.IncQuoteGenerated()
	return GenerateResponse{
		Lender:         houseLender,
		LoanType:       quickQuoteLoanType,
		Term:           fmt.Sprintf("%d years", term),
		Rate:           quickQuoteRate,
		MonthlyPayment: pricing.AmortizedPayment(amount, quickQuoteRate, term),
	}, nil
}

// Price quotes a stored loan against the borrower's credit and LTV and saves the result.
func (s *Service) Price(ctx context.Context, loanID string) (LoanQuote, error) {
	if err := s.ready(); err != nil {
		return LoanQuote{}, err
	}
	if s.Loans == nil {
		return LoanQuote{}, errors.New("quote service not configured")
	}
	if strings.TrimSpace(loanID) == "" {
		return LoanQuote{}, fmt.Errorf("%w: loan_application_id is required", ErrInvalidInput)
	}
	l, err := s.Loans.Get(ctx, loanID)
	if err != nil {
		return LoanQuote{}, err
	}

	score, err := s.creditScore(ctx, l.BorrowerProfileID)
	if err != nil {
		return LoanQuote{}, err
	}

	term := l.TermMonths
	if term <= 0 {
		term = defaultTermYears * 12
	}
	rate := pricing.EstimateRate(score, l.LTV, l.LoanType)
	q := LoanQuote{
		ID:                uuid.NewString(),
		BorrowerProfileID: l.BorrowerProfileID,
		LoanApplicationID: l.ID,
		LenderName:        houseLender,
		Rate:              rate,
		MaxLTV:            pricing.MaxLTV(l.LoanType),
		TermMonths:        term,
		LoanAmount:        l.Amount,
		MonthlyPayment:    pricing.Breakdown(l.Amount, rate, term, 0).PrincipalInterest,
		LoanType:          l.LoanType,
		PropertyAddress:   l.PropertyAddress,
		PurchasePrice:     l.PropertyValue,
		FicoScore:         score,
		Status:            statusPending,
		CreatedAt:         s.now(),
	}
	if err := s.Repo.Create(ctx, q); err != nil {
		return LoanQuote{}, fmt.Errorf("store quote: %w", err)
	}
	metrics.IncQuoteGenerated()
	telemetry.Info("quote.priced", map[string]any{
		"quote_id": q.ID,
		"loan_id":  l.ID,
		"rate":     q.Rate,
		"fico":     score,
	})
	return q, nil
}

// creditScore prefers the latest pull and falls back to the self-reported score.
func (s *Service) creditScore(ctx context.Context, borrowerID string) (int, error) {
	if s.Credit != nil {
		cp, err := s.Credit.Latest(ctx, borrowerID)
		switch {
		case err == nil:
			return cp.CreditScore, nil
		case !errors.Is(err, credit.ErrNotFound):
			return 0, err
		}
	}
	if s.Borrowers == nil {
		return 0, nil
	}
	b, err := s.Borrowers.GetByID(ctx, borrowerID)
	if err != nil {
		if errors.Is(err, borrowers.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return b.CreditScore, nil
}

// Create stores a manually entered quote.
func (s *Service) Create(ctx context.Context, q LoanQuote) (LoanQuote, error) {
	if err := s.ready(); err != nil {
		return LoanQuote{}, err
	}
	q.LenderName = strings.TrimSpace(q.LenderName)
	if q.LenderName == "" {
		return LoanQuote{}, fmt.Errorf("%w: lender_name is required", ErrInvalidInput)
	}
	if q.Rate < 0 || q.LoanAmount < 0 || q.TermMonths < 0 || q.MaxLTV < 0 {
		return LoanQuote{}, fmt.Errorf("%w: numeric fields must be non-negative", ErrInvalidInput)
	}
	if q.LoanApplicationID != "" && s.Loans != nil {
		l, err := s.Loans.Get(ctx, q.LoanApplicationID)
		if err != nil {
			return LoanQuote{}, err
		}
		if q.BorrowerProfileID == "" {
			q.BorrowerProfileID = l.BorrowerProfileID
		}
	}
	if q.MonthlyPayment == 0 && q.TermMonths > 0 {
		q.MonthlyPayment = pricing.Breakdown(q.LoanAmount, q.Rate, q.TermMonths, 0).PrincipalInterest
	}
	q.ID = uuid.NewString()
	q.Status = statusPending
	q.Selected = false
	q.CreatedAt = s.now()
	if err := s.Repo.Create(ctx, q); err != nil {
		return LoanQuote{}, fmt.Errorf("store quote: %w", err)
	}
	return q, nil
}

func (s *Service) Get(ctx context.Context, id string) (LoanQuote, error) {
	if err := s.ready(); err != nil {
		return LoanQuote{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanQuote, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	out, err := s.Repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []LoanQuote{}
	}
	return out, nil
}

// Select accepts a quote: it becomes the only selected quote of its loan,
// the loan takes its lender and rate, and the borrower is notified. The
// loan is updated first so a failed update never leaves a selected quote
// the loan does not reflect.
func (s *Service) Select(ctx context.Context, id string) (LoanQuote, error) {
	if err := s.ready(); err != nil {
		return LoanQuote{}, err
	}
	q, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return LoanQuote{}, err
	}
	if q.LoanApplicationID != "" && s.Loans != nil {
		if _, err := s.Loans.ApplyQuote(ctx, q.LoanApplicationID, q.LenderName, q.Rate, q.TermMonths); err != nil {
			return LoanQuote{}, fmt.Errorf("select quote: %w", err)
		}
	}
	selected, err := s.Repo.Select(ctx, id)
	if err != nil {
		telemetry.Error("quote.select_failed", map[string]any{"quote_id": id, "loan_id": q.LoanApplicationID, "error": err.Error()})
		return LoanQuote{}, err
	}
	q = selected
	s.notifySelected(ctx, q)
	telemetry.Info("quote.selected", map[string]any{"quote_id": q.ID, "loan_id": q.LoanApplicationID})
	return q, nil
}

func (s *Service) notifySelected(ctx context.Context, q LoanQuote) {
	if s.Notifier == nil || q.BorrowerProfileID == "" {
		return
	}
	msg := notifications.Notification{
		Borrower: &notifications.Recipient{BorrowerID: q.BorrowerProfileID},
		LoanID:   q.LoanApplicationID,
		Role:     auth.RoleBorrower,
		Title:    "Quote Selected",
		Message:  fmt.Sprintf("%s at %.3f%% for %d months was selected for your loan.", q.LenderName, q.Rate, q.TermMonths),
		Channels: []string{notifications.ChannelInApp, notifications.ChannelSocket},
	}
	if s.Borrowers != nil {
		if b, err := s.Borrowers.GetByID(ctx, q.BorrowerProfileID); err == nil {
			if b.SMSNotifications && b.Phone != "" {
				msg.Borrower.Phone = b.Phone
				msg.Channels = append(msg.Channels, notifications.ChannelSMS)
			}
			if b.EmailNotifications && b.Email != "" {
				msg.Borrower.Email = b.Email
				msg.Channels = append(msg.Channels, notifications.ChannelEmail)
			}
		}
	}
	s.Notifier.Notify(ctx, msg)
}

// CreateLenderQuote records an outside lender's offer.
func (s *Service) CreateLenderQuote(ctx context.Context, q LenderQuote) (LenderQuote, error) {
	if s == nil || s.Lenders == nil {
		return LenderQuote{}, errors.New("quote service not configured")
	}
	q.LenderName = strings.TrimSpace(q.LenderName)
	if q.LoanID == "" || q.LenderName == "" {
		return LenderQuote{}, fmt.Errorf("%w: loan_id and lender_name are required", ErrInvalidInput)
	}
	if q.Rate < 0 || q.TermMonths < 0 {
		return LenderQuote{}, fmt.Errorf("%w: numeric fields must be non-negative", ErrInvalidInput)
	}
	if s.Loans != nil {
		if _, err := s.Loans.Get(ctx, q.LoanID); err != nil {
			return LenderQuote{}, err
		}
	}
	q.ID = uuid.NewString()
	if q.Status == "" {
		q.Status = lenderStatusPending
	}
	q.CreatedAt = s.now()
	if err := s.Lenders.Create(ctx, q); err != nil {
		return LenderQuote{}, fmt.Errorf("store lender quote: %w", err)
	}
	return q, nil
}

func (s *Service) ListLenderQuotes(ctx context.Context, loanID string, limit, offset int) ([]LenderQuote, error) {
	if s == nil || s.Lenders == nil {
		return nil, errors.New("quote service not configured")
	}
	out, err := s.Lenders.ListByLoan(ctx, loanID, limit, offset)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []LenderQuote{}
	}
	return out, nil
}
