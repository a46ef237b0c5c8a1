package quotes

import (
	"context"
	"fmt"

	"loanmvp/internal/shared/auth"
)

// Authorize loads quote id for p. Borrowers only see quotes on their own
// loans or profile; a quote tied to neither is staff-only.
func (s *Service) Authorize(ctx context.Context, p auth.Principal, id string) (LoanQuote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return LoanQuote{}, err
	}
	if p.IsStaff() {
		return q, nil
	}
	switch {
	case s.Loans == nil:
		return LoanQuote{}, auth.ErrForbidden
	case q.LoanApplicationID != "":
		if _, err := s.Loans.Authorize(ctx, p, q.LoanApplicationID); err != nil {
			return LoanQuote{}, err
		}
	case q.BorrowerProfileID != "":
		if err := s.Loans.AuthorizeBorrower(ctx, p, q.BorrowerProfileID); err != nil {
			return LoanQuote{}, err
		}
	default:
		return LoanQuote{}, auth.ErrForbidden
	}
	return q, nil
}

// ListFor lists quotes visible to p. Borrowers must name one of their own loans.
func (s *Service) ListFor(ctx context.Context, p auth.Principal, filter ListFilter, limit, offset int) ([]LoanQuote, error) {
	if !p.IsStaff() {
		if filter.LoanID == "" {
			return nil, fmt.Errorf("%w: loan_id is required", ErrInvalidInput)
		}
		if s.Loans == nil {
			return nil, auth.ErrForbidden
		}
		if _, err := s.Loans.Authorize(ctx, p, filter.LoanID); err != nil {
			return nil, err
		}
		filter.BorrowerID = ""
	}
	return s.List(ctx, filter, limit, offset)
}
