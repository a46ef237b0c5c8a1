package loans

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/server/middleware"
)

// Authorizer loads a loan on behalf of a caller, failing with
// auth.ErrForbidden when the caller neither owns it nor is staff.
type Authorizer interface {
	Authorize(ctx context.Context, p auth.Principal, loanID string) (LoanApplication, error)
}

// Authorize loads loan id and checks that p may act on it.
func (s *Service) Authorize(ctx context.Context, p auth.Principal, id string) (LoanApplication, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return LoanApplication{}, err
	}
	if err := s.AuthorizeBorrower(ctx, p, l.BorrowerProfileID); err != nil {
		return LoanApplication{}, err
	}
	return l, nil
}

// AuthorizeBorrower checks that p owns borrower profile id or is staff.
func (s *Service) AuthorizeBorrower(ctx context.Context, p auth.Principal, id string) error {
	if p.IsStaff() {
		return nil
	}
	if err := s.ready(); err != nil {
		return err
	}
	b, err := s.Borrowers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.CanAccess(b.UserID) {
		return auth.ErrForbidden
	}
	return nil
}

// ListFor lists loans visible to p: everything for staff, otherwise only
// the applications on the caller's own profile.
func (s *Service) ListFor(ctx context.Context, p auth.Principal, filter ListFilter, limit, offset int) ([]LoanApplication, error) {
	if !p.IsStaff() {
		if err := s.ready(); err != nil {
			return nil, err
		}
		b, err := s.Borrowers.GetByUserID(ctx, p.UserID)
		if errors.Is(err, borrowers.ErrNotFound) {
			return []LoanApplication{}, nil
		}
		if err != nil {
			return nil, err
		}
		filter.BorrowerID = b.ID
	}
	return s.List(ctx, filter, limit, offset)
}

// RequireAccess guards routes whose :param names a loan.
func RequireAccess(a Authorizer, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param(param)
		middleware.TagLoan(c, id)
		l, err := a.Authorize(c.Request.Context(), middleware.PrincipalFrom(c), id)
		if err != nil {
			writeError(c, err)
			return
		}
		middleware.TagBorrower(c, l.BorrowerProfileID)
		c.Next()
	}
}
