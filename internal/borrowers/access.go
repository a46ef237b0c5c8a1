package borrowers

import (
	"context"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/server/middleware"
)

// Authorize loads profile id and checks that p may act on it.
func (s *Service) Authorize(ctx context.Context, p auth.Principal, id string) (BorrowerProfile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return BorrowerProfile{}, err
	}
	if !p.CanAccess(profile.UserID) {
		return BorrowerProfile{}, auth.ErrForbidden
	}
	return profile, nil
}

// OwnProfileID returns the id of the profile linked to p.
func (s *Service) OwnProfileID(ctx context.Context, p auth.Principal) (string, error) {
	profile, err := s.ForUser(ctx, p.UserID)
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}

// RequireAccess guards routes whose :param names a borrower profile.
func (s *Service) RequireAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param(param)
		middleware.TagBorrower(c, id)
		if _, err := s.Authorize(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
			writeError(c, err)
			return
		}
		c.Next()
	}
}
