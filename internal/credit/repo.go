package credit

import "context"

// Repo defines persistence operations for credit profiles.
type Repo interface {
	Create(ctx context.Context, p CreditProfile) error
	Latest(ctx context.Context, borrowerID string) (CreditProfile, error)
}
