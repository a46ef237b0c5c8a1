package borrowers

import "context"

// ListFilter narrows List results; empty fields are ignored.
type ListFilter struct {
	OfficerID string
}

// Repo defines persistence operations for borrower profiles.
type Repo interface {
	Create(ctx context.Context, p BorrowerProfile) error
	GetByID(ctx context.Context, id string) (BorrowerProfile, error)
	GetByUserID(ctx context.Context, userID string) (BorrowerProfile, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]BorrowerProfile, error)
	Update(ctx context.Context, p BorrowerProfile) error
}
