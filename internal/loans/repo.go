package loans

import "context"

// ListFilter narrows a loan listing.
type ListFilter struct {
	BorrowerID string
	OfficerID  string
	Status     string
	ActiveOnly bool
}

// DocumentCounts summarizes the documents attached to a loan.
type DocumentCounts struct {
	Total int
	// Conditions counts documents a review has ever rejected or asked more
	// information about, including ones since cleared.
	Conditions int
	// Open counts documents whose latest review asked for more information or rejected them.
	Open int
}

// DocumentCounter reports document counts for progress tracking.
type DocumentCounter interface {
	CountByLoan(ctx context.Context, loanID string) (DocumentCounts, error)
}

// Repo defines persistence operations for loan applications.
type Repo interface {
	Create(ctx context.Context, l LoanApplication) error
	GetByID(ctx context.Context, id string) (LoanApplication, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanApplication, error)
	// ListAll returns every match without paging; used by analytics refresh.
	ListAll(ctx context.Context, filter ListFilter) ([]LoanApplication, error)
	Update(ctx context.Context, l LoanApplication) error
}
