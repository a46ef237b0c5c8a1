package documents

import "context"

// Repo defines persistence operations for loan documents.
type Repo interface {
	Create(ctx context.Context, doc LoanDocument) error
	GetByID(ctx context.Context, id string) (LoanDocument, error)
	ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]LoanDocument, error)
	Update(ctx context.Context, doc LoanDocument) error
	// CountByLoan counts all documents, those ever flagged by a review, and
	// those still rejected or needing info.
	CountByLoan(ctx context.Context, loanID string) (Counts, error)
}
