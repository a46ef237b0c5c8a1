package quotes

import "context"

// ListFilter narrows a quote listing.
type ListFilter struct {
	LoanID     string
	BorrowerID string
}

// Repo persists loan quotes.
type Repo interface {
	Create(ctx context.Context, q LoanQuote) error
	GetByID(ctx context.Context, id string) (LoanQuote, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanQuote, error)
	// Select marks id selected and clears every other quote of the same loan.
	Select(ctx context.Context, id string) (LoanQuote, error)
}

// LenderRepo persists lender quotes.
type LenderRepo interface {
	Create(ctx context.Context, q LenderQuote) error
	ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]LenderQuote, error)
}
