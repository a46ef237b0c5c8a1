package notifications

import "context"

// ListFilter narrows a notification listing.
type ListFilter struct {
	BorrowerID string
	Role       string
	UnreadOnly bool
}

// Repo persists in-app notifications.
type Repo interface {
	Create(ctx context.Context, n LoanNotification) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanNotification, error)
	// MarkRead flags a notification read. A non-empty borrowerID limits the
	// update to that borrower's notifications.
	MarkRead(ctx context.Context, id, borrowerID string) (LoanNotification, error)
	CountUnread(ctx context.Context, filter ListFilter) (int, error)
}
