package subscriptions

import (
	"context"
	"time"
)

// Repo persists subscription history.
type Repo interface {
	// Active returns the borrower's active plan or ErrNotFound.
	Active(ctx context.Context, borrowerID string) (SubscriptionPlan, error)
	// Replace cancels any active plan as of endedAt and stores next.
	Replace(ctx context.Context, next SubscriptionPlan, endedAt time.Time) error
}
