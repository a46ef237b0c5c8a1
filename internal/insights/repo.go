package insights

import (
	"context"
	"time"
)

// EventRepo persists engagement events.
type EventRepo interface {
	Create(ctx context.Context, e Event) error
	// ListSince returns the borrower's events created at or after since.
	ListSince(ctx context.Context, borrowerID string, since time.Time) ([]Event, error)
}

// InsightRepo persists one BehavioralInsight per borrower.
type InsightRepo interface {
	Get(ctx context.Context, borrowerID string) (BehavioralInsight, error)
	Upsert(ctx context.Context, b BehavioralInsight) error
}
