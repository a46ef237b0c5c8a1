package subscriptions

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows []SubscriptionPlan
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Active(ctx context.Context, borrowerID string) (SubscriptionPlan, error) {
	if err := ctx.Err(); err != nil {
		return SubscriptionPlan{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.rows) - 1; i >= 0; i-- {
		row := r.rows[i]
		if row.BorrowerProfileID == borrowerID && row.Status == StatusActive {
			return row, nil
		}
	}
	return SubscriptionPlan{}, ErrNotFound
}

func (r *MemoryRepo) Replace(ctx context.Context, next SubscriptionPlan, endedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.BorrowerProfileID == next.BorrowerProfileID && row.Status == StatusActive {
			end := endedAt
			row.Status = StatusCancelled
			row.EndDate = &end
			r.rows[i] = row
		}
	}
	r.rows = append(r.rows, next)
	return nil
}

// History returns every row for the borrower in insertion order.
func (r *MemoryRepo) History(borrowerID string) []SubscriptionPlan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []SubscriptionPlan
	for _, row := range r.rows {
		if row.BorrowerProfileID == borrowerID {
			out = append(out, row)
		}
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
