package credit

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]CreditProfile // borrowerId -> pulls
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]CreditProfile)}
}

func (r *MemoryRepo) Create(ctx context.Context, p CreditProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.BorrowerProfileID] = append(r.data[p.BorrowerProfileID], p)
	return nil
}

// Latest returns the most recent pull by PulledAt.
func (r *MemoryRepo) Latest(ctx context.Context, borrowerID string) (CreditProfile, error) {
	if err := ctx.Err(); err != nil {
		return CreditProfile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	pulls := r.data[borrowerID]
	if len(pulls) == 0 {
		return CreditProfile{}, ErrNotFound
	}
	latest := pulls[0]
	for _, p := range pulls[1:] {
		if !p.PulledAt.Before(latest.PulledAt) {
			latest = p
		}
	}
	return latest, nil
}

var _ Repo = (*MemoryRepo)(nil)
