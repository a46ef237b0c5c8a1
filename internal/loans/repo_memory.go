package loans

import (
	"context"
	"sort"
	"sync"

	"loanmvp/internal/shared/util"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]LoanApplication
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]LoanApplication)}
}

func (r *MemoryRepo) Create(ctx context.Context, l LoanApplication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[l.ID] = l
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (LoanApplication, error) {
	if err := ctx.Err(); err != nil {
		return LoanApplication{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.data[id]
	if !ok {
		return LoanApplication{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanApplication, error) {
	out, err := r.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return util.Page(out, limit, offset), nil
}

func (r *MemoryRepo) ListAll(ctx context.Context, filter ListFilter) ([]LoanApplication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]LoanApplication, 0, len(r.data))
	for _, l := range r.data {
		if filter.BorrowerID != "" && l.BorrowerProfileID != filter.BorrowerID {
			continue
		}
		if filter.OfficerID != "" && l.LoanOfficerID != filter.OfficerID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.ActiveOnly && !l.IsActive {
			continue
		}
		out = append(out, l)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, l LoanApplication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[l.ID]; !ok {
		return ErrNotFound
	}
	r.data[l.ID] = l
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
