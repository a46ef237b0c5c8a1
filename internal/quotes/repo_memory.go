package quotes

import (
	"context"
	"sort"
	"sync"

	"loanmvp/internal/shared/util"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]LoanQuote
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]LoanQuote)}
}

func (r *MemoryRepo) Create(ctx context.Context, q LoanQuote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[q.ID] = q
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (LoanQuote, error) {
	if err := ctx.Err(); err != nil {
		return LoanQuote{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.data[id]
	if !ok {
		return LoanQuote{}, ErrNotFound
	}
	return q, nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]LoanQuote, 0, len(r.data))
	for _, q := range r.data {
		if filter.LoanID != "" && q.LoanApplicationID != filter.LoanID {
			continue
		}
		if filter.BorrowerID != "" && q.BorrowerProfileID != filter.BorrowerID {
			continue
		}
		out = append(out, q)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return util.Page(out, limit, offset), nil
}

func (r *MemoryRepo) Select(ctx context.Context, id string) (LoanQuote, error) {
	if err := ctx.Err(); err != nil {
		return LoanQuote{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	chosen, ok := r.data[id]
	if !ok {
		return LoanQuote{}, ErrNotFound
	}
	for qid, q := range r.data {
		if qid == id || q.LoanApplicationID == "" || q.LoanApplicationID != chosen.LoanApplicationID {
			continue
		}
		q.Selected = false
		if q.Status == statusSelected {
			q.Status = statusPending
		}
		r.data[qid] = q
	}
	chosen.Selected = true
	chosen.Status = statusSelected
	r.data[id] = chosen
	return chosen, nil
}

var _ Repo = (*MemoryRepo)(nil)

// MemoryLenderRepo is an in-memory implementation of LenderRepo.
type MemoryLenderRepo struct {
	mu   sync.RWMutex
	data []LenderQuote
}

// NewMemoryLenderRepo constructs a MemoryLenderRepo.
func NewMemoryLenderRepo() *MemoryLenderRepo {
	return &MemoryLenderRepo{}
}

func (r *MemoryLenderRepo) Create(ctx context.Context, q LenderQuote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, q)
	return nil
}

func (r *MemoryLenderRepo) ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]LenderQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]LenderQuote, 0)
	for _, q := range r.data {
		if loanID == "" || q.LoanID == loanID {
			out = append(out, q)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return util.Page(out, limit, offset), nil
}

var _ LenderRepo = (*MemoryLenderRepo)(nil)
