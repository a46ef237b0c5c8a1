package notifications

import (
	"context"
	"sort"
	"sync"

	"loanmvp/internal/shared/util"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]LoanNotification
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]LoanNotification)}
}

func (r *MemoryRepo) Create(ctx context.Context, n LoanNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[n.ID] = n
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanNotification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := r.matching(filter)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return util.Page(out, limit, offset), nil
}

func (r *MemoryRepo) MarkRead(ctx context.Context, id, borrowerID string) (LoanNotification, error) {
	if err := ctx.Err(); err != nil {
		return LoanNotification{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.data[id]
	if !ok || (borrowerID != "" && n.BorrowerID != borrowerID) {
		return LoanNotification{}, ErrNotFound
	}
	n.IsRead = true
	r.data[id] = n
	return n, nil
}

func (r *MemoryRepo) CountUnread(ctx context.Context, filter ListFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	filter.UnreadOnly = true
	return len(r.matching(filter)), nil
}

func (r *MemoryRepo) matching(filter ListFilter) []LoanNotification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]LoanNotification, 0)
	for _, n := range r.data {
		if filter.BorrowerID != "" && n.BorrowerID != filter.BorrowerID {
			continue
		}
		if filter.Role != "" && n.Role != filter.Role {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
