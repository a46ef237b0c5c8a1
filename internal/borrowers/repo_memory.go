package borrowers

import (
	"context"
	"sort"
	"sync"

	"loanmvp/internal/shared/util"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]BorrowerProfile
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]BorrowerProfile)}
}

func (r *MemoryRepo) Create(ctx context.Context, p BorrowerProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.ID] = p
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (BorrowerProfile, error) {
	if err := ctx.Err(); err != nil {
		return BorrowerProfile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[id]
	if !ok {
		return BorrowerProfile{}, ErrNotFound
	}
	return p, nil
}

// GetByUserID returns the most recently created profile for the user.
func (r *MemoryRepo) GetByUserID(ctx context.Context, userID string) (BorrowerProfile, error) {
	if err := ctx.Err(); err != nil {
		return BorrowerProfile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found BorrowerProfile
	ok := false
	for _, p := range r.data {
		if p.UserID != userID {
			continue
		}
		if !ok || p.CreatedAt.After(found.CreatedAt) {
			found, ok = p, true
		}
	}
	if !ok {
		return BorrowerProfile{}, ErrNotFound
	}
	return found, nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]BorrowerProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]BorrowerProfile, 0, len(r.data))
	for _, p := range r.data {
		if filter.OfficerID != "" && p.AssignedOfficerID != filter.OfficerID {
			continue
		}
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return util.Page(out, limit, offset), nil
}

func (r *MemoryRepo) Update(ctx context.Context, p BorrowerProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[p.ID]; !ok {
		return ErrNotFound
	}
	r.data[p.ID] = p
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
