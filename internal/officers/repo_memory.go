package officers

import (
	"context"
	"sort"
	"sync"

	"loanmvp/internal/shared/util"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu         sync.RWMutex
	profiles   map[string]LoanOfficerProfile
	portfolios map[string]Portfolio
	analytics  map[string]map[string]Analytics
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		profiles:   make(map[string]LoanOfficerProfile),
		portfolios: make(map[string]Portfolio),
		analytics:  make(map[string]map[string]Analytics),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, p LoanOfficerProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.UserID == p.UserID {
			return ErrDuplicate
		}
	}
	r.profiles[p.ID] = p
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (LoanOfficerProfile, error) {
	if err := ctx.Err(); err != nil {
		return LoanOfficerProfile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return LoanOfficerProfile{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) GetByUserID(ctx context.Context, userID string) (LoanOfficerProfile, error) {
	if err := ctx.Err(); err != nil {
		return LoanOfficerProfile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return LoanOfficerProfile{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]LoanOfficerProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]LoanOfficerProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return util.Page(out, limit, offset), nil
}

func (r *MemoryRepo) GetPortfolio(ctx context.Context, officerID string) (Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return Portfolio{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.portfolios[officerID]
	if !ok {
		return Portfolio{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) SavePortfolio(ctx context.Context, p Portfolio) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.portfolios[p.OfficerID] = p
	return nil
}

func (r *MemoryRepo) LatestAnalytics(ctx context.Context, officerID string) (Analytics, error) {
	if err := ctx.Err(); err != nil {
		return Analytics{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		latest Analytics
		found  bool
	)
	for month, a := range r.analytics[officerID] {
		if !found || month > latest.Month {
			latest, found = a, true
		}
	}
	if !found {
		return Analytics{}, ErrNotFound
	}
	return latest, nil
}

func (r *MemoryRepo) SaveAnalytics(ctx context.Context, a Analytics) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byMonth, ok := r.analytics[a.OfficerID]
	if !ok {
		byMonth = make(map[string]Analytics)
		r.analytics[a.OfficerID] = byMonth
	}
	byMonth[a.Month] = a
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
