package documents

import (
	"context"
	"sort"
	"sync"

	"loanmvp/internal/shared/util"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]LoanDocument
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]LoanDocument)}
}

func (r *MemoryRepo) Create(ctx context.Context, doc LoanDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (LoanDocument, error) {
	if err := ctx.Err(); err != nil {
		return LoanDocument{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return LoanDocument{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]LoanDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := r.byLoan(loanID)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return util.Page(out, limit, offset), nil
}

func (r *MemoryRepo) Update(ctx context.Context, doc LoanDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return ErrNotFound
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) CountByLoan(ctx context.Context, loanID string) (Counts, error) {
	if err := ctx.Err(); err != nil {
		return Counts{}, err
	}
	docs := r.byLoan(loanID)
	out := Counts{Total: len(docs)}
	for _, d := range docs {
		if d.ConditionRaised || d.Open() {
			out.Conditions++
		}
		if d.Open() {
			out.Open++
		}
	}
	return out, nil
}

func (r *MemoryRepo) byLoan(loanID string) []LoanDocument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]LoanDocument, 0)
	for _, d := range r.docs {
		if d.LoanID == loanID {
			out = append(out, d)
		}
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
