package insights

import (
	"context"
	"sync"
	"time"
)

// MemoryEventRepo is an in-memory implementation of EventRepo.
type MemoryEventRepo struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryEventRepo constructs a MemoryEventRepo.
func NewMemoryEventRepo() *MemoryEventRepo {
	return &MemoryEventRepo{}
}

func (r *MemoryEventRepo) Create(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *MemoryEventRepo) ListSince(ctx context.Context, borrowerID string, since time.Time) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Event
	for _, e := range r.events {
		if e.BorrowerID == borrowerID && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

var _ EventRepo = (*MemoryEventRepo)(nil)

// MemoryInsightRepo is an in-memory implementation of InsightRepo.
type MemoryInsightRepo struct {
	mu   sync.RWMutex
	data map[string]BehavioralInsight
}

// NewMemoryInsightRepo constructs a MemoryInsightRepo.
func NewMemoryInsightRepo() *MemoryInsightRepo {
	return &MemoryInsightRepo{data: make(map[string]BehavioralInsight)}
}

func (r *MemoryInsightRepo) Get(ctx context.Context, borrowerID string) (BehavioralInsight, error) {
	if err := ctx.Err(); err != nil {
		return BehavioralInsight{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.data[borrowerID]
	if !ok {
		return BehavioralInsight{}, ErrNotFound
	}
	return b, nil
}

func (r *MemoryInsightRepo) Upsert(ctx context.Context, b BehavioralInsight) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[b.BorrowerID] = b
	return nil
}

var _ InsightRepo = (*MemoryInsightRepo)(nil)
