package crm

import (
	"context"
	"sort"
	"sync"
	"time"

	"loanmvp/internal/shared/util"
)

// MemoryLeadRepo is an in-memory implementation of LeadRepo.
type MemoryLeadRepo struct {
	mu   sync.RWMutex
	data map[string]Lead
}

func NewMemoryLeadRepo() *MemoryLeadRepo {
	return &MemoryLeadRepo{data: make(map[string]Lead)}
}

func (r *MemoryLeadRepo) Create(ctx context.Context, l Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[l.ID] = l
	return nil
}

func (r *MemoryLeadRepo) GetByID(ctx context.Context, id string) (Lead, error) {
	if err := ctx.Err(); err != nil {
		return Lead{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.data[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryLeadRepo) List(ctx context.Context, filter LeadFilter, limit, offset int) ([]Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Lead, 0, len(r.data))
	for _, l := range r.data {
		if filter.OfficerID != "" && l.AssignedOfficerID != filter.OfficerID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.OpenOnly && l.Status == LeadStatusConverted {
			continue
		}
		out = append(out, l)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return util.Page(out, limit, offset), nil
}

func (r *MemoryLeadRepo) Update(ctx context.Context, l Lead) error {
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

func (r *MemoryLeadRepo) MarkConverted(ctx context.Context, id string, at time.Time) (Lead, error) {
	if err := ctx.Err(); err != nil {
		return Lead{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.data[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	if l.Status == LeadStatusConverted {
		return Lead{}, ErrConflict
	}
	l.Status = LeadStatusConverted
	l.UpdatedAt = at
	r.data[id] = l
	return l, nil
}

var _ LeadRepo = (*MemoryLeadRepo)(nil)

// MemoryNoteRepo is an in-memory implementation of NoteRepo.
type MemoryNoteRepo struct {
	mu    sync.RWMutex
	notes []Note
}

func NewMemoryNoteRepo() *MemoryNoteRepo {
	return &MemoryNoteRepo{}
}

func (r *MemoryNoteRepo) Create(ctx context.Context, n Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return nil
}

func (r *MemoryNoteRepo) List(ctx context.Context, filter NoteFilter, limit, offset int) ([]Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Note, 0)
	for _, n := range r.notes {
		if filter.LeadID != "" && n.LeadID != filter.LeadID {
			continue
		}
		if filter.BorrowerID != "" && n.BorrowerID != filter.BorrowerID {
			continue
		}
		out = append(out, n)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return util.Page(out, limit, offset), nil
}

var _ NoteRepo = (*MemoryNoteRepo)(nil)

// MemoryMessageRepo is an in-memory implementation of MessageRepo.
type MemoryMessageRepo struct {
	mu       sync.RWMutex
	messages []Message
}

func NewMemoryMessageRepo() *MemoryMessageRepo {
	return &MemoryMessageRepo{}
}

func (r *MemoryMessageRepo) Create(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

func (r *MemoryMessageRepo) Inbox(ctx context.Context, userID string, limit, offset int) ([]Message, error) {
	return r.filter(ctx, limit, offset, true, func(m Message) bool {
		return m.ReceiverID == userID
	})
}

func (r *MemoryMessageRepo) Thread(ctx context.Context, a, b string, limit, offset int) ([]Message, error) {
	return r.filter(ctx, limit, offset, false, func(m Message) bool {
		return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
	})
}

func (r *MemoryMessageRepo) filter(ctx context.Context, limit, offset int, newestFirst bool, keep func(Message) bool) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Message, 0)
	for _, m := range r.messages {
		if keep(m) {
			out = append(out, m)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return util.Page(out, limit, offset), nil
}

func (r *MemoryMessageRepo) MarkRead(ctx context.Context, id, receiverID string) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.messages {
		if m.ID == id && m.ReceiverID == receiverID {
			m.IsRead = true
			r.messages[i] = m
			return m, nil
		}
	}
	return Message{}, ErrNotFound
}

var _ MessageRepo = (*MemoryMessageRepo)(nil)

// MemoryTaskRepo is an in-memory implementation of TaskRepo.
type MemoryTaskRepo struct {
	mu   sync.RWMutex
	data map[string]Task
}

func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{data: make(map[string]Task)}
}

func (r *MemoryTaskRepo) Create(ctx context.Context, t Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[t.ID] = t
	return nil
}

func (r *MemoryTaskRepo) GetByID(ctx context.Context, id string) (Task, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.data[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryTaskRepo) List(ctx context.Context, filter TaskFilter, limit, offset int) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Task, 0, len(r.data))
	for _, t := range r.data {
		if filter.AssignedTo != "" && t.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.BorrowerID != "" && t.BorrowerID != filter.BorrowerID {
			continue
		}
		if filter.PendingOnly && t.Completed {
			continue
		}
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return util.Page(out, limit, offset), nil
}

func (r *MemoryTaskRepo) Update(ctx context.Context, t Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[t.ID]; !ok {
		return ErrNotFound
	}
	r.data[t.ID] = t
	return nil
}

func (r *MemoryTaskRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

var _ TaskRepo = (*MemoryTaskRepo)(nil)
