package assistant

import (
	"context"
	"database/sql"
	"sort"
	"sync"
)

// HistoryRepo persists chat exchanges.
type HistoryRepo interface {
	Create(ctx context.Context, h ChatHistory) error
	// ListRecent returns the newest entries first. An empty role matches all.
	ListRecent(ctx context.Context, userID, role string, limit int) ([]ChatHistory, error)
}

// MemoryHistoryRepo is an in-memory HistoryRepo.
type MemoryHistoryRepo struct {
	mu      sync.RWMutex
	entries []ChatHistory
}

// NewMemoryHistoryRepo constructs a MemoryHistoryRepo.
func NewMemoryHistoryRepo() *MemoryHistoryRepo {
	return &MemoryHistoryRepo{}
}

func (r *MemoryHistoryRepo) Create(ctx context.Context, h ChatHistory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, h)
	return nil
}

func (r *MemoryHistoryRepo) ListRecent(ctx context.Context, userID, role string, limit int) ([]ChatHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []ChatHistory
	for _, h := range r.entries {
		if h.UserID != userID || (role != "" && h.Role != role) {
			continue
		}
		out = append(out, h)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PGHistoryRepo stores chat exchanges in chat_history.
type PGHistoryRepo struct {
	DB *sql.DB
}

func (r *PGHistoryRepo) Create(ctx context.Context, h ChatHistory) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO chat_history (id, user_id, role, user_message, ai_response, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`, h.ID, h.UserID, h.Role, h.UserMessage, h.AIResponse, h.CreatedAt)
	return err
}

func (r *PGHistoryRepo) ListRecent(ctx context.Context, userID, role string, limit int) ([]ChatHistory, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT id, user_id, role, user_message, ai_response, created_at
FROM chat_history
WHERE user_id = $1 AND ($2 = '' OR role = $2)
ORDER BY created_at DESC
LIMIT $3`, userID, role, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatHistory
	for rows.Next() {
		var h ChatHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Role, &h.UserMessage, &h.AIResponse, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

var (
	_ HistoryRepo = (*MemoryHistoryRepo)(nil)
	_ HistoryRepo = (*PGHistoryRepo)(nil)
)
