package notifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"loanmvp/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, COALESCE(loan_id, ''), COALESCE(borrower_id, ''), COALESCE(role, ''), channel, title, message, is_read, created_at
FROM loan_notifications`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (LoanNotification, error) {
	var n LoanNotification
	err := row.Scan(&n.ID, &n.LoanID, &n.BorrowerID, &n.Role, &n.Channel, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	return n, err
}

func (r *PGRepo) Create(ctx context.Context, n LoanNotification) error {
	const query = `
INSERT INTO loan_notifications (id, loan_id, borrower_id, role, channel, title, message, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		n.ID,
		db.NullableString(n.LoanID),
		db.NullableString(n.BorrowerID),
		db.NullableString(n.Role),
		n.Channel,
		n.Title,
		n.Message,
		n.IsRead,
		n.CreatedAt,
	)
	return err
}

func whereClause(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.BorrowerID != "" {
		args = append(args, filter.BorrowerID)
		conds = append(conds, fmt.Sprintf("borrower_id = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.UnreadOnly {
		conds = append(conds, "is_read = false")
	}
	if len(conds) == 0 {
		return "", args
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func (r *PGRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanNotification, error) {
	limit, offset = db.ClampPage(limit, offset)
	where, args := whereClause(filter)
	args = append(args, limit, offset)
	query := selectColumns + where + fmt.Sprintf("\nORDER BY created_at DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LoanNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PGRepo) MarkRead(ctx context.Context, id, borrowerID string) (LoanNotification, error) {
	const query = `
UPDATE loan_notifications SET is_read = true
WHERE id = $1 AND ($2 = '' OR borrower_id = $2)
RETURNING id, COALESCE(loan_id, ''), COALESCE(borrower_id, ''), COALESCE(role, ''), channel, title, message, is_read, created_at`
	n, err := scanNotification(r.DB.QueryRowContext(ctx, query, id, borrowerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoanNotification{}, ErrNotFound
		}
		return LoanNotification{}, err
	}
	return n, nil
}

func (r *PGRepo) CountUnread(ctx context.Context, filter ListFilter) (int, error) {
	filter.UnreadOnly = true
	where, args := whereClause(filter)
	var count int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM loan_notifications"+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

var _ Repo = (*PGRepo)(nil)
