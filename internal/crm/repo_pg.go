package crm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"loanmvp/internal/shared/storage/db"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// whereClause joins conds with AND; an empty list yields "".
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(conds, " AND ")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PGLeadRepo implements LeadRepo using Postgres.
type PGLeadRepo struct {
	DB *sql.DB
}

const leadColumns = `id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(message, ''), COALESCE(source, ''),
       COALESCE(property_id, ''), COALESCE(assigned_officer_id, ''), status, created_at, updated_at`

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Message, &l.Source,
		&l.PropertyID, &l.AssignedOfficerID, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *PGLeadRepo) Create(ctx context.Context, l Lead) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO leads (id, name, email, phone, message, source, property_id, assigned_officer_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.Name, db.NullableString(l.Email), db.NullableString(l.Phone), db.NullableString(l.Message),
		db.NullableString(l.Source), db.NullableString(l.PropertyID), db.NullableString(l.AssignedOfficerID),
		l.Status, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (r *PGLeadRepo) GetByID(ctx context.Context, id string) (Lead, error) {
	l, err := scanLead(r.DB.QueryRowContext(ctx, "SELECT "+leadColumns+"\nFROM leads\nWHERE id = $1", id))
	if err != nil {
		return Lead{}, notFound(err)
	}
	return l, nil
}

func (r *PGLeadRepo) List(ctx context.Context, filter LeadFilter, limit, offset int) ([]Lead, error) {
	limit, offset = db.ClampPage(limit, offset)
	var (
		conds []string
		args  []any
	)
	if filter.OfficerID != "" {
		args = append(args, filter.OfficerID)
		conds = append(conds, fmt.Sprintf("assigned_officer_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.OpenOnly {
		conds = append(conds, "status <> 'Converted'")
	}
	args = append(args, limit, offset)
	query := "SELECT " + leadColumns + "\nFROM leads" + whereClause(conds) +
		fmt.Sprintf("\nORDER BY created_at DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PGLeadRepo) Update(ctx context.Context, l Lead) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE leads SET name = $2, email = $3, phone = $4, message = $5, source = $6, property_id = $7,
    assigned_officer_id = $8, status = $9, updated_at = $10
WHERE id = $1`,
		l.ID, l.Name, db.NullableString(l.Email), db.NullableString(l.Phone), db.NullableString(l.Message),
		db.NullableString(l.Source), db.NullableString(l.PropertyID), db.NullableString(l.AssignedOfficerID),
		l.Status, l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *PGLeadRepo) MarkConverted(ctx context.Context, id string, at time.Time) (Lead, error) {
	l, err := scanLead(r.DB.QueryRowContext(ctx, `
UPDATE leads SET status = 'Converted', updated_at = $2
WHERE id = $1 AND status <> 'Converted'
RETURNING `+leadColumns, id, at))
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Lead{}, err
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)", id).Scan(&exists); err != nil {
		return Lead{}, err
	}
	if exists {
		return Lead{}, ErrConflict
	}
	return Lead{}, ErrNotFound
}

var _ LeadRepo = (*PGLeadRepo)(nil)

// PGNoteRepo implements NoteRepo using Postgres.
type PGNoteRepo struct {
	DB *sql.DB
}

func (r *PGNoteRepo) Create(ctx context.Context, n Note) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO crm_notes (id, lead_id, borrower_id, user_id, content, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, db.NullableString(n.LeadID), db.NullableString(n.BorrowerID), n.UserID, n.Content, n.CreatedAt,
	)
	return err
}

func (r *PGNoteRepo) List(ctx context.Context, filter NoteFilter, limit, offset int) ([]Note, error) {
	limit, offset = db.ClampPage(limit, offset)
	var (
		conds []string
		args  []any
	)
	if filter.LeadID != "" {
		args = append(args, filter.LeadID)
		conds = append(conds, fmt.Sprintf("lead_id = $%d", len(args)))
	}
	if filter.BorrowerID != "" {
		args = append(args, filter.BorrowerID)
		conds = append(conds, fmt.Sprintf("borrower_id = $%d", len(args)))
	}
	args = append(args, limit, offset)
	query := `SELECT id, COALESCE(lead_id, ''), COALESCE(borrower_id, ''), user_id, content, created_at
FROM crm_notes` + whereClause(conds) +
		fmt.Sprintf("\nORDER BY created_at DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.LeadID, &n.BorrowerID, &n.UserID, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

var _ NoteRepo = (*PGNoteRepo)(nil)

// PGMessageRepo implements MessageRepo using Postgres.
type PGMessageRepo struct {
	DB *sql.DB
}

const messageColumns = `id, sender_id, receiver_id, COALESCE(subject, ''), content, COALESCE(sender_role, ''),
       COALESCE(receiver_role, ''), system_generated, is_read, created_at`

func scanMessage(row rowScanner) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Subject, &m.Content, &m.SenderRole,
		&m.ReceiverRole, &m.SystemGenerated, &m.IsRead, &m.CreatedAt)
	return m, err
}

func (r *PGMessageRepo) Create(ctx context.Context, m Message) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO messages (id, sender_id, receiver_id, subject, content, sender_role, receiver_role, system_generated, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.SenderID, m.ReceiverID, db.NullableString(m.Subject), m.Content, db.NullableString(m.SenderRole),
		db.NullableString(m.ReceiverRole), m.SystemGenerated, m.IsRead, m.CreatedAt,
	)
	return err
}

func (r *PGMessageRepo) Inbox(ctx context.Context, userID string, limit, offset int) ([]Message, error) {
	limit, offset = db.ClampPage(limit, offset)
	return r.query(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE receiver_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, userID, limit, offset)
}

func (r *PGMessageRepo) Thread(ctx context.Context, a, b string, limit, offset int) ([]Message, error) {
	limit, offset = db.ClampPage(limit, offset)
	return r.query(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
ORDER BY created_at ASC
LIMIT $3 OFFSET $4`, a, b, limit, offset)
}

func (r *PGMessageRepo) query(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PGMessageRepo) MarkRead(ctx context.Context, id, receiverID string) (Message, error) {
	m, err := scanMessage(r.DB.QueryRowContext(ctx, `
UPDATE messages SET is_read = true
WHERE id = $1 AND receiver_id = $2
RETURNING `+messageColumns, id, receiverID))
	if err != nil {
		return Message{}, notFound(err)
	}
	return m, nil
}

var _ MessageRepo = (*PGMessageRepo)(nil)

// PGTaskRepo implements TaskRepo using Postgres.
type PGTaskRepo struct {
	DB *sql.DB
}

const taskColumns = `id, title, COALESCE(description, ''), due_date, priority, status, completed,
       COALESCE(assigned_to, ''), COALESCE(borrower_id, ''), created_at`

func scanTask(row rowScanner) (Task, error) {
	var (
		t   Task
		due sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &due, &t.Priority, &t.Status, &t.Completed,
		&t.AssignedTo, &t.BorrowerID, &t.CreatedAt)
	t.DueDate = db.TimePtr(due)
	return t, err
}

func (r *PGTaskRepo) Create(ctx context.Context, t Task) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO tasks (id, title, description, due_date, priority, status, completed, assigned_to, borrower_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Title, db.NullableString(t.Description), db.NullableTime(t.DueDate), t.Priority, t.Status, t.Completed,
		db.NullableString(t.AssignedTo), db.NullableString(t.BorrowerID), t.CreatedAt,
	)
	return err
}

func (r *PGTaskRepo) GetByID(ctx context.Context, id string) (Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx, "SELECT "+taskColumns+"\nFROM tasks\nWHERE id = $1", id))
	if err != nil {
		return Task{}, notFound(err)
	}
	return t, nil
}

func (r *PGTaskRepo) List(ctx context.Context, filter TaskFilter, limit, offset int) ([]Task, error) {
	limit, offset = db.ClampPage(limit, offset)
	var (
		conds []string
		args  []any
	)
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		conds = append(conds, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filter.BorrowerID != "" {
		args = append(args, filter.BorrowerID)
		conds = append(conds, fmt.Sprintf("borrower_id = $%d", len(args)))
	}
	if filter.PendingOnly {
		conds = append(conds, "completed = false")
	}
	args = append(args, limit, offset)
	query := "SELECT " + taskColumns + "\nFROM tasks" + whereClause(conds) +
		fmt.Sprintf("\nORDER BY created_at DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PGTaskRepo) Update(ctx context.Context, t Task) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE tasks SET title = $2, description = $3, due_date = $4, priority = $5, status = $6, completed = $7,
    assigned_to = $8, borrower_id = $9
WHERE id = $1`,
		t.ID, t.Title, db.NullableString(t.Description), db.NullableTime(t.DueDate), t.Priority, t.Status, t.Completed,
		db.NullableString(t.AssignedTo), db.NullableString(t.BorrowerID),
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *PGTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

var _ TaskRepo = (*PGTaskRepo)(nil)
