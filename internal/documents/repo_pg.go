package documents

import (
	"context"
	"database/sql"
	"errors"

	"loanmvp/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, COALESCE(borrower_profile_id, ''), loan_id, file_name, document_type, COALESCE(mime_type, ''), size_bytes,
       storage_provider, storage_key, COALESCE(checksum_sha256, ''), status, review_status, COALESCE(review_notes, ''), COALESCE(reviewed_by, ''),
       reviewed_at, condition_raised, COALESCE(uploaded_by, ''), created_at, updated_at
FROM loan_documents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (LoanDocument, error) {
	var (
		d          LoanDocument
		reviewedAt sql.NullTime
	)
	err := row.Scan(
		&d.ID, &d.BorrowerProfileID, &d.LoanID, &d.FileName, &d.DocumentType, &d.MimeType, &d.SizeBytes,
		&d.StorageProvider, &d.StorageKey, &d.ChecksumSHA256, &d.Status, &d.ReviewStatus, &d.ReviewNotes, &d.ReviewedBy,
		&reviewedAt, &d.ConditionRaised, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return LoanDocument{}, err
	}
	d.ReviewedAt = db.TimePtr(reviewedAt)
	return d, nil
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, d LoanDocument) error {
	const query = `
INSERT INTO loan_documents (
    id, borrower_profile_id, loan_id, file_name, document_type, mime_type, size_bytes,
    storage_provider, storage_key, checksum_sha256, status, review_status, review_notes,
    reviewed_by, reviewed_at, condition_raised, uploaded_by, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	provider := d.StorageProvider
	if provider == "" {
		provider = "local"
	}
	_, err := r.DB.ExecContext(ctx, query,
		d.ID, db.NullableString(d.BorrowerProfileID), d.LoanID, d.FileName, d.DocumentType, db.NullableString(d.MimeType), d.SizeBytes,
		provider, d.StorageKey, db.NullableString(d.ChecksumSHA256), d.Status, d.ReviewStatus, db.NullableString(d.ReviewNotes),
		db.NullableString(d.ReviewedBy), db.NullableTime(d.ReviewedAt), d.ConditionRaised, db.NullableString(d.UploadedBy), d.CreatedAt, d.UpdatedAt,
	)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (LoanDocument, error) {
	d, err := scanDocument(r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1
LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoanDocument{}, ErrNotFound
		}
		return LoanDocument{}, err
	}
	return d, nil
}

// ListByLoan returns a page of a loan's documents, newest first.
func (r *PGRepo) ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]LoanDocument, error) {
	limit, offset = db.ClampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
WHERE loan_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, loanID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LoanDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update persists review fields.
func (r *PGRepo) Update(ctx context.Context, d LoanDocument) error {
	const query = `
UPDATE loan_documents SET
    document_type = $2, status = $3, review_status = $4, review_notes = $5,
    reviewed_by = $6, reviewed_at = $7, condition_raised = $8, updated_at = $9
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		d.ID, d.DocumentType, d.Status, d.ReviewStatus, db.NullableString(d.ReviewNotes),
		db.NullableString(d.ReviewedBy), db.NullableTime(d.ReviewedAt), d.ConditionRaised, d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByLoan counts all documents, raised conditions and those still
// needing borrower action.
func (r *PGRepo) CountByLoan(ctx context.Context, loanID string) (Counts, error) {
	const query = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE condition_raised OR review_status IN ('Rejected', 'Needs Info')),
       COUNT(*) FILTER (WHERE review_status IN ('Rejected', 'Needs Info'))
FROM loan_documents
WHERE loan_id = $1`
	var out Counts
	if err := r.DB.QueryRowContext(ctx, query, loanID).Scan(&out.Total, &out.Conditions, &out.Open); err != nil {
		return Counts{}, err
	}
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
