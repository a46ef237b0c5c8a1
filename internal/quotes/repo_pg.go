package quotes

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

const quoteColumns = `id, COALESCE(borrower_profile_id, ''), COALESCE(loan_application_id, ''), lender_name, rate, max_ltv,
       term_months, loan_amount, monthly_payment, COALESCE(loan_type, ''), COALESCE(property_address, ''),
       COALESCE(property_type, ''), purchase_price, as_is_value, after_repair_value, fico_score,
       COALESCE(loan_category, ''), status, selected, COALESCE(ai_suggestion, ''), created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (LoanQuote, error) {
	var q LoanQuote
	err := row.Scan(
		&q.ID, &q.BorrowerProfileID, &q.LoanApplicationID, &q.LenderName, &q.Rate, &q.MaxLTV,
		&q.TermMonths, &q.LoanAmount, &q.MonthlyPayment, &q.LoanType, &q.PropertyAddress,
		&q.PropertyType, &q.PurchasePrice, &q.AsIsValue, &q.AfterRepairValue, &q.FicoScore,
		&q.LoanCategory, &q.Status, &q.Selected, &q.AISuggestion, &q.CreatedAt,
	)
	return q, err
}

func (r *PGRepo) Create(ctx context.Context, q LoanQuote) error {
	const query = `
INSERT INTO loan_quotes (
    id, borrower_profile_id, loan_application_id, lender_name, rate, max_ltv,
    term_months, loan_amount, monthly_payment, loan_type, property_address,
    property_type, purchase_price, as_is_value, after_repair_value, fico_score,
    loan_category, status, selected, ai_suggestion, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.DB.ExecContext(ctx, query,
		q.ID, db.NullableString(q.BorrowerProfileID), db.NullableString(q.LoanApplicationID), q.LenderName, q.Rate, q.MaxLTV,
		q.TermMonths, q.LoanAmount, q.MonthlyPayment, db.NullableString(q.LoanType), db.NullableString(q.PropertyAddress),
		db.NullableString(q.PropertyType), q.PurchasePrice, q.AsIsValue, q.AfterRepairValue, q.FicoScore,
		db.NullableString(q.LoanCategory), q.Status, q.Selected, db.NullableString(q.AISuggestion), q.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (LoanQuote, error) {
	q, err := scanQuote(r.DB.QueryRowContext(ctx, `
SELECT `+quoteColumns+`
FROM loan_quotes
WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoanQuote{}, ErrNotFound
		}
		return LoanQuote{}, err
	}
	return q, nil
}

func (r *PGRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanQuote, error) {
	limit, offset = db.ClampPage(limit, offset)
	var conds []string
	var args []any
	if filter.LoanID != "" {
		args = append(args, filter.LoanID)
		conds = append(conds, fmt.Sprintf("loan_application_id = $%d", len(args)))
	}
	if filter.BorrowerID != "" {
		args = append(args, filter.BorrowerID)
		conds = append(conds, fmt.Sprintf("borrower_profile_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "\nWHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit, offset)
	query := "SELECT " + quoteColumns + "\nFROM loan_quotes" + where +
		fmt.Sprintf("\nORDER BY created_at DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LoanQuote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Select runs in a transaction so a loan never has two selected quotes.
func (r *PGRepo) Select(ctx context.Context, id string) (q LoanQuote, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return LoanQuote{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	q, err = scanQuote(tx.QueryRowContext(ctx, `
UPDATE loan_quotes SET selected = true, status = 'selected'
WHERE id = $1
RETURNING `+quoteColumns, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return LoanQuote{}, err
	}
	if q.LoanApplicationID != "" {
		if _, err = tx.ExecContext(ctx, `
UPDATE loan_quotes SET selected = false,
    status = CASE WHEN status = 'selected' THEN 'pending' ELSE status END
WHERE loan_application_id = $1 AND id <> $2`, q.LoanApplicationID, id); err != nil {
			return LoanQuote{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return LoanQuote{}, err
	}
	return q, nil
}

var _ Repo = (*PGRepo)(nil)

// PGLenderRepo implements LenderRepo using Postgres.
type PGLenderRepo struct {
	DB *sql.DB
}

func (r *PGLenderRepo) Create(ctx context.Context, q LenderQuote) error {
	const query = `
INSERT INTO lender_quotes (id, loan_id, property_id, lender_name, quote_details, rate, term_months, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	var details any
	if len(q.QuoteDetails) > 0 {
		details = []byte(q.QuoteDetails)
	}
	_, err := r.DB.ExecContext(ctx, query,
		q.ID, q.LoanID, db.NullableString(q.PropertyID), q.LenderName, details, q.Rate, q.TermMonths, q.Status, q.CreatedAt,
	)
	return err
}

func (r *PGLenderRepo) ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]LenderQuote, error) {
	limit, offset = db.ClampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, `
SELECT id, COALESCE(loan_id, ''), COALESCE(property_id, ''), lender_name, quote_details, rate, term_months, status, created_at
FROM lender_quotes
WHERE ($1 = '' OR loan_id = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, loanID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LenderQuote
	for rows.Next() {
		var (
			q       LenderQuote
			details []byte
		)
		if err := rows.Scan(&q.ID, &q.LoanID, &q.PropertyID, &q.LenderName, &details, &q.Rate, &q.TermMonths, &q.Status, &q.CreatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			q.QuoteDetails = details
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

var _ LenderRepo = (*PGLenderRepo)(nil)
