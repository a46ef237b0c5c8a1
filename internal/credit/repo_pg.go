package credit

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

func (r *PGRepo) Create(ctx context.Context, p CreditProfile) error {
	const query = `
INSERT INTO credit_profiles (id, borrower_profile_id, loan_app_id, credit_score, bureau, report, monthly_debt_total, pulled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var report any
	if len(p.Report) > 0 {
		report = []byte(p.Report)
	}
	_, err := r.DB.ExecContext(ctx, query,
		p.ID,
		p.BorrowerProfileID,
		db.NullableString(p.LoanAppID),
		p.CreditScore,
		p.Bureau,
		report,
		p.MonthlyDebtTotal,
		p.PulledAt,
	)
	return err
}

func (r *PGRepo) Latest(ctx context.Context, borrowerID string) (CreditProfile, error) {
	const query = `
SELECT id, borrower_profile_id, COALESCE(loan_app_id, ''), credit_score, bureau, report, monthly_debt_total, pulled_at
FROM credit_profiles
WHERE borrower_profile_id = $1
ORDER BY pulled_at DESC
LIMIT 1`
	var p CreditProfile
	var report []byte
	err := r.DB.QueryRowContext(ctx, query, borrowerID).Scan(
		&p.ID,
		&p.BorrowerProfileID,
		&p.LoanAppID,
		&p.CreditScore,
		&p.Bureau,
		&report,
		&p.MonthlyDebtTotal,
		&p.PulledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CreditProfile{}, ErrNotFound
		}
		return CreditProfile{}, err
	}
	if len(report) > 0 {
		p.Report = report
	}
	return p, nil
}

var _ Repo = (*PGRepo)(nil)
