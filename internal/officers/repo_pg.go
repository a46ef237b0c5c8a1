package officers

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

const profileColumns = `id, user_id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(nmls, ''),
       COALESCE(region, ''), COALESCE(specialization, ''), joined_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (LoanOfficerProfile, error) {
	var p LoanOfficerProfile
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Phone, &p.NMLS, &p.Region, &p.Specialization, &p.JoinedAt)
	return p, err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *PGRepo) Create(ctx context.Context, p LoanOfficerProfile) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO loan_officer_profiles (id, user_id, name, email, phone, nmls, region, specialization, joined_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.Name, db.NullableString(p.Email), db.NullableString(p.Phone), db.NullableString(p.NMLS),
		db.NullableString(p.Region), db.NullableString(p.Specialization), p.JoinedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (LoanOfficerProfile, error) {
	p, err := scanProfile(r.DB.QueryRowContext(ctx, "SELECT "+profileColumns+"\nFROM loan_officer_profiles\nWHERE id = $1", id))
	if err != nil {
		return LoanOfficerProfile{}, notFound(err)
	}
	return p, nil
}

func (r *PGRepo) GetByUserID(ctx context.Context, userID string) (LoanOfficerProfile, error) {
	p, err := scanProfile(r.DB.QueryRowContext(ctx, "SELECT "+profileColumns+"\nFROM loan_officer_profiles\nWHERE user_id = $1", userID))
	if err != nil {
		return LoanOfficerProfile{}, notFound(err)
	}
	return p, nil
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]LoanOfficerProfile, error) {
	limit, offset = db.ClampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, `
SELECT `+profileColumns+`
FROM loan_officer_profiles
ORDER BY name
LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LoanOfficerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetPortfolio(ctx context.Context, officerID string) (Portfolio, error) {
	var p Portfolio
	err := r.DB.QueryRowContext(ctx, `
SELECT officer_id, total_clients, avg_loan_amount, avg_credit_score, avg_closing_time, rating, last_updated
FROM loan_officer_portfolios
WHERE officer_id = $1`, officerID).Scan(
		&p.OfficerID, &p.TotalClients, &p.AvgLoanAmount, &p.AvgCreditScore, &p.AvgClosingTime, &p.Rating, &p.LastUpdated,
	)
	if err != nil {
		return Portfolio{}, notFound(err)
	}
	return p, nil
}

func (r *PGRepo) SavePortfolio(ctx context.Context, p Portfolio) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO loan_officer_portfolios (officer_id, total_clients, avg_loan_amount, avg_credit_score, avg_closing_time, rating, last_updated)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (officer_id) DO UPDATE SET
    total_clients = EXCLUDED.total_clients,
    avg_loan_amount = EXCLUDED.avg_loan_amount,
    avg_credit_score = EXCLUDED.avg_credit_score,
    avg_closing_time = EXCLUDED.avg_closing_time,
    rating = EXCLUDED.rating,
    last_updated = EXCLUDED.last_updated`,
		p.OfficerID, p.TotalClients, p.AvgLoanAmount, p.AvgCreditScore, p.AvgClosingTime, p.Rating, p.LastUpdated,
	)
	return err
}

func (r *PGRepo) LatestAnalytics(ctx context.Context, officerID string) (Analytics, error) {
	var a Analytics
	err := r.DB.QueryRowContext(ctx, `
SELECT officer_id, month, total_loans, approved_loans, declined_loans, active_loans,
       average_processing_time, performance_score, updated_at
FROM loan_officer_analytics
WHERE officer_id = $1
ORDER BY month DESC
LIMIT 1`, officerID).Scan(
		&a.OfficerID, &a.Month, &a.TotalLoans, &a.ApprovedLoans, &a.DeclinedLoans, &a.ActiveLoans,
		&a.AverageProcessingTime, &a.PerformanceScore, &a.UpdatedAt,
	)
	if err != nil {
		return Analytics{}, notFound(err)
	}
	return a, nil
}

func (r *PGRepo) SaveAnalytics(ctx context.Context, a Analytics) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO loan_officer_analytics (
    officer_id, month, total_loans, approved_loans, declined_loans, active_loans,
    average_processing_time, performance_score, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (officer_id, month) DO UPDATE SET
    total_loans = EXCLUDED.total_loans,
    approved_loans = EXCLUDED.approved_loans,
    declined_loans = EXCLUDED.declined_loans,
    active_loans = EXCLUDED.active_loans,
    average_processing_time = EXCLUDED.average_processing_time,
    performance_score = EXCLUDED.performance_score,
    updated_at = EXCLUDED.updated_at`,
		a.OfficerID, a.Month, a.TotalLoans, a.ApprovedLoans, a.DeclinedLoans, a.ActiveLoans,
		a.AverageProcessingTime, a.PerformanceScore, a.UpdatedAt,
	)
	return err
}

var _ Repo = (*PGRepo)(nil)
