package borrowers

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
SELECT id, COALESCE(user_id, ''), COALESCE(assigned_officer_id, ''), COALESCE(lead_id, ''), full_name,
       COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip, ''),
       COALESCE(employment_status, ''), COALESCE(employer_name, ''), COALESCE(job_title, ''), years_at_job,
       annual_income, income, monthly_income_secondary, bank_balance, COALESCE(housing_status, ''),
       monthly_housing_payment, COALESCE(citizenship, ''), COALESCE(marital_status, ''), dependents, veteran,
       credit_score, COALESCE(loan_type, ''), subscription_plan, email_notifications, sms_notifications,
       created_at, updated_at
FROM borrower_profiles`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (BorrowerProfile, error) {
	var p BorrowerProfile
	err := row.Scan(
		&p.ID, &p.UserID, &p.AssignedOfficerID, &p.LeadID, &p.FullName,
		&p.Email, &p.Phone, &p.Address, &p.City, &p.State, &p.Zip,
		&p.EmploymentStatus, &p.EmployerName, &p.JobTitle, &p.YearsAtJob,
		&p.AnnualIncome, &p.Income, &p.MonthlyIncomeSecondary, &p.BankBalance, &p.HousingStatus,
		&p.MonthlyHousingPayment, &p.Citizenship, &p.MaritalStatus, &p.Dependents, &p.Veteran,
		&p.CreditScore, &p.LoanType, &p.SubscriptionPlan, &p.EmailNotifications, &p.SMSNotifications,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// Create inserts a new borrower profile.
func (r *PGRepo) Create(ctx context.Context, p BorrowerProfile) error {
	const query = `
INSERT INTO borrower_profiles (
    id, user_id, assigned_officer_id, lead_id, full_name,
    email, phone, address, city, state, zip,
    employment_status, employer_name, job_title, years_at_job,
    annual_income, income, monthly_income_secondary, bank_balance, housing_status,
    monthly_housing_payment, citizenship, marital_status, dependents, veteran,
    credit_score, loan_type, subscription_plan, email_notifications, sms_notifications,
    created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5,
    $6, $7, $8, $9, $10, $11,
    $12, $13, $14, $15,
    $16, $17, $18, $19, $20,
    $21, $22, $23, $24, $25,
    $26, $27, $28, $29, $30,
    $31, $32
)`
	_, err := r.DB.ExecContext(ctx, query,
		p.ID, db.NullableString(p.UserID), db.NullableString(p.AssignedOfficerID), db.NullableString(p.LeadID), p.FullName,
		db.NullableString(p.Email), db.NullableString(p.Phone), db.NullableString(p.Address), db.NullableString(p.City), db.NullableString(p.State), db.NullableString(p.Zip),
		db.NullableString(p.EmploymentStatus), db.NullableString(p.EmployerName), db.NullableString(p.JobTitle), p.YearsAtJob,
		p.AnnualIncome, p.Income, p.MonthlyIncomeSecondary, p.BankBalance, db.NullableString(p.HousingStatus),
		p.MonthlyHousingPayment, db.NullableString(p.Citizenship), db.NullableString(p.MaritalStatus), p.Dependents, p.Veteran,
		p.CreditScore, db.NullableString(p.LoanType), p.SubscriptionPlan, p.EmailNotifications, p.SMSNotifications,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID fetches a profile by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (BorrowerProfile, error) {
	p, err := scanProfile(r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1
LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BorrowerProfile{}, ErrNotFound
		}
		return BorrowerProfile{}, err
	}
	return p, nil
}

// GetByUserID fetches the newest profile owned by a user.
func (r *PGRepo) GetByUserID(ctx context.Context, userID string) (BorrowerProfile, error) {
	p, err := scanProfile(r.DB.QueryRowContext(ctx, selectColumns+`
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BorrowerProfile{}, ErrNotFound
		}
		return BorrowerProfile{}, err
	}
	return p, nil
}

// List returns profiles newest-first.
func (r *PGRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]BorrowerProfile, error) {
	limit, offset = db.ClampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
WHERE ($1 = '' OR assigned_officer_id = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, filter.OfficerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []BorrowerProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update overwrites the mutable columns of a profile.
func (r *PGRepo) Update(ctx context.Context, p BorrowerProfile) error {
	const query = `
UPDATE borrower_profiles SET
    assigned_officer_id = $2, full_name = $3, email = $4, phone = $5, address = $6, city = $7, state = $8, zip = $9,
    employment_status = $10, employer_name = $11, job_title = $12, years_at_job = $13,
    annual_income = $14, income = $15, monthly_income_secondary = $16, bank_balance = $17, housing_status = $18,
    monthly_housing_payment = $19, citizenship = $20, marital_status = $21, dependents = $22, veteran = $23,
    credit_score = $24, loan_type = $25, subscription_plan = $26, email_notifications = $27, sms_notifications = $28,
    updated_at = $29
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		p.ID,
		db.NullableString(p.AssignedOfficerID), p.FullName, db.NullableString(p.Email), db.NullableString(p.Phone),
		db.NullableString(p.Address), db.NullableString(p.City), db.NullableString(p.State), db.NullableString(p.Zip),
		db.NullableString(p.EmploymentStatus), db.NullableString(p.EmployerName), db.NullableString(p.JobTitle), p.YearsAtJob,
		p.AnnualIncome, p.Income, p.MonthlyIncomeSecondary, p.BankBalance, db.NullableString(p.HousingStatus),
		p.MonthlyHousingPayment, db.NullableString(p.Citizenship), db.NullableString(p.MaritalStatus), p.Dependents, p.Veteran,
		p.CreditScore, db.NullableString(p.LoanType), p.SubscriptionPlan, p.EmailNotifications, p.SMSNotifications,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
