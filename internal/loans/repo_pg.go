package loans

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
SELECT id, borrower_profile_id, COALESCE(loan_officer_id, ''), COALESCE(property_id, ''), COALESCE(lender_name, ''),
       amount, COALESCE(loan_type, ''), term_months, rate, ltv, property_value, COALESCE(property_address, ''),
       COALESCE(description, ''), monthly_rent, estimated_payment, COALESCE(ai_summary, ''), risk_score, risk_level,
       status, COALESCE(decision_notes, ''), decision_date, monthly_housing_payment, front_end_dti, back_end_dti,
       monthly_debt_total, progress_percent, milestone_stage, is_active, created_at, updated_at
FROM loan_applications`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (LoanApplication, error) {
	var (
		l            LoanApplication
		ltv          sql.NullFloat64
		frontEnd     sql.NullFloat64
		backEnd      sql.NullFloat64
		decisionDate sql.NullTime
	)
	err := row.Scan(
		&l.ID, &l.BorrowerProfileID, &l.LoanOfficerID, &l.PropertyID, &l.LenderName,
		&l.Amount, &l.LoanType, &l.TermMonths, &l.Rate, &ltv, &l.PropertyValue, &l.PropertyAddress,
		&l.Description, &l.MonthlyRent, &l.EstimatedPayment, &l.AISummary, &l.RiskScore, &l.RiskLevel,
		&l.Status, &l.DecisionNotes, &decisionDate, &l.MonthlyHousingPayment, &frontEnd, &backEnd,
		&l.MonthlyDebtTotal, &l.ProgressPercent, &l.MilestoneStage, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return LoanApplication{}, err
	}
	l.LTV = db.FloatPtr(ltv)
	l.FrontEndDTI = db.FloatPtr(frontEnd)
	l.BackEndDTI = db.FloatPtr(backEnd)
	l.DecisionDate = db.TimePtr(decisionDate)
	return l, nil
}

// Create inserts a new loan application.
func (r *PGRepo) Create(ctx context.Context, l LoanApplication) error {
	const query = `
INSERT INTO loan_applications (
    id, borrower_profile_id, loan_officer_id, property_id, lender_name,
    amount, loan_type, term_months, rate, ltv, property_value, property_address,
    description, monthly_rent, estimated_payment, ai_summary, risk_score, risk_level,
    status, decision_notes, decision_date, monthly_housing_payment, front_end_dti, back_end_dti,
    monthly_debt_total, progress_percent, milestone_stage, is_active, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5,
    $6, $7, $8, $9, $10, $11, $12,
    $13, $14, $15, $16, $17, $18,
    $19, $20, $21, $22, $23, $24,
    $25, $26, $27, $28, $29, $30
)`
	_, err := r.DB.ExecContext(ctx, query,
		l.ID, l.BorrowerProfileID, db.NullableString(l.LoanOfficerID), db.NullableString(l.PropertyID), db.NullableString(l.LenderName),
		l.Amount, db.NullableString(l.LoanType), l.TermMonths, l.Rate, db.NullableFloat(l.LTV), l.PropertyValue, db.NullableString(l.PropertyAddress),
		db.NullableString(l.Description), l.MonthlyRent, l.EstimatedPayment, db.NullableString(l.AISummary), l.RiskScore, l.RiskLevel,
		l.Status, db.NullableString(l.DecisionNotes), db.NullableTime(l.DecisionDate), l.MonthlyHousingPayment, db.NullableFloat(l.FrontEndDTI), db.NullableFloat(l.BackEndDTI),
		l.MonthlyDebtTotal, l.ProgressPercent, l.MilestoneStage, l.IsActive, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

// GetByID fetches a loan by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (LoanApplication, error) {
	l, err := scanLoan(r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1
LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoanApplication{}, ErrNotFound
		}
		return LoanApplication{}, err
	}
	return l, nil
}

func whereClause(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.BorrowerID != "" {
		add("borrower_profile_id = $%d", filter.BorrowerID)
	}
	if filter.OfficerID != "" {
		add("loan_officer_id = $%d", filter.OfficerID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.ActiveOnly {
		conds = append(conds, "is_active = true")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

// List returns a page of loans, newest first.
func (r *PGRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]LoanApplication, error) {
	limit, offset = db.ClampPage(limit, offset)
	where, args := whereClause(filter)
	args = append(args, limit, offset)
	query := selectColumns + where + fmt.Sprintf("\nORDER BY created_at DESC\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return r.query(ctx, query, args...)
}

// ListAll returns every matching loan, newest first.
func (r *PGRepo) ListAll(ctx context.Context, filter ListFilter) ([]LoanApplication, error) {
	where, args := whereClause(filter)
	return r.query(ctx, selectColumns+where+"\nORDER BY created_at DESC", args...)
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]LoanApplication, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LoanApplication
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update overwrites every mutable column.
func (r *PGRepo) Update(ctx context.Context, l LoanApplication) error {
	const query = `
UPDATE loan_applications SET
    loan_officer_id = $2, property_id = $3, lender_name = $4, amount = $5, loan_type = $6,
    term_months = $7, rate = $8, ltv = $9, property_value = $10, property_address = $11,
    description = $12, monthly_rent = $13, estimated_payment = $14, ai_summary = $15, risk_score = $16,
    risk_level = $17, status = $18, decision_notes = $19, decision_date = $20, monthly_housing_payment = $21,
    front_end_dti = $22, back_end_dti = $23, monthly_debt_total = $24, progress_percent = $25,
    milestone_stage = $26, is_active = $27, updated_at = $28
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		l.ID,
		db.NullableString(l.LoanOfficerID), db.NullableString(l.PropertyID), db.NullableString(l.LenderName), l.Amount, db.NullableString(l.LoanType),
		l.TermMonths, l.Rate, db.NullableFloat(l.LTV), l.PropertyValue, db.NullableString(l.PropertyAddress),
		db.NullableString(l.Description), l.MonthlyRent, l.EstimatedPayment, db.NullableString(l.AISummary), l.RiskScore,
		l.RiskLevel, l.Status, db.NullableString(l.DecisionNotes), db.NullableTime(l.DecisionDate), l.MonthlyHousingPayment,
		db.NullableFloat(l.FrontEndDTI), db.NullableFloat(l.BackEndDTI), l.MonthlyDebtTotal, l.ProgressPercent,
		l.MilestoneStage, l.IsActive, l.UpdatedAt,
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

var _ Repo = (*PGRepo)(nil)
