package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"loanmvp/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Active(ctx context.Context, borrowerID string) (SubscriptionPlan, error) {
	var (
		p        SubscriptionPlan
		features string
		end      sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `
SELECT id, borrower_profile_id, plan_name, price, COALESCE(features, ''), status, start_date, end_date
FROM subscription_plans
WHERE borrower_profile_id = $1 AND status = 'Active'
ORDER BY start_date DESC
LIMIT 1`, borrowerID).Scan(&p.ID, &p.BorrowerProfileID, &p.PlanName, &p.Price, &features, &p.Status, &p.StartDate, &end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SubscriptionPlan{}, ErrNotFound
		}
		return SubscriptionPlan{}, err
	}
	p.Features = splitFeatures(features)
	p.EndDate = db.TimePtr(end)
	return p, nil
}

func (r *PGRepo) Replace(ctx context.Context, next SubscriptionPlan, endedAt time.Time) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
UPDATE subscription_plans SET status = 'Cancelled', end_date = $2
WHERE borrower_profile_id = $1 AND status = 'Active'`, next.BorrowerProfileID, endedAt); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
INSERT INTO subscription_plans (id, borrower_profile_id, plan_name, price, features, status, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		next.ID, next.BorrowerProfileID, next.PlanName, next.Price, strings.Join(next.Features, ","),
		next.Status, next.StartDate, db.NullableTime(next.EndDate),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func splitFeatures(raw string) []string {
	out := []string{}
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

var _ Repo = (*PGRepo)(nil)
