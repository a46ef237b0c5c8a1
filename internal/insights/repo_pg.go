package insights

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"loanmvp/internal/shared/storage/db"
)

// PGEventRepo implements EventRepo using Postgres.
type PGEventRepo struct {
	DB *sql.DB
}

func (r *PGEventRepo) Create(ctx context.Context, e Event) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO engagement_events (id, borrower_id, event_type, created_at)
VALUES ($1, $2, $3, $4)`, e.ID, e.BorrowerID, e.EventType, e.CreatedAt)
	return err
}

func (r *PGEventRepo) ListSince(ctx context.Context, borrowerID string, since time.Time) ([]Event, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT id, borrower_id, event_type, created_at
FROM engagement_events
WHERE borrower_id = $1 AND created_at >= $2
ORDER BY created_at DESC`, borrowerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.BorrowerID, &e.EventType, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ EventRepo = (*PGEventRepo)(nil)

// PGInsightRepo implements InsightRepo using Postgres.
type PGInsightRepo struct {
	DB *sql.DB
}

func (r *PGInsightRepo) Get(ctx context.Context, borrowerID string) (BehavioralInsight, error) {
	var b BehavioralInsight
	err := r.DB.QueryRowContext(ctx, `
SELECT id, borrower_id, COALESCE(officer_id, ''), total_messages, avg_response_time, sentiment_score,
       follow_up_rate, conversion_rate, COALESCE(engagement_level, ''), loan_success_score,
       COALESCE(ai_summary, ''), COALESCE(ai_suggestions, ''), created_at, updated_at
FROM behavioral_insights
WHERE borrower_id = $1`, borrowerID).Scan(
		&b.ID, &b.BorrowerID, &b.OfficerID, &b.TotalMessages, &b.AvgResponseTime, &b.SentimentScore,
		&b.FollowUpRate, &b.ConversionRate, &b.EngagementLevel, &b.LoanSuccessScore,
		&b.AISummary, &b.AISuggestions, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BehavioralInsight{}, ErrNotFound
		}
		return BehavioralInsight{}, err
	}
	return b, nil
}

func (r *PGInsightRepo) Upsert(ctx context.Context, b BehavioralInsight) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO behavioral_insights (
    id, borrower_id, officer_id, total_messages, avg_response_time, sentiment_score,
    follow_up_rate, conversion_rate, engagement_level, loan_success_score,
    ai_summary, ai_suggestions, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (borrower_id) DO UPDATE SET
    officer_id = EXCLUDED.officer_id,
    total_messages = EXCLUDED.total_messages,
    avg_response_time = EXCLUDED.avg_response_time,
    sentiment_score = EXCLUDED.sentiment_score,
    follow_up_rate = EXCLUDED.follow_up_rate,
    conversion_rate = EXCLUDED.conversion_rate,
    engagement_level = EXCLUDED.engagement_level,
    loan_success_score = EXCLUDED.loan_success_score,
    ai_summary = EXCLUDED.ai_summary,
    ai_suggestions = EXCLUDED.ai_suggestions,
    updated_at = EXCLUDED.updated_at`,
		b.ID, b.BorrowerID, db.NullableString(b.OfficerID), b.TotalMessages, b.AvgResponseTime, b.SentimentScore,
		b.FollowUpRate, b.ConversionRate, db.NullableString(b.EngagementLevel), b.LoanSuccessScore,
		db.NullableString(b.AISummary), db.NullableString(b.AISuggestions), b.CreatedAt, b.UpdatedAt,
	)
	return err
}

var _ InsightRepo = (*PGInsightRepo)(nil)
