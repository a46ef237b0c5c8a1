package quotes

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var quoteRow = []string{
	"id", "borrower_profile_id", "loan_application_id", "lender_name", "rate", "max_ltv",
	"term_months", "loan_amount", "monthly_payment", "loan_type", "property_address",
	"property_type", "purchase_price", "as_is_value", "after_repair_value", "fico_score",
	"loan_category", "status", "selected", "ai_suggestion", "created_at",
}

func TestPGRepoSelectCommits(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	now := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE loan_quotes SET selected = true")).
		WithArgs("q-1").
		WillReturnRows(sqlmock.NewRows(quoteRow).AddRow(
			"q-1", "b-1", "loan-1", "CM Loan Services", 6.25, 0.97,
			360, 300000.0, 1847.15, "conventional", "",
			"", 400000.0, 0.0, 0.0, 720,
			"", "selected", true, "", now,
		))
	mock.ExpectExec(regexp.QuoteMeta("WHERE loan_application_id = $1 AND id <> $2")).
		WithArgs("loan-1", "q-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	repo := &PGRepo{DB: sqlDB}
	q, err := repo.Select(context.Background(), "q-1")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !q.Selected || q.Status != "selected" || q.MonthlyPayment != 1847.15 {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoSelectMissingRollsBack(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE loan_quotes SET selected = true")).
		WithArgs("q-x").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	repo := &PGRepo{DB: sqlDB}
	if _, err := repo.Select(context.Background(), "q-x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoListFilters(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE loan_application_id = $1 AND borrower_profile_id = $2")).
		WithArgs("loan-1", "b-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(quoteRow))

	repo := &PGRepo{DB: sqlDB}
	out, err := repo.List(context.Background(), ListFilter{LoanID: "loan-1", BorrowerID: "b-1"}, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty list, got %d", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
