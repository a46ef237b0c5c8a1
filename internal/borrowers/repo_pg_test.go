package borrowers

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var profileColumns = []string{
	"id", "user_id", "assigned_officer_id", "lead_id", "full_name",
	"email", "phone", "address", "city", "state", "zip",
	"employment_status", "employer_name", "job_title", "years_at_job",
	"annual_income", "income", "monthly_income_secondary", "bank_balance", "housing_status",
	"monthly_housing_payment", "citizenship", "marital_status", "dependents", "veteran",
	"credit_score", "loan_type", "subscription_plan", "email_notifications", "sms_notifications",
	"created_at", "updated_at",
}

func TestPGRepoGetByID(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	now := time.Date(2026, time.February, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM borrower_profiles")).
		WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			"b-1", "user-1", "", "", "Dana Reyes",
			"dana@example.com", "+15550100", "12 Oak St", "Columbia", "SC", "29201",
			"employed", "Acme", "Analyst", 3.5,
			90000.0, 7500.0, 0.0, 12000.0, "rent",
			1500.0, "US", "single", 0, false,
			712, "conventional", "starter", true, false,
			now, now,
		))

	repo := &PGRepo{DB: sqlDB}
	p, err := repo.GetByID(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.FullName != "Dana Reyes" || p.CreditScore != 712 || !p.EmailNotifications {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM borrower_profiles")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(profileColumns))

	repo := &PGRepo{DB: sqlDB}
	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateMissingRow(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE borrower_profiles SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: sqlDB}
	err = repo.Update(context.Background(), BorrowerProfile{ID: "missing", FullName: "X", UpdatedAt: time.Now()})
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
