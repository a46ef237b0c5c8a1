package notifications

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var notificationColumns = []string{"id", "loan_id", "borrower_id", "role", "channel", "title", "message", "is_read", "created_at"}

func TestPGRepoListFiltersUnread(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE borrower_id = $1 AND is_read = false")).
		WithArgs("b-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(notificationColumns).
			AddRow("n-1", "loan-1", "b-1", "loan_officer", "inapp", "Approved", "Congrats", false, now))

	repo := &PGRepo{DB: sqlDB}
	out, err := repo.List(context.Background(), ListFilter{BorrowerID: "b-1", UnreadOnly: true}, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].Title != "Approved" || out[0].IsRead {
		t.Fatalf("unexpected rows: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoMarkReadNotFound(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND ($2 = '' OR borrower_id = $2)")).
		WithArgs("n-1", "b-other").
		WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: sqlDB}
	if _, err := repo.MarkRead(context.Background(), "n-1", "b-other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoCreate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO loan_notifications")).
		WithArgs("n-1", nil, "b-1", nil, "inapp", "Hello", "World", false, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: sqlDB}
	err = repo.Create(context.Background(), LoanNotification{
		ID: "n-1", BorrowerID: "b-1", Channel: "inapp", Title: "Hello", Message: "World", CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
