package db

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestNullableHelpers(t *testing.T) {
	if NullableString("") != nil {
		t.Fatalf("expected nil for empty string")
	}
	if NullableString("x") != "x" {
		t.Fatalf("expected value passthrough")
	}
	if NullableTime(nil) != nil {
		t.Fatalf("expected nil for nil time")
	}
	if NullableFloat(nil) != nil {
		t.Fatalf("expected nil for nil float")
	}
	v := 0.8
	if NullableFloat(&v) != 0.8 {
		t.Fatalf("expected float passthrough")
	}
	if TimePtr(sql.NullTime{}) != nil {
		t.Fatalf("expected nil for invalid time")
	}
	now := time.Now()
	if got := TimePtr(sql.NullTime{Time: now, Valid: true}); got == nil || !got.Equal(now) {
		t.Fatalf("unexpected time: %v", got)
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		limit, offset   int
		wantL, wantO int
	}{
		{0, 0, 20, 0},
		{500, -3, 100, 0},
		{10, 40, 10, 40},
	}
	for _, tc := range cases {
		l, o := ClampPage(tc.limit, tc.offset)
		if l != tc.wantL || o != tc.wantO {
			t.Fatalf("ClampPage(%d,%d) = %d,%d", tc.limit, tc.offset, l, o)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatal("expected wrapped 23505 to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) || IsUniqueViolation(errors.New("boom")) {
		t.Fatal("unexpected match")
	}
}
