package credit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/borrowers"
)

func TestRecordMirrorsScoreAndLatestWins(t *testing.T) {
	ctx := context.Background()
	borrowerRepo := borrowers.NewMemoryRepo()
	require.NoError(t, borrowerRepo.Create(ctx, borrowers.BorrowerProfile{ID: "b-1", FullName: "Dana"}))

	clock := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	svc := &Service{Repo: NewMemoryRepo(), Borrowers: borrowerRepo, Now: func() time.Time { return clock }}

	first, err := svc.Record(ctx, "b-1", PullRequest{CreditScore: 640})
	require.NoError(t, err)
	assert.Equal(t, "Equifax", first.Bureau)

	clock = clock.Add(time.Hour)
	_, err = svc.Record(ctx, "b-1", PullRequest{CreditScore: 705, Bureau: "TransUnion", MonthlyDebtTotal: 420})
	require.NoError(t, err)

	latest, err := svc.Latest(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, 705, latest.CreditScore)
	assert.Equal(t, 420.0, latest.MonthlyDebtTotal)

	b, err := borrowerRepo.GetByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, 705, b.CreditScore)
}

func TestRecordRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := &Service{Repo: NewMemoryRepo(), Borrowers: borrowers.NewMemoryRepo()}

	_, err := svc.Record(ctx, "b-1", PullRequest{CreditScore: 200})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Record(ctx, "missing", PullRequest{CreditScore: 700})
	assert.ErrorIs(t, err, borrowers.ErrNotFound)

	_, err = svc.Latest(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
