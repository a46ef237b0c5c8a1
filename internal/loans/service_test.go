package loans

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/credit"
	"loanmvp/internal/notifications"
)

type stubDocs struct {
	counts DocumentCounts
}

func (s stubDocs) CountByLoan(ctx context.Context, loanID string) (DocumentCounts, error) {
	return s.counts, nil
}

type fixture struct {
	svc       *Service
	borrowers *borrowers.MemoryRepo
	credit    *credit.MemoryRepo
	inbox     *notifications.MemoryRepo
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		borrowers: borrowers.NewMemoryRepo(),
		credit:    credit.NewMemoryRepo(),
		inbox:     notifications.NewMemoryRepo(),
		clock:     time.Date(2026, time.May, 4, 15, 0, 0, 0, time.UTC),
	}
	f.svc = &Service{
		Repo:      NewMemoryRepo(),
		Borrowers: f.borrowers,
		Credit:    f.credit,
		Notifier:  &notifications.Notifier{Repo: f.inbox},
		Now:       func() time.Time { return f.clock },
	}
	ctx := context.Background()
	require.NoError(t, f.borrowers.Create(ctx, borrowers.BorrowerProfile{
		ID:                    "b-1",
		FullName:              "Dana Reyes",
		Address:               "12 Oak St",
		Income:                8000,
		MonthlyHousingPayment: 1500,
		EmployerName:          "Acme",
		LoanType:              "conventional",
	}))
	require.NoError(t, f.credit.Create(ctx, credit.CreditProfile{
		ID:                "c-1",
		BorrowerProfileID: "b-1",
		CreditScore:       720,
		MonthlyDebtTotal:  500,
		PulledAt:          f.clock,
	}))
	return f
}

func TestCreatePricesLoan(t *testing.T) {
	f := newFixture(t)

	l, err := f.svc.Create(context.Background(), CreateRequest{
		BorrowerProfileID: "b-1",
		Amount:            300000,
		PropertyValue:     400000,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, l.Status)
	assert.Equal(t, 360, l.TermMonths)
	assert.Equal(t, "conventional", l.LoanType)
	assert.Equal(t, 6.25, l.Rate)
	assert.InDelta(t, 1847.15, l.EstimatedPayment, 0.01)
	require.NotNil(t, l.LTV)
	assert.Equal(t, 0.75, *l.LTV)
	require.NotNil(t, l.FrontEndDTI)
	assert.Equal(t, 0.1875, *l.FrontEndDTI)
	require.NotNil(t, l.BackEndDTI)
	assert.Equal(t, 0.25, *l.BackEndDTI)
	assert.Equal(t, 500.0, l.MonthlyDebtTotal)
	assert.Equal(t, 20, l.ProgressPercent)
	assert.Equal(t, "Awaiting Documents", l.MilestoneStage)
	assert.True(t, l.IsActive)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateRequest{Amount: 1000})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(ctx, CreateRequest{BorrowerProfileID: "b-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(ctx, CreateRequest{BorrowerProfileID: "missing", Amount: 1000})
	assert.ErrorIs(t, err, borrowers.ErrNotFound)
}

func TestSetStatusStampsDecisionAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.Create(ctx, CreateRequest{BorrowerProfileID: "b-1", Amount: 200000, PropertyValue: 250000})
	require.NoError(t, err)

	f.clock = f.clock.Add(48 * time.Hour)
	updated, err := f.svc.SetStatus(ctx, l.ID, StatusRequest{Status: "approved", DecisionNotes: "Strong file"})
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, updated.Status)
	require.NotNil(t, updated.DecisionDate)
	assert.True(t, updated.DecisionDate.Equal(f.clock))
	assert.Equal(t, "Strong file", updated.DecisionNotes)

	inbox, err := f.inbox.List(ctx, notifications.ListFilter{BorrowerID: "b-1"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Loan Approved", inbox[0].Title)
	assert.Equal(t, l.ID, inbox[0].LoanID)

	inReview, err := f.svc.SetStatus(ctx, l.ID, StatusRequest{Status: "in_review"})
	require.NoError(t, err)
	assert.Equal(t, StatusInReview, inReview.Status)

	_, err = f.svc.SetStatus(ctx, l.ID, StatusRequest{Status: "Funded"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRefreshProgressUsesDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.Create(ctx, CreateRequest{BorrowerProfileID: "b-1", Amount: 200000, PropertyValue: 250000})
	require.NoError(t, err)

	f.svc.Documents = stubDocs{counts: DocumentCounts{Total: 5}}
	got, err := f.svc.RefreshProgress(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.ProgressPercent)
	assert.Equal(t, "Appraisal Completed", got.MilestoneStage)

	f.svc.Documents = stubDocs{counts: DocumentCounts{Total: 5, Conditions: 2, Open: 2}}
	got, err = f.svc.RefreshProgress(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.ProgressPercent)
	assert.Equal(t, "Conditions Pending", got.MilestoneStage)

	// Cleared conditions earn their step once nothing is left open.
	f.svc.Documents = stubDocs{counts: DocumentCounts{Total: 5, Conditions: 2}}
	got, err = f.svc.RefreshProgress(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.ProgressPercent)
	assert.Equal(t, "Appraisal Completed", got.MilestoneStage)

	noAppraisal, err := f.svc.Create(ctx, CreateRequest{BorrowerProfileID: "b-1", Amount: 200000})
	require.NoError(t, err)
	got, err = f.svc.RefreshProgress(ctx, noAppraisal.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.ProgressPercent)
	assert.Equal(t, "Appraisal In Progress", got.MilestoneStage)
}

func TestUpdateRecomputesRatios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.Create(ctx, CreateRequest{BorrowerProfileID: "b-1", Amount: 300000, PropertyValue: 400000})
	require.NoError(t, err)

	value := 300000.0
	updated, err := f.svc.Update(ctx, l.ID, Patch{PropertyValue: &value})
	require.NoError(t, err)
	require.NotNil(t, updated.LTV)
	assert.Equal(t, 1.0, *updated.LTV)

	zero := 0.0
	_, err = f.svc.Update(ctx, l.ID, Patch{Amount: &zero})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPreapprovalAndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.Create(ctx, CreateRequest{BorrowerProfileID: "b-1", Amount: 300000, PropertyValue: 400000})
	require.NoError(t, err)

	res, err := f.svc.Preapproval(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 720, res.CreditScoreUsed)
	assert.Contains(t, res.Programs, "Conventional")
	assert.Empty(t, res.RedFlags)

	sc, err := f.svc.Scenario(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, sc.Taxes)
	assert.Zero(t, sc.PMI)
	assert.Equal(t, 75.0, sc.LTVPercent)
}

func TestCanonicalStatus(t *testing.T) {
	tests := map[string]string{
		"pending":        StatusPending,
		"IN REVIEW":      StatusInReview,
		"clear_to_close": StatusClearToClose,
		"Closed":         StatusClosed,
	}
	for in, want := range tests {
		got, ok := CanonicalStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := CanonicalStatus("archived")
	assert.False(t, ok)
}
