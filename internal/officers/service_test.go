package officers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/credit"
	"loanmvp/internal/crm"
	"loanmvp/internal/loans"
	"loanmvp/internal/notifications"
	"loanmvp/internal/shared/auth"
)

type fixture struct {
	svc     *Service
	officer LoanOfficerProfile
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{clock: time.Date(2026, time.June, 30, 12, 0, 0, 0, time.UTC)}

	loanRepo := loans.NewMemoryRepo()
	borrowerRepo := borrowers.NewMemoryRepo()
	creditRepo := credit.NewMemoryRepo()
	leads := crm.NewMemoryLeadRepo()
	tasks := crm.NewMemoryTaskRepo()
	inbox := notifications.NewMemoryRepo()

	f.svc = &Service{
		Repo:          NewMemoryRepo(),
		Loans:         loanRepo,
		Borrowers:     borrowerRepo,
		Credit:        creditRepo,
		Leads:         leads,
		Tasks:         tasks,
		Notifications: inbox,
		Now:           func() time.Time { return f.clock },
	}

	var err error
	f.officer, err = f.svc.Create(ctx, LoanOfficerProfile{UserID: "u-off", Name: "Morgan Lee", Email: "morgan@example.com"})
	require.NoError(t, err)

	require.NoError(t, borrowerRepo.Create(ctx, borrowers.BorrowerProfile{ID: "b-1", FullName: "A", CreditScore: 610}))
	require.NoError(t, borrowerRepo.Create(ctx, borrowers.BorrowerProfile{ID: "b-2", FullName: "B", CreditScore: 640}))
	require.NoError(t, creditRepo.Create(ctx, credit.CreditProfile{ID: "c-1", BorrowerProfileID: "b-1", CreditScore: 700, PulledAt: f.clock}))

	june := func(day int) time.Time { return time.Date(2026, time.June, day, 0, 0, 0, 0, time.UTC) }
	decided := func(day int) *time.Time { d := june(day); return &d }
	for _, l := range []loans.LoanApplication{
		{ID: "l-1", BorrowerProfileID: "b-1", LoanOfficerID: f.officer.ID, Amount: 200000, Status: loans.StatusApproved, IsActive: true, CreatedAt: june(1), DecisionDate: decided(11)},
		{ID: "l-2", BorrowerProfileID: "b-2", LoanOfficerID: f.officer.ID, Amount: 300000, Status: loans.StatusDeclined, IsActive: false, CreatedAt: june(1), DecisionDate: decided(21)},
		{ID: "l-3", BorrowerProfileID: "b-1", LoanOfficerID: f.officer.ID, Amount: 100000, Status: loans.StatusPending, IsActive: true, CreatedAt: june(2)},
		{ID: "l-4", BorrowerProfileID: "b-2", LoanOfficerID: "someone-else", Amount: 900000, Status: loans.StatusApproved, IsActive: true, CreatedAt: june(3)},
	} {
		require.NoError(t, loanRepo.Create(ctx, l))
	}

	require.NoError(t, leads.Create(ctx, crm.Lead{ID: "lead-1", Name: "Open", AssignedOfficerID: f.officer.ID, Status: crm.LeadStatusNew, CreatedAt: june(5)}))
	require.NoError(t, leads.Create(ctx, crm.Lead{ID: "lead-2", Name: "Done", AssignedOfficerID: f.officer.ID, Status: crm.LeadStatusConverted, CreatedAt: june(6)}))
	require.NoError(t, tasks.Create(ctx, crm.Task{ID: "t-1", Title: "Call", AssignedTo: "u-off", Status: crm.TaskStatusPending, CreatedAt: june(7)}))
	require.NoError(t, tasks.Create(ctx, crm.Task{ID: "t-2", Title: "Done", AssignedTo: "u-off", Completed: true, Status: crm.TaskStatusCompleted, CreatedAt: june(8)}))
	require.NoError(t, inbox.Create(ctx, notifications.LoanNotification{ID: "n-1", LoanID: "l-1", Role: auth.RoleLoanOfficer, Title: "Loan Approved", CreatedAt: june(11)}))

	return f
}

func TestCreateRejectsDuplicateUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), LoanOfficerProfile{UserID: "u-off", Name: "Again"})
	assert.True(t, errors.Is(err, ErrDuplicate))

	_, err = f.svc.Create(context.Background(), LoanOfficerProfile{UserID: "u-2"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestRefreshComputesPortfolioAndAnalytics(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Refresh(context.Background(), f.officer.ID)
	require.NoError(t, err)

	a := res.Analytics
	assert.Equal(t, "2026-06", a.Month)
	assert.Equal(t, 3, a.TotalLoans)
	assert.Equal(t, 1, a.ApprovedLoans)
	assert.Equal(t, 1, a.DeclinedLoans)
	assert.Equal(t, 2, a.ActiveLoans)
	assert.InDelta(t, 15.0, a.AverageProcessingTime, 1e-9)
	assert.InDelta(t, 45.83, a.PerformanceScore, 1e-9)

	p := res.Portfolio
	assert.Equal(t, 2, p.TotalClients)
	assert.InDelta(t, 200000.0, p.AvgLoanAmount, 1e-9)
	assert.InDelta(t, 670.0, p.AvgCreditScore, 1e-9)
	assert.Equal(t, 0.0, p.AvgClosingTime)
	assert.Equal(t, 5.0, p.Rating)

	_, err = f.svc.Refresh(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRefreshAll(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), LoanOfficerProfile{UserID: "u-2", Name: "Riley Park"})
	require.NoError(t, err)

	n, err := f.svc.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDashboardFansOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Dashboard(ctx, f.officer.ID)
	require.NoError(t, err)
	assert.Nil(t, d.Portfolio)
	assert.Nil(t, d.Analytics)
	assert.Len(t, d.ActiveLoans, 2)
	require.Len(t, d.OpenLeads, 1)
	assert.Equal(t, "lead-1", d.OpenLeads[0].ID)
	require.Len(t, d.PendingTasks, 1)
	assert.Equal(t, "t-1", d.PendingTasks[0].ID)
	assert.Equal(t, 1, d.UnreadNotifications)

	_, err = f.svc.Refresh(ctx, f.officer.ID)
	require.NoError(t, err)
	d, err = f.svc.Dashboard(ctx, f.officer.ID)
	require.NoError(t, err)
	require.NotNil(t, d.Portfolio)
	require.NotNil(t, d.Analytics)
	assert.Equal(t, 3, d.Analytics.TotalLoans)
}
