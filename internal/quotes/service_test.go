package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/credit"
	"loanmvp/internal/loans"
	"loanmvp/internal/notifications"
	"loanmvp/internal/shared/auth"
)

type fixture struct {
	svc   *Service
	loans *loans.Service
	inbox *notifications.MemoryRepo
	loan  loans.LoanApplication
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	borrowerRepo := borrowers.NewMemoryRepo()
	creditRepo := credit.NewMemoryRepo()
	inbox := notifications.NewMemoryRepo()
	notifier := &notifications.Notifier{Repo: inbox}

	require.NoError(t, borrowerRepo.Create(ctx, borrowers.BorrowerProfile{
		ID:                    "b-1",
		UserID:                "user-1",
		FullName:              "Dana Reyes",
		Address:               "12 Oak St",
		Income:                8000,
		MonthlyHousingPayment: 1500,
		CreditScore:           640,
		LoanType:              "conventional",
	}))
	require.NoError(t, creditRepo.Create(ctx, credit.CreditProfile{
		ID:                "c-1",
		BorrowerProfileID: "b-1",
		CreditScore:       720,
		MonthlyDebtTotal:  500,
		PulledAt:          clock,
	}))

	loanSvc := &loans.Service{
		Repo:      loans.NewMemoryRepo(),
		Borrowers: borrowerRepo,
		Credit:    creditRepo,
		Notifier:  notifier,
		Now:       func() time.Time { return clock },
	}
	l, err := loanSvc.Create(ctx, loans.CreateRequest{
		BorrowerProfileID: "b-1",
		Amount:            300000,
		PropertyValue:     400000,
	})
	require.NoError(t, err)

	return &fixture{
		svc: &Service{
			Repo:      NewMemoryRepo(),
			Lenders:   NewMemoryLenderRepo(),
			Loans:     loanSvc,
			Borrowers: borrowerRepo,
			Credit:    creditRepo,
			Notifier:  notifier,
			Now:       func() time.Time { return clock },
		},
		loans: loanSvc,
		inbox: inbox,
		loan:  l,
	}
}

func TestGenerateDefaults(t *testing.T) {
	out, err := Generate(GenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, "CM Loan Services", out.Lender)
	assert.Equal(t, "Commercial", out.LoanType)
	assert.Equal(t, "30 years", out.Term)
	assert.Equal(t, 6.5, out.Rate)
	assert.InDelta(t, 1580.17, out.MonthlyPayment, 0.01)
}

func TestGenerateRejectsNonPositive(t *testing.T) {
	zero := 0.0
	_, err := Generate(GenerateRequest{Amount: &zero})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	neg := -5
	_, err = Generate(GenerateRequest{Term: &neg})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPriceUsesLatestCredit(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.Price(context.Background(), f.loan.ID)
	require.NoError(t, err)

	assert.Equal(t, 720, q.FicoScore)
	assert.Equal(t, 6.25, q.Rate)
	assert.Equal(t, 0.97, q.MaxLTV)
	assert.Equal(t, 360, q.TermMonths)
	assert.InDelta(t, 1847.15, q.MonthlyPayment, 0.01)
	assert.Equal(t, "pending", q.Status)
	assert.Equal(t, "b-1", q.BorrowerProfileID)

	stored, err := f.svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q, stored)
}

func TestPriceUnknownLoan(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Price(context.Background(), "missing")
	assert.True(t, errors.Is(err, loans.ErrNotFound))

	_, err = f.svc.Price(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestSelectClearsOthersAndUpdatesLoan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, LoanQuote{LoanApplicationID: f.loan.ID, LenderName: "First Bank", Rate: 6.1, TermMonths: 360, LoanAmount: 300000})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, LoanQuote{LoanApplicationID: f.loan.ID, LenderName: "Second Bank", Rate: 5.9, TermMonths: 360, LoanAmount: 300000})
	require.NoError(t, err)
	assert.Equal(t, "b-1", second.BorrowerProfileID)
	assert.Greater(t, second.MonthlyPayment, 0.0)

	_, err = f.svc.Select(ctx, first.ID)
	require.NoError(t, err)
	picked, err := f.svc.Select(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, picked.Selected)
	assert.Equal(t, "selected", picked.Status)

	again, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, again.Selected)
	assert.Equal(t, "pending", again.Status)

	l, err := f.loans.Get(ctx, f.loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Second Bank", l.LenderName)
	assert.Equal(t, 5.9, l.Rate)

	inbox, err := f.inbox.List(ctx, notifications.ListFilter{BorrowerID: "b-1"}, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, inbox)
	assert.Equal(t, "Quote Selected", inbox[0].Title)
}

func TestSelectMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Select(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSelectLeavesQuoteUnselectedWhenLoanUpdateFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Repo.Create(ctx, LoanQuote{ID: "q-orphan", LoanApplicationID: "gone", LenderName: "Ghost Bank", Rate: 6, Status: "pending"}))

	_, err := f.svc.Select(ctx, "q-orphan")
	require.Error(t, err)
	assert.True(t, errors.Is(err, loans.ErrNotFound))

	q, err := f.svc.Get(ctx, "q-orphan")
	require.NoError(t, err)
	assert.False(t, q.Selected)
	assert.Equal(t, "pending", q.Status)
}

func TestAuthorizeScopesQuotesToLoanOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, LoanQuote{LoanApplicationID: f.loan.ID, LenderName: "First Bank", Rate: 6.1, TermMonths: 360})
	require.NoError(t, err)

	owner := auth.Principal{UserID: "user-1", Role: auth.RoleBorrower}
	stranger := auth.Principal{UserID: "guest:other", Role: auth.RoleBorrower, Guest: true}
	officer := auth.Principal{UserID: "lo-1", Role: auth.RoleLoanOfficer}

	_, err = f.svc.Authorize(ctx, owner, q.ID)
	assert.NoError(t, err)
	_, err = f.svc.Authorize(ctx, officer, q.ID)
	assert.NoError(t, err)
	_, err = f.svc.Authorize(ctx, stranger, q.ID)
	assert.True(t, errors.Is(err, auth.ErrForbidden))

	require.NoError(t, f.svc.Repo.Create(ctx, LoanQuote{ID: "q-loose", LenderName: "Loose"}))
	_, err = f.svc.Authorize(ctx, owner, "q-loose")
	assert.True(t, errors.Is(err, auth.ErrForbidden))

	_, err = f.svc.ListFor(ctx, owner, ListFilter{}, 10, 0)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = f.svc.ListFor(ctx, stranger, ListFilter{LoanID: f.loan.ID}, 10, 0)
	assert.True(t, errors.Is(err, auth.ErrForbidden))
	mine, err := f.svc.ListFor(ctx, owner, ListFilter{LoanID: f.loan.ID, BorrowerID: "someone"}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	all, err := f.svc.ListFor(ctx, officer, ListFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateRequiresLender(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), LoanQuote{Rate: 6})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestLenderQuotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.CreateLenderQuote(ctx, LenderQuote{
		LoanID:       f.loan.ID,
		LenderName:   "Harbor Capital",
		Rate:         7.25,
		TermMonths:   12,
		QuoteDetails: []byte(`{"points":2}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Pending", q.Status)

	out, err := f.svc.ListLenderQuotes(ctx, f.loan.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.JSONEq(t, `{"points":2}`, string(out[0].QuoteDetails))

	_, err = f.svc.CreateLenderQuote(ctx, LenderQuote{LoanID: "missing", LenderName: "X"})
	assert.True(t, errors.Is(err, loans.ErrNotFound))
}
