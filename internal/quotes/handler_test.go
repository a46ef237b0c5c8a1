package quotes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/server/middleware"
)

func quoteRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth("dev"))
	NewHandler(svc).RegisterRoutes(r.Group("/api"))
	return r
}

func staffToken(t *testing.T) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Role: auth.RoleLoanOfficer, RegisteredClaims: jwt.RegisteredClaims{Subject: "lo-1"}})
	require.NoError(t, err)
	return token
}

func TestGenerateRoute(t *testing.T) {
	r := quoteRouter(&Service{})

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{name: "empty body", body: "", status: http.StatusOK},
		{name: "custom", body: `{"amount":100000,"term":15}`, status: http.StatusOK},
		{name: "zero amount", body: `{"amount":0}`, status: http.StatusBadRequest},
		{name: "negative term", body: `{"term":-1}`, status: http.StatusBadRequest},
		{name: "not json", body: `amount=5`, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/quote/generate", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestGenerateRouteShape(t *testing.T) {
	r := quoteRouter(&Service{})
	req := httptest.NewRequest(http.MethodPost, "/api/quote/generate", strings.NewReader(`{"amount":100000,"term":15}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CM Loan Services", body["lender"])
	assert.Equal(t, "Commercial", body["loan_type"])
	assert.Equal(t, "15 years", body["term"])
	assert.Equal(t, 6.5, body["rate"])
	assert.InDelta(t, 871.11, body["monthly_payment"], 0.01)
}

func TestSelectRouteNotFound(t *testing.T) {
	r := quoteRouter(&Service{Repo: NewMemoryRepo()})
	req := httptest.NewRequest(http.MethodPost, "/api/quotes/none/select", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken(t))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuoteRoutesRefuseForeignGuest(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Create(context.Background(), LoanQuote{LoanApplicationID: f.loan.ID, LenderName: "First Bank", Rate: 6.1, TermMonths: 360})
	require.NoError(t, err)
	r := quoteRouter(f.svc)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "read quote", method: http.MethodGet, path: "/api/quotes/" + q.ID},
		{name: "list loan quotes", method: http.MethodGet, path: "/api/quotes?loan_id=" + f.loan.ID},
		{name: "price", method: http.MethodPost, path: "/api/quotes/price", body: `{"loan_application_id":"` + f.loan.ID + `"}`},
		{name: "select", method: http.MethodPost, path: "/api/quotes/" + q.ID + "/select"},
		{name: "lender quotes", method: http.MethodGet, path: "/api/lender-quotes?loan_id=" + f.loan.ID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Guest-Id", "someone-else")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}

	got, err := f.svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.False(t, got.Selected)
}

func TestOwnerReadsQuoteOnOwnLoan(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Create(context.Background(), LoanQuote{LoanApplicationID: f.loan.ID, LenderName: "First Bank", Rate: 6.1, TermMonths: 360})
	require.NoError(t, err)
	token, err := auth.SignJWT(auth.Claims{Role: auth.RoleBorrower, RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/"+q.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	quoteRouter(f.svc).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
