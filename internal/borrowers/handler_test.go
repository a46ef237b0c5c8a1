package borrowers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/bootstrap"
	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/config"
)

type caller func(*http.Request)

func guest(id string) caller {
	return func(r *http.Request) { r.Header.Set("X-Guest-Id", id) }
}

func signedIn(t *testing.T, userID, role string) caller {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: userID}})
	require.NoError(t, err)
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(config.Config{Env: "dev", LocalStoreDir: t.TempDir(), ObjectStoreType: "local"})
	require.NoError(t, err)
	return app.Router
}

func call(r http.Handler, who caller, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	who(req)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createdID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.ID
}

func TestForeignGuestIsRefusedOnBorrowerRecords(t *testing.T) {
	r := newRouter(t)
	owner := guest("owner")
	id := createdID(t, call(r, owner, http.MethodPost, "/api/borrowers", `{"full_name":"Dana Reyes","email":"dana@example.com"}`))
	loanID := createdID(t, call(r, owner, http.MethodPost, "/api/loans", `{"borrower_profile_id":"`+id+`","amount":250000,"property_value":320000}`))

	stranger := guest("stranger")
	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/borrowers/" + id, ""},
		{http.MethodPatch, "/api/borrowers/" + id, `{"phone":"+15550199"}`},
		{http.MethodGet, "/api/borrowers", ""},
		{http.MethodGet, "/api/borrowers/" + id + "/credit", ""},
		{http.MethodPost, "/api/borrowers/" + id + "/credit", `{"credit_score":700}`},
		{http.MethodGet, "/api/borrowers/" + id + "/subscription", ""},
		{http.MethodPost, "/api/borrowers/" + id + "/subscription", `{"plan":"pro"}`},
		{http.MethodPost, "/api/borrowers/" + id + "/events", `{"event_type":"login"}`},
		{http.MethodGet, "/api/borrowers/" + id + "/insight", ""},
		{http.MethodGet, "/api/borrowers/" + id + "/engagement", ""},
		{http.MethodGet, "/api/loans/" + loanID, ""},
		{http.MethodPatch, "/api/loans/" + loanID, `{"amount":1}`},
		{http.MethodGet, "/api/loans/" + loanID + "/preapproval", ""},
		{http.MethodPost, "/api/loans", `{"borrower_profile_id":"` + id + `","amount":1000,"property_value":2000}`},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := call(r, stranger, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		})
	}

	// The stranger's loan list holds nothing of the owner's.
	w := call(r, stranger, http.MethodGet, "/api/loans", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestOwnerAndStaffReachBorrowerRecords(t *testing.T) {
	r := newRouter(t)
	owner := guest("owner")
	id := createdID(t, call(r, owner, http.MethodPost, "/api/borrowers", `{"full_name":"Dana Reyes","email":"dana@example.com"}`))

	assert.Equal(t, http.StatusOK, call(r, owner, http.MethodGet, "/api/borrowers/"+id, "").Code)
	assert.Equal(t, http.StatusOK, call(r, owner, http.MethodGet, "/api/borrowers/"+id+"/subscription", "").Code)
	assert.Equal(t, http.StatusCreated, call(r, owner, http.MethodPost, "/api/borrowers/"+id+"/events", `{"event_type":"login"}`).Code)

	officer := signedIn(t, "lo-1", auth.RoleLoanOfficer)
	assert.Equal(t, http.StatusOK, call(r, officer, http.MethodGet, "/api/borrowers/"+id, "").Code)
	assert.Equal(t, http.StatusOK, call(r, officer, http.MethodGet, "/api/borrowers", "").Code)
	assert.Equal(t, http.StatusCreated, call(r, officer, http.MethodPost, "/api/borrowers/"+id+"/credit", `{"credit_score":700}`).Code)
	assert.Equal(t, http.StatusOK, call(r, owner, http.MethodGet, "/api/borrowers/"+id+"/credit", "").Code)
}

func TestBorrowerCannotGrantThemselvesStaffFields(t *testing.T) {
	r := newRouter(t)
	owner := guest("owner")
	w := call(r, owner, http.MethodPost, "/api/borrowers",
		`{"full_name":"Dana Reyes","email":"dana@example.com","user_id":"someone-else","subscription_plan":"premium"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID               string `json:"id"`
		UserID           string `json:"user_id"`
		SubscriptionPlan string `json:"subscription_plan"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "guest:owner", created.UserID)
	assert.Equal(t, "starter", created.SubscriptionPlan)
}
