package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/shared/config"
	"loanmvp/internal/shared/server/middleware"
)

type chatStub struct{}

func (chatStub) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ai_chat", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"reply": "hi"}) })
}

func testRouter(check func(context.Context) error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	return NewRouter(RouterDeps{
		Config:      config.Config{Env: "dev", CORSAllowOrigin: []string{"http://localhost:5173"}},
		DBCheck:     check,
		Assistant:   chatStub{},
		RateLimiter: middleware.NewRateLimiter(func() time.Time { return now }),
	})
}

func healthBody(t *testing.T, r http.Handler) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthReportsDatabaseState(t *testing.T) {
	code, body := healthBody(t, testRouter(nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "memory", body["database"])

	code, body = healthBody(t, testRouter(func(context.Context) error { return nil }))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "up", body["database"])

	code, body = healthBody(t, testRouter(func(context.Context) error { return errors.New("refused") }))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, false, body["ok"])
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	r := testRouter(nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "loanmvp_http_requests_total")
}

func TestAIChatHasItsOwnRateGroup(t *testing.T) {
	r := testRouter(nil)
	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/ai_chat", strings.NewReader(`{"message":"hi"}`))
		req.Header.Set("X-Guest-Id", "g-42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, post(), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, post())
}

func TestRotatingGuestIDsShareOneBucket(t *testing.T) {
	r := testRouter(nil)
	post := func(i int) int {
		req := httptest.NewRequest(http.MethodPost, "/api/ai_chat", strings.NewReader(`{"message":"hi"}`))
		req.Header.Set("X-Guest-Id", "rotating-"+strconv.Itoa(i))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, post(i), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, post(99))
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr(""))
	assert.Equal(t, ":9000", Addr("9000"))
	assert.Equal(t, ":9000", Addr(":9000"))
}
