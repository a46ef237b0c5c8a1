package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/loans/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", Handler())

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/loans/:id", "200"))
	req := httptest.NewRequest(http.MethodGet, "/api/loans/abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/loans/:id", "200"))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "loanmvp_http_requests_total") {
		t.Fatalf("expected request counter in exposition")
	}
}

func TestIncNotification(t *testing.T) {
	before := testutil.ToFloat64(notifications.WithLabelValues("sms", "failed"))
	IncNotification("sms", "failed")
	if got := testutil.ToFloat64(notifications.WithLabelValues("sms", "failed")); got-before != 1 {
		t.Fatalf("expected increment, got %v", got-before)
	}
}
