package assistant

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/llm"
	"loanmvp/internal/shared/server/middleware"
)

func chatRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth("dev"))
	NewHandler(svc).RegisterRoutes(r.Group("/api"))
	return r
}

func postChat(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/ai_chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "g-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatRoute(t *testing.T) {
	cases := []struct {
		name   string
		client *llm.StaticClient
		body   string
		status int
		reply  string
	}{
		{name: "ok", client: &llm.StaticClient{Reply: "Rates are near 6.5%."}, body: `{"role":"borrower","message":"What are rates?"}`, status: http.StatusOK, reply: "Rates are near 6.5%."},
		{name: "blank message", client: &llm.StaticClient{}, body: `{"role":"borrower","message":"  "}`, status: http.StatusBadRequest, reply: "Please enter a message."},
		{name: "bad json", client: &llm.StaticClient{}, body: `{`, status: http.StatusBadRequest, reply: "Please enter a message."},
		{name: "llm failure", client: &llm.StaticClient{Err: errors.New("timeout")}, body: `{"message":"hi"}`, status: http.StatusInternalServerError, reply: "Error generating AI response."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postChat(chatRouter(newTestService(tc.client)), tc.body)
			require.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.reply, body["reply"])
		})
	}
}

func TestHistoryRoute(t *testing.T) {
	svc := newTestService(&llm.StaticClient{Reply: "sure"})
	r := chatRouter(svc)
	require.Equal(t, http.StatusOK, postChat(r, `{"role":"property","message":"comps for 12 Oak St"}`).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/ai_chat/history?role=property", nil)
	req.Header.Set("X-Guest-Id", "g-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out []ChatHistory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "guest:g-1", out[0].UserID)
	assert.Equal(t, "comps for 12 Oak St", out[0].UserMessage)
	assert.Equal(t, "sure", out[0].AIResponse)
}
