package assistant

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/server/respond"
)

// Handler exposes the chat endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ai_chat", h.chat)
	rg.GET("/ai_chat/history", h.history)
}

func (h *Handler) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ChatReply{Reply: "Please enter a message."})
		return
	}
	if req.Role == "" {
		req.Role = middleware.UserRoleFromContext(c)
	}
	caller := Caller{
		UserID: middleware.UserIDFromContext(c),
		Role:   middleware.UserRoleFromContext(c),
		Guest:  middleware.IsGuest(c),
	}

	reply, err := h.Svc.Chat(c.Request.Context(), caller, req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, ChatReply{Reply: reply})
	case errors.Is(err, ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, ChatReply{Reply: "Please enter a message."})
	case errors.Is(err, ErrNotEntitled):
		c.JSON(http.StatusForbidden, ChatReply{Reply: "Upgrade your plan to use the AI assistant."})
	default:
		c.JSON(http.StatusInternalServerError, ChatReply{Reply: "Error generating AI response."})
	}
}

func (h *Handler) history(c *gin.Context) {
	out, err := h.Svc.RecentHistory(c.Request.Context(), middleware.UserIDFromContext(c), c.Query("role"))
	if err != nil {
		respond.Internal(c, "failed to load chat history", err)
		return
	}
	respond.OK(c, out)
}
