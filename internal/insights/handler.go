package insights

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
	// Access lets borrowers log events against their own profile.
	Access gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, access gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, Access: access}
}

// RegisterRoutes attaches insight routes to the router group. Insights and
// engagement scores are lender-side data.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	staff := middleware.RequireStaff()
	rg.POST("/borrowers/:id/events", middleware.OrStaff(h.Access), h.recordEvent)
	rg.GET("/borrowers/:id/insight", staff, h.get)
	rg.POST("/borrowers/:id/insight", staff, h.update)
	rg.GET("/borrowers/:id/engagement", staff, h.engagement)
}

type eventRequest struct {
	EventType string `json:"event_type"`
}

func (h *Handler) recordEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	middleware.TagBorrower(c, c.Param("id"))
	e, err := h.Svc.RecordEvent(c.Request.Context(), c.Param("id"), req.EventType)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, e)
}

func (h *Handler) get(c *gin.Context) {
	middleware.TagBorrower(c, c.Param("id"))
	b, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, b)
}

func (h *Handler) update(c *gin.Context) {
	var req Metrics
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	middleware.TagBorrower(c, c.Param("id"))
	b, err := h.Svc.UpdateMetrics(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, b)
}

func (h *Handler) engagement(c *gin.Context) {
	middleware.TagBorrower(c, c.Param("id"))
	score, err := h.Svc.Engagement(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"borrower_id": c.Param("id"), "score": score})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "insight not found", nil)
	case errors.Is(err, borrowers.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "borrower not found", nil)
	default:
		respond.Internal(c, "insight request failed", err)
	}
}
