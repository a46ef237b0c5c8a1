package subscriptions

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
	Svc    *Service
	Access gin.HandlerFunc
}

// NewHandler constructs a Handler. access checks the caller against the
// :id borrower profile; without it only staff reach those routes.
func NewHandler(svc *Service, access gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, Access: access}
}

// RegisterRoutes attaches subscription routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	access := middleware.OrStaff(h.Access)
	rg.GET("/subscriptions/plans", h.plans)
	rg.GET("/borrowers/:id/subscription", access, h.current)
	rg.POST("/borrowers/:id/subscription", access, h.subscribe)
}

func (h *Handler) plans(c *gin.Context) {
	respond.OK(c, Catalog())
}

func (h *Handler) current(c *gin.Context) {
	middleware.TagBorrower(c, c.Param("id"))
	p, err := h.Svc.Current(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	middleware.TagBorrower(c, c.Param("id"))
	p, err := h.Svc.Subscribe(c.Request.Context(), c.Param("id"), req.Plan)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, p)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownPlan):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, borrowers.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "borrower not found", nil)
	default:
		respond.Internal(c, "subscription request failed", err)
	}
}
