package credit

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
	// Access guards reads of a borrower's own snapshot; nil leaves them staff-only.
	Access gin.HandlerFunc
}

func NewHandler(svc *Service, access gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, Access: access}
}

// Pulls are recorded by staff only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/borrowers/:id/credit", middleware.RequireStaff(), h.record)
	rg.GET("/borrowers/:id/credit", middleware.OrStaff(h.Access), h.latest)
}

func (h *Handler) record(c *gin.Context) {
	var req PullRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	middleware.TagBorrower(c, c.Param("id"))
	p, err := h.Svc.Record(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, p)
}

func (h *Handler) latest(c *gin.Context) {
	middleware.TagBorrower(c, c.Param("id"))
	p, err := h.Svc.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, borrowers.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "borrower not found", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "no credit profile on file", nil)
	default:
		respond.Internal(c, "credit request failed", err)
	}
}
