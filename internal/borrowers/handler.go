package borrowers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/server/params"
	"loanmvp/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches borrower routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	access := h.Svc.RequireAccess("id")
	rg.POST("/borrowers", h.create)
	rg.GET("/borrowers", middleware.RequireStaff(), h.list)
	rg.GET("/borrowers/me", h.me)
	rg.GET("/borrowers/:id", access, h.get)
	rg.PATCH("/borrowers/:id", access, h.update)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if caller := middleware.PrincipalFrom(c); !caller.IsStaff() {
		// Applicants always own the profile they file and start on the default plan.
		req.UserID = caller.UserID
		req.SubscriptionPlan = ""
	}

	p, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.TagBorrower(c, p.ID)
	respond.Created(c, p)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := params.Page(c)
	out, err := h.Svc.List(c.Request.Context(), ListFilter{OfficerID: c.Query("officer_id")}, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) me(c *gin.Context) {
	p, err := h.Svc.ForUser(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.TagBorrower(c, p.ID)
	respond.OK(c, p)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.TagBorrower(c, p.ID)
	respond.OK(c, p)
}

func (h *Handler) update(c *gin.Context) {
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if !middleware.PrincipalFrom(c).IsStaff() {
		patch = patch.BorrowerOnly()
	}
	p, err := h.Svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.TagBorrower(c, p.ID)
	respond.OK(c, p)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "borrower not found", nil)
	case errors.Is(err, auth.ErrForbidden):
		middleware.Forbidden(c)
	default:
		respond.Internal(c, "borrower request failed", err)
	}
}
