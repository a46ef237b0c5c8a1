package officers

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

// RegisterRoutes attaches officer routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	officerOrAdmin := middleware.RequireRole(auth.RoleLoanOfficer, auth.RoleAdmin, auth.RoleExecutive)

	rg.POST("/officers", middleware.RequireRole(auth.RoleAdmin, auth.RoleLoanOfficer), h.create)
	rg.GET("/officers", h.list)
	rg.GET("/officers/:id", h.get)
	rg.POST("/officers/:id/refresh", officerOrAdmin, h.refresh)
	rg.GET("/officers/:id/dashboard", officerOrAdmin, h.dashboard)
}

func (h *Handler) create(c *gin.Context) {
	var req LoanOfficerProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.UserID == "" {
		req.UserID = middleware.UserIDFromContext(c)
	}
	p, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, p)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := params.Page(c)
	out, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) refresh(c *gin.Context) {
	res, err := h.Svc.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) dashboard(c *gin.Context) {
	d, err := h.Svc.Dashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, d)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrDuplicate):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "officer not found", nil)
	default:
		respond.Internal(c, "officer request failed", err)
	}
}
