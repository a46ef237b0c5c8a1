package loans

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/borrowers"
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

// RegisterRoutes attaches loan routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	access := RequireAccess(h.Svc, "id")
	rg.POST("/loans", h.create)
	rg.GET("/loans", h.list)
	rg.GET("/loans/:id", access, h.get)
	rg.PATCH("/loans/:id", middleware.RequireStaff(), h.update)
	rg.POST("/loans/:id/status", middleware.RequireRole(auth.RoleLoanOfficer, auth.RoleUnderwriter, auth.RoleAdmin), h.setStatus)
	rg.GET("/loans/:id/preapproval", access, h.preapproval)
	rg.GET("/loans/:id/scenario", access, h.scenario)
	rg.POST("/loans/:id/progress", access, h.progress)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.BorrowerProfileID != "" {
		if err := h.Svc.AuthorizeBorrower(c.Request.Context(), middleware.PrincipalFrom(c), req.BorrowerProfileID); err != nil {
			writeError(c, err)
			return
		}
	}
	l, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	setLogIDs(c, l)
	respond.Created(c, l)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := params.Page(c)
	filter := ListFilter{
		BorrowerID: c.Query("borrower_id"),
		OfficerID:  c.Query("officer_id"),
		Status:     c.Query("status"),
		ActiveOnly: params.Bool(c, "active"),
	}
	out, err := h.Svc.ListFor(c.Request.Context(), middleware.PrincipalFrom(c), filter, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	l, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	setLogIDs(c, l)
	respond.OK(c, l)
}

func (h *Handler) update(c *gin.Context) {
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	l, err := h.Svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	setLogIDs(c, l)
	respond.OK(c, l)
}

func (h *Handler) setStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	l, err := h.Svc.SetStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	setLogIDs(c, l)
	respond.OK(c, l)
}

func (h *Handler) preapproval(c *gin.Context) {
	middleware.TagLoan(c, c.Param("id"))
	res, err := h.Svc.Preapproval(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) scenario(c *gin.Context) {
	middleware.TagLoan(c, c.Param("id"))
	res, err := h.Svc.Scenario(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *Handler) progress(c *gin.Context) {
	l, err := h.Svc.RefreshProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	setLogIDs(c, l)
	respond.OK(c, gin.H{
		"loan_id":          l.ID,
		"progress_percent": l.ProgressPercent,
		"milestone_stage":  l.MilestoneStage,
	})
}

func setLogIDs(c *gin.Context, l LoanApplication) {
	middleware.TagLoan(c, l.ID)
	middleware.TagBorrower(c, l.BorrowerProfileID)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidStatus):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "loan not found", nil)
	case errors.Is(err, borrowers.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "borrower not found", nil)
	case errors.Is(err, auth.ErrForbidden):
		middleware.Forbidden(c)
	default:
		respond.Internal(c, "loan request failed", err)
	}
}
