package notifications

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/server/params"
	"loanmvp/internal/shared/server/respond"
)

// ProfileResolver finds the borrower profile owned by a caller.
type ProfileResolver interface {
	OwnProfileID(ctx context.Context, p auth.Principal) (string, error)
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
	// Profiles scopes borrowers to their own inbox; when nil only staff are served.
	Profiles ProfileResolver
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, profiles ProfileResolver) *Handler {
	return &Handler{Svc: svc, Profiles: profiles}
}

// RegisterRoutes attaches notification routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.list)
	rg.POST("/notifications/:id/read", h.markRead)
}

// inbox returns the borrower id the caller is limited to, or "" for staff.
func (h *Handler) inbox(c *gin.Context) (string, error) {
	p := middleware.PrincipalFrom(c)
	if p.IsStaff() {
		return "", nil
	}
	if h.Profiles == nil {
		return "", auth.ErrForbidden
	}
	return h.Profiles.OwnProfileID(c.Request.Context(), p)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := params.Page(c)
	filter := ListFilter{
		BorrowerID: c.Query("borrower_id"),
		Role:       c.Query("role"),
		UnreadOnly: params.Bool(c, "unread"),
	}
	own, err := h.inbox(c)
	switch {
	case errors.Is(err, borrowers.ErrNotFound):
		respond.OK(c, []LoanNotification{})
		return
	case err != nil:
		writeError(c, err)
		return
	case own != "":
		filter.BorrowerID = own
	}
	if filter.BorrowerID != "" {
		middleware.TagBorrower(c, filter.BorrowerID)
	}
	out, err := h.Svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) markRead(c *gin.Context) {
	own, err := h.inbox(c)
	if err != nil {
		writeError(c, err)
		return
	}
	n, err := h.Svc.MarkRead(c.Request.Context(), c.Param("id"), own)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, n)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, borrowers.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "notification not found", nil)
	case errors.Is(err, auth.ErrForbidden):
		middleware.Forbidden(c)
	default:
		respond.Internal(c, "notification request failed", err)
	}
}
