package quotes

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/loans"
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

// RegisterRoutes attaches quote routes to the router group. Pricing,
// selection and lender offers are staff work; borrowers may read quotes
// on their own loans.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	staff := middleware.RequireStaff()
	rg.POST("/quote/generate", h.generate)
	rg.POST("/quotes/price", staff, h.price)
	rg.POST("/quotes", staff, h.create)
	rg.GET("/quotes", h.list)
	rg.GET("/quotes/:id", h.get)
	rg.POST("/quotes/:id/select", staff, h.selectQuote)
	rg.POST("/lender-quotes", staff, h.createLender)
	rg.GET("/lender-quotes", staff, h.listLender)
}

func (h *Handler) generate(c *gin.Context) {
	var req GenerateRequest
	// An empty body asks for the default quote.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	out, err := Generate(req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) price(c *gin.Context) {
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	middleware.TagLoan(c, req.LoanApplicationID)
	q, err := h.Svc.Price(c.Request.Context(), req.LoanApplicationID)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.TagBorrower(c, q.BorrowerProfileID)
	respond.Created(c, q)
}

func (h *Handler) create(c *gin.Context) {
	var req LoanQuote
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	q, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, q)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := params.Page(c)
	filter := ListFilter{
		LoanID:     c.Query("loan_id"),
		BorrowerID: c.Query("borrower_id"),
	}
	out, err := h.Svc.ListFor(c.Request.Context(), middleware.PrincipalFrom(c), filter, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	q, err := h.Svc.Authorize(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.TagLoan(c, q.LoanApplicationID)
	respond.OK(c, q)
}

func (h *Handler) selectQuote(c *gin.Context) {
	q, err := h.Svc.Select(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.TagLoan(c, q.LoanApplicationID)
	middleware.TagBorrower(c, q.BorrowerProfileID)
	respond.OK(c, q)
}

func (h *Handler) createLender(c *gin.Context) {
	var req LenderQuote
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	q, err := h.Svc.CreateLenderQuote(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, q)
}

func (h *Handler) listLender(c *gin.Context) {
	limit, offset := params.Page(c)
	out, err := h.Svc.ListLenderQuotes(c.Request.Context(), c.Query("loan_id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, loans.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "quote not found", nil)
	case errors.Is(err, loans.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "loan not found", nil)
	case errors.Is(err, borrowers.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "borrower not found", nil)
	case errors.Is(err, auth.ErrForbidden):
		middleware.Forbidden(c)
	default:
		respond.Internal(c, "quote request failed", err)
	}
}
