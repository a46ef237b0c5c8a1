package documents

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/loans"
	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/server/params"
	"loanmvp/internal/shared/server/respond"
	"loanmvp/internal/shared/telemetry"
)

const defaultMaxUploadBytes = 25 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
	// Loans checks that the caller owns the loan; when nil only staff are served.
	Loans          loans.Authorizer
	MaxUploadBytes int64
}

// NewHandler constructs a Handler. A non-positive limit uses 25 MiB.
func NewHandler(svc *Service, loanAccess loans.Authorizer, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, Loans: loanAccess, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	var access gin.HandlerFunc
	if h.Loans != nil {
		access = loans.RequireAccess(h.Loans, "id")
	}
	access = middleware.OrStaff(access)
	rg.POST("/loans/:id/documents", access, h.upload)
	rg.GET("/loans/:id/documents", access, h.list)
	rg.GET("/documents/:id/download", h.download)
	rg.POST("/documents/:id/review",
		middleware.RequireRole(auth.RoleProcessor, auth.RoleUnderwriter, auth.RoleLoanOfficer, auth.RoleAdmin),
		h.review)
}

func (h *Handler) upload(c *gin.Context) {
	loanID := c.Param("id")
	middleware.TagLoan(c, loanID)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", ErrFileTooLarge.Error(), gin.H{"max_bytes": h.MaxUploadBytes})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), UploadRequest{
		LoanID:       loanID,
		FileName:     fileHeader.Filename,
		DocumentType: c.PostForm("document_type"),
		UploadedBy:   middleware.UserIDFromContext(c),
		Body:         file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.TagBorrower(c, doc.BorrowerProfileID)
	respond.Created(c, doc)
}

func (h *Handler) list(c *gin.Context) {
	middleware.TagLoan(c, c.Param("id"))
	limit, offset := params.Page(c)
	docs, err := h.Svc.List(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, docs)
}

func (h *Handler) download(c *gin.Context) {
	ctx := c.Request.Context()
	caller := middleware.PrincipalFrom(c)
	if !caller.IsStaff() {
		if h.Loans == nil {
			middleware.Forbidden(c)
			return
		}
		doc, err := h.Svc.Get(ctx, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if _, err := h.Loans.Authorize(ctx, caller, doc.LoanID); err != nil {
			writeError(c, err)
			return
		}
	}

	doc, rc, err := h.Svc.Open(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()
	middleware.TagLoan(c, doc.LoanID)

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Header("Content-Type", contentType)
	if doc.SizeBytes > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", doc.SizeBytes))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Warn("document.download_failed", map[string]any{"document_id": doc.ID, "error": err.Error()})
	}
}

func (h *Handler) review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	doc, err := h.Svc.Review(c.Request.Context(), c.Param("id"), middleware.UserIDFromContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.TagLoan(c, doc.LoanID)
	respond.OK(c, doc)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidReview):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, loans.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "loan not found", nil)
	case errors.Is(err, auth.ErrForbidden):
		middleware.Forbidden(c)
	default:
		respond.Internal(c, "document request failed", err)
	}
}
