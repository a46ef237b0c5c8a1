package uploads

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/documents"
	"loanmvp/internal/loans"
	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/server/respond"
	"loanmvp/internal/shared/storage/object"
	s3store "loanmvp/internal/shared/storage/object/s3"
	"loanmvp/internal/shared/telemetry"
)

const presignExpires = 15 * time.Minute

var allowedContentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"image/jpeg": {},
	"image/png":  {},
}

// Store signs direct uploads and reads them back. *s3store.Store satisfies it.
type Store interface {
	PresignPut(ctx context.Context, loanID, fileName, contentType string, size int64, expires time.Duration) (s3store.PresignedUpload, error)
	Stat(ctx context.Context, key string) (object.Stored, error)
}

// Recorder stores the document row once an upload is confirmed.
type Recorder interface {
	Attach(ctx context.Context, req documents.AttachRequest) (documents.LoanDocument, error)
}

// Handler issues presigned PUT URLs so borrowers can upload large loan
// documents straight to the bucket, then records them on completion.
type Handler struct {
	Store    Store
	Loans    loans.Authorizer
	Docs     Recorder
	MaxBytes int64
}

// NewHandler builds a Handler over the document store the rest of the
// service writes to, so keys and prefix match.
func NewHandler(store Store, loanAccess loans.Authorizer, docs Recorder, maxBytes int64) *Handler {
	return &Handler{Store: store, Loans: loanAccess, Docs: docs, MaxBytes: maxBytes}
}

type presignRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type presignResponse struct {
	UploadURL        string            `json:"upload_url"`
	StorageKey       string            `json:"storage_key"`
	Headers          map[string]string `json:"headers"`
	ExpiresInSeconds int64             `json:"expires_in_seconds"`
}

type completeRequest struct {
	StorageKey   string `json:"storage_key"`
	DocumentType string `json:"document_type"`
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	var access gin.HandlerFunc
	if h.Loans != nil {
		access = loans.RequireAccess(h.Loans, "id")
	}
	access = middleware.OrStaff(access)
	rg.POST("/loans/:id/documents/presign", access, h.presign)
	rg.POST("/loans/:id/documents/complete", access, h.complete)
}

func (h *Handler) presign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.TrimSpace(req.ContentType)

	if req.FileName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file_name is required", nil)
		return
	}
	if _, ok := allowedContentTypes[req.ContentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "content_type is not allowed", nil)
		return
	}
	if req.SizeBytes <= 0 || (h.MaxBytes > 0 && req.SizeBytes > h.MaxBytes) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "size_bytes exceeds limit", nil)
		return
	}

	loanID := c.Param("id")
	up, err := h.Store.PresignPut(c.Request.Context(), loanID, req.FileName, req.ContentType, req.SizeBytes, presignExpires)
	if err != nil {
		telemetry.Warn("uploads.presign.failed", map[string]any{
			"loan_id":      loanID,
			"content_type": req.ContentType,
			"size_bytes":   req.SizeBytes,
			"error":        err.Error(),
		})
		respond.Internal(c, "failed to generate upload url", err)
		return
	}

	headers := make(map[string]string, len(up.Headers))
	for k := range up.Headers {
		if strings.EqualFold(k, "Host") {
			continue
		}
		headers[k] = up.Headers.Get(k)
	}
	respond.OK(c, presignResponse{
		UploadURL:        up.URL,
		StorageKey:       up.Key,
		Headers:          headers,
		ExpiresInSeconds: int64(presignExpires.Seconds()),
	})
}

func (h *Handler) complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.StorageKey) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "storage_key is required", nil)
		return
	}
	if h.Docs == nil {
		respond.Internal(c, "document recorder not configured", errors.New("uploads: nil recorder"))
		return
	}

	stored, err := h.Store.Stat(c.Request.Context(), strings.TrimSpace(req.StorageKey))
	switch {
	case errors.Is(err, s3store.ErrObjectMissing):
		respond.Error(c, http.StatusNotFound, "not_found", "upload not found", nil)
		return
	case errors.Is(err, object.ErrInvalidKey):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid storage_key", nil)
		return
	case err != nil:
		respond.Internal(c, "failed to read upload", err)
		return
	}
	if h.MaxBytes > 0 && stored.Size > h.MaxBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "upload exceeds limit", gin.H{"max_bytes": h.MaxBytes})
		return
	}
	if _, ok := allowedContentTypes[stored.ContentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "content_type is not allowed", nil)
		return
	}

	doc, err := h.Docs.Attach(c.Request.Context(), documents.AttachRequest{
		LoanID:       c.Param("id"),
		DocumentType: req.DocumentType,
		UploadedBy:   middleware.UserIDFromContext(c),
		Stored:       stored,
	})
	switch {
	case errors.Is(err, documents.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	case errors.Is(err, loans.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "loan not found", nil)
		return
	case err != nil:
		respond.Internal(c, "failed to record upload", err)
		return
	}
	middleware.TagBorrower(c, doc.BorrowerProfileID)
	respond.Created(c, doc)
}
