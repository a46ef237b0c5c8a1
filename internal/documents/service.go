package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"loanmvp/internal/loans"
	"loanmvp/internal/shared/storage/object"
	"loanmvp/internal/shared/telemetry"
	"loanmvp/internal/shared/util"
)

// Service contains business logic for loan documents.
type Service struct {
	Store    object.ObjectStore
	Repo     Repo
	Loans    loans.Repo
	Provider string
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) ready() error {
	if s == nil || s.Repo == nil || s.Store == nil || s.Loans == nil {
		return errors.New("document service not configured")
	}
	return nil
}

// UploadRequest describes an incoming file.
type UploadRequest struct {
	LoanID       string
	FileName     string
	DocumentType string
	UploadedBy   string
	Body         io.Reader
}

// Upload saves the file under the loan's namespace and records it.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (LoanDocument, error) {
	if err := s.ready(); err != nil {
		return LoanDocument{}, err
	}
	fileName, err := util.SanitizeFileName(req.FileName)
	if err != nil || req.Body == nil {
		return LoanDocument{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	loan, err := s.Loans.GetByID(ctx, req.LoanID)
	if err != nil {
		return LoanDocument{}, err
	}

	stored, err := s.Store.Save(ctx, loan.ID, fileName, req.Body)
	if err != nil {
		return LoanDocument{}, fmt.Errorf("store document: %w", err)
	}

	docType := strings.TrimSpace(req.DocumentType)
	if docType == "" {
		docType = defaultDocumentType
	}
	provider := s.Provider
	if provider == "" {
		provider = "local"
	}
	now := s.now()
	doc := LoanDocument{
		ID:                uuid.NewString(),
		BorrowerProfileID: loan.BorrowerProfileID,
		LoanID:            loan.ID,
		FileName:          fileName,
		DocumentType:      docType,
		MimeType:          stored.ContentType,
		SizeBytes:         stored.Size,
		StorageProvider:   provider,
		StorageKey:        stored.Key,
		ChecksumSHA256:    stored.SHA256,
		Status:            statusPending,
		ReviewStatus:      statusPending,
		UploadedBy:        req.UploadedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return LoanDocument{}, fmt.Errorf("record document: %w", err)
	}
	telemetry.Info("document.uploaded", map[string]any{
		"document_id":   doc.ID,
		"loan_id":       doc.LoanID,
		"document_type": doc.DocumentType,
		"size_bytes":    doc.SizeBytes,
	})
	return doc, nil
}

// AttachRequest records an object the client already uploaded directly.
type AttachRequest struct {
	LoanID       string
	DocumentType string
	UploadedBy   string
	// Stored is the object's metadata as read back from the store.
	Stored object.Stored
}

// Attach records a presigned upload. The key must sit in the loan's
// namespace, so a client cannot claim another loan's object.
func (s *Service) Attach(ctx context.Context, req AttachRequest) (LoanDocument, error) {
	if s == nil || s.Repo == nil || s.Loans == nil {
		return LoanDocument{}, errors.New("document service not configured")
	}
	loan, err := s.Loans.GetByID(ctx, req.LoanID)
	if err != nil {
		return LoanDocument{}, err
	}
	fileName, ok := fileNameFromKey(loan.ID, req.Stored.Key)
	if !ok {
		return LoanDocument{}, fmt.Errorf("%w: storage_key does not belong to this loan", ErrInvalidInput)
	}
	docType := strings.TrimSpace(req.DocumentType)
	if docType == "" {
		docType = defaultDocumentType
	}
	now := s.now()
	doc := LoanDocument{
		ID:                uuid.NewString(),
		BorrowerProfileID: loan.BorrowerProfileID,
		LoanID:            loan.ID,
		FileName:          fileName,
		DocumentType:      docType,
		MimeType:          req.Stored.ContentType,
		SizeBytes:         req.Stored.Size,
		StorageProvider:   "s3",
		StorageKey:        req.Stored.Key,
		Status:            statusPending,
		ReviewStatus:      statusPending,
		UploadedBy:        req.UploadedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return LoanDocument{}, fmt.Errorf("record document: %w", err)
	}
	telemetry.Info("document.attached", map[string]any{
		"document_id": doc.ID,
		"loan_id":     doc.LoanID,
		"size_bytes":  doc.SizeBytes,
	})
	return doc, nil
}

// fileNameFromKey checks that key has the layout object.DocumentKey gives
// loanID and returns the original file name.
func fileNameFromKey(loanID, key string) (string, bool) {
	id, err := util.SanitizeFileName(loanID)
	if err != nil || strings.Contains(key, "..") {
		return "", false
	}
	rest, ok := strings.CutPrefix(key, path.Join("loans", id)+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	// <uuid>-<name>
	if len(rest) <= 37 || rest[36] != '-' {
		return "", false
	}
	if _, err := uuid.Parse(rest[:36]); err != nil {
		return "", false
	}
	return rest[37:], true
}

// List returns a page of the loan's documents.
func (s *Service) List(ctx context.Context, loanID string, limit, offset int) ([]LoanDocument, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.Loans.GetByID(ctx, loanID); err != nil {
		return nil, err
	}
	out, err := s.Repo.ListByLoan(ctx, loanID, limit, offset)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []LoanDocument{}
	}
	return out, nil
}

// Get returns a document record by ID.
func (s *Service) Get(ctx context.Context, id string) (LoanDocument, error) {
	if s == nil || s.Repo == nil {
		return LoanDocument{}, errors.New("document service not configured")
	}
	if strings.TrimSpace(id) == "" {
		return LoanDocument{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// Open returns the document record and a reader over its bytes.
func (s *Service) Open(ctx context.Context, id string) (LoanDocument, io.ReadCloser, error) {
	if err := s.ready(); err != nil {
		return LoanDocument{}, nil, err
	}
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return LoanDocument{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return LoanDocument{}, nil, fmt.Errorf("open document: %w", err)
	}
	return doc, rc, nil
}

// Review records a reviewer decision.
func (s *Service) Review(ctx context.Context, id, reviewer string, req ReviewRequest) (LoanDocument, error) {
	if err := s.ready(); err != nil {
		return LoanDocument{}, err
	}
	status, ok := canonicalReview(req.ReviewStatus)
	if !ok {
		return LoanDocument{}, fmt.Errorf("%w: %q", ErrInvalidReview, req.ReviewStatus)
	}
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return LoanDocument{}, err
	}
	now := s.now()
	doc.ReviewStatus = status
	doc.ReviewNotes = strings.TrimSpace(req.ReviewNotes)
	doc.ReviewedBy = reviewer
	doc.ReviewedAt = &now
	doc.Status = statusReviewed
	doc.ConditionRaised = doc.ConditionRaised || doc.Open()
	doc.UpdatedAt = now
	if err := s.Repo.Update(ctx, doc); err != nil {
		return LoanDocument{}, fmt.Errorf("review document: %w", err)
	}
	return doc, nil
}

// CountByLoan satisfies loans.DocumentCounter.
func (s *Service) CountByLoan(ctx context.Context, loanID string) (loans.DocumentCounts, error) {
	if s == nil || s.Repo == nil {
		return loans.DocumentCounts{}, errors.New("document service not configured")
	}
	c, err := s.Repo.CountByLoan(ctx, loanID)
	if err != nil {
		return loans.DocumentCounts{}, err
	}
	return loans.DocumentCounts{Total: c.Total, Conditions: c.Conditions, Open: c.Open}, nil
}

var _ loans.DocumentCounter = (*Service)(nil)
