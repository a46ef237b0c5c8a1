package documents

import (
	"errors"
	"strings"
	"time"
)

const (
	defaultDocumentType = "Other"
	statusPending       = "Pending"
	statusReviewed      = "Reviewed"
)

// Review outcomes.
const (
	ReviewApproved  = "Approved"
	ReviewRejected  = "Rejected"
	ReviewNeedsInfo = "Needs Info"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrFileTooLarge  = errors.New("file too large")
	ErrInvalidReview = errors.New("invalid review status")
)

// LoanDocument is a file attached to a loan application.
type LoanDocument struct {
	ID                string     `json:"id"`
	BorrowerProfileID string     `json:"borrower_profile_id,omitempty"`
	LoanID            string     `json:"loan_id"`
	FileName          string     `json:"file_name"`
	DocumentType      string     `json:"document_type"`
	MimeType          string     `json:"mime_type,omitempty"`
	SizeBytes         int64      `json:"size_bytes"`
	StorageProvider   string     `json:"storage_provider"`
	StorageKey        string     `json:"-"`
	ChecksumSHA256    string     `json:"checksum_sha256,omitempty"`
	Status            string     `json:"status"`
	ReviewStatus      string     `json:"review_status"`
	ReviewNotes       string     `json:"review_notes,omitempty"`
	ReviewedBy        string     `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
	// ConditionRaised stays set once any review flags the document.
	ConditionRaised   bool       `json:"condition_raised"`
	UploadedBy        string     `json:"uploaded_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Counts summarizes a loan's documents for progress tracking.
type Counts struct {
	Total      int
	Conditions int
	Open       int
}

// Open reports whether a review left the document needing action.
func (d LoanDocument) Open() bool {
	return d.ReviewStatus == ReviewRejected || d.ReviewStatus == ReviewNeedsInfo
}

// ReviewRequest is the body of POST /documents/:id/review.
type ReviewRequest struct {
	ReviewStatus string `json:"review_status"`
	ReviewNotes  string `json:"review_notes"`
}

func canonicalReview(raw string) (string, bool) {
	raw = strings.Join(strings.Fields(strings.ReplaceAll(raw, "_", " ")), " ")
	for _, s := range []string{ReviewApproved, ReviewRejected, ReviewNeedsInfo} {
		if strings.EqualFold(s, raw) {
			return s, true
		}
	}
	return "", false
}
