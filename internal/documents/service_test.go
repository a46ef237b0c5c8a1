package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/loans"
	"loanmvp/internal/shared/storage/object"
	"loanmvp/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) (*Service, *loans.MemoryRepo) {
	t.Helper()
	loanRepo := loans.NewMemoryRepo()
	require.NoError(t, loanRepo.Create(context.Background(), loans.LoanApplication{
		ID:                "loan-1",
		BorrowerProfileID: "b-1",
		Amount:            200000,
		Status:            loans.StatusPending,
		CreatedAt:         time.Now().UTC(),
	}))
	clock := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	return &Service{
		Store:    local.New(t.TempDir()),
		Repo:     NewMemoryRepo(),
		Loans:    loanRepo,
		Provider: "local",
		Now:      func() time.Time { return clock },
	}, loanRepo
}

func TestUploadOpenAndCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadRequest{
		LoanID:     "loan-1",
		FileName:   "paystub.txt",
		UploadedBy: "guest:abc",
		Body:       strings.NewReader("gross pay 7500"),
	})
	require.NoError(t, err)
	assert.Equal(t, "b-1", doc.BorrowerProfileID)
	assert.Equal(t, "Other", doc.DocumentType)
	assert.Equal(t, "Pending", doc.ReviewStatus)
	assert.Equal(t, int64(len("gross pay 7500")), doc.SizeBytes)
	assert.True(t, strings.HasPrefix(doc.MimeType, "text/plain"))
	sum := sha256.Sum256([]byte("gross pay 7500"))
	assert.Equal(t, hex.EncodeToString(sum[:]), doc.ChecksumSHA256)

	got, rc, err := svc.Open(ctx, doc.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "gross pay 7500", string(body))
	assert.Equal(t, doc.ID, got.ID)

	counts, err := svc.CountByLoan(ctx, "loan-1")
	require.NoError(t, err)
	assert.Equal(t, loans.DocumentCounts{Total: 1, Open: 0}, counts)
}

func TestUploadRejectsUnknownLoanAndBadName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadRequest{LoanID: "nope", FileName: "a.pdf", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, loans.ErrNotFound)

	_, err = svc.Upload(ctx, UploadRequest{LoanID: "loan-1", FileName: "../etc/passwd", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReviewMarksOpenConditions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Upload(ctx, UploadRequest{LoanID: "loan-1", FileName: "w2.txt", DocumentType: "W-2", Body: strings.NewReader("w2")})
	require.NoError(t, err)

	reviewed, err := svc.Review(ctx, doc.ID, "user-uw", ReviewRequest{ReviewStatus: "needs_info", ReviewNotes: "Need 2025 W-2"})
	require.NoError(t, err)
	assert.Equal(t, ReviewNeedsInfo, reviewed.ReviewStatus)
	assert.Equal(t, "Reviewed", reviewed.Status)
	assert.Equal(t, "user-uw", reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ReviewedAt)

	counts, err := svc.CountByLoan(ctx, "loan-1")
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Open)
	assert.Equal(t, 1, counts.Conditions)

	cleared, err := svc.Review(ctx, doc.ID, "user-uw", ReviewRequest{ReviewStatus: "approved"})
	require.NoError(t, err)
	assert.True(t, cleared.ConditionRaised)

	counts, err = svc.CountByLoan(ctx, "loan-1")
	require.NoError(t, err)
	assert.Equal(t, loans.DocumentCounts{Total: 1, Conditions: 1, Open: 0}, counts)

	_, err = svc.Review(ctx, doc.ID, "user-uw", ReviewRequest{ReviewStatus: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidReview)
}

func TestAttachRecordsPresignedUpload(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key, err := object.DocumentKey("loan-1", "bank statement.pdf")
	require.NoError(t, err)

	doc, err := svc.Attach(ctx, AttachRequest{
		LoanID:       "loan-1",
		DocumentType: "Bank Statement",
		UploadedBy:   "guest:abc",
		Stored:       object.Stored{Key: key, Size: 4096, ContentType: "application/pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, "b-1", doc.BorrowerProfileID)
	assert.Equal(t, "s3", doc.StorageProvider)
	assert.Equal(t, key, doc.StorageKey)
	assert.Equal(t, int64(4096), doc.SizeBytes)
	assert.True(t, strings.HasSuffix(key, "-"+doc.FileName))

	listed, err := svc.List(ctx, "loan-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestAttachRejectsForeignKey(t *testing.T) {
	svc, loanRepo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, loanRepo.Create(ctx, loans.LoanApplication{ID: "loan-2", BorrowerProfileID: "b-2", Amount: 1}))
	otherKey, err := object.DocumentKey("loan-2", "w2.pdf")
	require.NoError(t, err)

	for _, key := range []string{otherKey, "loans/loan-1/w2.pdf", "loans/loan-1/../loan-2/x.pdf", ""} {
		_, err := svc.Attach(ctx, AttachRequest{LoanID: "loan-1", Stored: object.Stored{Key: key, Size: 1}})
		assert.ErrorIs(t, err, ErrInvalidInput, key)
	}

	_, err = svc.Attach(ctx, AttachRequest{LoanID: "missing", Stored: object.Stored{Key: otherKey}})
	assert.ErrorIs(t, err, loans.ErrNotFound)
}
