package uploads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/documents"
	"loanmvp/internal/loans"
	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/storage/object"
	s3store "loanmvp/internal/shared/storage/object/s3"
)

type fakeStore struct {
	objects   map[string]object.Stored
	presigned []string
}

func (f *fakeStore) PresignPut(_ context.Context, loanID, fileName, contentType string, size int64, _ time.Duration) (s3store.PresignedUpload, error) {
	key, err := object.DocumentKey(loanID, fileName)
	if err != nil {
		return s3store.PresignedUpload{}, err
	}
	f.presigned = append(f.presigned, key)
	return s3store.PresignedUpload{
		URL: "https://bucket.s3.amazonaws.com/docs/" + key,
		Key: key,
		Headers: http.Header{
			"Host":           {"bucket.s3.amazonaws.com"},
			"Content-Type":   {contentType},
			"Content-Length": {"2048"},
		},
	}, nil
}

func (f *fakeStore) Stat(_ context.Context, key string) (object.Stored, error) {
	st, ok := f.objects[key]
	if !ok {
		return object.Stored{}, s3store.ErrObjectMissing
	}
	return st, nil
}

type uploadFixture struct {
	router *gin.Engine
	store  *fakeStore
	docs   *documents.MemoryRepo
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	people := borrowers.NewMemoryRepo()
	if err := people.Create(ctx, borrowers.BorrowerProfile{ID: "b1", UserID: "guest:owner", FullName: "Dana Reyes"}); err != nil {
		t.Fatalf("seed borrower: %v", err)
	}
	loanRepo := loans.NewMemoryRepo()
	if err := loanRepo.Create(ctx, loans.LoanApplication{ID: "loan-1", BorrowerProfileID: "b1", Amount: 200000, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	docRepo := documents.NewMemoryRepo()
	f := &uploadFixture{store: &fakeStore{objects: map[string]object.Stored{}}, docs: docRepo}
	h := NewHandler(
		f.store,
		&loans.Service{Repo: loanRepo, Borrowers: people},
		&documents.Service{Repo: docRepo, Loans: loanRepo, Now: func() time.Time { return now }},
		1<<20,
	)
	f.router = gin.New()
	f.router.Use(middleware.Auth("dev"))
	h.RegisterRoutes(f.router.Group("/api"))
	return f
}

func (f *uploadFixture) post(path, guest, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", guest)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestPresignRoute(t *testing.T) {
	f := newUploadFixture(t)

	cases := []struct {
		name   string
		path   string
		guest  string
		body   string
		status int
	}{
		{name: "ok", path: "/api/loans/loan-1/documents/presign", guest: "owner", body: `{"file_name":"W2 2025.pdf","content_type":"application/pdf","size_bytes":2048}`, status: http.StatusOK},
		{name: "bad type", path: "/api/loans/loan-1/documents/presign", guest: "owner", body: `{"file_name":"a.exe","content_type":"application/x-msdownload","size_bytes":10}`, status: http.StatusBadRequest},
		{name: "too large", path: "/api/loans/loan-1/documents/presign", guest: "owner", body: `{"file_name":"a.pdf","content_type":"application/pdf","size_bytes":2097152}`, status: http.StatusBadRequest},
		{name: "unknown loan", path: "/api/loans/nope/documents/presign", guest: "owner", body: `{"file_name":"a.pdf","content_type":"application/pdf","size_bytes":10}`, status: http.StatusNotFound},
		{name: "foreign guest", path: "/api/loans/loan-1/documents/presign", guest: "intruder", body: `{"file_name":"a.pdf","content_type":"application/pdf","size_bytes":10}`, status: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.post(tc.path, tc.guest, tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if tc.status != http.StatusOK {
				return
			}
			var out presignResponse
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !strings.HasPrefix(out.StorageKey, "loans/loan-1/") || out.UploadURL == "" || out.ExpiresInSeconds != 900 {
				t.Fatalf("unexpected response: %+v", out)
			}
			if out.Headers["Content-Type"] != "application/pdf" || out.Headers["Content-Length"] != "2048" {
				t.Fatalf("signed headers not returned: %+v", out.Headers)
			}
			if _, ok := out.Headers["Host"]; ok {
				t.Fatalf("host header must not be echoed")
			}
		})
	}
}

func TestCompleteRecordsUpload(t *testing.T) {
	f := newUploadFixture(t)

	w := f.post("/api/loans/loan-1/documents/presign", "owner", `{"file_name":"paystub.pdf","content_type":"application/pdf","size_bytes":2048}`)
	if w.Code != http.StatusOK {
		t.Fatalf("presign: %d %s", w.Code, w.Body.String())
	}
	var signed presignResponse
	if err := json.Unmarshal(w.Body.Bytes(), &signed); err != nil {
		t.Fatalf("decode: %v", err)
	}

	body := `{"storage_key":"` + signed.StorageKey + `","document_type":"Pay Stub"}`
	if w := f.post("/api/loans/loan-1/documents/complete", "owner", body); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before the object exists, got %d", w.Code)
	}

	f.store.objects[signed.StorageKey] = object.Stored{Key: signed.StorageKey, Size: 2048, ContentType: "application/pdf"}
	w = f.post("/api/loans/loan-1/documents/complete", "owner", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var doc documents.LoanDocument
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.LoanID != "loan-1" || doc.FileName != "paystub.pdf" || doc.DocumentType != "Pay Stub" || doc.SizeBytes != 2048 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	docs, err := f.docs.ListByLoan(context.Background(), "loan-1", 10, 0)
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected one stored document, got %d (%v)", len(docs), err)
	}
}

func TestCompleteRejectsMismatchedUploads(t *testing.T) {
	f := newUploadFixture(t)
	good, _ := object.DocumentKey("loan-1", "a.pdf")
	big, _ := object.DocumentKey("loan-1", "big.pdf")
	exe, _ := object.DocumentKey("loan-1", "a.exe")
	other, _ := object.DocumentKey("loan-2", "b.pdf")
	f.store.objects[good] = object.Stored{Key: good, Size: 10, ContentType: "application/pdf"}
	f.store.objects[big] = object.Stored{Key: big, Size: 2 << 20, ContentType: "application/pdf"}
	f.store.objects[exe] = object.Stored{Key: exe, Size: 10, ContentType: "application/x-msdownload"}
	f.store.objects[other] = object.Stored{Key: other, Size: 10, ContentType: "application/pdf"}

	cases := []struct {
		name   string
		guest  string
		key    string
		status int
	}{
		{name: "missing key", guest: "owner", key: "", status: http.StatusBadRequest},
		{name: "oversized", guest: "owner", key: big, status: http.StatusRequestEntityTooLarge},
		{name: "content type", guest: "owner", key: exe, status: http.StatusBadRequest},
		{name: "other loan key", guest: "owner", key: other, status: http.StatusBadRequest},
		{name: "foreign guest", guest: "intruder", key: good, status: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.post("/api/loans/loan-1/documents/complete", tc.guest, `{"storage_key":"`+tc.key+`"}`)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
		})
	}
}
