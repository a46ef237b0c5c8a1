package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanmvp/internal/shared/storage/object"
)

type fakeS3 struct {
	objects map[string][]byte
	lastPut *s3.PutObjectInput
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.lastPut = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data))), ContentType: aws.String("application/pdf")}, nil
}

func testPresigner() *s3.PresignClient {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	return s3.NewPresignClient(s3.NewFromConfig(cfg))
}

func TestPresignPutBindsHeadersAndSharesLayout(t *testing.T) {
	store := newStore(&fakeS3{objects: map[string][]byte{}}, "loan-docs", "prod", "kms-123")
	store.presign = testPresigner()

	up, err := store.PresignPut(context.Background(), "loan-7", "W2 2025.pdf", "application/pdf", 2048, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.Key, "loans/loan-7/"), "key matches Save layout without the prefix")

	parsed, err := url.Parse(up.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(parsed.Path, "/prod/loans/loan-7/"), parsed.Path)

	signed := parsed.Query().Get("X-Amz-SignedHeaders")
	for _, h := range []string{"content-length", "content-type", "x-amz-server-side-encryption", "x-amz-server-side-encryption-aws-kms-key-id"} {
		assert.Contains(t, signed, h)
	}
	assert.Equal(t, "2048", up.Headers.Get("Content-Length"))
	assert.Equal(t, "application/pdf", up.Headers.Get("Content-Type"))
}

func TestPresignPutWithoutClient(t *testing.T) {
	store := newStore(&fakeS3{objects: map[string][]byte{}}, "loan-docs", "", "")
	_, err := store.PresignPut(context.Background(), "loan-7", "a.pdf", "application/pdf", 10, time.Minute)
	assert.Error(t, err)
}

func TestStatReadsUploadedObject(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{"prod/loans/loan-7/abc-a.pdf": []byte("%PDF-1.4")}}
	store := newStore(fake, "loan-docs", "prod", "")

	got, err := store.Stat(context.Background(), "loans/loan-7/abc-a.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(8), got.Size)
	assert.Equal(t, "application/pdf", got.ContentType)

	_, err = store.Stat(context.Background(), "loans/loan-7/missing.pdf")
	assert.ErrorIs(t, err, ErrObjectMissing)

	_, err = store.Stat(context.Background(), "../x")
	assert.ErrorIs(t, err, object.ErrInvalidKey)
}

func TestSaveUploadsUnderPrefixWithKMS(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store := newStore(fake, "loan-docs", "/prod/", "kms-123")

	stored, err := store.Save(context.Background(), "loan-7", "appraisal.pdf", strings.NewReader("%PDF-1.4 value 410000"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Key, "loans/loan-7/"))
	assert.Equal(t, "application/pdf", stored.ContentType)
	assert.Equal(t, int64(len("%PDF-1.4 value 410000")), stored.Size)

	put := fake.lastPut
	require.NotNil(t, put)
	assert.Equal(t, "prod/"+stored.Key, aws.ToString(put.Key))
	assert.Equal(t, s3types.ServerSideEncryptionAwsKms, put.ServerSideEncryption)
	assert.Equal(t, "kms-123", aws.ToString(put.SSEKMSKeyId))
	assert.Equal(t, "loan-7", put.Metadata["loan-id"])

	rc, err := store.Open(context.Background(), stored.Key)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "%PDF-1.4 value 410000", string(data))
}

func TestSaveDefaultsToSSES3(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	_, err := newStore(fake, "loan-docs", "", "").Save(context.Background(), "loan-7", "w2.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, s3types.ServerSideEncryptionAes256, fake.lastPut.ServerSideEncryption)
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := newStore(&fakeS3{objects: map[string][]byte{}}, "loan-docs", "", "")
	_, err := store.Open(context.Background(), "../other-bucket-key")
	assert.ErrorIs(t, err, object.ErrInvalidKey)
}

func TestApplyPrefix(t *testing.T) {
	cases := []struct{ prefix, key, want string }{
		{"", "loans/l/a.pdf", "loans/l/a.pdf"},
		{"root", "loans/l/a.pdf", "root/loans/l/a.pdf"},
		{"/root/", "/loans/l/a.pdf", "root/loans/l/a.pdf"},
		{"root/sub", "loans/l/a.pdf", "root/sub/loans/l/a.pdf"},
		{"root", "", "root"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, applyPrefix(tc.prefix, tc.key))
	}
}
