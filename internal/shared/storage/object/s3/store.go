package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"loanmvp/internal/shared/storage/object"
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type presignAPI interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ErrObjectMissing is returned by Stat when nothing was uploaded under a key.
var ErrObjectMissing = errors.New("object not found")

// PresignedUpload is a signed PUT the browser performs directly against S3.
// Headers lists the signed headers the client must send unchanged.
type PresignedUpload struct {
	URL     string
	Key     string
	Headers http.Header
}

// Store keeps loan documents in an S3 bucket, encrypted at rest with
// SSE-KMS when a key is configured and SSE-S3 otherwise.
type Store struct {
	client   objectAPI
	presign  presignAPI
	bucket   string
	prefix   string
	kmsKeyID string
}

func New(ctx context.Context, region, bucket, prefix, kmsKeyID string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	st := newStore(client, bucket, prefix, kmsKeyID)
	st.presign = s3.NewPresignClient(client)
	return st, nil
}

func newStore(client objectAPI, bucket, prefix, kmsKeyID string) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   strings.Trim(strings.TrimSpace(prefix), "/"),
		kmsKeyID: strings.TrimSpace(kmsKeyID),
	}
}

func (s *Store) Save(ctx context.Context, loanID, fileName string, r io.Reader) (object.Stored, error) {
	if err := ctx.Err(); err != nil {
		return object.Stored{}, err
	}
	key, err := object.DocumentKey(loanID, fileName)
	if err != nil {
		return object.Stored{}, fmt.Errorf("document key: %w", err)
	}
	meter, err := object.NewMeter(r)
	if err != nil {
		return object.Stored{}, fmt.Errorf("read upload: %w", err)
	}

	objectKey := applyPrefix(s.prefix, key)
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        meter,
		ContentType: aws.String(meter.ContentType),
		Metadata:    map[string]string{"loan-id": loanID},
	}
	s.encrypt(in)
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return object.Stored{}, fmt.Errorf("s3 put %s/%s: %w", s.bucket, objectKey, err)
	}
	return meter.Stored(key), nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if key == "" || strings.Contains(key, "..") {
		return nil, object.ErrInvalidKey
	}
	objectKey := applyPrefix(s.prefix, key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s/%s: %w", s.bucket, objectKey, err)
	}
	return out.Body, nil
}

func (s *Store) encrypt(in *s3.PutObjectInput) {
	if s.kmsKeyID != "" {
		in.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		in.SSEKMSKeyId = aws.String(s.kmsKeyID)
		return
	}
	in.ServerSideEncryption = s3types.ServerSideEncryptionAes256
}

// PresignPut signs a PUT for a new document of loanID under the same key
// layout, prefix and encryption as Save. Content type, length and the SSE
// headers are part of the signature.
func (s *Store) PresignPut(ctx context.Context, loanID, fileName, contentType string, size int64, expires time.Duration) (PresignedUpload, error) {
	if s.presign == nil {
		return PresignedUpload{}, errors.New("s3 presigning not configured")
	}
	key, err := object.DocumentKey(loanID, fileName)
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("document key: %w", err)
	}
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(applyPrefix(s.prefix, key)),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Metadata:      map[string]string{"loan-id": loanID},
	}
	s.encrypt(in)
	out, err := s.presign.PresignPutObject(ctx, in, func(o *s3.PresignOptions) {
		o.Expires = expires
	})
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("s3 presign %s/%s: %w", s.bucket, aws.ToString(in.Key), err)
	}
	return PresignedUpload{URL: out.URL, Key: key, Headers: out.SignedHeader}, nil
}

// Stat reads the size and content type of an uploaded document.
func (s *Store) Stat(ctx context.Context, key string) (object.Stored, error) {
	if key == "" || strings.Contains(key, "..") {
		return object.Stored{}, object.ErrInvalidKey
	}
	objectKey := applyPrefix(s.prefix, key)
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var missing *s3types.NotFound
		if errors.As(err, &missing) {
			return object.Stored{}, ErrObjectMissing
		}
		return object.Stored{}, fmt.Errorf("s3 head %s/%s: %w", s.bucket, objectKey, err)
	}
	return object.Stored{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

func applyPrefix(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	key = strings.TrimLeft(key, "/")
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "/" + key
}

var _ object.ObjectStore = (*Store)(nil)
