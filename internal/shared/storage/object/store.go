package object

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"

	"loanmvp/internal/shared/util"
)

// ErrInvalidKey is returned for storage keys that escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// Stored describes a document after it was written.
type Stored struct {
	Key         string
	Size        int64
	ContentType string
	SHA256      string
}

// ObjectStore saves and retrieves loan document bytes.
type ObjectStore interface {
	Save(ctx context.Context, loanID, fileName string, r io.Reader) (Stored, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// DocumentKey is the storage layout shared by direct and presigned uploads:
// loans/<loan id>/<uuid>-<sanitized name>.
func DocumentKey(loanID, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	id, err := util.SanitizeFileName(loanID)
	if err != nil {
		return "", err
	}
	return path.Join("loans", id, uuid.NewString()+"-"+name), nil
}

// Meter wraps a document body: it sniffs the content type from the first
// 512 bytes and hashes and counts everything read through it.
type Meter struct {
	ContentType string

	body io.Reader
	sum  hash.Hash
	n    int64
}

func NewMeter(r io.Reader) (*Meter, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return &Meter{
		ContentType: http.DetectContentType(head[:n]),
		body:        io.MultiReader(bytes.NewReader(head[:n]), r),
		sum:         sha256.New(),
	}, nil
}

func (m *Meter) Read(p []byte) (int, error) {
	n, err := m.body.Read(p)
	if n > 0 {
		m.sum.Write(p[:n])
		m.n += int64(n)
	}
	return n, err
}

// Stored returns the metadata for everything read so far under key.
func (m *Meter) Stored(key string) Stored {
	return Stored{
		Key:         key,
		Size:        m.n,
		ContentType: m.ContentType,
		SHA256:      hex.EncodeToString(m.sum.Sum(nil)),
	}
}
