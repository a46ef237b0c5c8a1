package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"loanmvp/internal/shared/storage/object"
)

// Store keeps loan documents under a directory on local disk.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// Save streams r to a temp file next to its final path and renames it into
// place once fully written.
func (s *Store) Save(ctx context.Context, loanID, fileName string, r io.Reader) (object.Stored, error) {
	if err := ctx.Err(); err != nil {
		return object.Stored{}, err
	}
	key, err := object.DocumentKey(loanID, fileName)
	if err != nil {
		return object.Stored{}, fmt.Errorf("document key: %w", err)
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return object.Stored{}, fmt.Errorf("mkdir: %w", err)
	}

	meter, err := object.NewMeter(r)
	if err != nil {
		return object.Stored{}, fmt.Errorf("read upload: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return object.Stored{}, fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, meter); err != nil {
		tmp.Close()
		return object.Stored{}, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return object.Stored{}, fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return object.Stored{}, fmt.Errorf("commit upload: %w", err)
	}
	return meter.Stored(key), nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return nil, object.ErrInvalidKey
	}
	return os.Open(filepath.Join(s.root, rel))
}

var _ object.ObjectStore = (*Store)(nil)
