package repository

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore persists uploaded blobs out-of-band from the messaging core.
type FileStore interface {
	Put(name string, r io.Reader) (int64, error)
	Open(name string) (*os.File, error)
}

type LocalFileStore struct {
	dir string
}

func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalFileStore{dir: dir}, nil
}

// Put writes r to name inside the store directory. name must be a bare file name.
func (s *LocalFileStore) Put(name string, r io.Reader) (int64, error) {
	if name == "" || filepath.Base(name) != name {
		return 0, fmt.Errorf("invalid file name %q", name)
	}
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	return n, nil
}

func (s *LocalFileStore) Open(name string) (*os.File, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return f, err
}
