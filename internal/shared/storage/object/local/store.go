package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"box3-backend/internal/shared/storage/object"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Put writes r to baseDir/storageKey, replacing any existing object.
func (s *Store) Put(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".put-*")
	if err != nil {
		return 0, fmt.Errorf("create temp: %w", err)
	}
	written, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if copyErr != nil {
			return 0, fmt.Errorf("write body: %w", copyErr)
		}
		return 0, fmt.Errorf("close temp: %w", closeErr)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("rename: %w", err)
	}
	return written, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

func (s *Store) resolve(storageKey string) (string, error) {
	if !object.ValidKey(storageKey) {
		return "", fmt.Errorf("invalid storage key %q", storageKey)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(storageKey)), nil
}

var _ object.ObjectStore = (*Store)(nil)
