// Package file implements blob.Store on the local filesystem.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roamspot/placegate/internal/blob"
)

// Compile-time check: Store implements blob.Store.
var _ blob.Store = (*Store)(nil)

// Store persists a blob as a single file.
type Store struct {
	path string
}

// New creates a file-backed blob store at path. Parent directories are
// created on the first save.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the blob. A missing file maps to blob.ErrNotFound.
func (s *Store) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return data, nil
}

// Save writes the blob atomically via a temp file and rename, so a
// crash mid-write never leaves a truncated snapshot behind.
func (s *Store) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", s.path, err)
	}
	return nil
}
