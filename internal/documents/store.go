package documents

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore writes rendered documents into one directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("documents: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes data under name and returns the full path. An existing file
// with the same name is replaced.
func (s *FileStore) Save(name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("documents: invalid file name %q", name)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// Dir is the target directory.
func (s *FileStore) Dir() string { return s.dir }
