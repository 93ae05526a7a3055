package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/favx/internal/shared"
)

// FileStore keeps the token in a single file.
type FileStore struct {
	path string
}

// NewFileStore creates a [FileStore] at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the token file location.
func (s *FileStore) Path() string { return s.path }

// Get reads the token file. A missing or blank file reads as absent.
func (s *FileStore) Get() (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: read %s: %v", shared.ErrTokenStore, s.path, err)
	}

	tok := strings.TrimSpace(string(data))
	return tok, tok != "", nil
}

// Set writes the token with mode 0600, creating the directory with 0700.
func (s *FileStore) Set(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("%w: create token dir: %v", shared.ErrTokenStore, err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0600); err != nil {
		return fmt.Errorf("%w: write token: %v", shared.ErrTokenStore, err)
	}
	return nil
}

// Remove deletes the token file.
func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove token: %v", shared.ErrTokenStore, err)
	}
	return nil
}
