package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideStorage is returned for paths that escape the storage root
var ErrOutsideStorage = errors.New("path is outside storage")

// LocalStorage handles file storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Ensure the base directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	return &LocalStorage{basePath: abs}, nil
}

// StatementPath is the archive location of a loan's final statement
func StatementPath(loanID uint) string {
	return filepath.Join("statements", fmt.Sprintf("loan-%d.pdf", loanID))
}

// Save writes data to relativePath, replacing any previous file. The write
// goes through a temp file so readers never see a partial document.
func (s *LocalStorage) Save(relativePath string, data []byte) error {
	fullPath, err := s.SafeFullPath(relativePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}

// Download returns a file for reading
func (s *LocalStorage) Download(relativePath string) (*os.File, error) {
	fullPath, err := s.SafeFullPath(relativePath)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// Exists checks if a file exists
func (s *LocalStorage) Exists(relativePath string) bool {
	fullPath, err := s.SafeFullPath(relativePath)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

// SafeFullPath resolves relativePath under the storage root
func (s *LocalStorage) SafeFullPath(relativePath string) (string, error) {
	fullPath := filepath.Join(s.basePath, filepath.Clean("/"+relativePath))
	if fullPath != s.basePath && !strings.HasPrefix(fullPath, s.basePath+string(filepath.Separator)) {
		return "", ErrOutsideStorage
	}
	return fullPath, nil
}
