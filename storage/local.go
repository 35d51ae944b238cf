package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore implements CoverStore on the local filesystem. Covers are saved
// under the configured directory and served by the HTTP server under
// /uploads/covers/. It cannot issue upload grants; the create handler passes
// the image bytes through in the same request instead.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the covers directory if needed and returns the store.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cover directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// IssueUploadGrant always fails: local storage has no direct-upload path.
func (s *LocalStore) IssueUploadGrant(ctx context.Context, objectName string) (string, error) {
	return "", ErrSignedUploadsDisabled
}

// PublicURL returns the serve path for a stored cover.
func (s *LocalStore) PublicURL(objectName string) string {
	return "/uploads/covers/" + objectName
}

// SaveCover writes the image bytes to disk under the given object name.
func (s *LocalStore) SaveCover(src io.Reader, objectName string) error {
	destPath := filepath.Join(s.dir, objectName)
	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create cover file %s: %w", destPath, err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, src); err != nil {
		return fmt.Errorf("failed to write cover file %s: %w", destPath, err)
	}
	return nil
}

// DeleteCover removes a stored cover. An already-absent file is not an error.
func (s *LocalStore) DeleteCover(ctx context.Context, objectName string) error {
	destPath := filepath.Join(s.dir, objectName)
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cover file %s: %w", destPath, err)
	}
	return nil
}
