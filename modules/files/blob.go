package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore abstracts where uploaded file contents live. The module ships a
// local-disk implementation; an object-storage backend only needs to satisfy
// this interface.
type BlobStore interface {
	// Put stores the blob under the given key and returns a URL path the
	// gateway can serve it from.
	Put(key string, data []byte) (string, error)
	// Remove deletes the blob. Removing a missing blob is not an error.
	Remove(key string) error
}

// DiskStore keeps blobs as plain files under a base directory.
type DiskStore struct {
	baseDir string
	urlBase string
}

// NewDiskStore creates the base directory if needed.
func NewDiskStore(baseDir, urlBase string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{baseDir: baseDir, urlBase: strings.TrimSuffix(urlBase, "/")}, nil
}

func (s *DiskStore) Put(key string, data []byte) (string, error) {
	// Keys are generated server-side, but refuse anything path-like anyway.
	if key == "" || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	path := filepath.Join(s.baseDir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return s.urlBase + "/" + key, nil
}

func (s *DiskStore) Remove(key string) error {
	if key == "" || key != filepath.Base(key) {
		return fmt.Errorf("invalid blob key %q", key)
	}
	err := os.Remove(filepath.Join(s.baseDir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}

// BaseDir returns the directory blobs are stored in, for static serving.
func (s *DiskStore) BaseDir() string {
	return s.baseDir
}
