package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore keeps blobs on the local filesystem under a root directory.
type LocalStore struct {
	root string
}

var _ BlobStore = (*LocalStore)(nil)

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage dir is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *LocalStore) Read(ctx context.Context, key string) ([]byte, error) {
	return os.ReadFile(s.path(key))
}

func (s *LocalStore) Write(ctx context.Context, key string, data []byte) error {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return os.WriteFile(p, data, 0o644)
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	return os.Remove(s.path(key))
}

// List returns the file names directly under prefix. A missing directory is
// an empty listing, not an error.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.path(prefix))
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
