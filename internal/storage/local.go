package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps blobs as files under a root directory, served by the router at the public base URL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir %s: %w", root, err)
	}
	return &LocalStore{root: root, baseURL: baseURL}, nil
}

// Root is the directory served as static media.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) file(objectPath string) (string, string, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return "", "", err
	}
	return p, filepath.Join(s.root, filepath.FromSlash(p)), nil
}

func (s *LocalStore) Put(_ context.Context, objectPath string, data []byte, _ string) (string, error) {
	p, name, err := s.file(objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", fmt.Errorf("creating dir for %s: %w", p, err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", p, err)
	}
	return s.URL(p), nil
}

func (s *LocalStore) Get(_ context.Context, objectPath string) ([]byte, error) {
	p, name, err := s.file(objectPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

func (s *LocalStore) Delete(_ context.Context, objectPath string) error {
	p, name, err := s.file(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", p, err)
	}
	return nil
}

func (s *LocalStore) URL(objectPath string) string {
	return publicURL(s.baseURL, objectPath)
}
