package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps blobs as objects of one bucket.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCSClient prefers explicit credentials JSON and falls back to application default credentials.
func NewGCSClient(ctx context.Context, credentialsJSON string) (*storage.Client, error) {
	if strings.TrimSpace(credentialsJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	return storage.NewClient(ctx)
}

// NewGCSStore returns a store for bucket. When baseURL is empty, public URLs point at storage.googleapis.com.
func NewGCSStore(client *storage.Client, bucket, baseURL string) *GCSStore {
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCSStore{client: client, bucket: bucket, baseURL: baseURL}
}

func (s *GCSStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return "", err
	}
	wc := s.client.Bucket(s.bucket).Object(p).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("uploading %s: %w", p, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("closing upload of %s: %w", p, err)
	}
	return s.URL(p), nil
}

func (s *GCSStore) Get(ctx context.Context, objectPath string) ([]byte, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.Bucket(s.bucket).Object(p).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", p, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

// Delete treats a missing object as already deleted.
func (s *GCSStore) Delete(ctx context.Context, objectPath string) error {
	p, err := cleanPath(objectPath)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(p).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting %s: %w", p, err)
	}
	return nil
}

func (s *GCSStore) URL(objectPath string) string {
	return publicURL(s.baseURL, objectPath)
}
