// Package storage keeps job photo blobs in Google Cloud Storage or on local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore stores opaque objects under slash-separated paths.
type BlobStore interface {
	Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, objectPath string) ([]byte, error)
	Delete(ctx context.Context, objectPath string) error
	URL(objectPath string) string
}

// JobPhotoPath returns a fresh object path for a photo of jobID.
func JobPhotoPath(jobID int64) string {
	return fmt.Sprintf("jobs/%d/%s.jpg", jobID, uuid.NewString())
}

func publicURL(baseURL, objectPath string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(objectPath, "/")
}

// cleanPath rejects paths that escape the store root.
func cleanPath(objectPath string) (string, error) {
	p := path.Clean("/" + objectPath)
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." || strings.HasPrefix(p, "..") {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	return p, nil
}
