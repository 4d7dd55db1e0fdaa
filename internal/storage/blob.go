// Package storage provides the blob storage capability used for uploaded
// images. The backend is opaque to the rest of the system: store bytes, get
// a URL back, delete by URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedMimeType is returned for uploads outside the allowed image types.
var ErrUnsupportedMimeType = errors.New("unsupported mime type")

// BlobStore stores and deletes opaque blobs addressed by URL.
type BlobStore interface {
	// Store persists data under a folder prefix and returns its public URL.
	Store(ctx context.Context, data []byte, mimeType, folder string) (string, error)

	// Delete removes the blob addressed by url. Deleting an unknown URL is
	// not an error.
	Delete(ctx context.Context, url string) error
}

var extByMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload is an in-memory file received from a multipart form.
type Upload struct {
	Data     []byte
	MimeType string
}

// FSStore is a filesystem-backed BlobStore serving files under a base URL.
type FSStore struct {
	root    string
	baseURL string
}

// NewFSStore creates a filesystem store rooted at dir, returning URLs under
// baseURL (e.g. "/uploads").
func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FSStore{
		root:    dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Store writes data to <root>/<folder>/<uuid><ext> and returns its URL.
func (s *FSStore) Store(_ context.Context, data []byte, mimeType, folder string) (string, error) {
	ext, ok := extByMime[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMimeType, mimeType)
	}

	name := uuid.NewString() + ext
	dir := filepath.Join(s.root, filepath.Clean("/"+folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	return s.baseURL + path.Join("/", folder, name), nil
}

// Delete removes the file addressed by url. Unknown URLs are ignored.
func (s *FSStore) Delete(_ context.Context, url string) error {
	rel, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return nil
	}

	p := filepath.Join(s.root, filepath.Clean("/"+rel))
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// MemStore is an in-memory BlobStore for tests.
type MemStore struct {
	blobs map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

// Store keeps data in memory under a synthetic URL.
func (s *MemStore) Store(_ context.Context, data []byte, mimeType, folder string) (string, error) {
	ext, ok := extByMime[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMimeType, mimeType)
	}
	url := "mem://" + path.Join(folder, uuid.NewString()+ext)
	s.blobs[url] = data
	return url, nil
}

// Delete removes a stored blob.
func (s *MemStore) Delete(_ context.Context, url string) error {
	delete(s.blobs, url)
	return nil
}

// Len reports the number of stored blobs.
func (s *MemStore) Len() int {
	return len(s.blobs)
}

// Has reports whether url is stored.
func (s *MemStore) Has(url string) bool {
	_, ok := s.blobs[url]
	return ok
}
