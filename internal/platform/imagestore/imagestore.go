// Package imagestore abstracts profile image hosting. Uploaded images are
// addressed by an opaque asset ID and served from a public URL; the rest of
// the application never touches the bytes after upload.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxImageSize is the maximum allowed image payload in bytes (10 MB).
const MaxImageSize = 10 * 1024 * 1024

var (
	// ErrImageNotFound is returned when an asset ID is unknown.
	ErrImageNotFound = errors.New("image not found")

	// ErrImageEmpty is returned when an upload carries no bytes.
	ErrImageEmpty = errors.New("image data is empty")

	// ErrImageTooLarge is returned when the payload exceeds MaxImageSize.
	ErrImageTooLarge = errors.New("image exceeds maximum allowed size")
)

// Asset identifies a stored image.
type Asset struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ImageStore is the contract for image upload and deletion.
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, filename string) (*Asset, error)
	Delete(ctx context.Context, assetID string) error
}

type storedImage struct {
	asset Asset
	data  []byte
}

// InMemoryStore is a thread-safe ImageStore suitable for testing and
// development environments.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*storedImage
	baseURL string
}

// NewInMemoryStore returns a ready-to-use InMemoryStore. The baseURL is
// prefixed to generated asset URLs.
func NewInMemoryStore(baseURL string) *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]*storedImage),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Upload reads the image bytes, assigns an asset ID and returns the asset.
func (s *InMemoryStore) Upload(_ context.Context, r io.Reader, filename string) (*Asset, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrImageEmpty
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	id := uuid.NewString()
	asset := Asset{
		ID:         id,
		URL:        s.baseURL + "/images/" + id + path.Ext(filename),
		Filename:   filename,
		Size:       int64(len(data)),
		UploadedAt: time.Now().UTC(),
	}

	entry := &storedImage{asset: asset, data: make([]byte, len(data))}
	copy(entry.data, data)

	s.mu.Lock()
	s.entries[id] = entry
	s.mu.Unlock()

	out := asset
	return &out, nil
}

// Delete removes a stored image by asset ID.
func (s *InMemoryStore) Delete(_ context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[assetID]; !ok {
		return ErrImageNotFound
	}
	delete(s.entries, assetID)
	return nil
}

// Get returns a stored asset and a copy of its bytes. Used by tests and the
// development image endpoint.
func (s *InMemoryStore) Get(_ context.Context, assetID string) (*Asset, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[assetID]
	if !ok {
		return nil, nil, ErrImageNotFound
	}
	asset := entry.asset
	data := make([]byte, len(entry.data))
	copy(data, entry.data)
	return &asset, data, nil
}
