// Package memory provides an in-memory BlobStore for tests and local
// development.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/prokash-cms/prokash/pkg/publisher"
)

// Backend is an in-memory implementation of the publisher.BlobStore interface.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory storage backend.
func New() *Backend {
	return &Backend{
		objects: make(map[string][]byte),
	}
}

// Upload stores the object contents under the key.
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	return nil
}

// Download opens the object for reading.
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, publisher.ErrNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Exists reports whether an object is present under the key.
func (b *Backend) Exists(ctx context.Context, objectKey string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.objects[objectKey]
	return exists, nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.objects, objectKey)
	return nil
}

// Len reports the number of stored objects. Test helper.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
