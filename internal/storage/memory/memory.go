// Package memory is an in-process storage backend for tests and ephemeral runs.
package memory

import (
	"context"
	"sync"

	"sumator/internal/storage"
)

type Backend struct {
	mu    sync.Mutex
	blobs map[string][]byte
	saves int
}

var _ storage.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{blobs: make(map[string][]byte)}
}

// Save stores a private copy of blob.
func (b *Backend) Save(_ context.Context, key string, blob []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = append([]byte{}, blob...)
	b.saves++
	return nil
}

// Load returns a copy of the stored blob.
func (b *Backend) Load(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	blob, ok := b.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, blob...), true, nil
}

// Saves reports how many Save calls succeeded.
func (b *Backend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

func (b *Backend) Close() error { return nil }
