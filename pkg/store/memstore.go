package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dd0wney/trellis/pkg/metrics"
)

// MemBackend holds payloads in a map. It is the default backend for tests
// and the inner layer cipher tests wrap.
type MemBackend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemBackend() *MemBackend {
	return &MemBackend{blobs: make(map[string][]byte)}
}

// NewMemStore returns an in-memory document store.
func NewMemStore(reg *metrics.Registry) *DocStore {
	return New(NewMemBackend(), reg)
}

func (b *MemBackend) Put(_ context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[name] = append([]byte(nil), data...)
	return nil
}

func (b *MemBackend) Get(_ context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *MemBackend) List(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.blobs))
	for name := range b.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (b *MemBackend) Delete(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blobs[name]; !ok {
		return ErrNotFound
	}
	delete(b.blobs, name)
	return nil
}

func (b *MemBackend) Kind() string { return "memory" }
