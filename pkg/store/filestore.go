package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/mmap"

	"github.com/dd0wney/trellis/pkg/metrics"
)

const (
	fileExt = ".tgd" // trellis graph document

	dirPermissions  = 0755
	filePermissions = 0644
)

// FileBackend keeps one file per document under a single directory. Writes
// go through a temporary file and an atomic rename; reads are memory-mapped.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// NewFileStore returns a document store persisting to dir, one framed file
// per document.
func NewFileStore(dir string, reg *metrics.Registry) (*DocStore, error) {
	backend, err := NewFileBackend(dir)
	if err != nil {
		return nil, err
	}
	return New(backend, reg), nil
}

func (b *FileBackend) Put(_ context.Context, name string, data []byte) error {
	path := b.path(name)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, filePermissions); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename document: %w", err)
	}
	return nil
}

func (b *FileBackend) Get(_ context.Context, name string) ([]byte, error) {
	reader, err := mmap.Open(b.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer reader.Close()

	data := make([]byte, reader.Len())
	if len(data) > 0 {
		if _, err := reader.ReadAt(data, 0); err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
	}
	return data, nil
}

func (b *FileBackend) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileExt))
	}
	return names, nil
}

func (b *FileBackend) Delete(_ context.Context, name string) error {
	if err := os.Remove(b.path(name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove document: %w", err)
	}
	return nil
}

func (b *FileBackend) Kind() string { return "file" }

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.dir, name+fileExt)
}
