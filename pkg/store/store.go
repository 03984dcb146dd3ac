// Package store persists graph documents by name. The Store interface is the
// document-level surface; most implementations are a DocStore composed over a
// byte-level Backend (memory, file, S3), so the framed wire format is uniform
// across backends and a CipherBackend can encrypt any of them. PGStore talks
// to PostgreSQL directly with typed columns.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dd0wney/trellis/pkg/graphdoc"
	"github.com/dd0wney/trellis/pkg/logging"
	"github.com/dd0wney/trellis/pkg/metrics"
)

var (
	// ErrNotFound is returned when no document exists under the given name.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidName is returned for names that could escape the backend's
	// namespace (path separators, dots, empty strings).
	ErrInvalidName = errors.New("invalid document name")

	validName = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
)

// Store saves and retrieves graph documents by their Name field.
type Store interface {
	Save(ctx context.Context, doc *graphdoc.Document) error
	Load(ctx context.Context, name string) (*graphdoc.Document, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// Backend stores opaque payloads by name. Implementations do not interpret
// the bytes, which lets CipherBackend wrap any of them.
type Backend interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error

	// Kind identifies the backend in logs and metrics ("memory", "file", ...).
	Kind() string
}

// DocStore adapts a Backend into a Store: documents are validated, framed
// and compressed on the way in, verified and decoded on the way out.
type DocStore struct {
	backend Backend
	reg     *metrics.Registry
	log     logging.Logger
}

// New composes a document store over the given backend. reg may be nil to
// disable metrics.
func New(backend Backend, reg *metrics.Registry) *DocStore {
	return &DocStore{
		backend: backend,
		reg:     reg,
		log:     logging.With(logging.Component("store"), logging.Store(backend.Kind())),
	}
}

// Save validates the document and writes it under its own name.
func (s *DocStore) Save(ctx context.Context, doc *graphdoc.Document) error {
	start := time.Now()

	if err := doc.Validate(); err != nil {
		s.record("save", start, err)
		return fmt.Errorf("save %q: %w", doc.Name, err)
	}

	frame, err := encodeFrame(doc)
	if err != nil {
		s.record("save", start, err)
		return fmt.Errorf("save %q: %w", doc.Name, err)
	}

	if err := s.backend.Put(ctx, doc.Name, frame); err != nil {
		s.record("save", start, err)
		return fmt.Errorf("save %q: %w", doc.Name, err)
	}

	s.record("save", start, nil)
	if s.reg != nil {
		s.reg.ObserveSnapshotSize(s.backend.Kind(), len(frame))
	}
	s.log.Debug("document saved",
		logging.Document(doc.Name),
		logging.Int("bytes", len(frame)),
		logging.Vertices(len(doc.Vertices)),
		logging.Edges(len(doc.Edges)))
	return nil
}

// Load reads and decodes the document stored under name.
func (s *DocStore) Load(ctx context.Context, name string) (*graphdoc.Document, error) {
	start := time.Now()

	if !validName.MatchString(name) {
		s.record("load", start, ErrInvalidName)
		return nil, fmt.Errorf("load %q: %w", name, ErrInvalidName)
	}

	frame, err := s.backend.Get(ctx, name)
	if err != nil {
		s.record("load", start, err)
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	doc, savedAt, err := decodeFrame(frame)
	if err != nil {
		s.record("load", start, err)
		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	s.record("load", start, nil)
	s.log.Debug("document loaded",
		logging.Document(name),
		logging.String("saved_at", savedAt.Format(time.RFC3339)))
	return doc, nil
}

// List returns the names of all stored documents.
func (s *DocStore) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := s.backend.List(ctx)
	s.record("list", start, err)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return names, nil
}

// Delete removes the document stored under name.
func (s *DocStore) Delete(ctx context.Context, name string) error {
	start := time.Now()

	if !validName.MatchString(name) {
		s.record("delete", start, ErrInvalidName)
		return fmt.Errorf("delete %q: %w", name, ErrInvalidName)
	}

	if err := s.backend.Delete(ctx, name); err != nil {
		s.record("delete", start, err)
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete %q: %w", name, ErrNotFound)
		}
		return fmt.Errorf("delete %q: %w", name, err)
	}

	s.record("delete", start, nil)
	s.log.Debug("document deleted", logging.Document(name))
	return nil
}

func (s *DocStore) record(operation string, start time.Time, err error) {
	if s.reg == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.reg.RecordStoreOperation(s.backend.Kind(), operation, status, time.Since(start))
}
