package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/trellis/pkg/graphdoc"
	"github.com/dd0wney/trellis/pkg/metrics"
)

// PGStore persists documents in PostgreSQL, one row per document with the
// body in a JSONB column.
type PGStore struct {
	pool *pgxpool.Pool
	reg  *metrics.Registry
}

// NewPGStore connects to PostgreSQL and creates the documents table if it
// does not exist. reg may be nil to disable metrics.
func NewPGStore(ctx context.Context, databaseURL string, reg *metrics.Registry) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pooling configuration
	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{pool: pool, reg: reg}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS graph_documents (
		name TEXT PRIMARY KEY,
		directed BOOLEAN NOT NULL,
		document JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_graph_documents_updated_at ON graph_documents(updated_at);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Save upserts the document under its own name.
func (s *PGStore) Save(ctx context.Context, doc *graphdoc.Document) error {
	start := time.Now()
	err := s.save(ctx, doc)
	s.record("save", start, err)
	return err
}

func (s *PGStore) save(ctx context.Context, doc *graphdoc.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("save %q: %w", doc.Name, err)
	}

	body, err := doc.EncodeJSON()
	if err != nil {
		return fmt.Errorf("save %q: %w", doc.Name, err)
	}

	query := `
		INSERT INTO graph_documents (name, directed, document, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET directed = EXCLUDED.directed, document = EXCLUDED.document, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, doc.Name, doc.Directed, body); err != nil {
		return fmt.Errorf("save %q: %w", doc.Name, err)
	}

	if s.reg != nil {
		s.reg.ObserveSnapshotSize("postgres", len(body))
	}
	return nil
}

// Load retrieves the document stored under name.
func (s *PGStore) Load(ctx context.Context, name string) (*graphdoc.Document, error) {
	start := time.Now()
	doc, err := s.load(ctx, name)
	s.record("load", start, err)
	return doc, err
}

func (s *PGStore) load(ctx context.Context, name string) (*graphdoc.Document, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("load %q: %w", name, ErrInvalidName)
	}

	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM graph_documents WHERE name = $1`, name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}

	doc, err := graphdoc.DecodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	return doc, nil
}

// List returns all stored document names.
func (s *PGStore) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := s.list(ctx)
	s.record("list", start, err)
	return names, err
}

func (s *PGStore) list(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM graph_documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return names, nil
}

// Delete removes the document stored under name.
func (s *PGStore) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := s.del(ctx, name)
	s.record("delete", start, err)
	return err
}

func (s *PGStore) del(ctx context.Context, name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("delete %q: %w", name, ErrInvalidName)
	}

	result, err := s.pool.Exec(ctx, `DELETE FROM graph_documents WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete %q: %w", name, ErrNotFound)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PGStore) record(operation string, start time.Time, err error) {
	if s.reg == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.reg.RecordStoreOperation("postgres", operation, status, time.Since(start))
}
