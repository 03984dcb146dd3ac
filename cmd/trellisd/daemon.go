package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/dd0wney/trellis/pkg/feed"
	"github.com/dd0wney/trellis/pkg/graph"
	"github.com/dd0wney/trellis/pkg/graphdoc"
	"github.com/dd0wney/trellis/pkg/logging"
	"github.com/dd0wney/trellis/pkg/metrics"
	"github.com/dd0wney/trellis/pkg/query"
	"github.com/dd0wney/trellis/pkg/store"
)

// opDocumentLoaded marks a (re)load on the feed, alongside the engine's
// mutation ops.
const opDocumentLoaded = "document_loaded"

// daemon wires the configured document source, feed, and query surface
// around one served graph.
type daemon struct {
	cfg   *Config
	log   logging.Logger
	reg   *metrics.Registry
	bus   *feed.Bus
	docs  store.Store // nil when serving straight from a file
	start time.Time

	service *query.Service

	mu      sync.RWMutex
	docName string
}

// openStore builds the configured document store, wrapping file and s3
// backends in a cipher when a passphrase is set.
func openStore(ctx context.Context, cfg *Config, reg *metrics.Registry) (store.Store, error) {
	sc := cfg.Store
	switch sc.Kind {
	case "file":
		if sc.Passphrase != "" {
			backend, err := store.NewFileBackend(sc.Dir)
			if err != nil {
				return nil, err
			}
			return store.NewCipherStore(backend, sc.Passphrase, reg)
		}
		return store.NewFileStore(sc.Dir, reg)

	case "postgres":
		return store.NewPGStore(ctx, sc.DatabaseURL, reg)

	case "s3":
		backend, err := store.NewS3Backend(ctx, store.S3Config{
			Region:    sc.S3.Region,
			Bucket:    sc.S3.Bucket,
			Prefix:    sc.S3.Prefix,
			Endpoint:  sc.S3.Endpoint,
			AccessKey: sc.S3.AccessKey,
			SecretKey: sc.S3.SecretKey,
			PathStyle: sc.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		if sc.Passphrase != "" {
			return store.NewCipherStore(backend, sc.Passphrase, reg)
		}
		return store.New(backend, reg), nil
	}
	return nil, fmt.Errorf("unknown store kind %q", sc.Kind)
}

// loadDocument fetches the document from its configured source.
func (d *daemon) loadDocument(ctx context.Context) (*graphdoc.Document, error) {
	if d.cfg.Document.Path != "" {
		data, err := os.ReadFile(d.cfg.Document.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		return graphdoc.DecodeYAML(data)
	}
	return d.docs.Load(ctx, d.cfg.Document.Name)
}

// bind builds the document into a live graph and swaps it into the query
// service. Build-time inserts run through the metrics observer, then the
// gauges are set to absolute values and a load marker goes out on the feed.
func (d *daemon) bind(doc *graphdoc.Document) error {
	g, err := doc.Build(graph.WithObserver(metrics.Observer[string, string](d.reg)))
	if err != nil {
		return err
	}
	g.Observe(feed.Hook(g, d.bus))

	if d.service == nil {
		svc, err := query.NewService(g, d.reg)
		if err != nil {
			return err
		}
		d.service = svc
	} else {
		d.service.Bind(g)
	}

	d.reg.SetGraphSize(g.NumVertices(), g.NumEdges())

	d.mu.Lock()
	d.docName = doc.Name
	d.mu.Unlock()

	d.bus.Publish(feed.Event{
		Op:    opDocumentLoaded,
		Kind:  feed.KindDocument,
		Label: doc.Name,
		Detail: map[string]any{
			"vertices": g.NumVertices(),
			"edges":    g.NumEdges(),
		},
		At: time.Now(),
	})

	d.log.Info("document bound",
		logging.Document(doc.Name),
		logging.Vertices(g.NumVertices()),
		logging.Edges(g.NumEdges()))
	return nil
}

// reload re-reads the document and swaps the graph. The old graph keeps
// serving if anything fails.
func (d *daemon) reload(ctx context.Context) error {
	timer := logging.StartTimer(d.log, "document reloaded", logging.Operation("reload"))

	doc, err := d.loadDocument(ctx)
	if err != nil {
		timer.EndError(err)
		return err
	}
	if err := d.bind(doc); err != nil {
		timer.EndError(err)
		return err
	}

	timer.End()
	return nil
}

func (d *daemon) healthz(w http.ResponseWriter, r *http.Request) {
	g := d.service.Graph()

	d.mu.RLock()
	name := d.docName
	d.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "healthy",
		"uptime":   time.Since(d.start).String(),
		"document": name,
		"vertices": g.NumVertices(),
		"edges":    g.NumEdges(),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withHTTPMetrics records request counts and latencies under the route
// pattern, not the raw URL, to keep label cardinality bounded.
func withHTTPMetrics(reg *metrics.Registry, path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		reg.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start))
	})
}
