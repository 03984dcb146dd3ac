// Command trellisd serves one graph document over GraphQL, with Prometheus
// metrics, an optional mutation feed, and hot reload on document changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/trellis/pkg/feed"
	"github.com/dd0wney/trellis/pkg/logging"
	"github.com/dd0wney/trellis/pkg/metrics"
	"github.com/dd0wney/trellis/pkg/query"
	"github.com/dd0wney/trellis/pkg/server"
	"github.com/dd0wney/trellis/pkg/store"
)

const systemMetricsInterval = 15 * time.Second

func main() {
	configPath := flag.String("config", "trellis.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trellisd: %v\n", err)
		os.Exit(1)
	}

	logging.SetDefaultLogger(logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel)))
	log := logging.With(logging.Component("trellisd"))

	ctx := context.Background()
	reg := metrics.NewRegistry()

	d := &daemon{
		cfg:   cfg,
		log:   log,
		reg:   reg,
		bus:   feed.NewBus(cfg.Feed.Buffer, reg),
		start: time.Now(),
	}

	if cfg.Store.Kind != "" {
		docs, err := openStore(ctx, cfg, reg)
		if err != nil {
			log.Error("failed to open store", logging.Error(err))
			os.Exit(1)
		}
		d.docs = docs
	}

	doc, err := d.loadDocument(ctx)
	if err != nil {
		log.Error("failed to load document", logging.Error(err))
		os.Exit(1)
	}
	if err := d.bind(doc); err != nil {
		log.Error("failed to build graph", logging.Error(err))
		os.Exit(1)
	}

	var graphqlHandler http.Handler = query.NewHandler(d.service)
	if cfg.Auth.Secret != "" {
		verifier, err := query.NewTokenVerifier(cfg.Auth.Secret)
		if err != nil {
			log.Error("failed to configure auth", logging.Error(err))
			os.Exit(1)
		}
		graphqlHandler = verifier.Middleware(graphqlHandler)
		log.Info("bearer auth enabled")
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", withHTTPMetrics(reg, "/graphql", graphqlHandler))
	mux.Handle("/healthz", withHTTPMetrics(reg, "/healthz", http.HandlerFunc(d.healthz)))
	mux.Handle("/metrics", promhttp.HandlerFor(reg.GetPrometheusRegistry(), promhttp.HandlerOpts{}))

	if cfg.Feed.Bind != "" {
		pub, err := feed.NewPublisher(cfg.Feed.Bind, d.bus, reg)
		if err != nil {
			log.Error("failed to open feed publisher", logging.Error(err))
			os.Exit(1)
		}
		if err := pub.Start(ctx); err != nil {
			log.Error("failed to start feed publisher", logging.Error(err))
			os.Exit(1)
		}
		defer pub.Close()
	}

	if cfg.Document.Watch {
		watcher, err := store.NewWatcher(cfg.Document.Path, cfg.Document.debounce, func(string) {
			if err := d.reload(context.Background()); err != nil {
				log.Error("reload after change failed", logging.Error(err))
			}
		})
		if err != nil {
			log.Error("failed to watch document", logging.Error(err))
			os.Exit(1)
		}
		watcher.Start(ctx)
		defer watcher.Close()
		log.Info("watching document", logging.String("path", cfg.Document.Path))
	}

	srv := server.NewGracefulServer(cfg.Listen, mux)
	srv.SetReloadFunc(func() error { return d.reload(context.Background()) })

	go func() {
		ticker := time.NewTicker(systemMetricsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				reg.UpdateSystemMetrics(d.start)
			case <-srv.ShutdownChannel():
				return
			}
		}
	}()

	log.Info("trellisd starting",
		logging.Address(cfg.Listen),
		logging.Document(doc.Name))
	if err := srv.Start(); err != nil {
		log.Error("server failed", logging.Error(err))
		os.Exit(1)
	}
}
