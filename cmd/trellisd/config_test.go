package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trellis.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
document:
  path: ./network.yaml
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("Expected default listen :8080, got %q", cfg.Listen)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.Document.Path != "./network.yaml" {
		t.Errorf("Expected document path, got %q", cfg.Document.Path)
	}
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
log_level: debug
document:
  path: ./network.yaml
  watch: true
  debounce: 100ms
auth:
  secret: "0123456789abcdef0123456789abcdef"
feed:
  bind: tcp://127.0.0.1:7900
  buffer: 50
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("Expected listen :9090, got %q", cfg.Listen)
	}
	if !cfg.Document.Watch {
		t.Error("Expected watch enabled")
	}
	if cfg.Document.debounce != 100*time.Millisecond {
		t.Errorf("Expected 100ms debounce, got %v", cfg.Document.debounce)
	}
	if cfg.Feed.Buffer != 50 {
		t.Errorf("Expected feed buffer 50, got %d", cfg.Feed.Buffer)
	}
}

func TestLoadConfigStoreSource(t *testing.T) {
	path := writeConfig(t, `
document:
  name: transit
store:
  kind: file
  dir: ./data
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Store.Kind != "file" {
		t.Errorf("Expected file store, got %q", cfg.Store.Kind)
	}
}

func TestLoadConfigRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"no source",
			`listen: ":8080"`,
			"either document.path or store",
		},
		{
			"both sources",
			"document:\n  path: ./a.yaml\n  name: a\nstore:\n  kind: file\n  dir: ./data\n",
			"mutually exclusive",
		},
		{
			"store without name",
			"store:\n  kind: file\n  dir: ./data\n",
			"document.name is required",
		},
		{
			"watch without path",
			"document:\n  name: a\n  watch: true\nstore:\n  kind: file\n  dir: ./data\n",
			"watch requires document.path",
		},
		{
			"unknown store kind",
			"document:\n  name: a\nstore:\n  kind: redis\n",
			"invalid config",
		},
		{
			"file store without dir",
			"document:\n  name: a\nstore:\n  kind: file\n",
			"store.dir is required",
		},
		{
			"postgres without url",
			"document:\n  name: a\nstore:\n  kind: postgres\n",
			"store.database_url is required",
		},
		{
			"postgres with passphrase",
			"document:\n  name: a\nstore:\n  kind: postgres\n  database_url: postgres://x\n  passphrase: hunter2\n",
			"passphrase is not supported",
		},
		{
			"s3 without bucket",
			"document:\n  name: a\nstore:\n  kind: s3\n",
			"store.s3.bucket is required",
		},
		{
			"short auth secret",
			"document:\n  path: ./a.yaml\nauth:\n  secret: short\n",
			"invalid config",
		},
		{
			"bad log level",
			"log_level: loud\ndocument:\n  path: ./a.yaml\n",
			"invalid config",
		},
		{
			"bad debounce",
			"document:\n  path: ./a.yaml\n  debounce: fast\n",
			"document.debounce",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Expected config to be rejected")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected missing config file to be reported")
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "listen: [unclosed")); err == nil {
		t.Error("Expected malformed YAML to be reported")
	}
}
