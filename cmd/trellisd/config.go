package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the trellisd configuration file.
type Config struct {
	Listen   string         `yaml:"listen" validate:"required"`
	LogLevel string         `yaml:"log_level" validate:"required,oneof=debug info warn error"`
	Document DocumentConfig `yaml:"document"`
	Store    StoreConfig    `yaml:"store"`
	Auth     AuthConfig     `yaml:"auth"`
	Feed     FeedConfig     `yaml:"feed"`
}

// DocumentConfig names the graph document the daemon serves: either a YAML
// file on disk (watchable) or a named document in the configured store.
type DocumentConfig struct {
	Path     string `yaml:"path"`
	Name     string `yaml:"name" validate:"omitempty,min=1,max=100"`
	Watch    bool   `yaml:"watch"`
	Debounce string `yaml:"debounce"`

	debounce time.Duration
}

// StoreConfig selects and parameterizes the document store.
type StoreConfig struct {
	Kind        string   `yaml:"kind" validate:"omitempty,oneof=file postgres s3"`
	Dir         string   `yaml:"dir"`
	Passphrase  string   `yaml:"passphrase"`
	DatabaseURL string   `yaml:"database_url"`
	S3          S3Config `yaml:"s3"`
}

// S3Config carries the s3 store's client settings.
type S3Config struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PathStyle bool   `yaml:"path_style"`
}

// AuthConfig enables bearer-token auth on /graphql when a secret is set.
type AuthConfig struct {
	Secret string `yaml:"secret" validate:"omitempty,min=32"`
}

// FeedConfig enables the wire feed when a bind address is set.
type FeedConfig struct {
	Bind   string `yaml:"bind"`
	Buffer int    `yaml:"buffer" validate:"omitempty,min=1"`
}

// LoadConfig reads, parses, and validates a config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Document.Debounce != "" {
		d, err := time.ParseDuration(cfg.Document.Debounce)
		if err != nil {
			return nil, fmt.Errorf("invalid config: document.debounce: %w", err)
		}
		cfg.Document.debounce = d
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// check covers the rules struct tags cannot express.
func (c *Config) check() error {
	hasPath := c.Document.Path != ""
	hasStore := c.Store.Kind != ""

	switch {
	case hasPath && hasStore:
		return errors.New("document.path and store are mutually exclusive; pick one source")
	case !hasPath && !hasStore:
		return errors.New("either document.path or store must be set")
	}

	if hasStore && c.Document.Name == "" {
		return errors.New("document.name is required when loading from a store")
	}
	if c.Document.Watch && !hasPath {
		return errors.New("document.watch requires document.path")
	}

	switch c.Store.Kind {
	case "file":
		if c.Store.Dir == "" {
			return errors.New("store.dir is required for the file store")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return errors.New("store.database_url is required for the postgres store")
		}
		if c.Store.Passphrase != "" {
			return errors.New("store.passphrase is not supported for the postgres store")
		}
	case "s3":
		if c.Store.S3.Bucket == "" {
			return errors.New("store.s3.bucket is required for the s3 store")
		}
	}

	return nil
}
