package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/fieldarray"
	"github.com/hupe1980/fieldarray/resource"
)

// Config is the CLI configuration file.
type Config struct {
	Store       StoreConfig    `yaml:"store"`
	Compression string         `yaml:"compression"`
	LogLevel    string         `yaml:"log_level"`
	Resources   ResourceConfig `yaml:"resources"`
}

// StoreConfig selects and configures the blob store backend.
type StoreConfig struct {
	// Backend is one of local, sqlite, s3, minio.
	Backend string `yaml:"backend"`
	// Path is the root directory (local) or database file (sqlite).
	Path string `yaml:"path"`

	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	// S3 settings. Credentials come from the default AWS chain.
	Region        string `yaml:"region"`
	Express       bool   `yaml:"express"`
	DynamoDBTable string `yaml:"dynamodb_table"`

	// MinIO settings.
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// ResourceConfig bounds snapshot I/O. Sizes accept units such as "64MiB".
type ResourceConfig struct {
	MemoryLimit string `yaml:"memory_limit"`
	IOLimit     string `yaml:"io_limit_per_sec"`
	MaxWorkers  int64  `yaml:"max_workers"`
}

// DefaultConfig returns a config that keeps snapshots in ./fieldarray-data.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "local",
			Path:    "fieldarray-data",
		},
		Compression: "none",
		LogLevel:    "warn",
	}
}

// LoadConfig reads path on top of the defaults. A missing file yields the
// defaults; an empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FIELDARRAY_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("FIELDARRAY_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("FIELDARRAY_BUCKET"); v != "" {
		c.Store.Bucket = v
	}
	if v := os.Getenv("FIELDARRAY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the backend settings and parses every enumerated value.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "local", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store %s: path is required", c.Store.Backend)
		}
	case "s3":
		if c.Store.Bucket == "" {
			return fmt.Errorf("store s3: bucket is required")
		}
	case "minio":
		if c.Store.Bucket == "" || c.Store.Endpoint == "" {
			return fmt.Errorf("store minio: bucket and endpoint are required")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if _, err := fieldarray.ParseCompression(c.Compression); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Controller(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Controller builds a resource controller, or nil when no limit is set.
func (c *Config) Controller() (*resource.Controller, error) {
	r := c.Resources
	if r.MemoryLimit == "" && r.IOLimit == "" && r.MaxWorkers == 0 {
		return nil, nil
	}

	parse := func(field, s string) (int64, error) {
		if s == "" {
			return 0, nil
		}
		n, err := humanize.ParseBytes(s)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
		}
		return int64(n), nil
	}
	mem, err := parse("memory_limit", r.MemoryLimit)
	if err != nil {
		return nil, err
	}
	ioLimit, err := parse("io_limit_per_sec", r.IOLimit)
	if err != nil {
		return nil, err
	}

	return resource.NewController(resource.Config{
		MemoryLimitBytes:   mem,
		MaxWorkers:         r.MaxWorkers,
		IOLimitBytesPerSec: ioLimit,
	}), nil
}

// SnapshotOptions returns the snapshot options described by the config.
func (c *Config) SnapshotOptions(logger *fieldarray.Logger) ([]fieldarray.SnapshotOption, error) {
	comp, err := fieldarray.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	rc, err := c.Controller()
	if err != nil {
		return nil, err
	}

	opts := []fieldarray.SnapshotOption{
		fieldarray.WithCompression(comp),
		fieldarray.WithSnapshotLogger(logger),
		fieldarray.WithArrayOptions(fieldarray.WithLogger(logger)),
	}
	if rc != nil {
		opts = append(opts, fieldarray.WithResourceController(rc))
	}
	return opts, nil
}
