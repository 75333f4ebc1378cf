package builder

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers understood by Config.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageHTTP   = "http"
)

// Config is the file configuration shared by blockctl and the example server.
type Config struct {
	Layout    LayoutSettings `yaml:"layout"`
	AutoSave  AutoSaveConfig `yaml:"autosave"`
	Storage   StorageConfig  `yaml:"storage"`
	Export    ExportConfig   `yaml:"export"`
	Server    ServerConfig   `yaml:"server"`
	Logging   LoggingConfig  `yaml:"logging"`
	Manifests []string       `yaml:"manifests"`
}

type AutoSaveConfig struct {
	Delay   time.Duration `yaml:"delay"`
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects the Repository. Path is the SQLite file; BaseURL and
// Token address a remote HTTP API.
type StorageConfig struct {
	Driver  string        `yaml:"driver"`
	Path    string        `yaml:"path"`
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type ExportConfig struct {
	UseTemplate bool          `yaml:"use_template"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	// RedisAddr shares exported documents through Redis instead of memory.
	RedisAddr string `yaml:"redis_addr"`
}

// ServerConfig addresses the example server. MetricsAddress serves
// Prometheus metrics; empty disables it.
type ServerConfig struct {
	Address        string `yaml:"address"`
	MetricsAddress string `yaml:"metrics_address"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Layout: LayoutSettings{
			LayoutType: LayoutSingleColumn,
			GridSystem: DefaultGridSystem,
			ContainerSettings: map[string]any{
				"max_width": DefaultMaxWidth,
			},
		},
		AutoSave: AutoSaveConfig{Delay: DefaultAutoSaveDelay, Timeout: DefaultSaveTimeout},
		Storage:  StorageConfig{Driver: StorageMemory, Timeout: 10 * time.Second},
		Server:   ServerConfig{Address: ":9380", MetricsAddress: ":9381"},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads a YAML config file. ${VAR} references are expanded from
// the environment before parsing.
func LoadConfig(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Config{}, fmt.Errorf("%w: config path is required", ErrInvalidConfig)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("builder: read config %s: %w", path, err)
	}
	cfg, err := DecodeConfig(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	if err != nil {
		return Config{}, fmt.Errorf("builder: config %s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig parses a YAML config over DefaultConfig and validates it.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config for values the builder cannot work with.
func (c Config) Validate() error {
	if c.Layout.GridSystem < 1 {
		return fmt.Errorf("%w: layout.grid_system must be positive", ErrInvalidConfig)
	}
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for sqlite", ErrInvalidConfig)
		}
	case StorageHTTP:
		if c.Storage.BaseURL == "" {
			return fmt.Errorf("%w: storage.base_url is required for http", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	return nil
}

// ExporterOptions builds exporter options from the export section.
func (c Config) ExporterOptions() (ExporterOptions, error) {
	opts := ExporterOptions{}
	if c.Export.CacheTTL > 0 {
		opts.Cache = NewDocumentCache(c.Export.CacheTTL)
	}
	if c.Export.UseTemplate {
		renderer, err := NewTemplateRenderer()
		if err != nil {
			return ExporterOptions{}, fmt.Errorf("builder: template renderer: %w", err)
		}
		opts.Renderer = renderer
	}
	return opts, nil
}
