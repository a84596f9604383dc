package goLink

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete store configuration.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Observe ObserveConfig `yaml:"observe"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// Layout selects how sessions are laid out over engine keys.
type Layout int

const (
	// LayoutUnified stores the full session records, scoped by owning URL,
	// under one key.
	LayoutUnified Layout = iota
	// LayoutSeparated stores the identifier list under one key and each
	// secret under a key derived from its identifier.
	LayoutSeparated
)

func (l Layout) String() string {
	switch l {
	case LayoutUnified:
		return "unified"
	case LayoutSeparated:
		return "separated"
	default:
		return "unknown"
	}
}

// UnmarshalYAML accepts "unified" or "separated".
func (l *Layout) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLayout(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLayout parses a layout name.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unified", "":
		return LayoutUnified, nil
	case "separated":
		return LayoutSeparated, nil
	default:
		return 0, fmt.Errorf("unknown storage layout %q", s)
	}
}

// Backend selects the engine Build creates when none is supplied.
type Backend int

const (
	// BackendMemory uses storage.MemoryEngine.
	BackendMemory Backend = iota
	// BackendRedis uses storage.RedisEngine.
	BackendRedis
	// BackendSQLite uses storage.SQLiteEngine.
	BackendSQLite
)

func (b Backend) String() string {
	switch b {
	case BackendMemory:
		return "memory"
	case BackendRedis:
		return "redis"
	case BackendSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// UnmarshalYAML accepts "memory", "redis" or "sqlite".
func (b *Backend) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseBackend(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBackend parses a backend name.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "memory", "":
		return BackendMemory, nil
	case "redis":
		return BackendRedis, nil
	case "sqlite":
		return BackendSQLite, nil
	default:
		return 0, fmt.Errorf("unknown storage backend %q", s)
	}
}

// StorageConfig controls key naming and engine selection.
type StorageConfig struct {
	Layout             Layout  `yaml:"layout"`
	KeyPrefix          string  `yaml:"key_prefix"`
	Backend            Backend `yaml:"backend"`
	RedisAddr          string  `yaml:"redis_addr"`
	RedisChannelPrefix string  `yaml:"redis_channel_prefix"`
	SQLitePath         string  `yaml:"sqlite_path"`
}

// ObserveConfig controls change feeds.
type ObserveConfig struct {
	// BufferSize is the capacity of each feed channel.
	BufferSize int `yaml:"buffer_size"`
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// LoggingConfig controls the logger built when none is supplied.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// DefaultConfig returns the baseline configuration: unified layout over an
// in-memory engine, audit and metrics off.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Layout:             LayoutUnified,
			KeyPrefix:          "walletlink.",
			Backend:            BackendMemory,
			RedisChannelPrefix: "golink:notify:",
		},
		Observe: ObserveConfig{
			BufferSize: 1,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
// Unknown fields are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := defaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values Build cannot honor.
func (c *Config) Validate() error {
	// Storage
	if c.Storage.Layout != LayoutUnified && c.Storage.Layout != LayoutSeparated {
		return errors.New("Storage Layout must be unified or separated")
	}
	if strings.TrimSpace(c.Storage.KeyPrefix) == "" {
		return errors.New("Storage KeyPrefix must not be empty")
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("Storage RedisAddr is required for the redis backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("Storage SQLitePath is required for the sqlite backend")
		}
	default:
		return errors.New("Storage Backend must be memory, redis or sqlite")
	}

	// Observe
	if c.Observe.BufferSize < 0 {
		return errors.New("Observe BufferSize must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown Logging Level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown Logging Format %q", c.Logging.Format)
	}

	return nil
}
