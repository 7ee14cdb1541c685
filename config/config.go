// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	Schema  SchemaConfig  `yaml:"schema"`
	Docs    DocsConfig    `yaml:"docs"`
	Seed    SeedConfig    `yaml:"seed"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// Addr returns the host:port string the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// APIConfig describes the service identity reported in schema documents,
// the health payload, and /version.
type APIConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Region  string `yaml:"region,omitempty"`
}

// StoreConfig configures user persistence.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "memory" or "sqlite"
	DSN    string `yaml:"dsn"`
}

// SchemaConfig configures canonical schema document export.
type SchemaConfig struct {
	ExportPath string `yaml:"export_path,omitempty"` // write schema.json here on startup
}

// DocsConfig configures the Swagger UI.
type DocsConfig struct {
	Enabled bool `yaml:"enabled"` // Serve interactive docs at /docs
}

// SeedConfig controls demo data.
type SeedConfig struct {
	DemoData bool `yaml:"demo_data"` // Insert demo users into an empty store
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	SCHEMAWIRE_SERVER_HOST        - Server host (default: 0.0.0.0)
//	SCHEMAWIRE_SERVER_PORT        - Server port (default: 8080)
//	SCHEMAWIRE_STORE_DRIVER       - Store driver: memory or sqlite (default: memory)
//	SCHEMAWIRE_STORE_DSN          - SQLite database path (default: schemawire.db)
//	SCHEMAWIRE_API_NAME           - Service name reported in documents (default: schemawire)
//	SCHEMAWIRE_API_VERSION        - Service version reported in documents (default: dev)
//	SCHEMAWIRE_API_REGION         - Deployment region reported by /health
//	SCHEMAWIRE_LOG_LEVEL          - Log level: debug, info, warn, error (default: info)
//	SCHEMAWIRE_LOG_FORMAT         - Log format: json or console (default: json)
//	SCHEMAWIRE_METRICS_ENABLED    - Enable /metrics endpoint (default: false)
//	SCHEMAWIRE_DOCS_ENABLED       - Enable Swagger UI at /docs (default: false)
//	SCHEMAWIRE_SEED_DEMO_DATA     - Seed demo users into an empty store (default: false)
//	SCHEMAWIRE_SCHEMA_EXPORT_PATH - Write schema.json to this path on startup
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables. Every field has a working default, so the fallback never
// fails on missing settings.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return LoadFromEnv()
}

// Default returns the configuration used when neither a file nor
// environment variables are present.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

// applyEnvOverrides applies SCHEMAWIRE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("SCHEMAWIRE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SCHEMAWIRE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SCHEMAWIRE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("SCHEMAWIRE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("SCHEMAWIRE_SERVER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}
	if v := os.Getenv("SCHEMAWIRE_SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("SCHEMAWIRE_SERVER_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = n
		}
	}

	// API identity
	if v := os.Getenv("SCHEMAWIRE_API_NAME"); v != "" {
		cfg.API.Name = v
	}
	if v := os.Getenv("SCHEMAWIRE_API_VERSION"); v != "" {
		cfg.API.Version = v
	}
	if v := os.Getenv("SCHEMAWIRE_API_REGION"); v != "" {
		cfg.API.Region = v
	}

	// Store configuration
	if v := os.Getenv("SCHEMAWIRE_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("SCHEMAWIRE_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}

	// Schema export
	if v := os.Getenv("SCHEMAWIRE_SCHEMA_EXPORT_PATH"); v != "" {
		cfg.Schema.ExportPath = v
	}

	// Docs configuration
	if v := os.Getenv("SCHEMAWIRE_DOCS_ENABLED"); v != "" {
		cfg.Docs.Enabled = parseBool(v)
	}

	// Seed configuration
	if v := os.Getenv("SCHEMAWIRE_SEED_DEMO_DATA"); v != "" {
		cfg.Seed.DemoData = parseBool(v)
	}

	// Logging configuration
	if v := os.Getenv("SCHEMAWIRE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SCHEMAWIRE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("SCHEMAWIRE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("SCHEMAWIRE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}

	if cfg.API.Name == "" {
		cfg.API.Name = "schemawire"
	}
	if cfg.API.Version == "" {
		cfg.API.Version = "dev"
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.DSN == "" {
		cfg.Store.DSN = "schemawire.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	validDrivers := map[string]bool{"memory": true, "sqlite": true}
	if !validDrivers[cfg.Store.Driver] {
		return fmt.Errorf("store.driver must be 'memory' or 'sqlite', got %q", cfg.Store.Driver)
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required when store.driver is 'sqlite'")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}
