// Package config loads and validates the datamodel.yaml tool configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up in the working
// directory when no explicit path is given.
const DefaultFileName = "datamodel.yaml"

// Config is the root configuration structure.
type Config struct {
	Schema   SchemaConfig      `yaml:"schema"`
	Server   ServerConfig      `yaml:"server"`
	Registry RegistryConfig    `yaml:"registry"`
	Watch    WatchConfig       `yaml:"watch"`
	Logging  LoggingConfig     `yaml:"logging"`
	Env      map[string]string `yaml:"env,omitempty"`
}

// SchemaConfig names the schema file commands operate on when no file
// argument is given.
type SchemaConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CacheSize    int           `yaml:"cache_size"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RegistryConfig configures the schema registry store.
type RegistryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchConfig configures file watching.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "trace", "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// Load reads, expands and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is present.
// DATAMODEL_* environment variables still apply.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg
}

// LoadWithFallback loads path when given, then datamodel.yaml from the
// working directory, and otherwise falls back to the defaults. An explicit
// path that cannot be loaded is an error.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return Load(DefaultFileName)
	}
	return Default(), nil
}

// EnvLookup returns the variable resolver for env() values in schemas.
// Entries from the env section shadow the process environment so a checked
// in configuration can pin connection strings for reproducible validation.
func (c *Config) EnvLookup() func(name string) (string, bool) {
	return func(name string) (string, bool) {
		if v, ok := c.Env[name]; ok {
			return v, true
		}
		return os.LookupEnv(name)
	}
}

// applyEnvOverrides applies DATAMODEL_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATAMODEL_SCHEMA_PATH"); v != "" {
		cfg.Schema.Path = v
	}

	if v := os.Getenv("DATAMODEL_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("DATAMODEL_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATAMODEL_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("DATAMODEL_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("DATAMODEL_SERVER_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.CacheSize = n
		}
	}

	if v := os.Getenv("DATAMODEL_REGISTRY_ENABLED"); v != "" {
		cfg.Registry.Enabled = parseBool(v)
	}
	if v := os.Getenv("DATAMODEL_REGISTRY_PATH"); v != "" {
		cfg.Registry.Path = v
	}

	if v := os.Getenv("DATAMODEL_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Watch.Debounce = d
		}
	}

	if v := os.Getenv("DATAMODEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DATAMODEL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
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
	if cfg.Server.CacheSize == 0 {
		cfg.Server.CacheSize = 128
	}

	if cfg.Registry.Path == "" {
		cfg.Registry.Path = "datamodel.db"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 250 * time.Millisecond
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.CacheSize < 0 {
		return fmt.Errorf("server.cache_size must not be negative, got %d", cfg.Server.CacheSize)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, got %q", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}
