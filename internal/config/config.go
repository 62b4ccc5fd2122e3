// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"listkeep/backend"
	"listkeep/internal/utils"
)

//go:embed config.sample.yaml
var sampleConfig string

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "LISTKEEP_"

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// Config represents the application configuration
type Config struct {
	Backend        string         `yaml:"backend" env:"BACKEND"`
	StorageKey     string         `yaml:"storage_key" env:"STORAGE_KEY"`
	DuplicateLists string         `yaml:"duplicate_lists" env:"DUPLICATE_LISTS"`
	OutputFormat   string         `yaml:"output_format" env:"OUTPUT_FORMAT"`
	NoPrompt       bool           `yaml:"no_prompt" env:"NO_PROMPT"`
	Backends       BackendsConfig `yaml:"backends" envPrefix:"BACKENDS_"`
	Logging        LoggingConfig  `yaml:"logging" envPrefix:"LOGGING_"`
	UI             UIConfig       `yaml:"ui"`
}

// BackendsConfig holds configuration for all backends
type BackendsConfig struct {
	SQLite  SQLiteConfig  `yaml:"sqlite" envPrefix:"SQLITE_"`
	Bolt    BoltConfig    `yaml:"bolt" envPrefix:"BOLT_"`
	File    FileConfig    `yaml:"file" envPrefix:"FILE_"`
	Keyring KeyringConfig `yaml:"keyring" envPrefix:"KEYRING_"`
}

// SQLiteConfig holds SQLite backend configuration
type SQLiteConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// BoltConfig holds bbolt backend configuration
type BoltConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// FileConfig holds file backend configuration
type FileConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

// KeyringConfig holds system keyring backend configuration
type KeyringConfig struct {
	Service string `yaml:"service" env:"SERVICE"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Verbose           bool  `yaml:"verbose" env:"VERBOSE"`
	BackgroundEnabled *bool `yaml:"background_enabled"` // Controls background log file creation (default: true)
}

// UIConfig holds user interface settings
type UIConfig struct {
	WatchChanges *bool `yaml:"watch_changes"` // Reload on external changes (default: true)
}

var validBackends = []string{"bolt", "file", "keyring", "memory", "sqlite"}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.StorageKey == "" {
		c.StorageKey = "lists"
	}
	if c.DuplicateLists == "" {
		c.DuplicateLists = "reject"
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "text"
	}
	if c.Backends.SQLite.Path == "" {
		c.Backends.SQLite.Path = filepath.Join(GetDataDir(), "lists.db")
	}
	if c.Backends.Bolt.Path == "" {
		c.Backends.Bolt.Path = filepath.Join(GetDataDir(), "lists.bolt")
	}
	if c.Backends.File.Dir == "" {
		c.Backends.File.Dir = GetDataDir()
	}
	if c.Backends.Keyring.Service == "" {
		c.Backends.Keyring.Service = "listkeep"
	}
}

// DefaultConfigPath returns the config file used when no --config flag is given.
func DefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one from the sample config.
// Environment overrides are applied after the file is read.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	cfg := &Config{}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := saveSample(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in config file: %w", err)
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	cfg.Backends.SQLite.Path = ExpandPath(cfg.Backends.SQLite.Path)
	cfg.Backends.Bolt.Path = ExpandPath(cfg.Backends.Bolt.Path)
	cfg.Backends.File.Dir = ExpandPath(cfg.Backends.File.Dir)

	return cfg, nil
}

// ApplyEnv overrides cfg fields from LISTKEEP_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// saveSample writes the embedded sample config to path
func saveSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := utils.ValidateOutputFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}

	known := false
	for _, b := range validBackends {
		if c.Backend == b {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown backend: %q (must be one of %s)", c.Backend, strings.Join(validBackends, ", "))
	}

	switch c.DuplicateLists {
	case "reject", "allow":
	default:
		return fmt.Errorf("invalid duplicate_lists: %q (must be 'reject' or 'allow')", c.DuplicateLists)
	}

	if err := backend.ValidateKey(c.StorageKey); err != nil {
		return fmt.Errorf("invalid storage_key: %w", err)
	}

	switch c.Backend {
	case "sqlite":
		if c.Backends.SQLite.Path == "" {
			return utils.ErrBackendNotConfigured("sqlite")
		}
	case "bolt":
		if c.Backends.Bolt.Path == "" {
			return utils.ErrBackendNotConfigured("bolt")
		}
	case "file":
		if c.Backends.File.Dir == "" {
			return utils.ErrBackendNotConfigured("file")
		}
	}

	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(noPrompt, verbose bool, outputFormat, backendName string) {
	if noPrompt {
		c.NoPrompt = true
	}
	if verbose {
		c.Logging.Verbose = true
	}
	if outputFormat != "" {
		c.OutputFormat = outputFormat
	}
	if backendName != "" {
		c.Backend = strings.ToLower(backendName)
	}
}

// BackendOptions returns the settings passed to backend.Open.
func (c *Config) BackendOptions() backend.Options {
	return backend.Options{
		SQLitePath:     c.Backends.SQLite.Path,
		BoltPath:       c.Backends.Bolt.Path,
		FileDir:        c.Backends.File.Dir,
		KeyringService: c.Backends.Keyring.Service,
	}
}

// IsBackgroundLoggingEnabled returns true if background logging is enabled.
// Returns true (default) if not configured.
func (c *Config) IsBackgroundLoggingEnabled() bool {
	if c.Logging.BackgroundEnabled == nil {
		return true
	}
	return *c.Logging.BackgroundEnabled
}

// IsWatchChangesEnabled returns true if the TUI should reload on external changes.
// Returns true (default) if not configured.
func (c *Config) IsWatchChangesEnabled() bool {
	if c.UI.WatchChanges == nil {
		return true
	}
	return *c.UI.WatchChanges
}

// YAML renders the effective configuration.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "listkeep")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "listkeep")
	}
	return filepath.Join(home, fallbackPath, "listkeep")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
