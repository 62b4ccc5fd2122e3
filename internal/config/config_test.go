package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"listkeep/internal/utils"
)

// setupXDG points every XDG directory into a temp dir and clears overrides.
func setupXDG(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "data"))
	t.Setenv("HOME", tmpDir)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvPrefix) {
			t.Setenv(strings.SplitN(kv, "=", 2)[0], "")
		}
	}
	return tmpDir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// TestConfigAutoCreate verifies first run creates config file at XDG path with defaults
func TestConfigAutoCreate(t *testing.T) {
	tmpDir := setupXDG(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, "config", "listkeep", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file not created at %s: %v", configPath, err)
	}
	if string(data) != GetSampleConfig() {
		t.Error("created config should be the sample config")
	}

	if cfg.Backend != "sqlite" {
		t.Errorf("expected Backend = 'sqlite', got %q", cfg.Backend)
	}
	if cfg.StorageKey != "lists" {
		t.Errorf("expected StorageKey = 'lists', got %q", cfg.StorageKey)
	}
	if cfg.DuplicateLists != "reject" {
		t.Errorf("expected DuplicateLists = 'reject', got %q", cfg.DuplicateLists)
	}
	if cfg.OutputFormat != "text" {
		t.Errorf("expected OutputFormat = 'text', got %q", cfg.OutputFormat)
	}
	wantDB := filepath.Join(tmpDir, "data", "listkeep", "lists.db")
	if cfg.Backends.SQLite.Path != wantDB {
		t.Errorf("expected sqlite path %q, got %q", wantDB, cfg.Backends.SQLite.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestSampleConfigParses verifies the embedded sample is valid YAML matching the defaults
func TestSampleConfigParses(t *testing.T) {
	setupXDG(t)

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(GetSampleConfig()), cfg); err != nil {
		t.Fatalf("sample config is not valid YAML: %v", err)
	}
	cfg.applyDefaults()

	def := DefaultConfig()
	if cfg.Backend != def.Backend || cfg.StorageKey != def.StorageKey ||
		cfg.DuplicateLists != def.DuplicateLists || cfg.OutputFormat != def.OutputFormat {
		t.Errorf("sample config disagrees with defaults: %+v vs %+v", cfg, def)
	}
	if !cfg.IsBackgroundLoggingEnabled() || !cfg.IsWatchChangesEnabled() {
		t.Error("sample config should enable background logging and change watching")
	}
}

// TestConfigCustomPath verifies --config /path/to/config.yaml uses specified config
func TestConfigCustomPath(t *testing.T) {
	setupXDG(t)
	path := writeConfig(t, `
backend: bolt
storage_key: shopping
duplicate_lists: allow
output_format: json
no_prompt: true
backends:
  bolt:
    path: /custom/lists.bolt
logging:
  verbose: true
  background_enabled: false
ui:
  watch_changes: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error = %v", path, err)
	}

	if cfg.Backend != "bolt" {
		t.Errorf("expected Backend = 'bolt', got %q", cfg.Backend)
	}
	if cfg.StorageKey != "shopping" {
		t.Errorf("expected StorageKey = 'shopping', got %q", cfg.StorageKey)
	}
	if cfg.DuplicateLists != "allow" {
		t.Errorf("expected DuplicateLists = 'allow', got %q", cfg.DuplicateLists)
	}
	if !cfg.NoPrompt || cfg.OutputFormat != "json" || !cfg.Logging.Verbose {
		t.Errorf("unexpected flags: %+v", cfg)
	}
	if cfg.BackendOptions().BoltPath != "/custom/lists.bolt" {
		t.Errorf("expected bolt path passed through, got %q", cfg.BackendOptions().BoltPath)
	}
	if cfg.IsBackgroundLoggingEnabled() {
		t.Error("expected background logging disabled")
	}
	if cfg.IsWatchChangesEnabled() {
		t.Error("expected change watching disabled")
	}
}

// TestConfigInvalidYAML verifies a parse error is reported
func TestConfigInvalidYAML(t *testing.T) {
	setupXDG(t)
	path := writeConfig(t, "backend: [unterminated\n")

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "invalid YAML") {
		t.Errorf("expected invalid YAML error, got %v", err)
	}
}

// TestConfigEnvOverrides verifies LISTKEEP_* variables win over the file
func TestConfigEnvOverrides(t *testing.T) {
	tmpDir := setupXDG(t)
	path := writeConfig(t, "backend: sqlite\nduplicate_lists: reject\n")

	dbPath := filepath.Join(tmpDir, "env.db")
	t.Setenv("LISTKEEP_BACKEND", "file")
	t.Setenv("LISTKEEP_DUPLICATE_LISTS", "allow")
	t.Setenv("LISTKEEP_STORAGE_KEY", "env-lists")
	t.Setenv("LISTKEEP_NO_PROMPT", "true")
	t.Setenv("LISTKEEP_BACKENDS_SQLITE_PATH", dbPath)
	t.Setenv("LISTKEEP_BACKENDS_FILE_DIR", filepath.Join(tmpDir, "files"))
	t.Setenv("LISTKEEP_BACKENDS_KEYRING_SERVICE", "env-service")
	t.Setenv("LISTKEEP_LOGGING_VERBOSE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend != "file" {
		t.Errorf("expected Backend = 'file', got %q", cfg.Backend)
	}
	if cfg.DuplicateLists != "allow" {
		t.Errorf("expected DuplicateLists = 'allow', got %q", cfg.DuplicateLists)
	}
	if cfg.StorageKey != "env-lists" {
		t.Errorf("expected StorageKey = 'env-lists', got %q", cfg.StorageKey)
	}
	if !cfg.NoPrompt || !cfg.Logging.Verbose {
		t.Errorf("expected bool overrides applied: %+v", cfg)
	}
	opts := cfg.BackendOptions()
	if opts.SQLitePath != dbPath {
		t.Errorf("expected sqlite path %q, got %q", dbPath, opts.SQLitePath)
	}
	if opts.FileDir != filepath.Join(tmpDir, "files") {
		t.Errorf("unexpected file dir %q", opts.FileDir)
	}
	if opts.KeyringService != "env-service" {
		t.Errorf("unexpected keyring service %q", opts.KeyringService)
	}
}

// TestConfigEnvInvalidBool verifies malformed env values are reported
func TestConfigEnvInvalidBool(t *testing.T) {
	setupXDG(t)
	path := writeConfig(t, "backend: sqlite\n")
	t.Setenv("LISTKEEP_NO_PROMPT", "maybe")

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Errorf("expected parse env error, got %v", err)
	}
}

// TestConfigExpandsPaths verifies ~ and $VARS in backend paths
func TestConfigExpandsPaths(t *testing.T) {
	tmpDir := setupXDG(t)
	t.Setenv("LISTS_ROOT", filepath.Join(tmpDir, "root"))
	path := writeConfig(t, `
backends:
  sqlite:
    path: ~/db/lists.db
  file:
    dir: $LISTS_ROOT/files
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backends.SQLite.Path != filepath.Join(tmpDir, "db", "lists.db") {
		t.Errorf("unexpected sqlite path %q", cfg.Backends.SQLite.Path)
	}
	if cfg.Backends.File.Dir != filepath.Join(tmpDir, "root", "files") {
		t.Errorf("unexpected file dir %q", cfg.Backends.File.Dir)
	}
}

// TestConfigValidate covers each rejected value
func TestConfigValidate(t *testing.T) {
	setupXDG(t)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"memory backend", func(c *Config) { c.Backend = "memory" }, ""},
		{"bad output", func(c *Config) { c.OutputFormat = "xml" }, "invalid output_format"},
		{"bad backend", func(c *Config) { c.Backend = "todoist" }, "unknown backend"},
		{"bad duplicates", func(c *Config) { c.DuplicateLists = "merge" }, "invalid duplicate_lists"},
		{"bad key", func(c *Config) { c.StorageKey = "../lists" }, "invalid storage_key"},
		{"blank key", func(c *Config) { c.StorageKey = " " }, "invalid storage_key"},
		{"missing sqlite path", func(c *Config) { c.Backends.SQLite.Path = "" }, "backend not configured: sqlite"},
		{"missing bolt path", func(c *Config) { c.Backend = "bolt"; c.Backends.Bolt.Path = "" }, "backend not configured: bolt"},
		{"missing file dir", func(c *Config) { c.Backend = "file"; c.Backends.File.Dir = "" }, "backend not configured: file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// TestConfigValidateMissingPathSuggestion verifies the user-facing suggestion
func TestConfigValidateMissingPathSuggestion(t *testing.T) {
	setupXDG(t)
	cfg := DefaultConfig()
	cfg.Backends.SQLite.Path = ""

	var ews *utils.ErrorWithSuggestion
	if err := cfg.Validate(); !errors.As(err, &ews) {
		t.Fatalf("expected ErrorWithSuggestion, got %T", err)
	}
}

// TestApplyFlags verifies flags override config values only when set
func TestApplyFlags(t *testing.T) {
	setupXDG(t)
	cfg := DefaultConfig()

	cfg.ApplyFlags(false, false, "", "")
	if cfg.NoPrompt || cfg.Logging.Verbose || cfg.OutputFormat != "text" || cfg.Backend != "sqlite" {
		t.Errorf("empty flags should not change config: %+v", cfg)
	}

	cfg.ApplyFlags(true, true, "json", "BOLT")
	if !cfg.NoPrompt || !cfg.Logging.Verbose || cfg.OutputFormat != "json" || cfg.Backend != "bolt" {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

// TestConfigYAML verifies the effective config renders back to YAML
func TestConfigYAML(t *testing.T) {
	setupXDG(t)
	out, err := DefaultConfig().YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	for _, want := range []string{"backend: sqlite", "storage_key: lists", "duplicate_lists: reject"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML output should contain %q, got:\n%s", want, out)
		}
	}
}

// TestXDGDirs verifies directories are namespaced under listkeep
func TestXDGDirs(t *testing.T) {
	tmpDir := setupXDG(t)

	if got := GetConfigDir(); got != filepath.Join(tmpDir, "config", "listkeep") {
		t.Errorf("GetConfigDir() = %q", got)
	}
	if got := GetDataDir(); got != filepath.Join(tmpDir, "data", "listkeep") {
		t.Errorf("GetDataDir() = %q", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join(tmpDir, "config", "listkeep", "config.yaml") {
		t.Errorf("DefaultConfigPath() = %q", got)
	}

	t.Setenv("XDG_DATA_HOME", "")
	if got := GetDataDir(); got != filepath.Join(tmpDir, ".local", "share", "listkeep") {
		t.Errorf("GetDataDir() fallback = %q", got)
	}
}
