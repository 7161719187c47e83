// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jeranaias/gatechat/internal/cloud"
	"github.com/jeranaias/gatechat/internal/storage"
	"github.com/jeranaias/gatechat/internal/threads"
	"github.com/jeranaias/gatechat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete gatechat configuration.
type Config struct {
	Version string `toml:"version"`

	// Storage selects where chats and the gate record live
	Storage StorageConfig `toml:"storage"`

	// API configures the completion endpoint
	API APIConfig `toml:"api"`

	// UI configures both terminal surfaces
	UI UIConfig `toml:"ui"`

	// Log configures the zerolog logger
	Log LogConfig `toml:"log"`
}

// StorageConfig contains persistence configuration.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory"
	Backend string `toml:"backend"`
	// Path overrides the data file; empty means a file under the config dir
	Path string `toml:"path"`
}

// APIConfig contains completion endpoint configuration.
type APIConfig struct {
	// BaseURL is the OpenAI-compatible API root
	BaseURL string `toml:"base_url"`
	// DefaultModel is used until the user picks a model in settings
	DefaultModel string `toml:"default_model"`
	// Temperature is sent with every request (0.0-2.0)
	Temperature float64 `toml:"temperature"`
	// RequestsPerMinute throttles outgoing requests; 0 means unlimited
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// RecentCount is how many threads the recent list shows
	RecentCount int `toml:"recent_count"`
	// Markdown renders assistant replies through glamour
	Markdown bool `toml:"markdown"`
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is a zerolog level name
	Level string `toml:"level"`
	// File is the log file; empty means gatechat.log under the config dir
	File string `toml:"file"`
	// Pretty switches to zerolog's console format
	Pretty bool `toml:"pretty"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Storage: StorageConfig{
			Backend: storage.BackendFile,
		},

		API: APIConfig{
			BaseURL:      cloud.DefaultBaseURL,
			DefaultModel: threads.DefaultModel,
			Temperature:  cloud.DefaultTemperature,
		},

		UI: UIConfig{
			RecentCount: 3,
			Markdown:    true,
			Theme:       "auto",
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// EnvHome names the variable that relocates the config directory.
const EnvHome = "GATECHAT_HOME"

// Dir returns the gatechat configuration directory path.
func Dir() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".gatechat"), nil
}

// PathTOML returns the path to the TOML config file.
func PathTOML() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StoragePath returns the data file for the configured backend.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == storage.BackendSQLite {
		return filepath.Join(dir, "data.db"), nil
	}
	return filepath.Join(dir, "data.json"), nil
}

// LogPath returns the log file path.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gatechat.log"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default location.
func Load() (*Config, error) {
	path, err := PathTOML()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from path. A missing file is not an error.
// .env files in the config dir and the working directory are read before
// environment overrides are applied.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env"); err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// loadDotEnv loads the given .env files if they exist. Variables already in
// the environment win.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := PathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# gatechat configuration file")
	fmt.Fprintln(&buf, "# Generated by gatechat - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// String returns the config as TOML, for `gatechat config show`.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("# error encoding config: %v\n", err)
	}
	return buf.String()
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("must be an http(s) URL, got '%s'", c.API.BaseURL),
		})
	}

	if c.API.Temperature < 0 || c.API.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "api.temperature",
			Message: fmt.Sprintf("must be 0.0-2.0, got %g", c.API.Temperature),
		})
	}

	if c.API.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.requests_per_minute",
			Message: fmt.Sprintf("must be 0 or more, got %d", c.API.RequestsPerMinute),
		})
	}

	if c.UI.RecentCount < 1 || c.UI.RecentCount > 50 {
		errs = append(errs, ValidationError{
			Field:   "ui.recent_count",
			Message: fmt.Sprintf("must be 1-50, got %d", c.UI.RecentCount),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults. Zero temperature is a valid
// setting and is left alone.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	c.API.BaseURL = strings.TrimSuffix(c.API.BaseURL, "/")
	if c.API.DefaultModel == "" {
		c.API.DefaultModel = d.API.DefaultModel
	}
	if c.UI.RecentCount == 0 {
		c.UI.RecentCount = d.UI.RecentCount
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GATECHAT_BACKEND: overrides storage.backend
//   - GATECHAT_DATA: overrides storage.path
//   - GATECHAT_BASE_URL: overrides api.base_url
//   - GATECHAT_MODEL: overrides api.default_model
//   - GATECHAT_TEMPERATURE: overrides api.temperature
//   - GATECHAT_RECENT: overrides ui.recent_count
//   - GATECHAT_MARKDOWN: set to "0" or "false" to disable markdown rendering
//   - GATECHAT_LOG_LEVEL: overrides log.level
//   - GATECHAT_LOG_FILE: overrides log.file
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("GATECHAT_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("GATECHAT_DATA"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("GATECHAT_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("GATECHAT_MODEL"); v != "" {
		c.API.DefaultModel = v
	}
	if v := os.Getenv("GATECHAT_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GATECHAT_TEMPERATURE: %w", err)
		}
		c.API.Temperature = t
	}
	if v := os.Getenv("GATECHAT_RECENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GATECHAT_RECENT: %w", err)
		}
		c.UI.RecentCount = n
	}
	if v := os.Getenv("GATECHAT_MARKDOWN"); v != "" {
		c.UI.Markdown = !(v == "0" || strings.EqualFold(v, "false"))
	}
	if v := os.Getenv("GATECHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GATECHAT_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	return nil
}
