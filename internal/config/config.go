package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/wantsync/internal/filesystem"
	"github.com/sydlexius/wantsync/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Discogs    DiscogsConfig    `yaml:"discogs"`
	Import     ImportConfig     `yaml:"import"`
	Database   DatabaseConfig   `yaml:"database"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DiscogsConfig holds API access settings.
type DiscogsConfig struct {
	Token          string `yaml:"token"`
	BaseURL        string `yaml:"base_url"`
	UserAgent      string `yaml:"user_agent"`
	MaxSearchPages int    `yaml:"max_search_pages"`
}

// ImportConfig holds defaults for an import run.
type ImportConfig struct {
	File       string        `yaml:"file"`
	Delimiter  string        `yaml:"delimiter"`
	Format     string        `yaml:"format"`
	Direction  string        `yaml:"direction"`
	Delay      time.Duration `yaml:"delay"`
	OutputPath string        `yaml:"output_path"`
	KeepQuotes bool          `yaml:"keep_quotes"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EncryptionConfig holds encryption key settings.
type EncryptionConfig struct {
	Key        string `yaml:"key"`
	Passphrase string `yaml:"passphrase"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// DefaultOutputPath is where diagnostics are mirrored when nothing else is
// configured.
const DefaultOutputPath = "wantsync_output.txt"

// DefaultDelay is the pause before each catalog call.
const DefaultDelay = 5 * time.Second

// Dir returns the per-user directory holding the config file and database.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	return filepath.Join(base, "wantsync")
}

// DefaultPath returns the config file location, honoring WS_CONFIG_PATH.
func DefaultPath() string {
	if v := os.Getenv("WS_CONFIG_PATH"); v != "" {
		return v
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Discogs: DiscogsConfig{
			MaxSearchPages: 5,
		},
		Import: ImportConfig{
			Delimiter:  ",",
			Direction:  "add",
			Delay:      DefaultDelay,
			OutputPath: DefaultOutputPath,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(Dir(), "wantsync.db"),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from flag or env
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Save writes the configuration as YAML, replacing any existing file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return filesystem.WriteFileAtomic(path, data, 0o600)
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv("WS_DISCOGS_TOKEN"); v != "" {
		c.Discogs.Token = v
	}
	if v := os.Getenv("WS_DISCOGS_BASE_URL"); v != "" {
		c.Discogs.BaseURL = v
	}
	if v := os.Getenv("WS_USER_AGENT"); v != "" {
		c.Discogs.UserAgent = v
	}
	if v := os.Getenv("WS_MAX_SEARCH_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WS_MAX_SEARCH_PAGES: %w", err)
		}
		c.Discogs.MaxSearchPages = n
	}
	if v := os.Getenv("WS_FORMAT"); v != "" {
		c.Import.Format = v
	}
	if v := os.Getenv("WS_DELIMITER"); v != "" {
		c.Import.Delimiter = v
	}
	if v := os.Getenv("WS_DIRECTION"); v != "" {
		c.Import.Direction = v
	}
	if v := os.Getenv("WS_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WS_DELAY: %w", err)
		}
		c.Import.Delay = d
	}
	if v := os.Getenv("WS_OUTPUT_PATH"); v != "" {
		c.Import.OutputPath = v
	}
	if v := os.Getenv("WS_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("WS_ENCRYPTION_KEY"); v != "" {
		c.Encryption.Key = v
	}
	if v := os.Getenv("WS_PASSPHRASE"); v != "" {
		c.Encryption.Passphrase = v
	}
	if v := os.Getenv("WS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("WS_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("WS_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
	return nil
}

// Validate checks the configuration. The cmd layer calls it again after
// applying flags.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Import.Delimiter != "" {
		if _, err := ParseDelimiter(c.Import.Delimiter); err != nil {
			return err
		}
	}
	switch c.Import.Direction {
	case "", "add", "remove":
	default:
		return fmt.Errorf("invalid direction: %q", c.Import.Direction)
	}
	if c.Import.Delay < 0 {
		return fmt.Errorf("delay must not be negative: %s", c.Import.Delay)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	if c.Discogs.MaxSearchPages < 0 {
		return fmt.Errorf("invalid max_search_pages: %d", c.Discogs.MaxSearchPages)
	}
	return nil
}

// ParseDelimiter returns the single field delimiter in s. Whitespace is
// rejected because lines are whitespace-collapsed before they are split.
func ParseDelimiter(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if unicode.IsSpace(r) {
		return 0, fmt.Errorf("delimiter must not be whitespace, got %q", s)
	}
	return r, nil
}

// DelimiterRune returns the configured delimiter, defaulting to a comma.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Import.Delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}
