package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/model"
)

// FileName is the conventional config file name.
const FileName = "tally.yaml"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Import   ImportConfig   `yaml:"import"`
	Banks    []BankConfig   `yaml:"banks,omitempty"`
}

// DatabaseConfig selects the ledger store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// ImportConfig controls statement imports.
type ImportConfig struct {
	Format   string `yaml:"format"`
	Locale   string `yaml:"locale"`
	Timezone string `yaml:"timezone"`
	// Vocabulary adds or overrides operation labels: label -> operation type
	// name (e.g. "card_payment").
	Vocabulary map[string]string `yaml:"vocabulary,omitempty"`
	Watch      WatchConfig       `yaml:"watch"`
}

// WatchConfig configures the import directory watcher.
type WatchConfig struct {
	Schedule string     `yaml:"schedule"`
	Dirs     []WatchDir `yaml:"dirs,omitempty"`
}

// WatchDir maps an import directory to an account.
type WatchDir struct {
	Path      string `yaml:"path"`
	AccountID uint   `yaml:"account_id"`
}

// BankConfig names a bank and the accounts to create under it.
type BankConfig struct {
	Name     string   `yaml:"name"`
	Accounts []string `yaml:"accounts"`
}

// Load reads a tally.yaml file from disk and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "tally.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Import: ImportConfig{
			Format:   "inteligo",
			Locale:   "pl",
			Timezone: "UTC",
			Watch: WatchConfig{
				Schedule: "@every 5m",
			},
		},
	}
}

// ApplyEnv overrides settings from TALLY_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("TALLY_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := getenv("TALLY_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := getenv("TALLY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("TALLY_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
}

// Location resolves the import time zone.
func (c ImportConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// VocabularyTypes resolves the configured labels to operation types.
func (c ImportConfig) VocabularyTypes() (map[string]model.OperationType, error) {
	out := make(map[string]model.OperationType, len(c.Vocabulary))
	for label, name := range c.Vocabulary {
		t, err := model.ParseOperationType(name)
		if err != nil {
			return nil, fmt.Errorf("vocabulary label %q: %w", label, err)
		}
		out[strings.TrimSpace(label)] = t
	}
	return out, nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
