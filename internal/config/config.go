// Package config manages the .aivc directory structure and repository
// configuration. It handles loading, saving, and initializing the
// configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	AppDir     = ".aivc"
	ConfigFile = "config"
	LedgerFile = "audit.db"
	GraphFile  = "versions.db"
)

// Config represents the repository configuration.
type Config struct {
	DefaultAuthor string `toml:"default_author"`
	ReviewWebhook string `toml:"review_webhook,omitempty"` // external review-notification collaborator
	path          string // path to the .aivc directory
}

// FindRoot finds the .aivc directory by walking up from the current
// directory.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, AppDir)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not an aivc repository (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration from the .aivc directory.
func Load() (*Config, error) {
	path, err := FindRoot()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(path, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = path
	return &cfg, nil
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(c.path, ConfigFile), data, 0644)
}

// Path returns the path to the .aivc directory.
func (c *Config) Path() string {
	return c.path
}

// LedgerPath returns the path to the operation ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.path, LedgerFile)
}

// GraphPath returns the path to the version graph database.
func (c *Config) GraphPath() string {
	return filepath.Join(c.path, GraphFile)
}

// Initialize creates a new .aivc directory with initial configuration.
func Initialize(defaultAuthor string) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(cwd, AppDir)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("aivc repository already exists")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", AppDir, err)
	}

	cfg := &Config{
		DefaultAuthor: defaultAuthor,
		path:          path,
	}
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}
