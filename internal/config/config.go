// Package config loads regwatch settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by every subcommand.
type Config struct {
	// DataDir holds the SQLite database and the search index.
	DataDir string `yaml:"data_dir"`
	// Listen is the serve subcommand's bind address.
	Listen string `yaml:"listen"`
	// WindowDays is the reporting window length for the change listing.
	WindowDays int `yaml:"window_days"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataDir:    "./data",
		Listen:     "localhost:6893",
		WindowDays: 7,
	}
}

// Load reads path and merges it over the defaults. A missing file is not an
// error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.WindowDays <= 0 {
		return cfg, fmt.Errorf("config %s: window_days must be positive", path)
	}

	return cfg, nil
}

// Window returns the reporting window as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// DBPath returns the SQLite database location under DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "regwatch.db")
}

// IndexPath returns the Bleve index location under DataDir.
func (c Config) IndexPath() string {
	return filepath.Join(c.DataDir, "bleve")
}
